package aura

import "testing"

func echoingTransport() *Transport {
	return &Transport{
		Name: "test-echo",
		Open: func(n *Node, opts string) error { return nil },
		Close: func(n *Node) {},
		HandleEvent: func(n *Node, ev Event, fd *PollFD) {
			if ev == EventStarted {
				return
			}
			for {
				buf := n.DequeueOutbound()
				if buf == nil {
					return
				}
				obj := buf.Object
				reply := n.BufferRequest(obj.RetLen())
				reply.Object = obj
				dst := reply.Bytes()[reply.Offset : reply.Offset+obj.RetLen()]
				cn := copy(dst, buf.Payload())
				for i := cn; i < len(dst); i++ {
					dst[i] = 0
				}
				reply.PayloadSize = obj.RetLen()
				n.BufferRelease(buf)
				n.QueueInbound(reply)
			}
		},
	}
}

func blackholeTransport() *Transport {
	return &Transport{
		Name:        "test-blackhole",
		Open:        func(n *Node, opts string) error { return nil },
		Close:       func(n *Node) {},
		HandleEvent: func(n *Node, ev Event, fd *PollFD) {},
	}
}

func newOnlineNode(tr *Transport) *Node {
	n := newTestNode()
	n.transport = tr
	n.status.Store(int32(StatusOnline))
	n.peerEndian = HostEndianness()
	return n
}

// TestCallsCompleteInSubmissionOrder covers spec property #5 / scenario
// S4: K calls queued against the same object complete in the order they
// were submitted, even though each completion is produced by a separate
// round through the transport.
func TestCallsCompleteInSubmissionOrder(t *testing.T) {
	n := newOnlineNode(echoingTransport())
	table := NewExportTable(1)
	table.Add("echo", "3", "3")
	if err := n.ActivateTable(table); err != nil {
		t.Fatalf("activate table: %v", err)
	}

	var order []uint32
	for i := uint32(0); i < 5; i++ {
		v := i
		err := StartCall(n, "echo", func(node *Node, status CallStatus, ret *Buffer, arg interface{}) {
			order = append(order, v)
			if ret != nil {
				node.BufferRelease(ret)
			}
		}, nil, v)
		if err != nil {
			t.Fatalf("start call %d: %v", i, err)
		}
	}
	n.drainInbound()

	if len(order) != 5 {
		t.Fatalf("got %d completions, want 5", len(order))
	}
	for i, v := range order {
		if v != uint32(i) {
			t.Fatalf("completion order = %v, want 0,1,2,3,4", order)
		}
	}
}

// TestOfflineCancelsAllPending covers spec property #6 / scenario S6: a
// transport going OFFLINE while calls are outstanding fails every one of
// them with CallTransportFail exactly once.
func TestOfflineCancelsAllPending(t *testing.T) {
	n := newOnlineNode(blackholeTransport())
	table := NewExportTable(1)
	table.Add("echo", "3", "3")
	if err := n.ActivateTable(table); err != nil {
		t.Fatalf("activate table: %v", err)
	}

	var statuses []CallStatus
	for i := uint32(0); i < 3; i++ {
		err := StartCall(n, "echo", func(node *Node, status CallStatus, ret *Buffer, arg interface{}) {
			statuses = append(statuses, status)
		}, nil, i)
		if err != nil {
			t.Fatalf("start call %d: %v", i, err)
		}
	}

	n.SetStatus(StatusOffline)

	if len(statuses) != 3 {
		t.Fatalf("got %d completions, want 3", len(statuses))
	}
	for _, s := range statuses {
		if s != CallTransportFail {
			t.Fatalf("status = %v, want CallTransportFail", s)
		}
	}

	// A second OFFLINE->OFFLINE transition must not re-fire anything.
	statuses = nil
	n.SetStatus(StatusOffline)
	if len(statuses) != 0 {
		t.Fatalf("idempotent SetStatus re-fired %d completions", len(statuses))
	}
}

func TestQueueCallRejectsOfflineNode(t *testing.T) {
	n := newOnlineNode(blackholeTransport())
	table := NewExportTable(1)
	table.Add("echo", "3", "3")
	if err := n.ActivateTable(table); err != nil {
		t.Fatalf("activate table: %v", err)
	}
	n.SetStatus(StatusOffline)

	err := StartCall(n, "echo", nil, nil, uint32(1))
	if err == nil {
		t.Fatalf("expected error starting a call on an offline node")
	}
}
