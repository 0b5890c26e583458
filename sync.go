package aura

import "github.com/Wedmer/aura/aerrors"

// WaitStatus blocks, dispatching node's event loop (auto-creating one if
// node isn't bound to any), until node's status equals desired. Matches
// aura_wait_status.
func WaitStatus(node *Node, desired Status) {
	if node.Status() == desired {
		return
	}
	node.waitingForStatus = true
	node.desiredStatus = desired
	loop := node.ensureLoop()
	for node.Status() != desired {
		loop.dispatchOnce()
	}
	node.waitingForStatus = false
}

// Call issues a synchronous call by name: it blocks (dispatching node's
// loop) until the call completes, times out, or fails with a transport
// error. ret receives the return buffer; the caller must release it.
// Reentrant synchronous calls on the same node return SYNC-IN-PROGRESS.
func Call(node *Node, name string, ret **Buffer, args ...interface{}) (CallStatus, error) {
	return syncCall(node, func(cb CallDoneFunc) error {
		return StartCall(node, name, cb, nil, args...)
	}, ret)
}

// CallRaw is the id-addressed variant of Call.
func CallRaw(node *Node, id int, ret **Buffer, args ...interface{}) (CallStatus, error) {
	return syncCall(node, func(cb CallDoneFunc) error {
		return StartCallRaw(node, id, cb, nil, args...)
	}, ret)
}

func syncCall(node *Node, start func(CallDoneFunc) error, ret *(*Buffer)) (CallStatus, error) {
	if node.syncCallRunning {
		return 0, aerrors.New(aerrors.SyncInProgress, "a synchronous call is already in progress on this node")
	}
	node.syncCallRunning = true
	if err := start(syncCompletion); err != nil {
		node.syncCallRunning = false
		return 0, err
	}
	loop := node.ensureLoop()
	for node.syncCallRunning {
		loop.dispatchOnce()
	}
	*ret = node.syncRetBuf
	node.syncRetBuf = nil
	return node.syncCallResult, nil
}

// syncCompletion is the internal completion callback used by the
// synchronous call helpers. It writes the result into the node's scratch
// slot before clearing sync_call_running, preserving the ordering bindings
// rely on to observe the status from within a wrapping callback
// (spec §9, open question 3).
func syncCompletion(node *Node, status CallStatus, ret *Buffer, arg interface{}) {
	node.syncCallResult = status
	node.syncRetBuf = ret
	node.syncCallRunning = false
}

// EnableSyncEvents enables a bounded ring buffer of count pending events,
// used by callers that poll via GetNextEvent instead of registering event
// callbacks. Events arriving once the ring is full are dropped (and their
// buffers released).
func (n *Node) EnableSyncEvents(count int) {
	n.syncEventMax = count
	n.syncEvents = n.syncEvents[:0]
}

func (n *Node) pushSyncEvent(obj *Object, buf *Buffer) {
	if len(n.syncEvents) >= n.syncEventMax {
		log().Debugw("aura: sync event ring full, dropping event", "object", obj.Name)
		n.bufferRelease(buf)
		return
	}
	n.syncEvents = append(n.syncEvents, syncEvent{object: obj, buf: buf})
}

// GetPendingEvents reports how many events are waiting in the sync ring.
func (n *Node) GetPendingEvents() int { return len(n.syncEvents) }

// GetNextEvent pops the oldest pending event from the sync ring. The
// caller must release the returned buffer.
func (n *Node) GetNextEvent() (*Object, *Buffer, bool) {
	if len(n.syncEvents) == 0 {
		return nil, nil, false
	}
	ev := n.syncEvents[0]
	n.syncEvents = n.syncEvents[1:]
	return ev.object, ev.buf, true
}
