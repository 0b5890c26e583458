// Package dummy provides a loopback transport that echoes every queued
// call back as its own completion. It exists purely as a reference
// plug-in and as the fixture the S1-S6 scenarios in SPEC_FULL.md run
// against — it performs no real I/O and needs no descriptors or timers.
package dummy

import "github.com/Wedmer/aura"

// Name is the registry key this transport installs itself under.
const Name = "dummy"

// Register installs the dummy transport into the process-wide registry.
// Call it once at program (or test) start, e.g. from transports/index.
func Register() error {
	return aura.RegisterTransport(&aura.Transport{
		Name:        Name,
		Open:        open,
		Close:       close_,
		HandleEvent: handleEvent,
	})
}

func open(node *aura.Node, opts string) error {
	// A real transport would parse opts (host:port, device path, ...)
	// here. The loopback has nothing to configure.
	node.SetStatus(aura.StatusOnline)
	return nil
}

func close_(node *aura.Node) {
	node.SetStatus(aura.StatusOffline)
}

// handleEvent is the workhorse: for every event except EventStarted (the
// loopback has no descriptors of its own to react to, so it treats them
// all alike) it drains the outbound queue, building a reply buffer for
// every queued method call and feeding it straight back into the inbound
// queue.
func handleEvent(node *aura.Node, event aura.Event, fd *aura.PollFD) {
	if event == aura.EventStarted {
		return
	}
	for {
		buf := node.DequeueOutbound()
		if buf == nil {
			return
		}
		obj := buf.Object
		reply := node.BufferRequest(obj.RetLen())
		reply.Object = obj

		src := buf.Payload()
		dst := reply.Bytes()[reply.Offset : reply.Offset+obj.RetLen()]
		n := copy(dst, src)
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
		reply.PayloadSize = obj.RetLen()

		node.BufferRelease(buf)
		node.QueueInbound(reply)
	}
}
