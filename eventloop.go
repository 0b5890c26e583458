package aura

import (
	"container/heap"
	"time"
)

const defaultPollTimeout = 200 * time.Millisecond

// EventLoop is the single-threaded cooperative scheduler multiplexing
// nodes, timers, and descriptors (spec §4.8). A Node belongs to at most
// one loop.
type EventLoop struct {
	nodes []*Node
	p     poller

	timers timerHeap
	fdNode map[int]*Node

	pollTimeout time.Duration

	exitRequested bool
	exitAt        time.Time
}

// CreateEmptyEventLoop creates a loop with no nodes bound yet.
func CreateEmptyEventLoop() (*EventLoop, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	return &EventLoop{
		p:           p,
		fdNode:      map[int]*Node{},
		pollTimeout: defaultPollTimeout,
	}, nil
}

// CreateEventLoop creates a loop and binds every node passed to it,
// matching the aura_eventloop_create(...) variadic macro from the source.
func CreateEventLoop(nodes ...*Node) (*EventLoop, error) {
	loop, err := CreateEmptyEventLoop()
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		loop.Add(n)
	}
	return loop, nil
}

func (n *Node) ensureLoop() *EventLoop {
	if n.loop != nil {
		return n.loop
	}
	loop, err := CreateEmptyEventLoop()
	if err != nil {
		Panic(n, "failed to auto-create event loop: %v", err)
	}
	loop.Add(n)
	n.loopIsAutocreated = true
	return n.loop
}

// Add binds node to loop. Panics if node is already bound to a different,
// non-autocreated loop (spec §4.8 "Adding a node").
func (loop *EventLoop) Add(node *Node) {
	if node.loop != nil {
		if !node.loopIsAutocreated {
			Panic(node, "node is already bound to an event loop")
		}
		node.loop.destroySilently()
	}

	loop.nodes = append(loop.nodes, node)
	node.loop = loop
	node.loopIsAutocreated = false

	for _, pf := range node.pollfds {
		loop.registerFD(node, pf)
	}

	for _, t := range node.timers {
		if t.isActive {
			loop.scheduleTimer(t)
		}
	}
}

// Del unbinds node from its loop: stops its timers (preserving their
// armed flag so re-adding the node restores them), removes its
// descriptors from the poll set, and detaches the fd-changed callback.
// Does not close the node.
func (loop *EventLoop) Del(node *Node) {
	if node.loop != loop {
		return
	}
	for _, t := range node.timers {
		if t.isActive {
			loop.unscheduleTimer(t)
			t.isActive = true
		}
	}
	for _, pf := range node.pollfds {
		loop.p.remove(pf.FD)
		delete(loop.fdNode, pf.FD)
	}
	for i, n := range loop.nodes {
		if n == node {
			loop.nodes = append(loop.nodes[:i], loop.nodes[i+1:]...)
			break
		}
	}
	node.fdChangedCB, node.fdChangedArg = nil, nil
	node.loop = nil
}

// destroySilently tears loop down without requiring its nodes to close,
// used when a node migrates off its auto-created loop.
func (loop *EventLoop) destroySilently() {
	for _, n := range append([]*Node{}, loop.nodes...) {
		loop.Del(n)
	}
	loop.p.close()
}

// Destroy tears down loop, detaching (not closing) every bound node.
func (loop *EventLoop) Destroy() {
	loop.destroySilently()
}

func (loop *EventLoop) registerFD(node *Node, pf *PollFD) {
	if err := loop.p.add(pf.FD, pf.Events); err != nil {
		log().Warnw("aura: failed to register descriptor", "fd", pf.FD, "err", err)
		return
	}
	loop.fdNode[pf.FD] = node
}

func (loop *EventLoop) scheduleTimer(t *Timer) {
	heap.Push(&loop.timers, t)
}

func (loop *EventLoop) unscheduleTimer(t *Timer) {
	if t.heapIdx < 0 || t.heapIdx >= len(loop.timers) {
		return
	}
	heap.Remove(&loop.timers, t.heapIdx)
}

// LoopExit requests that dispatch stop, either immediately (tv == 0) or
// once tv has elapsed.
func (loop *EventLoop) LoopExit(tv time.Duration) {
	loop.exitRequested = true
	loop.exitAt = time.Now().Add(tv)
}

// Dispatch runs one iteration of the loop algorithm (spec §4.8) if once is
// true, returning as soon as it completes (or immediately, if a node is
// waiting for a status change during its STARTED event). If once is
// false it calls DispatchForever instead.
func (loop *EventLoop) Dispatch(once bool) {
	if !once {
		loop.DispatchForever()
		return
	}
	loop.dispatchOnce()
}

// DispatchForever runs the loop algorithm until LoopExit is called.
func (loop *EventLoop) DispatchForever() {
	loop.exitRequested = false
	for {
		if loop.dispatchOnce() {
			return
		}
		if loop.exitRequested && !time.Now().Before(loop.exitAt) {
			return
		}
	}
}

// dispatchOnce runs one pass of the §4.8 algorithm. It returns true if the
// caller should stop dispatching immediately (a node started and is now
// waiting synchronously for a status change).
func (loop *EventLoop) dispatchOnce() bool {
	// 1. STARTED for any node not yet started.
	for _, n := range loop.nodes {
		if !n.startEventSent {
			n.startEventSent = true
			n.dispatchToTransport(EventStarted, nil)
			if n.waitingForStatus {
				return true
			}
		}
	}

	// 2. Poll with timeout = min(default, nearest due timer).
	timeout := loop.pollTimeout
	if len(loop.timers) > 0 {
		until := time.Until(loop.timers[0].nextFire)
		if until < 0 {
			until = 0
		}
		if until < timeout {
			timeout = until
		}
	}
	ready, err := loop.p.wait(int(timeout / time.Millisecond))
	if err != nil {
		log().Warnw("aura: poll wait failed", "err", err)
	}

	// 3. Dispatch DESCRIPTOR for each ready fd.
	for _, fd := range ready {
		n, ok := loop.fdNode[fd]
		if !ok {
			continue
		}
		for _, pf := range n.pollfds {
			if pf.FD == fd {
				n.dispatchToTransport(EventDescriptor, pf)
				break
			}
		}
	}

	// 4. Fire expired timers.
	now := time.Now()
	for len(loop.timers) > 0 && !loop.timers[0].nextFire.After(now) {
		t := heap.Pop(&loop.timers).(*Timer)
		t.isActive = t.flags&TimerFree != 0
		if t.flags&TimerFree != 0 {
			t.nextFire = now.Add(t.interval)
			heap.Push(&loop.timers, t)
		}
		if t.cb != nil {
			t.cb(t.node, t, t.arg)
		}
	}

	// 5. Notify transports with non-empty outbound queues.
	for _, n := range loop.nodes {
		if n.outbound.len() > 0 {
			n.dispatchToTransport(EventHaveOutbound, nil)
		}
	}

	// 6. Drain inbound queues.
	for _, n := range loop.nodes {
		n.drainInbound()
	}

	return false
}
