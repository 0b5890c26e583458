package aura

import (
	"testing"
	"time"

	"github.com/Wedmer/aura/aerrors"
)

// TestSyncCallRejectsReentrancy covers spec property #8: a synchronous
// call already in flight on a node refuses a second one with
// SYNC-IN-PROGRESS rather than deadlocking or corrupting the first call's
// scratch state.
func TestSyncCallRejectsReentrancy(t *testing.T) {
	n := newOnlineNode(echoingTransport())
	table := NewExportTable(1)
	table.Add("echo", "3", "3")
	if err := n.ActivateTable(table); err != nil {
		t.Fatalf("activate table: %v", err)
	}

	n.syncCallRunning = true
	var ret *Buffer
	_, err := Call(n, "echo", &ret, uint32(1))
	if !aerrors.Is(err, aerrors.SyncInProgress) {
		t.Fatalf("expected SYNC-IN-PROGRESS, got %v", err)
	}
}

func TestSyncCallCompletesAgainstEchoTransport(t *testing.T) {
	n := newOnlineNode(echoingTransport())
	table := NewExportTable(1)
	table.Add("echo", "3", "3")
	if err := n.ActivateTable(table); err != nil {
		t.Fatalf("activate table: %v", err)
	}

	// Bind node to a loop with a short poll timeout up front so the sync
	// call's internal dispatch loop doesn't block on the default 200ms poll
	// wait with nothing else to report before the queued reply drains.
	loop, err := CreateEventLoop(n)
	if err != nil {
		t.Fatalf("create loop: %v", err)
	}
	loop.pollTimeout = 10 * time.Millisecond

	var ret *Buffer
	status, err := Call(n, "echo", &ret, uint32(777))
	if err != nil {
		t.Fatalf("sync call: %v", err)
	}
	if status != CallCompleted {
		t.Fatalf("status = %v, want CallCompleted", status)
	}
	if ret == nil {
		t.Fatalf("expected a return buffer")
	}
	ret.Rewind()
	if got := ret.GetU32(); got != 777 {
		t.Fatalf("echoed value = %d, want 777", got)
	}
}

// TestSyncEventRingIsBounded covers spec property #9: a sync-event ring
// enabled with capacity N keeps at most N pending events, dropping (and
// releasing) anything past that instead of growing unbounded.
func TestSyncEventRingIsBounded(t *testing.T) {
	n := newTestNode()
	n.EnableSyncEvents(2)

	objA := &Object{Name: "a"}
	objB := &Object{Name: "b"}
	objC := &Object{Name: "c"}

	n.pushSyncEvent(objA, newBuffer(n, 0))
	n.pushSyncEvent(objB, newBuffer(n, 0))
	n.pushSyncEvent(objC, newBuffer(n, 0)) // dropped, ring is full

	if n.GetPendingEvents() != 2 {
		t.Fatalf("pending events = %d, want 2", n.GetPendingEvents())
	}

	obj, _, ok := n.GetNextEvent()
	if !ok || obj != objA {
		t.Fatalf("first event = %v, want objA", obj)
	}
	obj, _, ok = n.GetNextEvent()
	if !ok || obj != objB {
		t.Fatalf("second event = %v, want objB", obj)
	}
	if _, _, ok := n.GetNextEvent(); ok {
		t.Fatalf("expected ring to be empty after draining 2 events")
	}
}
