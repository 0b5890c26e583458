package aura

import "time"

// TimerFlags controls a timer's rearm behavior.
type TimerFlags int

const (
	// TimerOneShot fires once and disarms itself. The default.
	TimerOneShot TimerFlags = 0
	// TimerFree (periodic) rearms itself for another interval after
	// every fire, matching the source's FREE flag.
	TimerFree TimerFlags = 1 << 0
)

// TimerFunc is a timer's fire callback.
type TimerFunc func(node *Node, t *Timer, arg interface{})

// Timer is a monotonic one-shot or periodic timer bound to a node (spec
// §4.7). Creation does not arm it; Start does.
type Timer struct {
	node     *Node
	cb       TimerFunc
	arg      interface{}
	interval time.Duration
	flags    TimerFlags
	isActive bool

	nextFire time.Time
	heapIdx  int // index into the owning loop's timer heap, -1 if unarmed
}

// NewTimer creates a timer bound to node, unarmed.
func NewTimer(node *Node, cb TimerFunc, arg interface{}) *Timer {
	t := &Timer{node: node, cb: cb, arg: arg, heapIdx: -1}
	node.timers = append(node.timers, t)
	return t
}

// Start arms t to fire after interval (and, with TimerFree, every
// interval thereafter). If the node is bound to a loop, the timer is
// immediately scheduled on it.
func (t *Timer) Start(flags TimerFlags, interval time.Duration) {
	t.flags = flags
	t.interval = interval
	t.isActive = true
	t.nextFire = time.Now().Add(interval)
	if t.node.loop != nil {
		t.node.loop.scheduleTimer(t)
	}
}

// Stop disarms t. Safe to call from within the timer's own callback.
func (t *Timer) Stop() {
	t.isActive = false
	if t.node.loop != nil {
		t.node.loop.unscheduleTimer(t)
	}
}

// IsActive reports whether the timer is currently armed.
func (t *Timer) IsActive() bool { return t.isActive }

// --- min-heap of armed timers, ordered by nextFire ---

type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].nextFire.Before(h[j].nextFire) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}
func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.heapIdx = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIdx = -1
	*h = old[:n-1]
	return t
}
