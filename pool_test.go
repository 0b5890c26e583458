package aura

import "testing"

func TestPoolReusesExactSizeClass(t *testing.T) {
	n := newTestNode()
	b1 := n.bufferRequest(16)
	n.bufferRelease(b1)
	b2 := n.bufferRequest(16)
	if b2 != b1 {
		t.Fatalf("expected pool to hand back the released buffer")
	}
}

func TestPoolGCThreshold(t *testing.T) {
	n := newTestNode()
	n.SetGCThreshold(2)

	bufs := make([]*Buffer, 4)
	for i := range bufs {
		bufs[i] = n.bufferRequest(8)
	}
	for _, b := range bufs {
		n.bufferRelease(b)
	}
	if n.PoolSize() > 2 {
		t.Fatalf("pool size %d exceeds gc threshold 2", n.PoolSize())
	}
}

func TestPoolPreheat(t *testing.T) {
	n := newTestNode()
	n.Preheat(32, 5)
	if n.PoolSize() != 5 {
		t.Fatalf("pool size = %d, want 5", n.PoolSize())
	}
	b := n.bufferRequest(32)
	if n.PoolSize() != 4 {
		t.Fatalf("pool size after one request = %d, want 4", n.PoolSize())
	}
	n.bufferRelease(b)
}
