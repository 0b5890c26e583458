package aura

// pool is a per-node LIFO free list of buffers, bucketed by exact
// capacity class (the capacity of the buffer the caller last released),
// matching the source's single flat free list keyed by allocation size.
type pool struct {
	buckets map[int][]*Buffer
	size    int // total buffers currently retained across all buckets
	gcThreshold int
}

const defaultGCThreshold = 64

func newPool() *pool {
	return &pool{buckets: map[int][]*Buffer{}, gcThreshold: defaultGCThreshold}
}

// request returns a buffer with at least size bytes of payload capacity,
// reusing a pooled buffer of the exact size class if one is available.
func (n *Node) bufferRequest(size int) *Buffer {
	bucket := n.pool.buckets[size]
	if l := len(bucket); l > 0 {
		b := bucket[l-1]
		n.pool.buckets[size] = bucket[:l-1]
		n.pool.size--
		b.pos = b.Offset
		b.PayloadSize = 0
		b.Object = nil
		return b
	}
	return newBuffer(n, size)
}

// release returns buf to its owner's pool, retaining it if the pool has
// not yet reached gc_threshold and physically discarding it (letting the
// garbage collector reclaim it) otherwise.
func (n *Node) bufferRelease(buf *Buffer) {
	if buf == nil {
		return
	}
	buf.checkMagic(n)
	size := len(buf.data) - buf.Offset
	if n.pool.size < n.pool.gcThreshold {
		buf.Object = nil
		n.pool.buckets[size] = append(n.pool.buckets[size], buf)
		n.pool.size++
		return
	}
	n.bufferDestroy(buf)
}

// destroy physically frees buf; it is no longer usable afterward.
func (n *Node) bufferDestroy(buf *Buffer) {
	if buf == nil {
		return
	}
	buf.magic = 0
	buf.data = nil
}

// Preheat primes count buffers of size bytes into the node's pool ahead of
// time, matching aura_bufferpool_preheat.
func (n *Node) Preheat(size, count int) {
	bucket := n.pool.buckets[size]
	for i := 0; i < count; i++ {
		bucket = append(bucket, newBuffer(n, size))
		n.pool.size++
	}
	n.pool.buckets[size] = bucket
}

// PoolSize returns the number of buffers currently retained in the pool,
// for tests asserting the GC-threshold invariant.
func (n *Node) PoolSize() int { return n.pool.size }

// SetGCThreshold overrides the pool's retention ceiling (default 64).
func (n *Node) SetGCThreshold(v int) { n.pool.gcThreshold = v }
