package aura

import "testing"

func newTestNode() *Node {
	return &Node{pool: newPool()}
}

func TestBufferRoundTripUnsigned(t *testing.T) {
	for _, swap := range []bool{false, true} {
		n := newTestNode()
		n.needsSwap = swap
		buf := newBuffer(n, 32)

		buf.PutU8(0xAB)
		buf.PutU16(0x1234)
		buf.PutU32(0xDEADBEEF)
		buf.PutU64(0x0102030405060708)

		buf.Rewind()
		if got := buf.GetU8(); got != 0xAB {
			t.Fatalf("swap=%v: u8 round-trip: got %#x", swap, got)
		}
		if got := buf.GetU16(); got != 0x1234 {
			t.Fatalf("swap=%v: u16 round-trip: got %#x", swap, got)
		}
		if got := buf.GetU32(); got != 0xDEADBEEF {
			t.Fatalf("swap=%v: u32 round-trip: got %#x", swap, got)
		}
		if got := buf.GetU64(); got != 0x0102030405060708 {
			t.Fatalf("swap=%v: u64 round-trip: got %#x", swap, got)
		}
	}
}

func TestBufferRoundTripSigned(t *testing.T) {
	for _, swap := range []bool{false, true} {
		n := newTestNode()
		n.needsSwap = swap
		buf := newBuffer(n, 32)

		buf.PutS8(-1)
		buf.PutS16(-1234)
		buf.PutS32(-70000)
		buf.PutS64(-5000000000)

		buf.Rewind()
		if got := buf.GetS8(); got != -1 {
			t.Fatalf("swap=%v: i8 round-trip: got %d", swap, got)
		}
		if got := buf.GetS16(); got != -1234 {
			t.Fatalf("swap=%v: i16 round-trip: got %d", swap, got)
		}
		if got := buf.GetS32(); got != -70000 {
			t.Fatalf("swap=%v: i32 round-trip: got %d", swap, got)
		}
		if got := buf.GetS64(); got != -5000000000 {
			t.Fatalf("swap=%v: i64 round-trip: got %d", swap, got)
		}
	}
}

// TestBufferByteSwapObservedOnWire covers spec scenario S2: when a peer's
// declared endianness differs from the host's, the physical bytes on the
// wire are the byte-reversed form of the host's natural big-endian
// encoding — not just a round-trip-transparent internal detail.
func TestBufferByteSwapObservedOnWire(t *testing.T) {
	n := newTestNode()
	n.needsSwap = true
	buf := newBuffer(n, 4)

	buf.PutU32(0x01020304)
	raw := buf.Bytes()[buf.Offset : buf.Offset+4]
	want := []byte{0x04, 0x03, 0x02, 0x01}
	for i := range want {
		if raw[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x (raw=%x)", i, raw[i], want[i], raw)
		}
	}
}

func TestBufferFixedBlockZeroPad(t *testing.T) {
	n := newTestNode()
	buf := newBuffer(n, 8)
	buf.PutBin([]byte{1, 2}, 4)
	buf.Rewind()
	got := buf.GetBin(4)
	want := []byte{1, 2, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBufferPutBinOverrunPanics(t *testing.T) {
	n := newTestNode()
	buf := newBuffer(n, 8)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for oversized PutBin")
		}
	}()
	buf.PutBin([]byte{1, 2, 3, 4, 5}, 4)
}

func TestBufferMagicCheckCatchesReuseAfterDestroy(t *testing.T) {
	n := newTestNode()
	buf := newBuffer(n, 4)
	n.bufferDestroy(buf)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic touching a destroyed buffer")
		}
	}()
	buf.PutU8(1)
}
