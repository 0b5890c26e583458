package aura

import "encoding/binary"

// bufferMagic is a debug sentinel stamped into every live buffer so a
// caller passing a freed or foreign buffer can be caught instead of
// silently corrupting memory.
const bufferMagic = 0xA0FAB0FF

// Buffer is a fixed-capacity byte region with a read/write cursor, used to
// serialize call arguments and returns. Matches struct aura_buffer.
type Buffer struct {
	magic uint32

	data []byte // len(data) == capacity, including transport overhead
	pos  int     // next byte to read/write, relative to start of data

	// PayloadSize is the useful payload length; putters advance it as
	// they write starting at Offset.
	PayloadSize int

	// Offset is where the serialized payload begins (transport_offset).
	Offset int

	// Owner is the node this buffer was allocated for.
	Owner *Node

	// Object is the call/event this buffer is serialized for or
	// deserialized from. Nil for buffers not yet bound to a call.
	Object *Object
}

func newBuffer(owner *Node, size int) *Buffer {
	overhead := 0
	offset := 0
	if owner != nil && owner.transport != nil {
		overhead = owner.transport.BufferOverhead
		offset = owner.transport.BufferOffset
	}
	b := &Buffer{
		magic:  bufferMagic,
		data:   make([]byte, size+overhead),
		Owner:  owner,
		Offset: offset,
	}
	b.pos = offset
	return b
}

// Bytes returns the full underlying storage, including transport overhead.
// Transports use this to read/write their framing prefix directly.
func (b *Buffer) Bytes() []byte { return b.data }

// Payload returns the serialized payload slice (excluding transport
// overhead), sized to PayloadSize.
func (b *Buffer) Payload() []byte { return b.data[b.Offset : b.Offset+b.PayloadSize] }

// Cap returns the payload capacity: the bytes from Offset to the end of
// the storage. Only the Offset prefix is excluded; overhead bytes beyond
// Offset are counted.
func (b *Buffer) Cap() int { return len(b.data) - b.Offset }

// Rewind resets the cursor to the start of the payload region, for
// re-reading a buffer that was just written (round-trip tests) or
// re-serializing into a released-then-reused buffer.
func (b *Buffer) Rewind() { b.pos = b.Offset }

func (b *Buffer) checkMagic(node *Node) {
	if b.magic != bufferMagic {
		Panic(node, "buffer magic corrupted or buffer reused after destroy")
	}
}

func (b *Buffer) ensure(node *Node, n int) {
	b.checkMagic(node)
	if b.pos+n > len(b.data) {
		Panic(node, "BUFFER_OVERRUN: pos=%d n=%d cap=%d", b.pos, n, len(b.data))
	}
}

func (b *Buffer) bumpPayload() {
	used := b.pos - b.Offset
	if used > b.PayloadSize {
		b.PayloadSize = used
	}
}

func (b *Buffer) swap() bool {
	return b.Owner != nil && b.Owner.needsSwap
}

// --- unsigned getters/putters ---

func (b *Buffer) GetU8() uint8 {
	b.ensure(b.Owner, 1)
	v := b.data[b.pos]
	b.pos++
	return v
}

func (b *Buffer) PutU8(v uint8) {
	b.ensure(b.Owner, 1)
	b.data[b.pos] = v
	b.pos++
	b.bumpPayload()
}

func (b *Buffer) GetU16() uint16 {
	b.ensure(b.Owner, 2)
	v := binary.BigEndian.Uint16(b.data[b.pos:])
	if b.swap() {
		v = swap16(v)
	}
	b.pos += 2
	return v
}

func (b *Buffer) PutU16(v uint16) {
	b.ensure(b.Owner, 2)
	if b.swap() {
		v = swap16(v)
	}
	binary.BigEndian.PutUint16(b.data[b.pos:], v)
	b.pos += 2
	b.bumpPayload()
}

func (b *Buffer) GetU32() uint32 {
	b.ensure(b.Owner, 4)
	v := binary.BigEndian.Uint32(b.data[b.pos:])
	if b.swap() {
		v = swap32(v)
	}
	b.pos += 4
	return v
}

func (b *Buffer) PutU32(v uint32) {
	b.ensure(b.Owner, 4)
	if b.swap() {
		v = swap32(v)
	}
	binary.BigEndian.PutUint32(b.data[b.pos:], v)
	b.pos += 4
	b.bumpPayload()
}

func (b *Buffer) GetU64() uint64 {
	b.ensure(b.Owner, 8)
	v := binary.BigEndian.Uint64(b.data[b.pos:])
	if b.swap() {
		v = swap64(v)
	}
	b.pos += 8
	return v
}

func (b *Buffer) PutU64(v uint64) {
	b.ensure(b.Owner, 8)
	if b.swap() {
		v = swap64(v)
	}
	binary.BigEndian.PutUint64(b.data[b.pos:], v)
	b.pos += 8
	b.bumpPayload()
}

// --- signed getters/putters: reuse the unsigned wire path ---

func (b *Buffer) GetS8() int8   { return int8(b.GetU8()) }
func (b *Buffer) PutS8(v int8)  { b.PutU8(uint8(v)) }
func (b *Buffer) GetS16() int16 { return int16(b.GetU16()) }
func (b *Buffer) PutS16(v int16) { b.PutU16(uint16(v)) }
func (b *Buffer) GetS32() int32 { return int32(b.GetU32()) }
func (b *Buffer) PutS32(v int32) { b.PutU32(uint32(v)) }
func (b *Buffer) GetS64() int64 { return int64(b.GetU64()) }
func (b *Buffer) PutS64(v int64) { b.PutU64(uint64(v)) }

// GetBin returns a copy of the next len bytes and advances the cursor.
func (b *Buffer) GetBin(length int) []byte {
	b.ensure(b.Owner, length)
	out := make([]byte, length)
	copy(out, b.data[b.pos:b.pos+length])
	b.pos += length
	return out
}

// PutBin writes data into a fixed-length block of length bytes,
// zero-padding on the right if data is shorter, per spec §6. It panics
// (BUFFER_OVERRUN) if data is longer than length or the buffer can't hold
// length more bytes.
func (b *Buffer) PutBin(data []byte, length int) {
	b.ensure(b.Owner, length)
	if len(data) > length {
		Panic(b.Owner, "PutBin: input %d bytes exceeds block length %d", len(data), length)
	}
	n := copy(b.data[b.pos:b.pos+length], data)
	for i := n; i < length; i++ {
		b.data[b.pos+i] = 0
	}
	b.pos += length
	b.bumpPayload()
}

// GetBuf deserializes a nested buffer handle via the owning transport's
// BufferGet, panicking if the transport doesn't support it.
func (b *Buffer) GetBuf() *Buffer {
	if b.Owner == nil || b.Owner.transport == nil || b.Owner.transport.BufferGet == nil {
		Panic(b.Owner, "GetBuf: transport does not support buffer_get")
	}
	return b.Owner.transport.BufferGet(b)
}

// PutBuf serializes a nested buffer reference via the owning transport's
// BufferPut, panicking if the transport doesn't support it.
func (b *Buffer) PutBuf(nested *Buffer) {
	if b.Owner == nil || b.Owner.transport == nil || b.Owner.transport.BufferPut == nil {
		Panic(b.Owner, "PutBuf: transport does not support buffer_put")
	}
	b.Owner.transport.BufferPut(b, nested)
}

func swap16(v uint16) uint16 {
	return (v>>8)&0xff | (v<<8)&0xff00
}

func swap32(v uint32) uint32 {
	return (v>>24)&0xff | (v>>8)&0xff00 | (v<<8)&0xff0000 | (v<<24)&0xff000000
}

func swap64(v uint64) uint64 {
	return uint64(swap32(uint32(v>>32))) | uint64(swap32(uint32(v)))<<32
}
