package ring

import (
	"io"
	"math"
	"sync/atomic"
)

// Buffer is a fixed size byte ring over caller supplied storage.
// One slot is always kept empty, so Cap()-1 bytes are usable.
//
// Producer side operations (writes, staging, SpaceLeft) must be
// serialized by the caller, see Exclusive. Consumer side operations
// (ReadSingle, ReadByte, ReadableSpan, AdvanceTail, WriteTo, Len) belong
// to a single consumer.
type Buffer struct {
	data []byte
	size uint32
	head atomic.Uint32 // next slot to write
	tail atomic.Uint32 // next slot to read
}

// New creates a Buffer over storage.
func New(storage []byte) *Buffer {
	b := &Buffer{}
	b.Init(storage)
	return b
}

// Init (re)initializes the buffer over storage with head = tail = 0.
// Empty storage or storage not addressable with 32-bit indices is a
// caller error and panics.
func (b *Buffer) Init(storage []byte) {
	if len(storage) == 0 {
		panic("ring: zero capacity")
	}
	if uint64(len(storage)) > math.MaxUint32 {
		panic("ring: capacity exceeds index width")
	}
	b.data = storage
	b.size = uint32(len(storage))
	b.head.Store(0)
	b.tail.Store(0)
}

// Cap returns the storage size. Usable capacity is Cap()-1.
func (b *Buffer) Cap() uint32 {
	return b.size
}

// Head returns the index of the next byte to be written.
func (b *Buffer) Head() uint32 {
	return b.head.Load()
}

// Tail returns the index of the next byte to be read.
func (b *Buffer) Tail() uint32 {
	return b.tail.Load()
}

// SpaceLeft returns how many more bytes can be committed.
func (b *Buffer) SpaceLeft() uint32 {
	return b.spaceLeft(b.head.Load(), b.tail.Load())
}

// Len returns the number of committed bytes not yet consumed.
func (b *Buffer) Len() uint32 {
	return b.distance(b.tail.Load(), b.head.Load())
}

// WriteSingle stores c at head and advances head.
// Unchecked: the caller must have verified SpaceLeft() >= 1.
func (b *Buffer) WriteSingle(c byte) {
	head := b.head.Load()
	contract(b.spaceLeft(head, b.tail.Load()) >= 1, "WriteSingle on full buffer")
	b.data[head] = c
	b.head.Store(b.advance(head, 1))
}

// WriteChunk copies p at head and advances head by len(p).
// Unchecked: the caller must have verified len(p) <= SpaceLeft(),
// otherwise unread data is overwritten.
func (b *Buffer) WriteChunk(p []byte) {
	head := b.head.Load()
	contract(uint64(len(p)) <= uint64(b.spaceLeft(head, b.tail.Load())),
		"WriteChunk of %d bytes exceeds space %d", len(p), b.spaceLeft(head, b.tail.Load()))
	count := uint32(len(p))
	if toTop := b.size - head; toTop < count {
		copy(b.data[head:], p[:toTop])
		copy(b.data, p[toTop:])
	} else {
		copy(b.data[head:], p)
	}
	b.head.Store(b.advance(head, count))
}

// ReadSingle returns the byte at tail and advances tail.
// Unchecked: the caller must have verified Len() > 0.
func (b *Buffer) ReadSingle() byte {
	tail := b.tail.Load()
	contract(tail != b.head.Load(), "ReadSingle on empty buffer")
	c := b.data[tail]
	b.tail.Store(b.advance(tail, 1))
	return c
}

// WriteByte implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	if b.SpaceLeft() < 1 {
		return ErrNoSpace
	}
	b.WriteSingle(c)
	return nil
}

// Write implements io.Writer. The write is all or nothing: when p
// doesn't fit, nothing is written and ErrNoSpace is returned.
func (b *Buffer) Write(p []byte) (int, error) {
	if uint64(len(p)) > uint64(b.SpaceLeft()) {
		return 0, ErrNoSpace
	}
	b.WriteChunk(p)
	return len(p), nil
}

// ReadByte implements io.ByteReader, returning io.EOF when empty.
func (b *Buffer) ReadByte() (byte, error) {
	if b.tail.Load() == b.head.Load() {
		return 0, io.EOF
	}
	return b.ReadSingle(), nil
}
