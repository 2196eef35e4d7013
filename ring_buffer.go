// Package byte_ring_go provides a fixed capacity byte ring buffer and a
// goroutine-safe blocking wrapper around it.
package byte_ring_go

import (
	"fmt"
	"math/bits"
)

// MaxCapacity is the largest capacity New will try to allocate.
const MaxCapacity uint64 = 1 << 40

// RingBuffer is a fixed capacity single-producer/single-consumer byte queue.
//
// The read and write cursors only ever grow. Occupancy is their difference and
// the physical offset of a cursor is cursor % capacity, so a full buffer and an
// empty buffer never share a representation. RingBuffer is not safe for
// concurrent use; see LockingRingBuffer.
type RingBuffer struct {
	storage []byte
	owned   bool

	readCursor  uint64
	writeCursor uint64

	// mask is capacity-1 when capacity is a power of two, zero otherwise.
	mask uint64
}

// New allocates a RingBuffer holding up to capacity bytes. A capacity of zero
// yields a buffer that is always both empty and full.
func New(capacity int) (buffer *RingBuffer, err error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	if uint64(capacity) > MaxCapacity {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrAllocationFailure, capacity, MaxCapacity)
	}

	if capacity == 0 {
		return &RingBuffer{owned: true}, nil
	}

	// make panics when the length exceeds the runtime allocation limit, which
	// is below MaxCapacity only on 32-bit targets. A real out-of-memory is
	// fatal and cannot be recovered here.
	defer func() {
		if r := recover(); r != nil {
			buffer = nil
			err = fmt.Errorf("%w: %d bytes: %v", ErrAllocationFailure, capacity, r)
		}
	}()

	storage := make([]byte, capacity)

	return newRingBuffer(storage, true), nil
}

// NewWithStorage binds a RingBuffer to caller supplied memory. The buffer
// capacity is len(storage); Release will not clear the caller's slice.
func NewWithStorage(storage []byte) *RingBuffer {
	return newRingBuffer(storage[:len(storage):len(storage)], false)
}

func newRingBuffer(storage []byte, owned bool) *RingBuffer {
	buffer := &RingBuffer{
		storage: storage,
		owned:   owned,
	}

	capacity := uint64(len(storage))
	if capacity > 0 && bits.OnesCount64(capacity) == 1 {
		buffer.mask = capacity - 1
	}

	return buffer
}

// Release drops the backing storage and resets both cursors. The buffer
// behaves as zero capacity afterwards, so a second call is harmless.
func (buffer *RingBuffer) Release() {
	if buffer.owned {
		clear(buffer.storage)
	}

	buffer.storage = nil
	buffer.mask = 0
	buffer.readCursor = 0
	buffer.writeCursor = 0
}

func (buffer *RingBuffer) cap() uint64 {
	return uint64(len(buffer.storage))
}

func (buffer *RingBuffer) getBufferPosition(cursor uint64) uint64 {
	if buffer.mask != 0 {
		return cursor & buffer.mask
	}

	return cursor % buffer.cap()
}

func (buffer *RingBuffer) occupancy() uint64 {
	return buffer.writeCursor - buffer.readCursor
}

func (buffer *RingBuffer) Capacity() int {
	return len(buffer.storage)
}

func (buffer *RingBuffer) Occupancy() int {
	return int(buffer.occupancy())
}

func (buffer *RingBuffer) FreeSpace() int {
	return int(buffer.cap() - buffer.occupancy())
}

func (buffer *RingBuffer) IsEmpty() bool {
	return buffer.occupancy() == 0
}

func (buffer *RingBuffer) IsFull() bool {
	return buffer.occupancy() == buffer.cap()
}

// ReadCursor returns the absolute stream position of the next byte to read.
func (buffer *RingBuffer) ReadCursor() uint64 {
	return buffer.readCursor
}

// WriteCursor returns the absolute stream position of the next byte to write.
func (buffer *RingBuffer) WriteCursor() uint64 {
	return buffer.writeCursor
}

// PutByte appends b and reports whether there was room for it.
func (buffer *RingBuffer) PutByte(b byte) bool {
	if buffer.IsFull() {
		return false
	}

	buffer.storage[buffer.getBufferPosition(buffer.writeCursor)] = b
	buffer.writeCursor++

	return true
}

// TakeByte removes the oldest byte. ok is false when the buffer is empty.
func (buffer *RingBuffer) TakeByte() (b byte, ok bool) {
	if buffer.IsEmpty() {
		return 0, false
	}

	b = buffer.storage[buffer.getBufferPosition(buffer.readCursor)]
	buffer.readCursor++

	return b, true
}

// Write copies as much of p as fits in the free space and returns the number
// of bytes accepted. A short count means the buffer filled up.
func (buffer *RingBuffer) Write(p []byte) int {
	bufferCap := buffer.cap()
	if bufferCap == 0 || len(p) == 0 {
		return 0
	}

	toWrite := min(uint64(len(p)), bufferCap-buffer.occupancy())
	if toWrite == 0 {
		return 0
	}

	bufferWritePos := buffer.getBufferPosition(buffer.writeCursor)
	slack := bufferCap - bufferWritePos

	if toWrite <= slack {
		copy(buffer.storage[bufferWritePos:], p[:toWrite])
	} else {
		copy(buffer.storage[bufferWritePos:], p[:slack])
		copy(buffer.storage, p[slack:toWrite])
	}

	buffer.writeCursor += toWrite

	return int(toWrite)
}

// Read moves up to len(p) of the oldest bytes into p and returns the count.
func (buffer *RingBuffer) Read(p []byte) int {
	n := buffer.Peek(p)
	buffer.readCursor += uint64(n)

	return n
}

// Peek copies up to len(p) of the oldest bytes into p without consuming them.
func (buffer *RingBuffer) Peek(p []byte) int {
	bufferCap := buffer.cap()
	if bufferCap == 0 || len(p) == 0 {
		return 0
	}

	toRead := min(uint64(len(p)), buffer.occupancy())
	if toRead == 0 {
		return 0
	}

	bufferReadPos := buffer.getBufferPosition(buffer.readCursor)
	slack := bufferCap - bufferReadPos

	if toRead <= slack {
		copy(p, buffer.storage[bufferReadPos:bufferReadPos+toRead])
	} else {
		copy(p, buffer.storage[bufferReadPos:])
		copy(p[slack:toRead], buffer.storage[:toRead-slack])
	}

	return int(toRead)
}

// Discard drops up to n unread bytes and returns how many were dropped.
func (buffer *RingBuffer) Discard(n int) int {
	if n <= 0 {
		return 0
	}

	skipped := min(uint64(n), buffer.occupancy())
	buffer.readCursor += skipped

	return int(skipped)
}

// Reset empties the buffer. Storage is kept; stale bytes are unreachable.
func (buffer *RingBuffer) Reset() {
	buffer.readCursor = 0
	buffer.writeCursor = 0
}

func (buffer *RingBuffer) String() string {
	return fmt.Sprintf("RingBuffer{cap=%d read=%d write=%d used=%d}",
		buffer.cap(), buffer.readCursor, buffer.writeCursor, buffer.occupancy())
}
