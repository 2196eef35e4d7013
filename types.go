package byte_ring_go

import (
	"context"
	"errors"
	"io"
)

// LockingRingBufferInterface defines the public API for the locking ring buffer.
//
// Absolute positions are measured from startPosition; internally the buffer
// keeps the cursors of a RingBuffer, which monotonically increase as data is
// read and written. Absolute position = startPosition + cursor.
//
// Notes on semantics:
//   - IsPositionAvailable reports whether a position lies inside the current
//     readable window [readPosition, writePosition], with an inclusive upper
//     bound at the write boundary (the boundary itself is considered
//     "available"). An empty buffer has no available positions.
//   - Read blocks until at least one byte is buffered. Once CloseWrite has
//     been called and the buffer is drained it returns io.EOF.
//   - ReadAt consumes: it skips forward to position and reads from there.
//     Attempts to read behind the read cursor return ErrOutOfRange, and
//     attempts to read at or beyond the write position return io.EOF.
//   - IsPositionInCapacity indicates whether a position is within a window that
//     can be represented by the buffer capacity, allowing a tolerance. It does
//     not assert that the data is currently available to read.
//   - Write blocks when there is insufficient space (to avoid overwrite) and
//     unblocks when readers advance.
//   - CloseWrite marks logical end-of-stream; Close releases the storage and
//     fails every pending and future call with ErrClosed.
//
// All methods are safe for concurrent use.
type LockingRingBufferInterface interface {
	GetCapacity() int
	GetSize() int
	GetStartPosition() uint64
	Read(p []byte) (n int, err error)
	ReadAt(p []byte, position uint64) (n int, err error)
	Write(p []byte) (n int, err error)
	GetBytesToOverwrite() int
	IsPositionAvailable(position uint64) bool
	IsPositionInCapacity(position uint64, tolerance uint64) bool
	WaitForPosition(ctx context.Context, position uint64) bool
	ResetToPosition(position uint64)
	CloseWrite() error
	Close() error
}

var _ LockingRingBufferInterface = &LockingRingBuffer{}
var _ io.ReadWriteCloser = &LockingRingBuffer{}

// ErrAllocationFailure indicates the backing storage for a RingBuffer could
// not be obtained. The buffer that failed construction must not be used.
var ErrAllocationFailure = errors.New("ringbuffer: allocation failure")

// ErrInvalidCapacity is returned for a negative capacity.
var ErrInvalidCapacity = errors.New("ringbuffer: invalid capacity")

// ErrOutOfRange indicates the requested position is no longer available in the
// buffer window (it is behind the read cursor and cannot be re-read).
var ErrOutOfRange = errors.New("ringbuffer: position out of range")

// ErrClosed is returned by every operation on a closed LockingRingBuffer.
var ErrClosed = errors.New("ringbuffer: buffer is closed")

// ErrWriteClosed is returned by Write after CloseWrite.
var ErrWriteClosed = errors.New("ringbuffer: write side is closed")
