package byte_ring_go

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// LockingRingBuffer serializes access to a RingBuffer and turns its short
// transfers into blocking io.Reader / io.Writer semantics.
type LockingRingBuffer struct {
	ring          *RingBuffer
	startPosition uint64

	mu sync.Mutex

	notFull  *sync.Cond
	notEmpty *sync.Cond

	eof    atomic.Bool
	closed atomic.Bool
}

func NewLockingRingBuffer(capacity int, startPosition uint64) (*LockingRingBuffer, error) {
	ring, err := New(capacity)
	if err != nil {
		return nil, err
	}

	buffer := &LockingRingBuffer{
		ring:          ring,
		startPosition: startPosition,
	}
	buffer.notFull = sync.NewCond(&buffer.mu)
	buffer.notEmpty = sync.NewCond(&buffer.mu)

	return buffer, nil
}

// Converts an absolute position into a ring cursor. ok is false for positions
// before startPosition.
func (buffer *LockingRingBuffer) getNormalizedPosition(position uint64) (cursor uint64, ok bool) {
	if position < buffer.startPosition {
		return 0, false
	}

	return position - buffer.startPosition, true
}

func (buffer *LockingRingBuffer) GetCapacity() int {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	return buffer.ring.Capacity()
}

func (buffer *LockingRingBuffer) GetSize() int {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	return buffer.ring.Occupancy()
}

func (buffer *LockingRingBuffer) GetStartPosition() uint64 {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	return buffer.startPosition
}

// Returns the number of bytes that can be written without blocking.
func (buffer *LockingRingBuffer) GetBytesToOverwrite() int {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	return buffer.ring.FreeSpace()
}

func (buffer *LockingRingBuffer) IsPositionAvailable(position uint64) bool {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	return buffer.isPositionAvailable(position)
}

func (buffer *LockingRingBuffer) isPositionAvailable(position uint64) bool {
	if buffer.ring.IsEmpty() {
		return false
	}

	cursor, ok := buffer.getNormalizedPosition(position)
	if !ok {
		return false
	}

	return cursor >= buffer.ring.ReadCursor() && cursor <= buffer.ring.WriteCursor()
}

func (buffer *LockingRingBuffer) IsPositionInCapacity(position uint64, tolerance uint64) bool {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	cursor, ok := buffer.getNormalizedPosition(position)
	if !ok {
		return false
	}

	readCursor := buffer.ring.ReadCursor()
	if cursor < readCursor {
		return false
	}

	return cursor-readCursor <= uint64(buffer.ring.Capacity())+tolerance
}

// Write appends all of p, waiting for readers whenever the buffer is full.
func (buffer *LockingRingBuffer) Write(p []byte) (n int, err error) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	if buffer.closed.Load() {
		return 0, ErrClosed
	}

	if buffer.eof.Load() {
		return 0, ErrWriteClosed
	}

	if len(p) > 0 && buffer.ring.Capacity() == 0 {
		return 0, io.ErrShortWrite
	}

	for n < len(p) {
		written := buffer.ring.Write(p[n:])
		if written > 0 {
			n += written
			buffer.notEmpty.Broadcast()
			continue
		}

		buffer.notFull.Wait()

		if buffer.closed.Load() {
			return n, ErrClosed
		}

		// Readers may already have seen EOF; the rest of p would be stranded.
		if buffer.eof.Load() {
			return n, ErrWriteClosed
		}
	}

	return n, nil
}

// Read waits until data is buffered and reads up to len(p) bytes.
func (buffer *LockingRingBuffer) Read(p []byte) (int, error) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	for {
		if buffer.closed.Load() {
			return 0, ErrClosed
		}

		if len(p) == 0 {
			return 0, nil
		}

		if !buffer.ring.IsEmpty() {
			n := buffer.ring.Read(p)
			buffer.notFull.Broadcast()
			return n, nil
		}

		if buffer.eof.Load() {
			return 0, io.EOF
		}

		buffer.notEmpty.Wait()
	}
}

// ReadAt skips to the given absolute position and reads from there without
// waiting. Skipped bytes are consumed.
func (buffer *LockingRingBuffer) ReadAt(p []byte, position uint64) (int, error) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	if buffer.closed.Load() {
		return 0, ErrClosed
	}

	cursor, ok := buffer.getNormalizedPosition(position)
	if !ok || cursor < buffer.ring.ReadCursor() {
		return 0, ErrOutOfRange
	}

	if cursor >= buffer.ring.WriteCursor() {
		return 0, io.EOF
	}

	buffer.ring.Discard(int(cursor - buffer.ring.ReadCursor()))
	bytesRead := buffer.ring.Read(p)

	buffer.notFull.Broadcast()

	var err error
	if bytesRead < len(p) && buffer.eof.Load() {
		err = io.EOF
	}

	return bytesRead, err
}

// WaitForPosition blocks until position becomes available. It returns false
// if ctx ends, the stream ends before position is written, or the buffer is
// closed.
func (buffer *LockingRingBuffer) WaitForPosition(ctx context.Context, position uint64) bool {
	stop := context.AfterFunc(ctx, func() {
		buffer.mu.Lock()
		defer buffer.mu.Unlock()

		buffer.notEmpty.Broadcast()
	})
	defer stop()

	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	for {
		if buffer.closed.Load() {
			return false
		}

		if buffer.isPositionAvailable(position) {
			return true
		}

		if buffer.eof.Load() || ctx.Err() != nil {
			return false
		}

		buffer.notEmpty.Wait()
	}
}

// Resets the buffer to the given absolute position.
func (buffer *LockingRingBuffer) ResetToPosition(position uint64) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	buffer.startPosition = position
	buffer.ring.Reset()
	buffer.eof.Store(false)

	buffer.notFull.Broadcast()
}

// CloseWrite marks the end of the stream. Buffered bytes stay readable.
func (buffer *LockingRingBuffer) CloseWrite() error {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	buffer.eof.Store(true)
	buffer.notEmpty.Broadcast()
	buffer.notFull.Broadcast()

	return nil
}

func (buffer *LockingRingBuffer) Close() error {
	buffer.closed.Store(true)

	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	buffer.notFull.Broadcast()
	buffer.notEmpty.Broadcast()

	buffer.ring.Release()
	return nil
}
