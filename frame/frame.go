// Package frame layers length-prefixed, checksummed messages on top of a byte
// ring. The ring is used purely as a byte reservoir: a frame is either written
// whole or not at all, and is only consumed once every byte of it has arrived.
//
// Wire format, big endian:
//
//	+------------+-----------------+-------------------+
//	| len uint32 | xxhash64 uint64 | payload (len B)   |
//	+------------+-----------------+-------------------+
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// HeaderSize is the number of bytes preceding every payload.
const HeaderSize = 12

var (
	// ErrNoSpace means the frame does not fit the current free space. The
	// ring is unchanged; drain it and retry.
	ErrNoSpace = errors.New("frame: not enough free space")

	// ErrFrameTooLarge means the frame can never fit the ring. When ReadFrame
	// returns it, the offending header has been consumed.
	ErrFrameTooLarge = errors.New("frame: frame exceeds ring capacity")

	// ErrIncomplete means the next frame has not fully arrived yet. The ring
	// is unchanged.
	ErrIncomplete = errors.New("frame: incomplete frame")

	// ErrChecksum means a payload did not match its header checksum. The
	// frame has been consumed.
	ErrChecksum = errors.New("frame: checksum mismatch")
)

// Ring is the subset of the ring buffer the codec needs.
type Ring interface {
	Capacity() int
	Occupancy() int
	FreeSpace() int
	Write(p []byte) int
	Read(p []byte) int
	Peek(p []byte) int
	Discard(n int) int
}

type Writer struct {
	ring Ring
}

func NewWriter(ring Ring) *Writer {
	return &Writer{ring: ring}
}

// WriteFrame appends payload as a single frame.
func (w *Writer) WriteFrame(payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: payload of %d bytes", ErrFrameTooLarge, len(payload))
	}

	size := HeaderSize + len(payload)
	if size > w.ring.Capacity() {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, w.ring.Capacity())
	}

	if size > w.ring.FreeSpace() {
		return ErrNoSpace
	}

	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint64(header[4:12], xxhash.Sum64(payload))

	w.ring.Write(header[:])
	w.ring.Write(payload)

	return nil
}

// Encode msgpack-encodes v and writes it as one frame.
func (w *Writer) Encode(v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("frame: encode: %w", err)
	}

	return w.WriteFrame(payload)
}

type Reader struct {
	ring Ring
}

func NewReader(ring Ring) *Reader {
	return &Reader{ring: ring}
}

// Pending reports whether a complete frame is waiting to be read.
func (r *Reader) Pending() bool {
	_, _, err := r.peekHeader()
	return err == nil
}

func (r *Reader) peekHeader() (length int, sum uint64, err error) {
	if r.ring.Occupancy() < HeaderSize {
		return 0, 0, ErrIncomplete
	}

	var header [HeaderSize]byte
	r.ring.Peek(header[:])

	length = int(binary.BigEndian.Uint32(header[0:4]))
	sum = binary.BigEndian.Uint64(header[4:12])

	if HeaderSize+length > r.ring.Capacity() {
		return 0, 0, fmt.Errorf("%w: header announces %d bytes", ErrFrameTooLarge, length)
	}

	if r.ring.Occupancy() < HeaderSize+length {
		return 0, 0, ErrIncomplete
	}

	return length, sum, nil
}

// ReadFrame consumes the next complete frame and returns its payload. A header
// announcing more than the ring can ever hold is dropped along with the
// ErrFrameTooLarge, so reading resumes at the bytes that follow it.
func (r *Reader) ReadFrame() ([]byte, error) {
	length, sum, err := r.peekHeader()
	if errors.Is(err, ErrFrameTooLarge) {
		r.ring.Discard(HeaderSize)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	r.ring.Discard(HeaderSize)

	payload := make([]byte, length)
	r.ring.Read(payload)

	if xxhash.Sum64(payload) != sum {
		return nil, ErrChecksum
	}

	return payload, nil
}

// Decode reads the next frame and msgpack-decodes it into v.
func (r *Reader) Decode(v any) error {
	payload, err := r.ReadFrame()
	if err != nil {
		return err
	}

	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("frame: decode: %w", err)
	}

	return nil
}
