package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Reader: bounds-checked big-endian cursor
// ---------------------------------------------------------------------------

// MaxNestingDepth bounds recursive descent into nested attributes. The limit
// is generous for real class files; it exists to stop adversarial nesting
// from exhausting the native call stack.
const MaxNestingDepth = 64

// Reader is a bounds-checked cursor over an immutable byte slice. All reads
// are big-endian, matching the class file format. A failed read returns
// ErrTruncatedInput and leaves the cursor untouched; it never reads past the
// end of the buffer.
type Reader struct {
	data  []byte
	off   int
	depth int
}

// NewReader creates a Reader positioned at the start of data. The Reader
// never mutates or copies the buffer.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current read position.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Len returns the total buffer length.
func (r *Reader) Len() int {
	return len(r.data)
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedInput, n, r.off, r.Remaining())
	}
	return nil
}

// ReadU8 reads one unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// ReadI8 reads one signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadI16 reads a big-endian int16.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadI32 reads a big-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadI64 reads a big-endian int64.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadF32 reads a big-endian IEEE-754 float32.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

// ReadF64 reads a big-endian IEEE-754 float64.
func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// ReadBytes returns a view of the next n bytes. The count is validated
// against the remaining buffer before anything is sliced, so a corrupt
// length prefix cannot trigger an oversized allocation. The returned slice
// aliases the input buffer and must be treated as read-only.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d at offset %d",
			ErrTruncatedInput, n, r.off)
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.data[r.off : r.off+n : r.off+n]
	r.off += n
	return v, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative skip %d at offset %d",
			ErrTruncatedInput, n, r.off)
	}
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// Sub returns a Reader over the next n bytes and advances this reader past
// them. The sub-reader inherits the nesting depth, so depth accounting holds
// across length-prefixed regions.
func (r *Reader) Sub(n int) (*Reader, error) {
	data, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return &Reader{data: data, depth: r.depth}, nil
}

// Enter increments the nesting depth, failing once MaxNestingDepth is
// reached. Every Enter must be paired with a Leave.
func (r *Reader) Enter() error {
	if r.depth >= MaxNestingDepth {
		return fmt.Errorf("%w: depth %d at offset %d",
			ErrDepthLimitExceeded, r.depth, r.off)
	}
	r.depth++
	return nil
}

// Leave decrements the nesting depth.
func (r *Reader) Leave() {
	if r.depth > 0 {
		r.depth--
	}
}
