package encoding

import (
	"fmt"
	"math"

	"github.com/arloliu/coldecode/endian"
	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/internal/pool"
)

// MaxStringLength is the maximum byte length of a string written by WriteString.
const MaxStringLength = math.MaxUint16

// Writer appends fixed-width values to a pooled buffer.
//
// The slice returned by Bytes is valid until Finish is called.
type Writer struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
}

// NewWriter creates a Writer backed by a pooled record buffer.
func NewWriter(engine endian.EndianEngine) *Writer {
	return &Writer{
		buf:    pool.GetRecordBuffer(),
		engine: engine,
	}
}

// Engine returns the byte order used by the writer.
func (w *Writer) Engine() endian.EndianEngine {
	return w.engine
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf.B = append(w.buf.B, v)
}

// WriteUint16 appends a uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.buf.B = w.engine.AppendUint16(w.buf.B, v)
}

// WriteUint32 appends a uint32.
func (w *Writer) WriteUint32(v uint32) {
	w.buf.B = w.engine.AppendUint32(w.buf.B, v)
}

// WriteInt32 appends an int32 in two's complement.
func (w *Writer) WriteInt32(v int32) {
	w.buf.B = w.engine.AppendUint32(w.buf.B, uint32(v)) //nolint: gosec
}

// WriteFloat64 appends the IEEE 754 bits of v.
func (w *Writer) WriteFloat64(v float64) {
	w.buf.B = w.engine.AppendUint64(w.buf.B, math.Float64bits(v))
}

// WriteInt32Slice appends each value of vals as an int32 without a length prefix.
func (w *Writer) WriteInt32Slice(vals []int) {
	w.buf.Grow(4 * len(vals))
	for _, v := range vals {
		w.WriteInt32(int32(v)) //nolint: gosec
	}
}

// WriteString appends a uint16 length prefix followed by the UTF-8 bytes of s.
//
// Returns an error if s is longer than MaxStringLength bytes.
func (w *Writer) WriteString(s string) error {
	if len(s) > MaxStringLength {
		return fmt.Errorf("%w: string length %d exceeds maximum %d", errs.ErrInvalidPayload, len(s), MaxStringLength)
	}

	w.buf.Grow(2 + len(s))
	w.WriteUint16(uint16(len(s))) //nolint: gosec
	w.buf.B = append(w.buf.B, s...)

	return nil
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.MustWrite(b)
}

// Bytes returns the bytes written so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Finish returns the buffer to the pool. The writer must not be used afterwards.
func (w *Writer) Finish() {
	pool.PutRecordBuffer(w.buf)
	w.buf = nil
}

// Reader consumes values written by a Writer with the same engine.
type Reader struct {
	data   []byte
	offset int
	engine endian.EndianEngine
}

// NewReader creates a Reader over data.
func NewReader(data []byte, engine endian.EndianEngine) *Reader {
	return &Reader{data: data, engine: engine}
}

// Engine returns the byte order used by the reader.
func (r *Reader) Engine() endian.EndianEngine {
	return r.engine
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

func (r *Reader) need(n int, what string) error {
	if r.Remaining() < n {
		return fmt.Errorf("%w: cannot read %s (need %d bytes at offset %d, have %d total)",
			errs.ErrInvalidPayload, what, n, r.offset, len(r.data))
	}

	return nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1, "uint8"); err != nil {
		return 0, err
	}
	v := r.data[r.offset]
	r.offset++

	return v, nil
}

// ReadUint16 reads a uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2, "uint16"); err != nil {
		return 0, err
	}
	v := r.engine.Uint16(r.data[r.offset:])
	r.offset += 2

	return v, nil
}

// ReadUint32 reads a uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4, "uint32"); err != nil {
		return 0, err
	}
	v := r.engine.Uint32(r.data[r.offset:])
	r.offset += 4

	return v, nil
}

// ReadInt32 reads an int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err //nolint: gosec
}

// ReadCount reads an int32 that must be a non-negative element count whose
// elements occupy at least minElemSize bytes each in the remaining data.
func (r *Reader) ReadCount(what string, minElemSize int) (int, error) {
	v, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative %s %d", errs.ErrInvalidPayload, what, v)
	}
	if minElemSize > 0 && int(v) > r.Remaining()/minElemSize {
		return 0, fmt.Errorf("%w: %s %d exceeds remaining payload of %d bytes",
			errs.ErrInvalidPayload, what, v, r.Remaining())
	}

	return int(v), nil
}

// ReadFloat64 reads an IEEE 754 float64.
func (r *Reader) ReadFloat64() (float64, error) {
	if err := r.need(8, "float64"); err != nil {
		return 0, err
	}
	v := math.Float64frombits(r.engine.Uint64(r.data[r.offset:]))
	r.offset += 8

	return v, nil
}

// ReadInt32Slice reads n int32 values.
func (r *Reader) ReadInt32Slice(n int) ([]int, error) {
	if err := r.need(4*n, "int32 slice"); err != nil {
		return nil, err
	}
	vals := make([]int, n)
	for i := range vals {
		vals[i] = int(int32(r.engine.Uint32(r.data[r.offset:]))) //nolint: gosec
		r.offset += 4
	}

	return vals, nil
}

// ReadString reads a uint16 length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n), "string"); err != nil {
		return "", err
	}
	s := string(r.data[r.offset : r.offset+int(n)])
	r.offset += int(n)

	return s, nil
}

// ReadBytes reads n raw bytes. The returned slice aliases the reader's data.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", errs.ErrInvalidPayload, n)
	}
	if err := r.need(n, "bytes"); err != nil {
		return nil, err
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n

	return b, nil
}
