package decode

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	ienc "github.com/arloliu/coldecode/internal/encoding"
)

// PassThroughDecoder copies matrix values into the frame, coerced to the
// column's value type. It needs no metadata.
type PassThroughDecoder struct {
	columnBase
}

var _ ColumnDecoder = (*PassThroughDecoder)(nil)

// NewPassThroughDecoder creates an uninitialized pass-through decoder for the mapped columns.
func NewPassThroughDecoder(schema []format.ValueType, mapping Mapping) (*PassThroughDecoder, error) {
	base, err := newColumnBase(schema, mapping)
	if err != nil {
		return nil, err
	}

	return &PassThroughDecoder{columnBase: base}, nil
}

// Type returns format.DecoderPassThrough.
func (d *PassThroughDecoder) Type() format.DecoderType {
	return format.DecoderPassThrough
}

// InitMetaData marks the decoder initialized. The metadata is not read and may be nil.
func (d *PassThroughDecoder) InitMetaData(_ MetadataReader) error {
	if err := d.markInitialized(); err != nil {
		return err
	}
	Logger().Debug("pass-through decoder initialized", zap.Ints("columns", d.colList))

	return nil
}

// ColumnDecode decodes every row of m into a new frame.
func (d *PassThroughDecoder) ColumnDecode(m MatrixReader) (*frame.Frame, error) {
	out := d.newOutput(m)
	if err := d.ColumnDecodeRange(m, out, 0, m.NumRows()); err != nil {
		return nil, err
	}

	return out, nil
}

// ColumnDecodeRange copies rows [rl, ru) of m into out.
func (d *PassThroughDecoder) ColumnDecodeRange(m MatrixReader, out FrameWriter, rl, ru int) error {
	if err := d.checkDecode(m, out, rl, ru, nil); err != nil {
		return err
	}

	for r := rl; r < ru; r++ {
		for j, c := range d.colList {
			cell, err := frame.FromFloat64(d.schema[c-1], m.Get(r, d.srcCols[j]-1))
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", r, c, err)
			}
			out.Set(r, c-1, cell)
		}
	}

	return nil
}

// SubRangeDecoder derives a pass-through decoder for frame columns [colStart, colEnd).
func (d *PassThroughDecoder) SubRangeDecoder(colStart, colEnd, dummyCodedOffset int) (ColumnDecoder, error) {
	base, _, ok, err := d.subRange(colStart, colEnd, dummyCodedOffset)
	if err != nil || !ok {
		return nil, err
	}

	return &PassThroughDecoder{columnBase: base}, nil
}

// MarshalBinary serializes the decoder in little-endian byte order.
func (d *PassThroughDecoder) MarshalBinary() ([]byte, error) {
	return marshalBody(d)
}

// UnmarshalBinary restores a decoder serialized by MarshalBinary.
func (d *PassThroughDecoder) UnmarshalBinary(data []byte) error {
	if d.initialized {
		return errs.ErrAlreadyInitialized
	}

	return unmarshalBody(d, data)
}

func (d *PassThroughDecoder) encodeBody(w *ienc.Writer) error {
	if err := d.checkInitialized(); err != nil {
		return err
	}
	d.encodeHeader(w)

	return nil
}

func (d *PassThroughDecoder) decodeBody(r *ienc.Reader) error {
	var base columnBase
	if err := base.decodeHeader(r); err != nil {
		return err
	}
	d.columnBase = base

	return nil
}
