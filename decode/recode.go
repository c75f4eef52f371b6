package decode

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	ienc "github.com/arloliu/coldecode/internal/encoding"
)

// RecodeDecoder maps integer codes back to the category labels they replaced.
//
// The metadata column lists one "<label>:<code>" entry per category. Codes are
// 1-based and the label is everything before the last colon.
type RecodeDecoder struct {
	columnBase
	labels [][]string
}

var _ ColumnDecoder = (*RecodeDecoder)(nil)

// NewRecodeDecoder creates an uninitialized recode decoder for the mapped columns.
func NewRecodeDecoder(schema []format.ValueType, mapping Mapping) (*RecodeDecoder, error) {
	base, err := newColumnBase(schema, mapping)
	if err != nil {
		return nil, err
	}

	return &RecodeDecoder{columnBase: base}, nil
}

// Type returns format.DecoderRecode.
func (d *RecodeDecoder) Type() format.DecoderType {
	return format.DecoderRecode
}

// Labels returns the labels of the i-th owned column indexed by code-1.
// Callers must not modify the slice.
func (d *RecodeDecoder) Labels(i int) []string {
	return d.labels[i]
}

// InitMetaData parses the recode map of every owned column.
func (d *RecodeDecoder) InitMetaData(meta MetadataReader) error {
	if d.initialized {
		return errs.ErrAlreadyInitialized
	}
	if err := d.checkMetaColumns(meta); err != nil {
		return err
	}

	labels := make([][]string, len(d.colList))
	for j, c := range d.colList {
		l, err := parseRecodeColumn(meta, c)
		if err != nil {
			return err
		}
		labels[j] = l
	}

	d.labels = labels
	Logger().Debug("recode metadata initialized", zap.Ints("columns", d.colList))

	return d.markInitialized()
}

// ColumnDecode decodes every row of m into a new frame.
func (d *RecodeDecoder) ColumnDecode(m MatrixReader) (*frame.Frame, error) {
	out := d.newOutput(m)
	if err := d.ColumnDecodeRange(m, out, 0, m.NumRows()); err != nil {
		return nil, err
	}

	return out, nil
}

// ColumnDecodeRange decodes rows [rl, ru) of m into out.
//
// NaN cells decode to null. Other codes are rounded to the nearest integer and
// must have a label, otherwise ErrInvalidRecodeCode is returned.
func (d *RecodeDecoder) ColumnDecodeRange(m MatrixReader, out FrameWriter, rl, ru int) error {
	if err := d.checkDecode(m, out, rl, ru, nil); err != nil {
		return err
	}

	for r := rl; r < ru; r++ {
		for j, c := range d.colList {
			cell, err := recodeCell(d.labels[j], d.schema[c-1], m.Get(r, d.srcCols[j]-1))
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", r, c, err)
			}
			out.Set(r, c-1, cell)
		}
	}

	return nil
}

func recodeCell(labels []string, vt format.ValueType, code float64) (any, error) {
	if math.IsNaN(code) {
		return nil, nil
	}

	k := math.Round(code)
	if k < 1 || k > float64(len(labels)) {
		return nil, fmt.Errorf("%w: code %g not in [1, %d]", errs.ErrInvalidRecodeCode, code, len(labels))
	}

	return frame.FromString(vt, labels[int(k)-1])
}

// SubRangeDecoder derives a recode decoder for frame columns [colStart, colEnd).
func (d *RecodeDecoder) SubRangeDecoder(colStart, colEnd, dummyCodedOffset int) (ColumnDecoder, error) {
	base, keep, ok, err := d.subRange(colStart, colEnd, dummyCodedOffset)
	if err != nil || !ok {
		return nil, err
	}

	sub := &RecodeDecoder{columnBase: base, labels: make([][]string, len(keep))}
	for i, j := range keep {
		sub.labels[i] = d.labels[j]
	}

	return sub, nil
}

// MarshalBinary serializes the decoder in little-endian byte order.
func (d *RecodeDecoder) MarshalBinary() ([]byte, error) {
	return marshalBody(d)
}

// UnmarshalBinary restores a decoder serialized by MarshalBinary.
func (d *RecodeDecoder) UnmarshalBinary(data []byte) error {
	if d.initialized {
		return errs.ErrAlreadyInitialized
	}

	return unmarshalBody(d, data)
}

func (d *RecodeDecoder) encodeBody(w *ienc.Writer) error {
	if err := d.checkInitialized(); err != nil {
		return err
	}

	d.encodeHeader(w)
	for j, c := range d.colList {
		if err := writeLabels(w, d.labels[j]); err != nil {
			return fmt.Errorf("column %d: %w", c, err)
		}
	}

	return nil
}

func (d *RecodeDecoder) decodeBody(r *ienc.Reader) error {
	var base columnBase
	if err := base.decodeHeader(r); err != nil {
		return err
	}

	labels := make([][]string, len(base.colList))
	for j, c := range base.colList {
		l, err := readLabels(r)
		if err != nil {
			return fmt.Errorf("column %d: %w", c, err)
		}
		labels[j] = l
	}

	d.columnBase = base
	d.labels = labels

	return nil
}

// writeLabels writes int32 n followed by n uint16 length-prefixed labels.
func writeLabels(w *ienc.Writer, labels []string) error {
	w.WriteInt32(int32(len(labels))) //nolint: gosec
	for _, l := range labels {
		if err := w.WriteString(l); err != nil {
			return err
		}
	}

	return nil
}

func readLabels(r *ienc.Reader) ([]string, error) {
	n, err := r.ReadCount("label count", 2)
	if err != nil {
		return nil, err
	}

	labels := make([]string, n)
	for i := range labels {
		if labels[i], err = r.ReadString(); err != nil {
			return nil, err
		}
	}

	return labels, nil
}
