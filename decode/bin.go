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

// BinDecoder decodes bin ordinals back to the midpoint of their bin.
//
// The matrix holds a 1-based bin ordinal per row for each owned column. The
// metadata column lists one "<min>:<max>" boundary per bin, and its distinct
// count is the number of bins.
type BinDecoder struct {
	columnBase
	numBins []int
	binMins [][]float64
	binMaxs [][]float64
}

var _ ColumnDecoder = (*BinDecoder)(nil)

// NewBinDecoder creates an uninitialized bin decoder for the mapped columns.
//
// Parameters:
//   - schema: value types of the full output frame
//   - mapping: owned frame columns and their matrix columns
//
// Returns:
//   - *BinDecoder: decoder awaiting InitMetaData
//   - error: ErrConfiguration, ErrInvalidColumn or ErrInvalidValueType for an invalid mapping or schema
func NewBinDecoder(schema []format.ValueType, mapping Mapping) (*BinDecoder, error) {
	base, err := newColumnBase(schema, mapping)
	if err != nil {
		return nil, err
	}

	return &BinDecoder{columnBase: base}, nil
}

// Type returns format.DecoderBin.
func (d *BinDecoder) Type() format.DecoderType {
	return format.DecoderBin
}

// NumBins returns the number of bins of the i-th owned column.
func (d *BinDecoder) NumBins(i int) int {
	return d.numBins[i]
}

// Bin returns the boundaries of the 1-based bin b of the i-th owned column.
func (d *BinDecoder) Bin(i, b int) (lo, hi float64) {
	return d.binMins[i][b-1], d.binMaxs[i][b-1]
}

// InitMetaData parses the bin boundaries of every owned column.
func (d *BinDecoder) InitMetaData(meta MetadataReader) error {
	if d.initialized {
		return errs.ErrAlreadyInitialized
	}
	if err := d.checkMetaColumns(meta); err != nil {
		return err
	}

	numBins := make([]int, len(d.colList))
	binMins := make([][]float64, len(d.colList))
	binMaxs := make([][]float64, len(d.colList))
	for j, c := range d.colList {
		mins, maxs, err := parseBinColumn(meta, c)
		if err != nil {
			return err
		}
		numBins[j] = len(mins)
		binMins[j] = mins
		binMaxs[j] = maxs
	}

	d.numBins = numBins
	d.binMins = binMins
	d.binMaxs = binMaxs
	Logger().Debug("bin metadata initialized", zap.Ints("columns", d.colList), zap.Ints("bins", numBins))

	return d.markInitialized()
}

// ColumnDecode decodes every row of m into a new frame.
func (d *BinDecoder) ColumnDecode(m MatrixReader) (*frame.Frame, error) {
	out := d.newOutput(m)
	if err := d.ColumnDecodeRange(m, out, 0, m.NumRows()); err != nil {
		return nil, err
	}

	return out, nil
}

// ColumnDecodeRange decodes rows [rl, ru) of m into out.
//
// A NaN cell is a missing value and decodes to null, or NaN for floating-point
// columns. Any other ordinal is rounded to the nearest integer and must lie in
// [1, numBins], otherwise ErrOutOfRangeBin is returned.
func (d *BinDecoder) ColumnDecodeRange(m MatrixReader, out FrameWriter, rl, ru int) error {
	if err := d.checkDecode(m, out, rl, ru, nil); err != nil {
		return err
	}

	for r := rl; r < ru; r++ {
		for j, c := range d.colList {
			v, err := d.decodeCell(j, m.Get(r, d.srcCols[j]-1))
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", r, c, err)
			}

			cell, err := frame.FromFloat64(d.schema[c-1], v)
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", r, c, err)
			}
			out.Set(r, c-1, cell)
		}
	}

	return nil
}

// decodeCell maps an ordinal of the j-th owned column to its bin midpoint.
func (d *BinDecoder) decodeCell(j int, ordinal float64) (float64, error) {
	return binMidpoint(d.binMins[j], d.binMaxs[j], ordinal)
}

func binMidpoint(mins, maxs []float64, ordinal float64) (float64, error) {
	if math.IsNaN(ordinal) {
		return ordinal, nil
	}

	b := math.Round(ordinal)
	if b < 1 || b > float64(len(mins)) {
		return 0, fmt.Errorf("%w: ordinal %g not in [1, %d]", errs.ErrOutOfRangeBin, ordinal, len(mins))
	}
	k := int(b) - 1

	return (mins[k] + maxs[k]) / 2, nil
}

// SubRangeDecoder derives a bin decoder for frame columns [colStart, colEnd).
// The parsed boundaries of the retained columns are shared, not re-parsed.
func (d *BinDecoder) SubRangeDecoder(colStart, colEnd, dummyCodedOffset int) (ColumnDecoder, error) {
	base, keep, ok, err := d.subRange(colStart, colEnd, dummyCodedOffset)
	if err != nil || !ok {
		return nil, err
	}

	sub := &BinDecoder{
		columnBase: base,
		numBins:    make([]int, len(keep)),
		binMins:    make([][]float64, len(keep)),
		binMaxs:    make([][]float64, len(keep)),
	}
	for i, j := range keep {
		sub.numBins[i] = d.numBins[j]
		sub.binMins[i] = d.binMins[j]
		sub.binMaxs[i] = d.binMaxs[j]
	}

	return sub, nil
}

// MarshalBinary serializes the decoder in little-endian byte order.
func (d *BinDecoder) MarshalBinary() ([]byte, error) {
	return marshalBody(d)
}

// UnmarshalBinary restores a decoder serialized by MarshalBinary.
// The restored decoder is initialized.
func (d *BinDecoder) UnmarshalBinary(data []byte) error {
	if d.initialized {
		return errs.ErrAlreadyInitialized
	}

	return unmarshalBody(d, data)
}

func (d *BinDecoder) encodeBody(w *ienc.Writer) error {
	if err := d.checkInitialized(); err != nil {
		return err
	}

	d.encodeHeader(w)
	for j := range d.colList {
		writeBins(w, d.binMins[j], d.binMaxs[j])
	}

	return nil
}

func (d *BinDecoder) decodeBody(r *ienc.Reader) error {
	var base columnBase
	if err := base.decodeHeader(r); err != nil {
		return err
	}

	n := len(base.colList)
	numBins := make([]int, n)
	binMins := make([][]float64, n)
	binMaxs := make([][]float64, n)
	for j := 0; j < n; j++ {
		mins, maxs, err := readBins(r)
		if err != nil {
			return fmt.Errorf("column %d: %w", base.colList[j], err)
		}
		numBins[j] = len(mins)
		binMins[j] = mins
		binMaxs[j] = maxs
	}

	d.columnBase = base
	d.numBins = numBins
	d.binMins = binMins
	d.binMaxs = binMaxs

	return nil
}

// writeBins writes int32 numBins followed by numBins (min, max) float64 pairs.
func writeBins(w *ienc.Writer, mins, maxs []float64) {
	w.WriteInt32(int32(len(mins))) //nolint: gosec
	for b := range mins {
		w.WriteFloat64(mins[b])
		w.WriteFloat64(maxs[b])
	}
}

func readBins(r *ienc.Reader) (mins, maxs []float64, err error) {
	numBins, err := r.ReadCount("bin count", 16)
	if err != nil {
		return nil, nil, err
	}

	mins = make([]float64, numBins)
	maxs = make([]float64, numBins)
	for b := 0; b < numBins; b++ {
		if mins[b], err = r.ReadFloat64(); err != nil {
			return nil, nil, err
		}
		if maxs[b], err = r.ReadFloat64(); err != nil {
			return nil, nil, err
		}
	}

	return mins, maxs, nil
}
