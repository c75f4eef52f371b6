package decode

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	ienc "github.com/arloliu/coldecode/internal/encoding"
)

// Resolver selects how a dummy coded column turns the code of its hot
// position into a value.
type Resolver uint8

const (
	// ResolveCode writes the code itself.
	ResolveCode Resolver = 0
	// ResolveRecode writes the recode label of the code.
	ResolveRecode Resolver = 1
	// ResolveBin writes the midpoint of the bin whose ordinal is the code.
	ResolveBin Resolver = 2
)

func (r Resolver) String() string {
	switch r {
	case ResolveCode:
		return "code"
	case ResolveRecode:
		return "recode"
	case ResolveBin:
		return "bin"
	default:
		return "unknown"
	}
}

// DummycodeDecoder collapses one-hot blocks back into a single column.
//
// A dummy coded column with k categories occupies k consecutive matrix
// columns starting at its mapped matrix column. The position p (0-based) of
// the single 1 in a row's block yields code p+1, which is then resolved
// according to the column's Resolver. The block width is the distinct count
// of the column's metadata.
type DummycodeDecoder struct {
	columnBase
	resolvers []Resolver
	widths    []int
	labels    [][]string
	binMins   [][]float64
	binMaxs   [][]float64
}

var _ ColumnDecoder = (*DummycodeDecoder)(nil)

// NewDummycodeDecoder creates an uninitialized dummycode decoder for the mapped columns.
//
// Parameters:
//   - schema: value types of the full output frame
//   - mapping: owned frame columns and the first matrix column of their block
//   - resolvers: resolver per owned column; nil resolves every column through ResolveRecode
//
// Returns:
//   - *DummycodeDecoder: decoder awaiting InitMetaData
//   - error: ErrConfiguration when resolvers does not match the mapping or holds an unknown value
func NewDummycodeDecoder(schema []format.ValueType, mapping Mapping, resolvers []Resolver) (*DummycodeDecoder, error) {
	base, err := newColumnBase(schema, mapping)
	if err != nil {
		return nil, err
	}

	if resolvers == nil {
		resolvers = make([]Resolver, mapping.Len())
		for i := range resolvers {
			resolvers[i] = ResolveRecode
		}
	}
	if len(resolvers) != mapping.Len() {
		return nil, fmt.Errorf("%w: %d resolvers for %d columns", errs.ErrConfiguration, len(resolvers), mapping.Len())
	}
	for i, r := range resolvers {
		if r > ResolveBin {
			return nil, fmt.Errorf("%w: column %d has resolver %d", errs.ErrConfiguration, mapping.Frame[i], r)
		}
	}

	return &DummycodeDecoder{
		columnBase: base,
		resolvers:  append([]Resolver(nil), resolvers...),
	}, nil
}

// Type returns format.DecoderDummycode.
func (d *DummycodeDecoder) Type() format.DecoderType {
	return format.DecoderDummycode
}

// Width returns the number of matrix columns of the i-th owned column.
func (d *DummycodeDecoder) Width(i int) int {
	return d.widths[i]
}

// Widths returns the block width of every owned column.
func (d *DummycodeDecoder) Widths() []int {
	return append([]int(nil), d.widths...)
}

// InitMetaData reads the block width of every owned column and parses the
// recode labels or bin boundaries its resolver needs.
func (d *DummycodeDecoder) InitMetaData(meta MetadataReader) error {
	if d.initialized {
		return errs.ErrAlreadyInitialized
	}
	if err := d.checkMetaColumns(meta); err != nil {
		return err
	}

	n := len(d.colList)
	widths := make([]int, n)
	labels := make([][]string, n)
	binMins := make([][]float64, n)
	binMaxs := make([][]float64, n)
	for j, c := range d.colList {
		switch d.resolvers[j] {
		case ResolveRecode:
			l, err := parseRecodeColumn(meta, c)
			if err != nil {
				return err
			}
			labels[j] = l
			widths[j] = len(l)
		case ResolveBin:
			mins, maxs, err := parseBinColumn(meta, c)
			if err != nil {
				return err
			}
			binMins[j], binMaxs[j] = mins, maxs
			// The block keeps its declared width even when the last bin entry is
			// missing; a hot last position then fails like an out of range ordinal.
			widths[j] = meta.ColumnDistinctCount(c - 1)
		case ResolveCode:
			widths[j] = meta.ColumnDistinctCount(c - 1)
			if widths[j] < 0 {
				return fmt.Errorf("%w: column %d declares %d categories", errs.ErrMetadataCorruption, c, widths[j])
			}
		}
	}

	d.widths = widths
	d.labels = labels
	d.binMins = binMins
	d.binMaxs = binMaxs
	Logger().Debug("dummycode metadata initialized", zap.Ints("columns", d.colList), zap.Ints("widths", widths))

	return d.markInitialized()
}

// ColumnDecode decodes every row of m into a new frame.
func (d *DummycodeDecoder) ColumnDecode(m MatrixReader) (*frame.Frame, error) {
	out := d.newOutput(m)
	if err := d.ColumnDecodeRange(m, out, 0, m.NumRows()); err != nil {
		return nil, err
	}

	return out, nil
}

// ColumnDecodeRange decodes rows [rl, ru) of m into out.
//
// A block of zeros decodes to null. A block holding any value other than 0 or
// 1, or more than one 1, fails with ErrInvalidOneHot.
func (d *DummycodeDecoder) ColumnDecodeRange(m MatrixReader, out FrameWriter, rl, ru int) error {
	if err := d.checkDecode(m, out, rl, ru, d.widths); err != nil {
		return err
	}

	for r := rl; r < ru; r++ {
		for j, c := range d.colList {
			code, err := hotCode(m, r, d.srcCols[j]-1, d.widths[j])
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", r, c, err)
			}
			if code == 0 {
				out.Set(r, c-1, nil)
				continue
			}

			cell, err := d.resolve(j, d.schema[c-1], code)
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", r, c, err)
			}
			out.Set(r, c-1, cell)
		}
	}

	return nil
}

// hotCode returns the 1-based position of the single 1 in matrix row r,
// columns [first, first+width), or 0 when all are zero.
func hotCode(m MatrixReader, r, first, width int) (int, error) {
	code := 0
	for k := 0; k < width; k++ {
		switch v := m.Get(r, first+k); v {
		case 0:
		case 1:
			if code != 0 {
				return 0, fmt.Errorf("%w: positions %d and %d are both set", errs.ErrInvalidOneHot, code, k+1)
			}
			code = k + 1
		default:
			return 0, fmt.Errorf("%w: position %d holds %g", errs.ErrInvalidOneHot, k+1, v)
		}
	}

	return code, nil
}

func (d *DummycodeDecoder) resolve(j int, vt format.ValueType, code int) (any, error) {
	switch d.resolvers[j] {
	case ResolveRecode:
		return recodeCell(d.labels[j], vt, float64(code))
	case ResolveBin:
		mid, err := binMidpoint(d.binMins[j], d.binMaxs[j], float64(code))
		if err != nil {
			return nil, err
		}

		return frame.FromFloat64(vt, mid)
	default:
		return frame.FromFloat64(vt, float64(code))
	}
}

// SubRangeDecoder derives a dummycode decoder for frame columns [colStart, colEnd).
func (d *DummycodeDecoder) SubRangeDecoder(colStart, colEnd, dummyCodedOffset int) (ColumnDecoder, error) {
	base, keep, ok, err := d.subRange(colStart, colEnd, dummyCodedOffset)
	if err != nil || !ok {
		return nil, err
	}

	n := len(keep)
	sub := &DummycodeDecoder{
		columnBase: base,
		resolvers:  make([]Resolver, n),
		widths:     make([]int, n),
		labels:     make([][]string, n),
		binMins:    make([][]float64, n),
		binMaxs:    make([][]float64, n),
	}
	for i, j := range keep {
		sub.resolvers[i] = d.resolvers[j]
		sub.widths[i] = d.widths[j]
		sub.labels[i] = d.labels[j]
		sub.binMins[i] = d.binMins[j]
		sub.binMaxs[i] = d.binMaxs[j]
	}

	return sub, nil
}

// MarshalBinary serializes the decoder in little-endian byte order.
func (d *DummycodeDecoder) MarshalBinary() ([]byte, error) {
	return marshalBody(d)
}

// UnmarshalBinary restores a decoder serialized by MarshalBinary.
func (d *DummycodeDecoder) UnmarshalBinary(data []byte) error {
	if d.initialized {
		return errs.ErrAlreadyInitialized
	}

	return unmarshalBody(d, data)
}

func (d *DummycodeDecoder) encodeBody(w *ienc.Writer) error {
	if err := d.checkInitialized(); err != nil {
		return err
	}

	d.encodeHeader(w)
	for j, c := range d.colList {
		w.WriteInt32(int32(d.widths[j])) //nolint: gosec
		w.WriteUint8(uint8(d.resolvers[j]))
		switch d.resolvers[j] {
		case ResolveRecode:
			if err := writeLabels(w, d.labels[j]); err != nil {
				return fmt.Errorf("column %d: %w", c, err)
			}
		case ResolveBin:
			writeBins(w, d.binMins[j], d.binMaxs[j])
		case ResolveCode:
		}
	}

	return nil
}

func (d *DummycodeDecoder) decodeBody(r *ienc.Reader) error {
	var base columnBase
	if err := base.decodeHeader(r); err != nil {
		return err
	}

	n := len(base.colList)
	resolvers := make([]Resolver, n)
	widths := make([]int, n)
	labels := make([][]string, n)
	binMins := make([][]float64, n)
	binMaxs := make([][]float64, n)
	for j, c := range base.colList {
		width, err := r.ReadInt32()
		if err != nil {
			return err
		}
		if width < 0 {
			return fmt.Errorf("%w: column %d has negative width %d", errs.ErrInvalidPayload, c, width)
		}
		widths[j] = int(width)

		res, err := r.ReadUint8()
		if err != nil {
			return err
		}
		resolvers[j] = Resolver(res)

		switch resolvers[j] {
		case ResolveRecode:
			if labels[j], err = readLabels(r); err != nil {
				return fmt.Errorf("column %d: %w", c, err)
			}
		case ResolveBin:
			if binMins[j], binMaxs[j], err = readBins(r); err != nil {
				return fmt.Errorf("column %d: %w", c, err)
			}
		case ResolveCode:
		default:
			return fmt.Errorf("%w: column %d has resolver %d", errs.ErrInvalidPayload, c, res)
		}
	}

	d.columnBase = base
	d.resolvers = resolvers
	d.widths = widths
	d.labels = labels
	d.binMins = binMins
	d.binMaxs = binMaxs

	return nil
}
