package decode

import (
	"encoding"
	"fmt"
	"slices"

	"github.com/arloliu/coldecode/endian"
	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	ienc "github.com/arloliu/coldecode/internal/encoding"
)

// MetadataReader is the read view of a metadata frame.
//
// Column j holds the transform artifacts learned for source column j+1.
// *frame.Frame implements it.
type MetadataReader interface {
	NumRows() int
	NumColumns() int
	// GetString returns the cell at (row, col), both 0-based, and false when the cell is null.
	GetString(row, col int) (string, bool)
	// ColumnDistinctCount returns the number of distinct artifacts of a column.
	ColumnDistinctCount(col int) int
}

// MatrixReader is the read view of an encoded numeric matrix.
// *matrix.Dense implements it.
type MatrixReader interface {
	NumRows() int
	NumColumns() int
	// Get returns the cell at (row, col), both 0-based.
	Get(row, col int) float64
}

// FrameWriter is the write view of an output frame.
//
// Set receives values already coerced to the column's value type. Rows and
// columns are 0-based. *frame.Frame implements it.
type FrameWriter interface {
	Set(row, col int, v any)
}

// sizedFrame is implemented by writers that expose their shape. When present,
// decoders validate their target cells against it before writing.
type sizedFrame interface {
	NumRows() int
	NumColumns() int
}

// ColumnDecoder decodes the columns it owns from an encoded matrix into a frame.
//
// InitMetaData must complete before any other call. After that, all methods are
// safe for concurrent use as long as concurrent ColumnDecodeRange calls write
// disjoint cells.
type ColumnDecoder interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler

	// Type returns the decoder variant.
	Type() format.DecoderType

	// Columns returns the 1-based frame columns owned by the decoder.
	Columns() []int

	// Schema returns the value types of the full output frame.
	Schema() []format.ValueType

	// InitMetaData parses the decoder's columns out of the metadata frame.
	//
	// Returns:
	//   - error: ErrAlreadyInitialized on a second call, ErrMetadataCorruption when a
	//     column does not hold the expected number of entries, ErrMetadataParse
	//     for malformed entries
	InitMetaData(meta MetadataReader) error

	// ColumnDecode decodes every row of m into a new frame with the decoder's schema.
	// Columns not owned by the decoder are left null.
	ColumnDecode(m MatrixReader) (*frame.Frame, error)

	// ColumnDecodeRange decodes rows [rl, ru) of m into out.
	//
	// ColumnDecode is equivalent to one ColumnDecodeRange call over all rows.
	// On error, cells written before the failure are left in place.
	ColumnDecodeRange(m MatrixReader, out FrameWriter, rl, ru int) error

	// SubRangeDecoder derives a decoder restricted to frame columns [colStart, colEnd).
	//
	// The derived decoder keeps global frame column indexes and the full schema,
	// and reads a matrix partition whose first column is matrix column
	// dummyCodedOffset+1. Decoders over disjoint column ranges may therefore write
	// into one shared frame.
	//
	// Parameters:
	//   - colStart: first 1-based frame column of the partition
	//   - colEnd: 1-based frame column one past the end of the partition
	//   - dummyCodedOffset: number of matrix columns preceding the partition
	//
	// Returns:
	//   - ColumnDecoder: the derived decoder, or nil if no owned column is in range
	//   - error: ErrNotInitialized, or ErrInvalidColumn for an invalid range
	SubRangeDecoder(colStart, colEnd, dummyCodedOffset int) (ColumnDecoder, error)
}

// payloadCodec is implemented by every decoder in this package. It writes and
// reads the decoder body with an arbitrary byte order so that records and
// composites can embed it.
type payloadCodec interface {
	encodeBody(w *ienc.Writer) error
	decodeBody(r *ienc.Reader) error
}

// Mapping assigns frame columns to the matrix columns that encode them.
//
// Frame and Matrix are parallel lists of 1-based positions. Matrix[i] is the
// first matrix column of Frame[i]; dummy coded columns span several matrix columns.
type Mapping struct {
	Frame  []int
	Matrix []int
}

// Identity returns a Mapping where every frame column is encoded at the same
// matrix position, the case when no dummy coded column precedes them.
func Identity(cols ...int) Mapping {
	return Mapping{
		Frame:  slices.Clone(cols),
		Matrix: slices.Clone(cols),
	}
}

// Len returns the number of mapped columns.
func (m Mapping) Len() int {
	return len(m.Frame)
}

// columnBase holds the state shared by all variants: the owned columns, their
// matrix positions and the output schema.
type columnBase struct {
	colList     []int
	srcCols     []int
	schema      []format.ValueType
	initialized bool
}

func newColumnBase(schema []format.ValueType, mapping Mapping) (columnBase, error) {
	if len(mapping.Frame) != len(mapping.Matrix) {
		return columnBase{}, fmt.Errorf("%w: %d frame columns but %d matrix columns",
			errs.ErrConfiguration, len(mapping.Frame), len(mapping.Matrix))
	}

	for i, vt := range schema {
		if !vt.IsValid() {
			return columnBase{}, fmt.Errorf("%w: schema column %d has type %s",
				errs.ErrInvalidValueType, i+1, vt)
		}
	}

	seen := make(map[int]struct{}, len(mapping.Frame))
	for i, c := range mapping.Frame {
		if c < 1 || c > len(schema) {
			return columnBase{}, fmt.Errorf("%w: frame column %d outside schema of %d columns",
				errs.ErrInvalidColumn, c, len(schema))
		}
		if mapping.Matrix[i] < 1 {
			return columnBase{}, fmt.Errorf("%w: matrix column %d for frame column %d",
				errs.ErrInvalidColumn, mapping.Matrix[i], c)
		}
		if _, dup := seen[c]; dup {
			return columnBase{}, fmt.Errorf("%w: frame column %d listed twice", errs.ErrConfiguration, c)
		}
		seen[c] = struct{}{}
	}

	return columnBase{
		colList: slices.Clone(mapping.Frame),
		srcCols: slices.Clone(mapping.Matrix),
		schema:  slices.Clone(schema),
	}, nil
}

// Columns returns the 1-based frame columns owned by the decoder.
func (b *columnBase) Columns() []int {
	return slices.Clone(b.colList)
}

// SourceColumns returns the first 1-based matrix column of each owned column.
func (b *columnBase) SourceColumns() []int {
	return slices.Clone(b.srcCols)
}

// Schema returns the value types of the full output frame.
func (b *columnBase) Schema() []format.ValueType {
	return slices.Clone(b.schema)
}

func (b *columnBase) markInitialized() error {
	if b.initialized {
		return errs.ErrAlreadyInitialized
	}
	b.initialized = true

	return nil
}

func (b *columnBase) checkInitialized() error {
	if !b.initialized {
		return errs.ErrNotInitialized
	}

	return nil
}

// checkMetaColumns ensures every owned column has a metadata column.
func (b *columnBase) checkMetaColumns(meta MetadataReader) error {
	if meta == nil {
		return fmt.Errorf("%w: nil metadata", errs.ErrConfiguration)
	}
	for _, c := range b.colList {
		if c > meta.NumColumns() {
			return fmt.Errorf("%w: column %d not present in metadata of %d columns",
				errs.ErrInvalidColumn, c, meta.NumColumns())
		}
	}

	return nil
}

// checkDecode validates a row range and the matrix and frame columns touched by it.
// widths gives the number of matrix columns of each owned column; nil means one each.
func (b *columnBase) checkDecode(m MatrixReader, out FrameWriter, rl, ru int, widths []int) error {
	if err := b.checkInitialized(); err != nil {
		return err
	}

	if rl < 0 || ru < rl || ru > m.NumRows() {
		return fmt.Errorf("%w: [%d, %d) for %d matrix rows", errs.ErrInvalidRowRange, rl, ru, m.NumRows())
	}

	for i, src := range b.srcCols {
		last := src
		if widths != nil {
			last = src + widths[i] - 1
		}
		if last > m.NumColumns() {
			return fmt.Errorf("%w: matrix column %d outside matrix of %d columns",
				errs.ErrInvalidColumn, last, m.NumColumns())
		}
	}

	if sf, ok := out.(sizedFrame); ok {
		if ru > sf.NumRows() {
			return fmt.Errorf("%w: [%d, %d) for %d frame rows", errs.ErrInvalidRowRange, rl, ru, sf.NumRows())
		}
		for _, c := range b.colList {
			if c > sf.NumColumns() {
				return fmt.Errorf("%w: frame column %d outside frame of %d columns",
					errs.ErrInvalidColumn, c, sf.NumColumns())
			}
		}
	}

	return nil
}

// newOutput allocates the frame returned by ColumnDecode.
func (b *columnBase) newOutput(m MatrixReader) *frame.Frame {
	return frame.New(b.schema, m.NumRows())
}

// subRange returns the base of a decoder restricted to frame columns
// [colStart, colEnd) and the indexes of the retained columns. ok is false when
// no owned column falls in range.
//
// Frame columns and the schema stay global so that decoders over disjoint
// column ranges can share one output frame. Only matrix positions move, since
// the derived decoder reads a matrix partition starting after dummyCodedOffset
// columns.
func (b *columnBase) subRange(colStart, colEnd, dummyCodedOffset int) (sub columnBase, keep []int, ok bool, err error) {
	if err := b.checkInitialized(); err != nil {
		return columnBase{}, nil, false, err
	}

	if colStart < 1 || colEnd < colStart || colEnd-1 > len(b.schema) {
		return columnBase{}, nil, false, fmt.Errorf("%w: sub-range [%d, %d) of %d columns",
			errs.ErrInvalidColumn, colStart, colEnd, len(b.schema))
	}
	if dummyCodedOffset < 0 {
		return columnBase{}, nil, false, fmt.Errorf("%w: negative dummy coded offset %d",
			errs.ErrInvalidColumn, dummyCodedOffset)
	}

	sub = columnBase{
		schema:      slices.Clone(b.schema),
		initialized: true,
	}
	for i, c := range b.colList {
		if c < colStart || c >= colEnd {
			continue
		}

		src := b.srcCols[i] - dummyCodedOffset
		if src < 1 {
			return columnBase{}, nil, false, fmt.Errorf("%w: offset %d moves matrix column %d before the partition",
				errs.ErrInvalidColumn, dummyCodedOffset, b.srcCols[i])
		}

		sub.colList = append(sub.colList, c)
		sub.srcCols = append(sub.srcCols, src)
		keep = append(keep, i)
	}

	return sub, keep, len(keep) > 0, nil
}

// encodeHeader writes the column lists and schema shared by all variants.
func (b *columnBase) encodeHeader(w *ienc.Writer) {
	w.WriteInt32(int32(len(b.colList))) //nolint: gosec
	w.WriteInt32Slice(b.colList)
	w.WriteInt32Slice(b.srcCols)
	w.WriteInt32(int32(len(b.schema))) //nolint: gosec
	for _, vt := range b.schema {
		w.WriteUint8(uint8(vt))
	}
}

// decodeHeader reads the shared header and validates it like a constructor would.
func (b *columnBase) decodeHeader(r *ienc.Reader) error {
	n, err := r.ReadCount("column count", 8)
	if err != nil {
		return err
	}
	colList, err := r.ReadInt32Slice(n)
	if err != nil {
		return err
	}
	srcCols, err := r.ReadInt32Slice(n)
	if err != nil {
		return err
	}

	schemaLen, err := r.ReadCount("schema length", 1)
	if err != nil {
		return err
	}
	schema := make([]format.ValueType, schemaLen)
	for i := range schema {
		v, err := r.ReadUint8()
		if err != nil {
			return err
		}
		schema[i] = format.ValueType(v)
	}

	base, err := newColumnBase(schema, Mapping{Frame: colList, Matrix: srcCols})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidPayload, err)
	}
	base.initialized = true
	*b = base

	return nil
}

// marshalBody serializes a decoder body in little-endian byte order.
func marshalBody(pc payloadCodec) ([]byte, error) {
	w := ienc.NewWriter(endian.GetLittleEndianEngine())
	defer w.Finish()

	if err := pc.encodeBody(w); err != nil {
		return nil, err
	}

	return slices.Clone(w.Bytes()), nil
}

// unmarshalBody restores a decoder body from little-endian data. Trailing
// bytes are rejected.
func unmarshalBody(pc payloadCodec, data []byte) error {
	r := ienc.NewReader(data, endian.GetLittleEndianEngine())
	if err := pc.decodeBody(r); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidPayload, r.Remaining())
	}

	return nil
}
