// Package frame provides the heterogeneous typed table produced by column decoders.
//
// A Frame holds one column per schema entry. Cells store Go values matching the
// column's format.ValueType:
//
//	TypeString  -> string
//	TypeBoolean -> bool
//	TypeInt32   -> int32
//	TypeInt64   -> int64
//	TypeFP32    -> float32
//	TypeFP64    -> float64
//
// A nil cell is a null. The same type also serves as the metadata table that
// carries per-column transform artifacts as strings, with a distinct-value
// count per column.
//
// Frames are allocated with a fixed number of rows. Set never resizes, so
// goroutines writing disjoint cells need no synchronization.
package frame

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
)

// ColumnMetadata describes a metadata column.
type ColumnMetadata struct {
	// NumDistinct is the number of distinct transform artifacts learned for
	// the column, e.g. the number of bins or recode labels.
	NumDistinct int64
}

// Frame is a column-major table of typed cells.
type Frame struct {
	schema  []format.ValueType
	names   []string
	meta    []ColumnMetadata
	columns [][]any
	numRows int
}

// New creates a frame with the given schema and number of rows.
// Columns are named C1..Cn.
func New(schema []format.ValueType, numRows int) *Frame {
	names := make([]string, len(schema))
	for i := range names {
		names[i] = "C" + strconv.Itoa(i+1)
	}

	f, _ := NewWithNames(schema, names, numRows)

	return f
}

// NewWithNames creates a frame with explicit column names.
//
// Returns:
//   - *Frame: the new frame with all cells null
//   - error: ErrInvalidColumn if names and schema differ in length,
//     ErrInvalidRowRange if numRows is negative
func NewWithNames(schema []format.ValueType, names []string, numRows int) (*Frame, error) {
	if len(names) != len(schema) {
		return nil, fmt.Errorf("%w: %d names for %d columns", errs.ErrInvalidColumn, len(names), len(schema))
	}
	if numRows < 0 {
		return nil, fmt.Errorf("%w: negative row count %d", errs.ErrInvalidRowRange, numRows)
	}

	f := &Frame{
		schema:  append([]format.ValueType(nil), schema...),
		names:   append([]string(nil), names...),
		meta:    make([]ColumnMetadata, len(schema)),
		columns: make([][]any, len(schema)),
		numRows: numRows,
	}
	for j := range f.columns {
		f.columns[j] = make([]any, numRows)
	}

	return f, nil
}

// NewMetadata creates a string frame sized for numCols metadata columns.
func NewMetadata(numCols, numRows int) *Frame {
	schema := make([]format.ValueType, numCols)
	for i := range schema {
		schema[i] = format.TypeString
	}

	return New(schema, numRows)
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.numRows }

// NumColumns returns the number of columns.
func (f *Frame) NumColumns() int { return len(f.schema) }

// Schema returns the column value types. Callers must not modify the slice.
func (f *Frame) Schema() []format.ValueType { return f.schema }

// ColumnNames returns the column names. Callers must not modify the slice.
func (f *Frame) ColumnNames() []string { return f.names }

// Get returns the cell at (row, col), both 0-based. Nil means null.
func (f *Frame) Get(row, col int) any {
	return f.columns[col][row]
}

// Set stores v at (row, col), both 0-based.
//
// The value is expected to be already coerced to the column type.
func (f *Frame) Set(row, col int, v any) {
	f.columns[col][row] = v
}

// Column returns the backing cells of a column. Callers must not modify the slice.
func (f *Frame) Column(col int) []any {
	return f.columns[col]
}

// Row returns a copy of a row.
func (f *Frame) Row(row int) []any {
	out := make([]any, len(f.columns))
	for j := range f.columns {
		out[j] = f.columns[j][row]
	}

	return out
}

// SetRow stores the values of a row, coercing each through FromString when
// the value is a string and the column is not.
func (f *Frame) SetRow(row int, values ...any) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf("%w: %d values for %d columns", errs.ErrInvalidColumn, len(values), len(f.columns))
	}

	for j, v := range values {
		if s, ok := v.(string); ok && f.schema[j] != format.TypeString {
			cv, err := FromString(f.schema[j], s)
			if err != nil {
				return err
			}
			v = cv
		}
		f.columns[j][row] = v
	}

	return nil
}

// ColumnMetadata returns the metadata descriptor of a column.
func (f *Frame) ColumnMetadata(col int) ColumnMetadata {
	return f.meta[col]
}

// SetColumnMetadata replaces the metadata descriptor of a column.
func (f *Frame) SetColumnMetadata(col int, md ColumnMetadata) {
	f.meta[col] = md
}

// GetString returns the string form of the cell at (row, col) and false if it is null.
// This is the read path used when parsing transform metadata.
func (f *Frame) GetString(row, col int) (string, bool) {
	v := f.columns[col][row]
	if v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}

	return fmt.Sprint(v), true
}

// ColumnDistinctCount returns the NumDistinct of the column's metadata descriptor.
func (f *Frame) ColumnDistinctCount(col int) int {
	return int(f.meta[col].NumDistinct)
}

// Slice copies columns [colStart, colEnd) (0-based) into a new frame.
func (f *Frame) Slice(colStart, colEnd int) (*Frame, error) {
	if colStart < 0 || colEnd > len(f.schema) || colStart > colEnd {
		return nil, fmt.Errorf("%w: column range [%d, %d) outside 0..%d", errs.ErrInvalidColumn, colStart, colEnd, len(f.schema))
	}

	out, err := NewWithNames(f.schema[colStart:colEnd], f.names[colStart:colEnd], f.numRows)
	if err != nil {
		return nil, err
	}
	copy(out.meta, f.meta[colStart:colEnd])
	for j := colStart; j < colEnd; j++ {
		copy(out.columns[j-colStart], f.columns[j])
	}

	return out, nil
}

// Equal reports whether both frames have the same schema and cells.
// Column names are not compared, and NaN cells are equal to each other.
func (f *Frame) Equal(other *Frame) bool {
	if f.numRows != other.numRows || len(f.schema) != len(other.schema) {
		return false
	}
	for j := range f.schema {
		if f.schema[j] != other.schema[j] {
			return false
		}
		for i := 0; i < f.numRows; i++ {
			if !cellEqual(f.columns[j][i], other.columns[j][i]) {
				return false
			}
		}
	}

	return true
}

func cellEqual(a, b any) bool {
	if a == b {
		return true
	}

	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && math.IsNaN(x) && math.IsNaN(y)
	case float32:
		y, ok := b.(float32)
		return ok && math.IsNaN(float64(x)) && math.IsNaN(float64(y))
	default:
		return false
	}
}
