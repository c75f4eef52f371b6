// Package matrix provides the dense numeric matrix consumed by column decoders.
//
// Dense stores values row-major in a single slice, so a row range maps to a
// contiguous window and row-partitioned readers touch disjoint memory.
package matrix

import (
	"fmt"

	"github.com/arloliu/coldecode/errs"
)

// Dense is a row-major float64 matrix.
//
// Concurrent reads are safe. Concurrent Set calls are safe only on disjoint cells.
type Dense struct {
	rows int
	cols int
	data []float64
}

// NewDense allocates a zero matrix of rows x cols.
func NewDense(rows, cols int) *Dense {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("matrix: negative dimensions %dx%d", rows, cols))
	}

	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// FromRows builds a matrix by copying a slice of equally sized rows.
//
// Returns:
//   - *Dense: the new matrix
//   - error: ErrInvalidColumn if rows have different lengths
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 {
		return NewDense(0, 0), nil
	}

	m := NewDense(len(rows), len(rows[0]))
	for i, row := range rows {
		if len(row) != m.cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", errs.ErrInvalidColumn, i, len(row), m.cols)
		}
		copy(m.data[i*m.cols:], row)
	}

	return m, nil
}

// FromColumns builds a matrix from a slice of equally sized columns.
func FromColumns(cols [][]float64) (*Dense, error) {
	if len(cols) == 0 {
		return NewDense(0, 0), nil
	}

	m := NewDense(len(cols[0]), len(cols))
	for j, col := range cols {
		if len(col) != m.rows {
			return nil, fmt.Errorf("%w: column %d has %d rows, expected %d", errs.ErrInvalidColumn, j, len(col), m.rows)
		}
		for i, v := range col {
			m.data[i*m.cols+j] = v
		}
	}

	return m, nil
}

// NumRows returns the number of rows.
func (m *Dense) NumRows() int { return m.rows }

// NumColumns returns the number of columns.
func (m *Dense) NumColumns() int { return m.cols }

// Get returns the value at (row, col), both 0-based.
func (m *Dense) Get(row, col int) float64 {
	return m.data[row*m.cols+col]
}

// Set stores v at (row, col), both 0-based.
func (m *Dense) Set(row, col int, v float64) {
	m.data[row*m.cols+col] = v
}

// Row returns the backing slice of a row. Callers must not modify it.
func (m *Dense) Row(row int) []float64 {
	return m.data[row*m.cols : (row+1)*m.cols]
}

// SliceColumns copies columns [colStart, colEnd) into a new matrix.
// It mirrors the column partitioning used when encoded output is split across workers.
func (m *Dense) SliceColumns(colStart, colEnd int) (*Dense, error) {
	if colStart < 0 || colEnd > m.cols || colStart > colEnd {
		return nil, fmt.Errorf("%w: column range [%d, %d) outside 0..%d", errs.ErrInvalidColumn, colStart, colEnd, m.cols)
	}

	out := NewDense(m.rows, colEnd-colStart)
	for i := 0; i < m.rows; i++ {
		copy(out.data[i*out.cols:(i+1)*out.cols], m.data[i*m.cols+colStart:i*m.cols+colEnd])
	}

	return out, nil
}
