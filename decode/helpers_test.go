package decode

import (
	"testing"

	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	"github.com/arloliu/coldecode/matrix"
	"github.com/stretchr/testify/require"
)

// metaFrame builds a metadata frame where column j lists cols[j] and declares
// len(cols[j]) distinct entries.
func metaFrame(cols ...[]string) *frame.Frame {
	rows := 0
	for _, col := range cols {
		rows = max(rows, len(col))
	}

	meta := frame.NewMetadata(len(cols), rows)
	for j, col := range cols {
		for i, entry := range col {
			meta.Set(i, j, entry)
		}
		meta.SetColumnMetadata(j, frame.ColumnMetadata{NumDistinct: int64(len(col))})
	}

	return meta
}

func mustMatrix(t testing.TB, rows [][]float64) *matrix.Dense {
	t.Helper()

	m, err := matrix.FromRows(rows)
	require.NoError(t, err)

	return m
}

func mustColumns(t testing.TB, cols [][]float64) *matrix.Dense {
	t.Helper()

	m, err := matrix.FromColumns(cols)
	require.NoError(t, err)

	return m
}

func fp64Schema(n int) []format.ValueType {
	schema := make([]format.ValueType, n)
	for i := range schema {
		schema[i] = format.TypeFP64
	}

	return schema
}

func newInitBin(t testing.TB, schema []format.ValueType, mapping Mapping, meta MetadataReader) *BinDecoder {
	t.Helper()

	dec, err := NewBinDecoder(schema, mapping)
	require.NoError(t, err)
	require.NoError(t, dec.InitMetaData(meta))

	return dec
}
