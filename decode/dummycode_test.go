package decode

import (
	"testing"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	"github.com/stretchr/testify/require"
)

func TestDummycodeDecoder_Recode(t *testing.T) {
	meta := metaFrame([]string{"red:1", "green:2", "blue:3"}, []string{"0:10", "10:20"})
	schema := []format.ValueType{format.TypeString, format.TypeFP64}
	dec, err := NewDummycodeDecoder(schema, Mapping{Frame: []int{1}, Matrix: []int{1}}, nil)
	require.NoError(t, err)
	require.NoError(t, dec.InitMetaData(meta))
	require.Equal(t, []int{3}, dec.Widths())

	// columns: red green blue | bin ordinal
	m := mustMatrix(t, [][]float64{
		{0, 1, 0, 1},
		{0, 0, 1, 2},
		{0, 0, 0, 1},
	})
	out, err := dec.ColumnDecode(m)
	require.NoError(t, err)
	require.Equal(t, []any{"green", "blue", nil}, out.Column(0))
	require.Equal(t, []any{nil, nil, nil}, out.Column(1))
}

func TestDummycodeDecoder_Resolvers(t *testing.T) {
	meta := metaFrame(
		[]string{"0:10", "10:20"},
		[]string{"a:1", "b:2"},
		[]string{"x:1", "y:2", "z:3"},
	)
	schema := []format.ValueType{format.TypeFP64, format.TypeString, format.TypeInt32}
	mapping := Mapping{Frame: []int{1, 2, 3}, Matrix: []int{1, 3, 5}}
	dec, err := NewDummycodeDecoder(schema, mapping, []Resolver{ResolveBin, ResolveRecode, ResolveCode})
	require.NoError(t, err)
	require.NoError(t, dec.InitMetaData(meta))
	require.Equal(t, 2, dec.Width(0))
	require.Equal(t, 3, dec.Width(2))

	m := mustMatrix(t, [][]float64{
		{0, 1, 1, 0, 0, 0, 1},
		{1, 0, 0, 1, 1, 0, 0},
	})
	out, err := dec.ColumnDecode(m)
	require.NoError(t, err)
	require.Equal(t, []any{15.0, "a", int32(3)}, out.Row(0))
	require.Equal(t, []any{5.0, "b", int32(1)}, out.Row(1))
}

func TestDummycodeDecoder_BinMissingLastEntry(t *testing.T) {
	meta := frame.NewMetadata(2, 3)
	meta.Set(0, 0, "0:10")
	meta.Set(1, 0, "10:20")
	meta.SetColumnMetadata(0, frame.ColumnMetadata{NumDistinct: 3})
	meta.Set(0, 1, "7")
	meta.SetColumnMetadata(1, frame.ColumnMetadata{NumDistinct: 1})

	schema := []format.ValueType{format.TypeFP64, format.TypeFP64}
	mapping := Mapping{Frame: []int{1, 2}, Matrix: []int{1, 4}}
	dec, err := NewDummycodeDecoder(schema, mapping, []Resolver{ResolveBin, ResolveCode})
	require.NoError(t, err)
	require.NoError(t, dec.InitMetaData(meta))
	require.Equal(t, 3, dec.Width(0))

	t.Run("following block keeps its position", func(t *testing.T) {
		out, err := dec.ColumnDecode(mustMatrix(t, [][]float64{{0, 1, 0, 1}, {0, 0, 0, 1}}))
		require.NoError(t, err)
		require.Equal(t, []any{15.0, 1.0}, out.Row(0))
		require.Equal(t, []any{nil, 1.0}, out.Row(1))
	})

	t.Run("hot dropped bin is out of range", func(t *testing.T) {
		_, err := dec.ColumnDecode(mustMatrix(t, [][]float64{{0, 0, 1, 1}}))
		require.ErrorIs(t, err, errs.ErrOutOfRangeBin)
	})
}

func TestDummycodeDecoder_InvalidOneHot(t *testing.T) {
	meta := metaFrame([]string{"a:1", "b:2"})
	dec, err := NewDummycodeDecoder([]format.ValueType{format.TypeString}, Identity(1), nil)
	require.NoError(t, err)
	require.NoError(t, dec.InitMetaData(meta))

	_, err = dec.ColumnDecode(mustMatrix(t, [][]float64{{1, 1}}))
	require.ErrorIs(t, err, errs.ErrInvalidOneHot)

	_, err = dec.ColumnDecode(mustMatrix(t, [][]float64{{0.5, 0}}))
	require.ErrorIs(t, err, errs.ErrInvalidOneHot)

	_, err = dec.ColumnDecode(mustMatrix(t, [][]float64{{1}}))
	require.ErrorIs(t, err, errs.ErrInvalidColumn)
}

func TestDummycodeDecoder_Configuration(t *testing.T) {
	_, err := NewDummycodeDecoder(fp64Schema(2), Identity(1, 2), []Resolver{ResolveRecode})
	require.ErrorIs(t, err, errs.ErrConfiguration)

	_, err = NewDummycodeDecoder(fp64Schema(1), Identity(1), []Resolver{Resolver(9)})
	require.ErrorIs(t, err, errs.ErrConfiguration)

	require.Equal(t, "bin", ResolveBin.String())
	require.Equal(t, "unknown", Resolver(9).String())
}

func TestDummycodeDecoder_SubRangeAndSerialization(t *testing.T) {
	meta := metaFrame(
		[]string{"a:1", "b:2", "c:3"},
		[]string{"0:1", "1:2"},
		[]string{"p:1", "q:2"},
	)
	schema := []format.ValueType{format.TypeString, format.TypeFP64, format.TypeString}
	mapping := Mapping{Frame: []int{1, 2, 3}, Matrix: []int{1, 4, 6}}
	dec, err := NewDummycodeDecoder(schema, mapping, []Resolver{ResolveRecode, ResolveBin, ResolveRecode})
	require.NoError(t, err)
	require.NoError(t, dec.InitMetaData(meta))

	m := mustMatrix(t, [][]float64{
		{0, 0, 1, 1, 0, 0, 1},
		{1, 0, 0, 0, 1, 1, 0},
	})
	full, err := dec.ColumnDecode(m)
	require.NoError(t, err)
	require.Equal(t, []any{"c", 0.5, "q"}, full.Row(0))

	t.Run("sub-range over the last two columns", func(t *testing.T) {
		sub, err := dec.SubRangeDecoder(2, 4, 3)
		require.NoError(t, err)
		require.Equal(t, []int{2, 3}, sub.Columns())
		require.Equal(t, []int{1, 3}, sub.(*DummycodeDecoder).SourceColumns())

		part, err := m.SliceColumns(3, 7)
		require.NoError(t, err)
		out, err := sub.ColumnDecode(part)
		require.NoError(t, err)

		require.Equal(t, []any{nil, nil}, out.Column(0))
		require.Equal(t, full.Column(1), out.Column(1))
		require.Equal(t, full.Column(2), out.Column(2))
	})

	t.Run("round trip", func(t *testing.T) {
		data, err := dec.MarshalBinary()
		require.NoError(t, err)

		var restored DummycodeDecoder
		require.NoError(t, restored.UnmarshalBinary(data))
		require.Equal(t, dec.resolvers, restored.resolvers)
		require.Equal(t, dec.widths, restored.widths)

		got, err := restored.ColumnDecode(m)
		require.NoError(t, err)
		require.True(t, full.Equal(got))
	})
}
