package decode

import (
	"testing"

	"github.com/arloliu/coldecode/endian"
	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	ienc "github.com/arloliu/coldecode/internal/encoding"
	"github.com/arloliu/coldecode/section"
	"github.com/stretchr/testify/require"
)

// compositeFixture returns a composite over a dummy coded string column, a
// binned column and a pass-through column, with its metadata and a matrix.
//
//	frame:  1 city (dummycode+recode) | 2 age (bin) | 3 score (pass-through)
//	matrix: 1..3 one-hot city         | 4 ordinal   | 5 score
func compositeFixture(t testing.TB) (*CompositeDecoder, *[][]float64) {
	t.Helper()

	schema := []format.ValueType{format.TypeString, format.TypeFP64, format.TypeFP64}
	meta := metaFrame(
		[]string{"paris:1", "rome:2", "oslo:3"},
		[]string{"0:20", "20:40", "40:80"},
		[]string{},
	)

	dummy, err := NewDummycodeDecoder(schema, Mapping{Frame: []int{1}, Matrix: []int{1}}, nil)
	require.NoError(t, err)
	bin, err := NewBinDecoder(schema, Mapping{Frame: []int{2}, Matrix: []int{4}})
	require.NoError(t, err)
	pass, err := NewPassThroughDecoder(schema, Mapping{Frame: []int{3}, Matrix: []int{5}})
	require.NoError(t, err)

	comp, err := NewCompositeDecoder(dummy, bin, pass)
	require.NoError(t, err)
	require.NoError(t, comp.InitMetaData(meta))

	rows := [][]float64{
		{1, 0, 0, 1, 0.5},
		{0, 0, 1, 3, 1.5},
		{0, 1, 0, 2, 2.5},
		{0, 0, 0, 2, 3.5},
	}

	return comp, &rows
}

func TestCompositeDecoder_Decode(t *testing.T) {
	comp, rows := compositeFixture(t)
	require.Equal(t, []int{1, 2, 3}, comp.Columns())
	require.Equal(t, format.DecoderComposite, comp.Type())
	require.Len(t, comp.Children(), 3)

	out, err := comp.ColumnDecode(mustMatrix(t, *rows))
	require.NoError(t, err)
	require.Equal(t, []any{"paris", 10.0, 0.5}, out.Row(0))
	require.Equal(t, []any{"oslo", 60.0, 1.5}, out.Row(1))
	require.Equal(t, []any{"rome", 30.0, 2.5}, out.Row(2))
	require.Equal(t, []any{nil, 30.0, 3.5}, out.Row(3))
}

func TestCompositeDecoder_Configuration(t *testing.T) {
	_, err := NewCompositeDecoder()
	require.ErrorIs(t, err, errs.ErrConfiguration)

	a, err := NewPassThroughDecoder(fp64Schema(2), Identity(1))
	require.NoError(t, err)
	b, err := NewBinDecoder(fp64Schema(2), Identity(1))
	require.NoError(t, err)
	_, err = NewCompositeDecoder(a, b)
	require.ErrorIs(t, err, errs.ErrConfiguration)

	c, err := NewBinDecoder(fp64Schema(3), Identity(2))
	require.NoError(t, err)
	_, err = NewCompositeDecoder(a, c)
	require.ErrorIs(t, err, errs.ErrConfiguration)

	_, err = NewCompositeDecoder(a, nil)
	require.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestCompositeDecoder_SubRange(t *testing.T) {
	comp, rows := compositeFixture(t)
	m := mustMatrix(t, *rows)
	full, err := comp.ColumnDecode(m)
	require.NoError(t, err)

	sub, err := comp.SubRangeDecoder(2, 4, 3)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, sub.Columns())
	require.Equal(t, comp.Schema(), sub.Schema())
	require.Len(t, sub.(*CompositeDecoder).Children(), 2)

	part, err := m.SliceColumns(3, 5)
	require.NoError(t, err)
	out, err := sub.ColumnDecode(part)
	require.NoError(t, err)
	requireColumnRange(t, full, out, 2, 4)

	head, err := comp.SubRangeDecoder(1, 2, 0)
	require.NoError(t, err)
	headPart, err := m.SliceColumns(0, 3)
	require.NoError(t, err)

	shared := frame.New(comp.Schema(), m.NumRows())
	require.NoError(t, head.ColumnDecodeRange(headPart, shared, 0, m.NumRows()))
	require.NoError(t, sub.ColumnDecodeRange(part, shared, 0, m.NumRows()))
	require.True(t, full.Equal(shared))

	none, err := comp.SubRangeDecoder(4, 4, 5)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestCompositeDecoder_Serialization(t *testing.T) {
	comp, rows := compositeFixture(t)
	m := mustMatrix(t, *rows)

	data, err := comp.MarshalBinary()
	require.NoError(t, err)

	var restored CompositeDecoder
	require.NoError(t, restored.UnmarshalBinary(data))
	require.Equal(t, comp.Columns(), restored.Columns())
	require.Equal(t, comp.Schema(), restored.Schema())

	want, err := comp.ColumnDecode(m)
	require.NoError(t, err)
	got, err := restored.ColumnDecode(m)
	require.NoError(t, err)
	require.True(t, want.Equal(got))

	require.ErrorIs(t, restored.UnmarshalBinary(data), errs.ErrAlreadyInitialized)

	t.Run("unknown child type", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] = 0x7F
		var d CompositeDecoder
		require.ErrorIs(t, d.UnmarshalBinary(bad), errs.ErrUnknownDecoderType)
	})

	t.Run("truncated", func(t *testing.T) {
		var d CompositeDecoder
		require.ErrorIs(t, d.UnmarshalBinary(data[:len(data)-2]), errs.ErrInvalidPayload)
	})

	t.Run("nested composite", func(t *testing.T) {
		outer, err := NewCompositeDecoder(comp)
		require.NoError(t, err)
		require.Equal(t, 2, outer.depth())

		nested, err := outer.MarshalBinary()
		require.NoError(t, err)

		var d CompositeDecoder
		require.NoError(t, d.UnmarshalBinary(nested))
		got, err := d.ColumnDecode(m)
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	})
}

func TestCompositeDecoder_ErrorWrapsChild(t *testing.T) {
	comp, rows := compositeFixture(t)
	bad := append([][]float64(nil), *rows...)
	bad[0] = []float64{1, 0, 0, 9, 0.5}

	_, err := comp.ColumnDecode(mustMatrix(t, bad))
	require.ErrorIs(t, err, errs.ErrOutOfRangeBin)
	require.Contains(t, err.Error(), "Bin decoder")
}

// wrapComposite wraps a little-endian decoder body of type typ in levels
// composite bodies with a single child each.
func wrapComposite(body []byte, typ format.DecoderType, levels int) []byte {
	const childHeader = 9 // count, type and length

	w := ienc.NewWriter(endian.GetLittleEndianEngine())
	defer w.Finish()

	for level := range levels {
		w.WriteUint32(1)
		if level == levels-1 {
			w.WriteUint8(uint8(typ))
		} else {
			w.WriteUint8(uint8(format.DecoderComposite))
		}
		w.WriteUint32(uint32(childHeader*(levels-level-1) + len(body))) //nolint: gosec
	}
	w.WriteBytes(body)

	return append([]byte(nil), w.Bytes()...)
}

func TestCompositeDecoder_NestingDepth(t *testing.T) {
	pass, err := NewPassThroughDecoder(fp64Schema(1), Identity(1))
	require.NoError(t, err)
	require.NoError(t, pass.InitMetaData(nil))
	inner, err := pass.MarshalBinary()
	require.NoError(t, err)
	m := mustMatrix(t, [][]float64{{1.5}, {2.5}})

	t.Run("deepest allowed nesting decodes", func(t *testing.T) {
		var d CompositeDecoder
		require.NoError(t, d.UnmarshalBinary(wrapComposite(inner, format.DecoderPassThrough, MaxCompositeDepth)))
		out, err := d.ColumnDecode(m)
		require.NoError(t, err)
		require.Equal(t, []any{1.5, 2.5}, out.Column(0))
	})

	t.Run("one level deeper is rejected", func(t *testing.T) {
		var d CompositeDecoder
		err := d.UnmarshalBinary(wrapComposite(inner, format.DecoderPassThrough, MaxCompositeDepth+1))
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
		require.Contains(t, err.Error(), "nesting")
	})

	t.Run("crafted deep record fails without recursing", func(t *testing.T) {
		data := wrapComposite(inner, format.DecoderPassThrough, 1_000_000)
		var d CompositeDecoder
		require.ErrorIs(t, d.UnmarshalBinary(data), errs.ErrInvalidPayload)

		header := section.NewRecordHeader(format.DecoderComposite)
		header.Flag.SetChecksum(false)
		header.ColumnCount = 1
		header.PayloadSize = uint32(len(data)) //nolint: gosec
		header.RawSize = uint32(len(data))     //nolint: gosec
		_, err := DecodeRecord(append(header.Bytes(), data...))
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
	})

	t.Run("constructor rejects deeper nesting", func(t *testing.T) {
		var cur ColumnDecoder = pass
		for range MaxCompositeDepth {
			next, err := NewCompositeDecoder(cur)
			require.NoError(t, err)
			cur = next
		}
		_, err := NewCompositeDecoder(cur)
		require.ErrorIs(t, err, errs.ErrConfiguration)
	})
}
