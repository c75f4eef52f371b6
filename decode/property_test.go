package decode

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	"github.com/arloliu/coldecode/matrix"
)

func newFixtureDecoder(t testing.TB, fx *encodedFixture) ColumnDecoder {
	t.Helper()

	dec, err := NewDecoder(fx.spec, fx.names, fx.schema, fx.meta)
	require.NoError(t, err)

	return dec
}

func TestDecoder_MatchesForwardTransform(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3} {
		for _, rows := range []int{8, 64, 500} {
			t.Run(fmt.Sprintf("seed%d/rows%d", seed, rows), func(t *testing.T) {
				fx := encodeFixture(t, seed, rows)
				dec := newFixtureDecoder(t, fx)

				got, err := dec.ColumnDecode(fx.m)
				require.NoError(t, err)
				requireFrameEqual(t, fx.want, got)
				requireFrameEqual(t, referenceDecode(t, fx), got)
			})
		}
	}
}

func TestDecoder_RecordRoundTripMatchesForwardTransform(t *testing.T) {
	fx := encodeFixture(t, 7, 200)
	dec := newFixtureDecoder(t, fx)

	for _, c := range []format.CompressionType{format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := EncodeRecord(dec, WithCompression(c), WithBigEndian())
			require.NoError(t, err)

			restored, err := DecodeRecord(data)
			require.NoError(t, err)

			got, err := restored.ColumnDecode(fx.m)
			require.NoError(t, err)
			requireFrameEqual(t, fx.want, got)
		})
	}
}

// Decoding disjoint row chunks in any order yields the full decode.
func TestDecoder_ChunkInvariance(t *testing.T) {
	fx := encodeFixture(t, 11, 300)
	dec := newFixtureDecoder(t, fx)
	full, err := dec.ColumnDecode(fx.m)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(11, 13))
	for trial := range 20 {
		numRows := fx.m.NumRows()
		cuts := []int{0, numRows}
		for range rng.IntN(10) {
			cuts = append(cuts, rng.IntN(numRows+1))
		}
		slices.Sort(cuts)

		type chunk struct{ rl, ru int }
		chunks := make([]chunk, 0, len(cuts)-1)
		for i := 1; i < len(cuts); i++ {
			chunks = append(chunks, chunk{cuts[i-1], cuts[i]})
		}
		rng.Shuffle(len(chunks), func(i, j int) { chunks[i], chunks[j] = chunks[j], chunks[i] })

		out := frame.New(fx.schema, numRows)
		for _, c := range chunks {
			require.NoError(t, dec.ColumnDecodeRange(fx.m, out, c.rl, c.ru), "trial %d chunk %v", trial, c)
		}
		require.True(t, full.Equal(out), "trial %d", trial)
	}
}

// Decoding a column partition with a sub-range decoder yields the same
// columns as the full decode.
func TestDecoder_ColumnRangeInvariance(t *testing.T) {
	fx := encodeFixture(t, 5, 120)
	dec := newFixtureDecoder(t, fx)
	full, err := dec.ColumnDecode(fx.m)
	require.NoError(t, err)

	numCols := len(fx.schema)
	for colStart := 1; colStart <= numCols; colStart++ {
		for colEnd := colStart + 1; colEnd <= numCols+1; colEnd++ {
			t.Run(fmt.Sprintf("cols%d-%d", colStart, colEnd), func(t *testing.T) {
				offset := fx.srcCols[colStart-1] - 1
				srcEnd := fx.m.NumColumns()
				if colEnd <= numCols {
					srcEnd = fx.srcCols[colEnd-1] - 1
				}

				part, err := fx.m.SliceColumns(offset, srcEnd)
				require.NoError(t, err)

				sub, err := dec.SubRangeDecoder(colStart, colEnd, offset)
				require.NoError(t, err)
				require.NotNil(t, sub)
				require.Len(t, sub.Columns(), colEnd-colStart)

				got, err := sub.ColumnDecode(part)
				require.NoError(t, err)
				requireColumnRange(t, full, got, colStart, colEnd)

				data, err := sub.MarshalBinary()
				require.NoError(t, err)
				restored, err := newEmptyDecoder(sub.Type())
				require.NoError(t, err)
				require.NoError(t, restored.UnmarshalBinary(data))

				again, err := restored.ColumnDecode(part)
				require.NoError(t, err)
				requireColumnRange(t, full, again, colStart, colEnd)
			})
		}
	}
}

// requireColumnRange checks that got matches want on frame columns
// [colStart, colEnd) and holds nulls everywhere else.
func requireColumnRange(t testing.TB, want, got *frame.Frame, colStart, colEnd int) {
	t.Helper()

	require.Equal(t, want.Schema(), got.Schema())
	for c := 1; c <= want.NumColumns(); c++ {
		if c >= colStart && c < colEnd {
			require.Equal(t, want.Column(c-1), got.Column(c-1), "column %d", c)
			continue
		}
		for _, cell := range got.Column(c - 1) {
			require.Nil(t, cell, "column %d outside [%d, %d)", c, colStart, colEnd)
		}
	}
}

// Sub-range decoders over disjoint column partitions, each run over disjoint
// row chunks, fill one shared frame concurrently.
func TestDecoder_SubRangesShareFrame(t *testing.T) {
	fx := encodeFixture(t, 17, 257)
	dec := newFixtureDecoder(t, fx)
	full, err := dec.ColumnDecode(fx.m)
	require.NoError(t, err)

	numCols := len(fx.schema)
	partitions := [][2]int{{1, 3}, {3, 4}, {4, numCols + 1}}

	type worker struct {
		sub  ColumnDecoder
		part *matrix.Dense
	}
	workers := make([]worker, 0, len(partitions))
	for _, p := range partitions {
		offset := fx.srcCols[p[0]-1] - 1
		srcEnd := fx.m.NumColumns()
		if p[1] <= numCols {
			srcEnd = fx.srcCols[p[1]-1] - 1
		}

		part, err := fx.m.SliceColumns(offset, srcEnd)
		require.NoError(t, err)
		sub, err := dec.SubRangeDecoder(p[0], p[1], offset)
		require.NoError(t, err)
		require.NotNil(t, sub)

		workers = append(workers, worker{sub: sub, part: part})
	}

	shared := frame.New(fx.schema, fx.m.NumRows())
	var g errgroup.Group
	for _, w := range workers {
		for rl := 0; rl < fx.m.NumRows(); rl += 32 {
			ru := min(rl+32, fx.m.NumRows())
			g.Go(func() error {
				return w.sub.ColumnDecodeRange(w.part, shared, rl, ru)
			})
		}
	}
	require.NoError(t, g.Wait())
	require.True(t, full.Equal(shared))
	requireFrameEqual(t, fx.want, shared)
}

// Each group decoder writes only its own columns.
func TestDecoder_GroupsWriteOwnColumns(t *testing.T) {
	fx := encodeFixture(t, 3, 40)
	decoders, err := NewDecoders(fx.spec, fx.names, fx.schema, fx.meta)
	require.NoError(t, err)

	for _, dec := range decoders {
		out, err := dec.ColumnDecode(fx.m)
		require.NoError(t, err)

		for c := 1; c <= len(fx.schema); c++ {
			if slices.Contains(dec.Columns(), c) {
				require.Equal(t, fx.want.Column(c-1), out.Column(c-1), "%s column %d", dec.Type(), c)
				continue
			}
			for _, cell := range out.Column(c - 1) {
				require.Nil(t, cell, "%s wrote column %d", dec.Type(), c)
			}
		}
	}
}
