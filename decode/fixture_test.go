package decode

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	"github.com/arloliu/coldecode/matrix"
)

type columnKind int

const (
	kindPass columnKind = iota
	kindRecode
	kindBin
	kindDummyRecode
	kindDummyBin
)

type fixtureColumn struct {
	name    string
	vt      format.ValueType
	kind    columnKind
	pool    []string
	numBins int
	scale   float64
}

var fixtureColumns = []fixtureColumn{
	{name: "city", vt: format.TypeString, kind: kindDummyRecode, pool: []string{"paris", "rome", "oslo", "lima", "a:b"}},
	{name: "age", vt: format.TypeFP64, kind: kindBin, numBins: 4, scale: 100},
	{name: "score", vt: format.TypeFP64, kind: kindPass, scale: 10},
	{name: "grade", vt: format.TypeString, kind: kindRecode, pool: []string{"A", "B", "C"}},
	{name: "level", vt: format.TypeFP64, kind: kindDummyBin, numBins: 3, scale: 10},
	{name: "count", vt: format.TypeInt64, kind: kindPass, scale: 1000},
}

// encodedFixture is a random source frame run through the forward transforms.
type encodedFixture struct {
	names   []string
	schema  []format.ValueType
	spec    *Spec
	meta    *frame.Frame
	m       *matrix.Dense
	want    *frame.Frame
	srcCols []int
}

// encodeFixture generates numRows random rows for fixtureColumns and encodes
// them: recode assigns codes by first appearance, bins are equi-width over the
// observed range, and dummy coded columns expand to one-hot blocks. Missing
// categories encode as NaN codes or all-zero blocks. Row 0 is never missing.
func encodeFixture(t testing.TB, seed uint64, numRows int) *encodedFixture {
	t.Helper()

	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	fx := &encodedFixture{spec: &Spec{}}
	for _, col := range fixtureColumns {
		fx.names = append(fx.names, col.name)
		fx.schema = append(fx.schema, col.vt)
	}
	fx.want = frame.New(fx.schema, numRows)

	n := len(fixtureColumns)
	metaCols := make([][]string, n)
	blocks := make([][][]float64, n)
	widths := make(map[int]int)

	for j, col := range fixtureColumns {
		ref := ColumnRef{Name: col.name}
		dummy := col.kind == kindDummyRecode || col.kind == kindDummyBin
		if dummy {
			fx.spec.Dummycode = append(fx.spec.Dummycode, ref)
		}
		blocks[j] = make([][]float64, numRows)

		switch col.kind {
		case kindRecode, kindDummyRecode:
			fx.spec.Recode = append(fx.spec.Recode, ref)

			codes := make(map[string]int)
			rowCodes := make([]int, numRows)
			for r := range numRows {
				if r > 0 && rng.IntN(10) == 0 {
					continue
				}
				v := col.pool[rng.IntN(len(col.pool))]
				if _, ok := codes[v]; !ok {
					codes[v] = len(codes) + 1
					metaCols[j] = append(metaCols[j], v+":"+strconv.Itoa(codes[v]))
				}
				rowCodes[r] = codes[v]
				fx.want.Set(r, j, v)
			}
			for r, code := range rowCodes {
				blocks[j][r] = encodeCode(dummy, len(codes), code)
			}
			if dummy {
				widths[j+1] = len(codes)
			}

		case kindBin, kindDummyBin:
			k := col.numBins
			fx.spec.Bin = append(fx.spec.Bin, BinSpec{Name: col.name, Method: "equi-width", NumBins: k})

			values := make([]float64, numRows)
			lo, hi := math.Inf(1), math.Inf(-1)
			for r := range values {
				values[r] = (rng.Float64()*2 - 0.5) * col.scale
				lo, hi = min(lo, values[r]), max(hi, values[r])
			}
			width := (hi - lo) / float64(k)
			edges := make([]float64, k+1)
			for i := range edges {
				edges[i] = lo + float64(i)*width
			}
			edges[k] = hi
			for i := 0; i < k; i++ {
				metaCols[j] = append(metaCols[j], formatEdge(edges[i])+":"+formatEdge(edges[i+1]))
			}

			for r, v := range values {
				o := 1
				if width > 0 {
					o = min(int((v-lo)/width)+1, k)
				}
				blocks[j][r] = encodeCode(dummy, k, o)
				fx.want.Set(r, j, (edges[o-1]+edges[o])/2)
			}
			if dummy {
				widths[j+1] = k
			}

		case kindPass:
			for r := range numRows {
				v := rng.NormFloat64() * col.scale
				if col.vt == format.TypeInt64 {
					v = math.Round(v)
				}
				cell, err := frame.FromFloat64(col.vt, v)
				require.NoError(t, err)
				fx.want.Set(r, j, cell)
				blocks[j][r] = []float64{v}
			}
		}
	}

	srcCols, numMatrixCols, err := ColumnMapping(n, widths)
	require.NoError(t, err)
	fx.srcCols = srcCols

	fx.m = matrix.NewDense(numRows, numMatrixCols)
	for j := range blocks {
		for r, block := range blocks[j] {
			for k, v := range block {
				fx.m.Set(r, srcCols[j]-1+k, v)
			}
		}
	}
	fx.meta = metaFrame(metaCols...)

	return fx
}

func encodeCode(dummy bool, width, code int) []float64 {
	if !dummy {
		if code == 0 {
			return []float64{math.NaN()}
		}

		return []float64{float64(code)}
	}

	block := make([]float64, width)
	if code > 0 {
		block[code-1] = 1
	}

	return block
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// referenceDecode decodes fx.m one row at a time, walking the row's matrix
// columns with a cursor instead of precomputed column positions.
func referenceDecode(t testing.TB, fx *encodedFixture) *frame.Frame {
	t.Helper()

	n := len(fixtureColumns)
	labels := make([]map[int]string, n)
	bins := make([][][2]float64, n)
	for j, col := range fixtureColumns {
		labels[j] = make(map[int]string)
		for i := 0; i < fx.meta.ColumnDistinctCount(j); i++ {
			entry, ok := fx.meta.GetString(i, j)
			require.True(t, ok)

			switch col.kind {
			case kindRecode, kindDummyRecode:
				idx := strings.LastIndex(entry, ":")
				code, err := strconv.Atoi(entry[idx+1:])
				require.NoError(t, err)
				labels[j][code] = entry[:idx]
			case kindBin, kindDummyBin:
				loText, hiText, ok := strings.Cut(entry, ":")
				require.True(t, ok)
				lo, err := strconv.ParseFloat(loText, 64)
				require.NoError(t, err)
				hi, err := strconv.ParseFloat(hiText, 64)
				require.NoError(t, err)
				bins[j] = append(bins[j], [2]float64{lo, hi})
			}
		}
	}

	resolve := func(j, code int) any {
		switch fixtureColumns[j].kind {
		case kindRecode, kindDummyRecode:
			return labels[j][code]
		default:
			b := bins[j][code-1]
			return (b[0] + b[1]) / 2
		}
	}

	out := frame.New(fx.schema, fx.m.NumRows())
	for r := 0; r < fx.m.NumRows(); r++ {
		row := fx.m.Row(r)
		cursor := 0
		for j, col := range fixtureColumns {
			switch col.kind {
			case kindPass:
				cell, err := frame.FromFloat64(col.vt, row[cursor])
				require.NoError(t, err)
				out.Set(r, j, cell)
				cursor++
			case kindRecode, kindBin:
				if v := row[cursor]; !math.IsNaN(v) {
					out.Set(r, j, resolve(j, int(v)))
				}
				cursor++
			case kindDummyRecode, kindDummyBin:
				width := fx.meta.ColumnDistinctCount(j)
				for p, v := range row[cursor : cursor+width] {
					if v == 1 {
						out.Set(r, j, resolve(j, p+1))
					}
				}
				cursor += width
			}
		}
		require.Equal(t, fx.m.NumColumns(), cursor)
	}

	return out
}

func requireFrameEqual(t testing.TB, want, got *frame.Frame) {
	t.Helper()

	require.Equal(t, want.Schema(), got.Schema())
	require.Equal(t, want.NumRows(), got.NumRows())
	for r := 0; r < want.NumRows(); r++ {
		require.Equal(t, want.Row(r), got.Row(r), "row %d", r)
	}
}
