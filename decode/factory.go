package decode

import (
	"fmt"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/internal/collision"
)

// NewDecoders builds one initialized decoder per transform group of spec.
//
// Groups are returned in the order dummycode, recode, bin, pass-through, and
// empty groups are skipped. Columns named by no transform are decoded as
// pass-through. Matrix positions account for the block width of every dummy
// coded column, taken from the metadata distinct count.
//
// Parameters:
//   - spec: parsed transform specification
//   - names: column names of the output frame, or nil for C1..Cn
//   - schema: value types of the output frame
//   - meta: metadata frame produced by the encoder; may be nil if spec has no transforms
//   - opts: WithLogger
//
// Returns:
//   - []ColumnDecoder: initialized decoders over disjoint columns
//   - error: ErrConfiguration for an invalid spec or column reference, or InitMetaData errors
func NewDecoders(spec *Spec, names []string, schema []format.ValueType, meta MetadataReader, opts ...FactoryOption) ([]ColumnDecoder, error) {
	cfg, err := newFactoryConfig(opts)
	if err != nil {
		return nil, err
	}
	if spec == nil {
		spec = &Spec{}
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}

	cols, err := resolveSpec(spec, names, len(schema))
	if err != nil {
		return nil, err
	}

	hasTransforms := len(cols.recode)+len(cols.dummycode)+len(cols.bin) > 0
	if hasTransforms {
		if meta == nil {
			return nil, fmt.Errorf("%w: transforms require a metadata frame", errs.ErrConfiguration)
		}
		if meta.NumColumns() < len(schema) {
			return nil, fmt.Errorf("%w: metadata has %d columns for %d schema columns",
				errs.ErrConfiguration, meta.NumColumns(), len(schema))
		}
	}

	widths := make(map[int]int, len(cols.dummycode))
	for _, c := range cols.dummycode {
		widths[c] = meta.ColumnDistinctCount(c - 1)
	}
	srcCols, numMatrixCols, err := ColumnMapping(len(schema), widths)
	if err != nil {
		return nil, err
	}

	mapping := func(frameCols []int) Mapping {
		m := Mapping{Frame: frameCols, Matrix: make([]int, len(frameCols))}
		for i, c := range frameCols {
			m.Matrix[i] = srcCols[c-1]
		}

		return m
	}

	inDummy := func(c int) bool { return slices.Contains(cols.dummycode, c) }
	var recodeCols, binCols, passCols []int
	for c := 1; c <= len(schema); c++ {
		switch {
		case inDummy(c):
		case slices.Contains(cols.recode, c):
			recodeCols = append(recodeCols, c)
		case slices.Contains(cols.bin, c):
			binCols = append(binCols, c)
		default:
			passCols = append(passCols, c)
		}
	}

	var decoders []ColumnDecoder
	if len(cols.dummycode) > 0 {
		resolvers := make([]Resolver, len(cols.dummycode))
		for i, c := range cols.dummycode {
			resolvers[i] = ResolveRecode
			if slices.Contains(cols.bin, c) {
				resolvers[i] = ResolveBin
			}
		}
		dec, err := NewDummycodeDecoder(schema, mapping(cols.dummycode), resolvers)
		if err != nil {
			return nil, err
		}
		decoders = append(decoders, dec)
	}
	if len(recodeCols) > 0 {
		dec, err := NewRecodeDecoder(schema, mapping(recodeCols))
		if err != nil {
			return nil, err
		}
		decoders = append(decoders, dec)
	}
	if len(binCols) > 0 {
		dec, err := NewBinDecoder(schema, mapping(binCols))
		if err != nil {
			return nil, err
		}
		decoders = append(decoders, dec)
	}
	if len(passCols) > 0 {
		dec, err := NewPassThroughDecoder(schema, mapping(passCols))
		if err != nil {
			return nil, err
		}
		decoders = append(decoders, dec)
	}

	for _, dec := range decoders {
		if err := dec.InitMetaData(meta); err != nil {
			return nil, fmt.Errorf("%s decoder: %w", dec.Type(), err)
		}
		cfg.logger.Debug("decoder group created",
			zap.Stringer("decoder", dec.Type()),
			zap.Ints("columns", dec.Columns()))
	}
	cfg.logger.Debug("decoders created",
		zap.Int("groups", len(decoders)),
		zap.Int("frameColumns", len(schema)),
		zap.Int("matrixColumns", numMatrixCols))

	return decoders, nil
}

// NewDecoder builds an initialized decoder for all columns of the schema.
//
// It returns the single group decoder when spec yields one group, and a
// CompositeDecoder over all groups otherwise. See NewDecoders for the parameters.
func NewDecoder(spec *Spec, names []string, schema []format.ValueType, meta MetadataReader, opts ...FactoryOption) (ColumnDecoder, error) {
	decoders, err := NewDecoders(spec, names, schema, meta, opts...)
	if err != nil {
		return nil, err
	}

	switch len(decoders) {
	case 0:
		return nil, fmt.Errorf("%w: schema has no columns", errs.ErrConfiguration)
	case 1:
		return decoders[0], nil
	default:
		return NewCompositeDecoder(decoders...)
	}
}

// ColumnMapping computes the first 1-based matrix column of every frame column.
//
// A dummy coded column occupies as many matrix columns as its width; every
// other column occupies one.
//
// Parameters:
//   - numCols: number of frame columns
//   - dummyWidths: block width keyed by 1-based frame column of each dummy coded column
//
// Returns:
//   - []int: matrix column of frame column c at index c-1
//   - int: total number of matrix columns
//   - error: ErrConfiguration for a negative width or a column outside 1..numCols
func ColumnMapping(numCols int, dummyWidths map[int]int) ([]int, int, error) {
	for c, w := range dummyWidths {
		if c < 1 || c > numCols {
			return nil, 0, fmt.Errorf("%w: dummy coded column %d outside 1..%d", errs.ErrConfiguration, c, numCols)
		}
		if w < 0 {
			return nil, 0, fmt.Errorf("%w: dummy coded column %d has width %d", errs.ErrConfiguration, c, w)
		}
	}

	srcCols := make([]int, numCols)
	next := 1
	for c := 1; c <= numCols; c++ {
		srcCols[c-1] = next
		if w, ok := dummyWidths[c]; ok {
			next += w
		} else {
			next++
		}
	}

	return srcCols, next - 1, nil
}

// resolvedColumns holds the sorted 1-based columns of each transform.
type resolvedColumns struct {
	recode    []int
	dummycode []int
	bin       []int
}

func resolveSpec(spec *Spec, names []string, numCols int) (resolvedColumns, error) {
	if names == nil {
		names = make([]string, numCols)
		for i := range names {
			names[i] = "C" + strconv.Itoa(i+1)
		}
	}
	if len(names) != numCols {
		return resolvedColumns{}, fmt.Errorf("%w: %d column names for %d schema columns",
			errs.ErrConfiguration, len(names), numCols)
	}

	tracker := collision.NewTracker(numCols)
	for _, name := range names {
		if _, err := tracker.Track(name); err != nil {
			return resolvedColumns{}, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
		}
	}

	resolve := func(kind string, refs []ColumnRef) ([]int, error) {
		cols := make([]int, 0, len(refs))
		for _, ref := range refs {
			c := ref.ID
			if !spec.IDs {
				pos, ok := tracker.Lookup(ref.Name)
				if !ok {
					return nil, fmt.Errorf("%w: %s column %q: %w", errs.ErrConfiguration, kind, ref.Name, errs.ErrInvalidColumnName)
				}
				c = pos + 1
			}
			if c < 1 || c > numCols {
				return nil, fmt.Errorf("%w: %s column %d outside 1..%d", errs.ErrConfiguration, kind, c, numCols)
			}
			if slices.Contains(cols, c) {
				return nil, fmt.Errorf("%w: %s column %s listed twice", errs.ErrConfiguration, kind, ref)
			}
			cols = append(cols, c)
		}
		slices.Sort(cols)

		return cols, nil
	}

	var out resolvedColumns
	var err error
	if out.recode, err = resolve("recode", spec.Recode); err != nil {
		return resolvedColumns{}, err
	}
	if out.dummycode, err = resolve("dummycode", spec.Dummycode); err != nil {
		return resolvedColumns{}, err
	}

	binRefs := make([]ColumnRef, len(spec.Bin))
	for i, b := range spec.Bin {
		binRefs[i] = b.Column()
	}
	if out.bin, err = resolve("bin", binRefs); err != nil {
		return resolvedColumns{}, err
	}

	for _, c := range out.bin {
		if slices.Contains(out.recode, c) {
			return resolvedColumns{}, fmt.Errorf("%w: column %d is both recoded and binned", errs.ErrConfiguration, c)
		}
	}

	return out, nil
}
