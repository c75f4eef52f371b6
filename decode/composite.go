package decode

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
	ienc "github.com/arloliu/coldecode/internal/encoding"
)

// MaxCompositeDepth bounds the nesting of composite decoders, counting the
// outermost composite as depth 1.
const MaxCompositeDepth = 8

// CompositeDecoder drives several decoders over disjoint columns of one frame.
type CompositeDecoder struct {
	children []ColumnDecoder
	schema   []format.ValueType
}

var _ ColumnDecoder = (*CompositeDecoder)(nil)

// NewCompositeDecoder combines decoders that share a schema and own disjoint columns.
//
// Parameters:
//   - children: decoders to combine, decoded in the given order
//
// Returns:
//   - *CompositeDecoder: the combined decoder
//   - error: ErrConfiguration if there are no children, schemas differ, two
//     children own the same column, or nesting exceeds MaxCompositeDepth
func NewCompositeDecoder(children ...ColumnDecoder) (*CompositeDecoder, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: composite decoder without children", errs.ErrConfiguration)
	}

	for i, child := range children {
		if child == nil {
			return nil, fmt.Errorf("%w: child %d is nil", errs.ErrConfiguration, i)
		}
		if nested, ok := child.(*CompositeDecoder); ok && nested.depth() >= MaxCompositeDepth {
			return nil, fmt.Errorf("%w: child %d nests composites deeper than %d",
				errs.ErrConfiguration, i, MaxCompositeDepth)
		}
	}

	schema := children[0].Schema()
	owner := make(map[int]int)
	for i, child := range children {
		if !slices.Equal(schema, child.Schema()) {
			return nil, fmt.Errorf("%w: child %d (%s) has a different schema", errs.ErrConfiguration, i, child.Type())
		}
		for _, c := range child.Columns() {
			if prev, dup := owner[c]; dup {
				return nil, fmt.Errorf("%w: column %d owned by child %d and child %d",
					errs.ErrConfiguration, c, prev, i)
			}
			owner[c] = i
		}
	}

	return &CompositeDecoder{
		children: slices.Clone(children),
		schema:   schema,
	}, nil
}

// Type returns format.DecoderComposite.
func (d *CompositeDecoder) Type() format.DecoderType {
	return format.DecoderComposite
}

// depth returns the nesting depth of d, 1 when no child is a composite.
func (d *CompositeDecoder) depth() int {
	deepest := 0
	for _, child := range d.children {
		if nested, ok := child.(*CompositeDecoder); ok {
			deepest = max(deepest, nested.depth())
		}
	}

	return deepest + 1
}

// Children returns the combined decoders.
func (d *CompositeDecoder) Children() []ColumnDecoder {
	return slices.Clone(d.children)
}

// Columns returns the sorted union of the children's columns.
func (d *CompositeDecoder) Columns() []int {
	var cols []int
	for _, child := range d.children {
		cols = append(cols, child.Columns()...)
	}
	slices.Sort(cols)

	return cols
}

// Schema returns the value types of the full output frame.
func (d *CompositeDecoder) Schema() []format.ValueType {
	return slices.Clone(d.schema)
}

// InitMetaData initializes every child from the same metadata frame.
func (d *CompositeDecoder) InitMetaData(meta MetadataReader) error {
	for _, child := range d.children {
		if err := child.InitMetaData(meta); err != nil {
			return fmt.Errorf("%s decoder: %w", child.Type(), err)
		}
	}
	Logger().Debug("composite metadata initialized", zap.Int("children", len(d.children)))

	return nil
}

// ColumnDecode decodes every row of m into a new frame.
func (d *CompositeDecoder) ColumnDecode(m MatrixReader) (*frame.Frame, error) {
	out := frame.New(d.schema, m.NumRows())
	if err := d.ColumnDecodeRange(m, out, 0, m.NumRows()); err != nil {
		return nil, err
	}

	return out, nil
}

// ColumnDecodeRange runs every child over rows [rl, ru).
func (d *CompositeDecoder) ColumnDecodeRange(m MatrixReader, out FrameWriter, rl, ru int) error {
	for _, child := range d.children {
		if err := child.ColumnDecodeRange(m, out, rl, ru); err != nil {
			return fmt.Errorf("%s decoder: %w", child.Type(), err)
		}
	}

	return nil
}

// SubRangeDecoder derives a composite of the children's sub-range decoders.
// Children without columns in range are dropped, and nil is returned when
// none remain.
func (d *CompositeDecoder) SubRangeDecoder(colStart, colEnd, dummyCodedOffset int) (ColumnDecoder, error) {
	var subs []ColumnDecoder
	for _, child := range d.children {
		sub, err := child.SubRangeDecoder(colStart, colEnd, dummyCodedOffset)
		if err != nil {
			return nil, fmt.Errorf("%s decoder: %w", child.Type(), err)
		}
		if sub != nil {
			subs = append(subs, sub)
		}
	}

	if len(subs) == 0 {
		return nil, nil
	}

	return NewCompositeDecoder(subs...)
}

// MarshalBinary serializes the decoder in little-endian byte order.
func (d *CompositeDecoder) MarshalBinary() ([]byte, error) {
	return marshalBody(d)
}

// UnmarshalBinary restores a decoder serialized by MarshalBinary.
func (d *CompositeDecoder) UnmarshalBinary(data []byte) error {
	if len(d.children) != 0 {
		return errs.ErrAlreadyInitialized
	}

	return unmarshalBody(d, data)
}

// encodeBody writes uint32 count, then per child uint8 type, uint32 length and the child body.
func (d *CompositeDecoder) encodeBody(w *ienc.Writer) error {
	w.WriteUint32(uint32(len(d.children))) //nolint: gosec
	for _, child := range d.children {
		pc, ok := child.(payloadCodec)
		if !ok {
			return fmt.Errorf("%w: cannot serialize child decoder %T", errs.ErrUnsupportedOperation, child)
		}

		cw := ienc.NewWriter(w.Engine())
		err := pc.encodeBody(cw)
		if err == nil {
			w.WriteUint8(uint8(child.Type()))
			w.WriteUint32(uint32(cw.Len())) //nolint: gosec
			w.WriteBytes(cw.Bytes())
		}
		cw.Finish()

		if err != nil {
			return fmt.Errorf("%s decoder: %w", child.Type(), err)
		}
	}

	return nil
}

func (d *CompositeDecoder) decodeBody(r *ienc.Reader) error {
	return d.decodeNested(r, 1)
}

// decodeNested reads a composite body found at the given nesting depth.
func (d *CompositeDecoder) decodeNested(r *ienc.Reader, depth int) error {
	if depth > MaxCompositeDepth {
		return fmt.Errorf("%w: composite nesting deeper than %d", errs.ErrInvalidPayload, MaxCompositeDepth)
	}

	count, err := r.ReadUint32()
	if err != nil {
		return err
	}
	// Each child takes at least its type byte and length.
	if int64(count) > int64(r.Remaining()/5) {
		return fmt.Errorf("%w: %d children exceed remaining payload of %d bytes",
			errs.ErrInvalidPayload, count, r.Remaining())
	}

	children := make([]ColumnDecoder, 0, count)
	for i := uint32(0); i < count; i++ {
		typ, err := r.ReadUint8()
		if err != nil {
			return err
		}
		size, err := r.ReadUint32()
		if err != nil {
			return err
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return err
		}

		child, err := newEmptyDecoder(format.DecoderType(typ))
		if err != nil {
			return err
		}
		cr := ienc.NewReader(body, r.Engine())
		if nested, ok := child.(*CompositeDecoder); ok {
			err = nested.decodeNested(cr, depth+1)
		} else {
			err = child.(payloadCodec).decodeBody(cr)
		}
		if err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
		if cr.Remaining() != 0 {
			return fmt.Errorf("%w: child %d has %d trailing bytes", errs.ErrInvalidPayload, i, cr.Remaining())
		}
		children = append(children, child)
	}

	comp, err := NewCompositeDecoder(children...)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidPayload, err)
	}
	*d = *comp

	return nil
}

// newEmptyDecoder returns a zero decoder of type t ready for decodeBody.
func newEmptyDecoder(t format.DecoderType) (ColumnDecoder, error) {
	switch t {
	case format.DecoderPassThrough:
		return &PassThroughDecoder{}, nil
	case format.DecoderRecode:
		return &RecodeDecoder{}, nil
	case format.DecoderDummycode:
		return &DummycodeDecoder{}, nil
	case format.DecoderBin:
		return &BinDecoder{}, nil
	case format.DecoderComposite:
		return &CompositeDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownDecoderType, t)
	}
}
