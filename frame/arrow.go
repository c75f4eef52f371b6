package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
)

// ArrowType returns the Arrow data type used for vt.
func ArrowType(vt format.ValueType) (arrow.DataType, error) {
	switch vt {
	case format.TypeString:
		return arrow.BinaryTypes.String, nil
	case format.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case format.TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case format.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case format.TypeFP32:
		return arrow.PrimitiveTypes.Float32, nil
	case format.TypeFP64:
		return arrow.PrimitiveTypes.Float64, nil
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidValueType, vt)
	}
}

// ArrowSchema returns the Arrow schema of the frame; all fields are nullable.
func (f *Frame) ArrowSchema() (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(f.schema))
	for j, vt := range f.schema {
		dt, err := ArrowType(vt)
		if err != nil {
			return nil, err
		}
		fields[j] = arrow.Field{Name: f.names[j], Type: dt, Nullable: true}
	}

	return arrow.NewSchema(fields, nil), nil
}

// ToArrowRecord copies the frame into an Arrow record allocated from mem.
//
// The caller owns the returned record and must Release it.
func (f *Frame) ToArrowRecord(mem memory.Allocator) (arrow.Record, error) {
	schema, err := f.ArrowSchema()
	if err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for j := range f.columns {
		if err := appendColumn(b.Field(j), f.schema[j], f.columns[j]); err != nil {
			return nil, fmt.Errorf("column %q: %w", f.names[j], err)
		}
	}

	return b.NewRecord(), nil
}

func appendColumn(fb array.Builder, vt format.ValueType, cells []any) error {
	fb.Reserve(len(cells))
	for i, v := range cells {
		if v == nil {
			fb.AppendNull()
			continue
		}

		ok := false
		switch vt {
		case format.TypeString:
			var s string
			if s, ok = v.(string); ok {
				fb.(*array.StringBuilder).Append(s)
			}
		case format.TypeBoolean:
			var bv bool
			if bv, ok = v.(bool); ok {
				fb.(*array.BooleanBuilder).Append(bv)
			}
		case format.TypeInt32:
			var iv int32
			if iv, ok = v.(int32); ok {
				fb.(*array.Int32Builder).Append(iv)
			}
		case format.TypeInt64:
			var iv int64
			if iv, ok = v.(int64); ok {
				fb.(*array.Int64Builder).Append(iv)
			}
		case format.TypeFP32:
			var fv float32
			if fv, ok = v.(float32); ok {
				fb.(*array.Float32Builder).Append(fv)
			}
		case format.TypeFP64:
			var fv float64
			if fv, ok = v.(float64); ok {
				fb.(*array.Float64Builder).Append(fv)
			}
		case format.TypeUnknown:
		}

		if !ok {
			return fmt.Errorf("%w: row %d holds %T for %s", errs.ErrInvalidValueType, i, v, vt)
		}
	}

	return nil
}
