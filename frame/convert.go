package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
)

// doubleEps is added before flooring so values like 2.9999999999999996
// produced by midpoint arithmetic still map to the intended integer.
const doubleEps = 1.0 / (1 << 53)

// FromFloat64 coerces a decoded numeric value to the Go type of vt.
//
// NaN becomes a null cell for non-floating-point types.
func FromFloat64(vt format.ValueType, v float64) (any, error) {
	switch vt {
	case format.TypeFP64:
		return v, nil
	case format.TypeFP32:
		return float32(v), nil
	case format.TypeString:
		if math.IsNaN(v) {
			return nil, nil
		}

		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case format.TypeBoolean:
		if math.IsNaN(v) {
			return nil, nil
		}

		return v != 0, nil
	case format.TypeInt32:
		if math.IsNaN(v) {
			return nil, nil
		}
		fl := math.Floor(v + doubleEps)
		if fl < math.MinInt32 || fl > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %g overflows INT32", errs.ErrInvalidValueType, v)
		}

		return int32(fl), nil
	case format.TypeInt64:
		if math.IsNaN(v) {
			return nil, nil
		}
		fl := math.Floor(v + doubleEps)
		if fl < math.MinInt64 || fl >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: %g overflows INT64", errs.ErrInvalidValueType, v)
		}

		return int64(fl), nil
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidValueType, vt)
	}
}

// FromString coerces a decoded label to the Go type of vt.
func FromString(vt format.ValueType, s string) (any, error) {
	switch vt {
	case format.TypeString:
		return s, nil
	case format.TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not BOOLEAN", errs.ErrInvalidValueType, s)
		}

		return b, nil
	case format.TypeInt32, format.TypeInt64, format.TypeFP32, format.TypeFP64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not %s", errs.ErrInvalidValueType, s, vt)
		}

		return FromFloat64(vt, f)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidValueType, vt)
	}
}
