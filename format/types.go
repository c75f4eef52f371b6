package format

import "strings"

type (
	ValueType       uint8
	DecoderType     uint8
	CompressionType uint8
)

const (
	TypeUnknown ValueType = 0x0 // TypeUnknown marks an unset or invalid value type.
	TypeString  ValueType = 0x1 // TypeString represents UTF-8 strings.
	TypeBoolean ValueType = 0x2 // TypeBoolean represents booleans.
	TypeInt32   ValueType = 0x3 // TypeInt32 represents 32-bit signed integers.
	TypeInt64   ValueType = 0x4 // TypeInt64 represents 64-bit signed integers.
	TypeFP32    ValueType = 0x5 // TypeFP32 represents 32-bit floats.
	TypeFP64    ValueType = 0x6 // TypeFP64 represents 64-bit floats.

	DecoderPassThrough DecoderType = 0x1 // DecoderPassThrough copies matrix values.
	DecoderRecode      DecoderType = 0x2 // DecoderRecode maps codes back to labels.
	DecoderDummycode   DecoderType = 0x3 // DecoderDummycode collapses one-hot blocks.
	DecoderBin         DecoderType = 0x4 // DecoderBin maps bin ordinals to midpoints.
	DecoderComposite   DecoderType = 0x5 // DecoderComposite aggregates other decoders.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (v ValueType) String() string {
	switch v {
	case TypeString:
		return "STRING"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeInt32:
		return "INT32"
	case TypeInt64:
		return "INT64"
	case TypeFP32:
		return "FP32"
	case TypeFP64:
		return "FP64"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether v is a known value type.
func (v ValueType) IsValid() bool {
	return v >= TypeString && v <= TypeFP64
}

// IsNumeric reports whether v holds integer or floating-point values.
func (v ValueType) IsNumeric() bool {
	switch v { //nolint: exhaustive
	case TypeInt32, TypeInt64, TypeFP32, TypeFP64:
		return true
	default:
		return false
	}
}

// ParseValueType parses a value type name case-insensitively.
// Returns TypeUnknown for unrecognized names.
func ParseValueType(name string) ValueType {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "STRING", "STR":
		return TypeString
	case "BOOLEAN", "BOOL":
		return TypeBoolean
	case "INT32", "INT":
		return TypeInt32
	case "INT64", "LONG":
		return TypeInt64
	case "FP32", "FLOAT":
		return TypeFP32
	case "FP64", "DOUBLE":
		return TypeFP64
	default:
		return TypeUnknown
	}
}

func (d DecoderType) String() string {
	switch d {
	case DecoderPassThrough:
		return "PassThrough"
	case DecoderRecode:
		return "Recode"
	case DecoderDummycode:
		return "Dummycode"
	case DecoderBin:
		return "Bin"
	case DecoderComposite:
		return "Composite"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
