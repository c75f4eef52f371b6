package section

import (
	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
)

// RecordHeader is the fixed-size header in front of a serialized decoder body.
//
//	Bytes  | Field        | Type   | Description
//	-------|--------------|--------|----------------------------------------
//	0-1    | Options      | uint16 | magic, endianness, checksum (always LE)
//	2      | DecoderType  | uint8  | top-level decoder variant
//	3      | Compression  | uint8  | body compression
//	4-7    | ColumnCount  | uint32 | managed columns of the decoder
//	8-11   | PayloadSize  | uint32 | stored (compressed) body size
//	12-15  | RawSize      | uint32 | uncompressed body size
//	16-23  | Checksum     | uint64 | xxHash64 of the uncompressed body
type RecordHeader struct {
	ColumnCount uint32
	PayloadSize uint32
	RawSize     uint32
	Checksum    uint64
	Flag        RecordFlag
}

// NewRecordHeader creates a header for a decoder of type decType.
func NewRecordHeader(decType format.DecoderType) *RecordHeader {
	return &RecordHeader{
		Flag: NewRecordFlag(decType),
	}
}

// Parse parses the header from exactly RecordHeaderSize bytes.
//
// Returns:
//   - error: ErrInvalidHeaderSize if data has the wrong length, or flag validation errors
func (h *RecordHeader) Parse(data []byte) error {
	if len(data) != RecordHeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	// The options word is always little-endian; it carries the endianness of the rest.
	h.Flag.Options = uint16(data[0]) | (uint16(data[1]) << 8)
	h.Flag.DecoderType = data[2]
	h.Flag.CompressionType = data[3]

	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()
	h.ColumnCount = engine.Uint32(data[4:8])
	h.PayloadSize = engine.Uint32(data[8:12])
	h.RawSize = engine.Uint32(data[12:16])
	h.Checksum = engine.Uint64(data[16:24])

	return nil
}

// Bytes serializes the header.
func (h *RecordHeader) Bytes() []byte {
	b := make([]byte, RecordHeaderSize)

	b[0] = byte(h.Flag.Options)
	b[1] = byte(h.Flag.Options >> 8)
	b[2] = h.Flag.DecoderType
	b[3] = h.Flag.CompressionType

	engine := h.Flag.GetEndianEngine()
	engine.PutUint32(b[4:8], h.ColumnCount)
	engine.PutUint32(b[8:12], h.PayloadSize)
	engine.PutUint32(b[12:16], h.RawSize)
	engine.PutUint64(b[16:24], h.Checksum)

	return b
}

// ParseRecordHeader parses a RecordHeader from the front of data.
func ParseRecordHeader(data []byte) (RecordHeader, error) {
	if len(data) < RecordHeaderSize {
		return RecordHeader{}, errs.ErrInvalidHeaderSize
	}

	h := RecordHeader{}
	if err := h.Parse(data[:RecordHeaderSize]); err != nil {
		return RecordHeader{}, err
	}

	return h, nil
}
