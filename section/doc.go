// Package section defines the low-level binary structures of serialized decoder records.
//
// A record is a fixed-size RecordHeader followed by the body of one decoder,
// optionally compressed:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ RecordHeader (24 bytes, fixed)                          │
//	│  - Options (2 bytes): magic, endianness, checksum       │
//	│  - DecoderType (1 byte)                                 │
//	│  - CompressionType (1 byte)                             │
//	│  - ColumnCount, PayloadSize, RawSize (12 bytes)         │
//	│  - Checksum (8 bytes): xxHash64 of the raw body         │
//	├─────────────────────────────────────────────────────────┤
//	│ Payload (PayloadSize bytes)                             │
//	│  - Decoder body, compressed with CompressionType        │
//	└─────────────────────────────────────────────────────────┘
//
// # Options Word
//
// The options word is always stored little-endian, since it carries the byte
// order of every other field:
//
//	Bit 0:     Checksum (0=absent, 1=present)
//	Bit 1:     Endianness (0=little-endian, 1=big-endian)
//	Bits 2-3:  Reserved (must be 0)
//	Bits 4-15: Magic number (0xDC10 for version 1)
//
// # Usage
//
// Writing a header:
//
//	header := section.NewRecordHeader(format.DecoderBin)
//	header.Flag.WithBigEndian()
//	header.Flag.SetCompression(format.CompressionZstd)
//	header.PayloadSize = uint32(len(payload))
//	buf := header.Bytes()
//
// Parsing a header:
//
//	header, err := section.ParseRecordHeader(data)
//	if err != nil {
//	    return err
//	}
//	engine := header.Flag.GetEndianEngine()
//
// Most users should go through decode.EncodeRecord and decode.DecodeRecord
// instead of using this package directly.
package section
