package section

import (
	"github.com/arloliu/coldecode/endian"
	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/format"
)

// RecordFlag is the packed flag section of a decoder record header.
type RecordFlag struct {
	// Options is a packed field.
	// Bit 0 is the checksum flag, 1 means the header carries an xxHash64 of the body.
	// Bit 1 is the endianness flag, 0 means little-endian, 1 means big-endian.
	// Bit 2-3 are reserved and must be 0.
	// Bit 4-15 are the magic number, 0xDC10 for version 1.
	Options uint16

	// DecoderType is the format.DecoderType of the top-level decoder in the record.
	DecoderType uint8

	// CompressionType is the format.CompressionType applied to the record body.
	CompressionType uint8
}

// NewRecordFlag creates a flag for decType with little-endian byte order,
// checksum enabled and no compression.
func NewRecordFlag(decType format.DecoderType) RecordFlag {
	flag := RecordFlag{
		Options:         MagicDecoderV1Opt,
		DecoderType:     uint8(decType),
		CompressionType: uint8(format.CompressionNone),
	}
	flag.SetChecksum(true)
	flag.WithLittleEndian()

	return flag
}

// HasChecksum returns whether the body checksum is recorded.
func (f RecordFlag) HasChecksum() bool {
	return (f.Options & ChecksumMask) != 0
}

// SetChecksum enables or disables the body checksum.
func (f *RecordFlag) SetChecksum(enabled bool) {
	if enabled {
		f.Options |= ChecksumMask
	} else {
		f.Options &^= ChecksumMask
	}
}

// IsLittleEndian returns whether the body is little-endian.
func (f RecordFlag) IsLittleEndian() bool {
	return (f.Options & RecordEndianMask) == 0
}

// WithLittleEndian sets little-endian byte order.
func (f *RecordFlag) WithLittleEndian() {
	f.Options &^= RecordEndianMask
}

// WithBigEndian sets big-endian byte order.
func (f *RecordFlag) WithBigEndian() {
	f.Options |= RecordEndianMask
}

// GetMagicNumber returns the magic number bits of the options word.
func (f RecordFlag) GetMagicNumber() uint16 {
	return f.Options & RecordMagicMask
}

// Decoder returns the decoder type.
func (f RecordFlag) Decoder() format.DecoderType {
	return format.DecoderType(f.DecoderType)
}

// Compression returns the compression type.
func (f RecordFlag) Compression() format.CompressionType {
	return format.CompressionType(f.CompressionType)
}

// SetCompression sets the compression type.
func (f *RecordFlag) SetCompression(c format.CompressionType) {
	f.CompressionType = uint8(c)
}

// Validate checks the magic number, reserved bits and enumerations.
func (f RecordFlag) Validate() error {
	if f.GetMagicNumber() != MagicDecoderV1Opt {
		return errs.ErrInvalidMagicNumber
	}

	if f.Options&RecordReservedMask != 0 {
		return errs.ErrInvalidHeaderFlags
	}

	switch f.Decoder() {
	case format.DecoderPassThrough, format.DecoderRecode, format.DecoderDummycode,
		format.DecoderBin, format.DecoderComposite:
	default:
		return errs.ErrInvalidHeaderFlags
	}

	switch f.Compression() {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// GetEndianEngine returns the endian engine matching the flag.
func (f RecordFlag) GetEndianEngine() endian.EndianEngine {
	return endian.EngineFor(!f.IsLittleEndian())
}
