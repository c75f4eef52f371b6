package section

const (
	// Bit masks of the options word
	ChecksumMask       = 0x0001 // Mask for checksum bit (bit 0)
	RecordEndianMask   = 0x0002 // Mask for endianness bit (bit 1)
	RecordReservedMask = 0x000C // Mask for reserved bits (bits 2-3)
	RecordMagicMask    = 0xFFF0 // Mask for magic number (bits 4-15)

	// MagicDecoderV1Opt is the version 1 magic number of serialized decoder records.
	MagicDecoderV1Opt = 0xDC10
)

// RecordHeaderSize is the fixed size of a decoder record header in bytes.
const RecordHeaderSize = 24
