package compress

// ZstdCompressor compresses record bodies with Zstandard.
//
// It gives the best ratio of the built-in codecs and is the natural choice for
// decoders carrying large recode dictionaries.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
