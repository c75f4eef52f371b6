package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// S2Compressor stores a record body as one S2 block. The block header carries
// the decoded length, which is checked before any output is allocated.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress encodes data as an S2 block sized from s2.MaxEncodedLen.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bound := s2.MaxEncodedLen(len(data))
	if bound < 0 {
		return nil, fmt.Errorf("s2: body of %d bytes is too large", len(data))
	}

	return s2.Encode(make([]byte, bound), data), nil
}

// Decompress decodes an S2 block, rejecting blocks that declare more than
// 128MiB of output.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if n > maxDecodedSize {
		return nil, fmt.Errorf("s2: block declares %d bytes, limit is %d", n, maxDecodedSize)
	}

	return s2.Decode(make([]byte, n), data)
}
