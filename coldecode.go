// Package coldecode turns column-wise transformed matrices back into typed frames.
//
// An upstream encoder applies per-column transforms (recode, dummy coding,
// binning) to a frame and produces a dense float64 matrix plus a metadata frame
// describing each transform. This package reverses that: given the transform
// spec, the target schema and the metadata, it builds a decoder that maps
// matrix columns back to frame columns.
//
// # Basic Usage
//
//	spec, _ := decode.ParseSpec([]byte(`{"recode": ["city"], "bin": [{"name": "age", "numbins": 4}]}`))
//	dec, _ := coldecode.NewDecoder(spec, names, schema, meta)
//
//	out, _ := coldecode.Decode(dec, m)
//	fmt.Println(out.Row(0))
//
// Decoders are immutable after construction and safe for concurrent use. Large
// matrices can be decoded in row chunks with DecodeParallel:
//
//	out, err := coldecode.DecodeParallel(ctx, dec, m, decode.WithWorkers(8))
//
// # Persistence
//
// Marshal stores a decoder together with its parsed metadata in a
// self-describing record, so workers can decode without the metadata frame:
//
//	data, _ := coldecode.Marshal(dec)
//	restored, _ := coldecode.Unmarshal(data)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the decode
// package. For per-variant decoders, sub-range decoding and streaming records,
// use the decode package directly.
package coldecode

import (
	"context"

	"github.com/arloliu/coldecode/decode"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
)

var defaultRecordOptions = []decode.RecordOption{
	decode.WithLittleEndian(),
	decode.WithCompression(format.CompressionZstd),
	decode.WithChecksum(true),
}

// NewDecoder builds an initialized decoder for every column of the schema.
//
// Columns named by no transform of spec are decoded as pass-through. When the
// spec yields more than one decoder group, a *decode.CompositeDecoder is returned.
//
// Parameters:
//   - spec: parsed transform spec, or nil to pass every column through
//   - names: frame column names, or nil for C1..Cn
//   - schema: value types of the output frame
//   - meta: metadata frame written by the encoder
//   - opts: decode.WithLogger, decode.WithStrictSpec
//
// Returns:
//   - decode.ColumnDecoder: the initialized decoder
//   - error: errs.ErrConfiguration for an invalid spec, or metadata errors
//
// Example:
//
//	dec, err := coldecode.NewDecoder(spec, []string{"city", "age"},
//	    []format.ValueType{format.TypeString, format.TypeFP64}, meta)
func NewDecoder(spec *decode.Spec, names []string, schema []format.ValueType, meta decode.MetadataReader, opts ...decode.FactoryOption) (decode.ColumnDecoder, error) {
	return decode.NewDecoder(spec, names, schema, meta, opts...)
}

// NewDecoderFromJSON parses a JSON transform spec and builds its decoder.
// See NewDecoder for the remaining parameters.
func NewDecoderFromJSON(specJSON []byte, names []string, schema []format.ValueType, meta decode.MetadataReader, opts ...decode.FactoryOption) (decode.ColumnDecoder, error) {
	spec, err := decode.ParseSpec(specJSON, opts...)
	if err != nil {
		return nil, err
	}

	return decode.NewDecoder(spec, names, schema, meta, opts...)
}

// Decode decodes every row of m into a new frame.
func Decode(dec decode.ColumnDecoder, m decode.MatrixReader) (*frame.Frame, error) {
	return dec.ColumnDecode(m)
}

// DecodeParallel decodes every row of m into a new frame using concurrent
// row chunks.
//
// Parameters:
//   - ctx: cancels scheduling of remaining chunks
//   - dec: an initialized decoder
//   - m: encoded matrix
//   - opts: decode.WithWorkers, decode.WithChunkRows, decode.WithMetrics
//
// Returns:
//   - *frame.Frame: the decoded frame
//   - error: the first decode error or the context error
func DecodeParallel(ctx context.Context, dec decode.ColumnDecoder, m decode.MatrixReader, opts ...decode.ParallelOption) (*frame.Frame, error) {
	out := frame.New(dec.Schema(), m.NumRows())
	if err := decode.DecodeParallel(ctx, dec, m, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Marshal encodes dec as a self-describing record.
//
// The record is little-endian, Zstd compressed and checksummed unless opts
// override it.
//
// Example:
//
//	data, err := coldecode.Marshal(dec, decode.WithCompression(format.CompressionS2))
func Marshal(dec decode.ColumnDecoder, opts ...decode.RecordOption) ([]byte, error) {
	allOpts := append(append([]decode.RecordOption(nil), defaultRecordOptions...), opts...)
	return decode.EncodeRecord(dec, allOpts...)
}

// Unmarshal restores a decoder from a record produced by Marshal.
func Unmarshal(data []byte) (decode.ColumnDecoder, error) {
	return decode.DecodeRecord(data)
}
