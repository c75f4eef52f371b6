// Package compress provides the payload codecs applied to serialized decoder records.
//
// A decoder record body (base header plus variant metadata such as bin
// boundaries or recode labels) may be compressed before it is shipped to
// another process or partition. The record header stores the compression type,
// so the reading side picks the matching codec with GetCodec.
//
// Supported algorithms:
//   - None: the body is stored as-is
//   - Zstd: best ratio, suited to large recode dictionaries
//   - S2: fast, moderate ratio
//   - LZ4: fastest decompression
//
// The pure-Go Zstandard implementation (klauspost/compress/zstd) is used by
// default. Building with the gozstd tag switches to the cgo binding
// (valyala/gozstd):
//
//	go build -tags gozstd ./...
//
// All codecs returned by this package are safe for concurrent use.
package compress
