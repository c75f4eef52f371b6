// Package decode implements column-wise decoders that turn an encoded numeric
// matrix back into a typed frame.
//
// A transform pipeline encodes each source column with one strategy: pass-through,
// recode (category to code), dummy coding (category to a one-hot block) or
// binning (value to bin ordinal). The encoder also produces a metadata frame
// whose column j lists the artifacts learned for source column j, such as
// "<label>:<code>" entries for recode or "<min>:<max>" boundaries for bins.
//
// Every strategy has a ColumnDecoder variant:
//
//	PassThroughDecoder  matrix value coerced to the schema type
//	RecodeDecoder       code -> label
//	DummycodeDecoder    one-hot block -> code -> label or bin midpoint
//	BinDecoder          bin ordinal -> midpoint of the bin boundaries
//	CompositeDecoder    several of the above over disjoint columns
//
// # Lifecycle
//
// A decoder is constructed with the output schema and a Mapping of the frame
// columns it owns to the matrix columns that encode them. InitMetaData must be
// called exactly once; afterwards the decoder is read-only and safe for
// concurrent use:
//
//	dec, err := decode.NewBinDecoder(schema, decode.Identity(1, 3))
//	if err != nil { ... }
//	if err := dec.InitMetaData(meta); err != nil { ... }
//	out, err := dec.ColumnDecode(matrix)
//
// # Partitioned decoding
//
// ColumnDecodeRange decodes a row range into a caller supplied frame, and
// SubRangeDecoder derives a decoder restricted to a column range. It keeps
// global frame columns and reads a matrix partition. Calls over disjoint rows,
// or decoders over disjoint columns, never write the same cell, so they may run
// concurrently on one output frame without locking. DecodeParallel
// drives the row-partitioned form with a bounded worker pool.
//
// Keeping the partitioning disjoint is the caller's responsibility.
//
// # Persistence
//
// Decoders implement encoding.BinaryMarshaler and encoding.BinaryUnmarshaler.
// EncodeRecord and DecodeRecord wrap the body in a self-describing record with a
// header, optional compression and an xxHash64 checksum.
package decode
