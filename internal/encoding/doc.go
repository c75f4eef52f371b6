// Package encoding implements the fixed-width binary primitives used to
// serialize decoder state: the shared base header (column lists and schema)
// and the per-variant payloads (bin boundaries, recode labels, one-hot widths).
//
// Writer appends values to a pooled buffer using an endian engine; Reader
// consumes them in the same order and reports truncation as
// errs.ErrInvalidPayload.
//
//	w := encoding.NewWriter(endian.GetLittleEndianEngine())
//	defer w.Finish()
//	w.WriteInt32(numBins)
//	w.WriteFloat64(min)
//	body := slices.Clone(w.Bytes())
package encoding
