package decode

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/coldecode/compress"
	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/internal/encoding"
	"github.com/arloliu/coldecode/internal/hash"
	"github.com/arloliu/coldecode/internal/pool"
	"github.com/arloliu/coldecode/section"
)

// EncodeRecord serializes dec as a self-describing record.
//
// The record is a section.RecordHeader followed by the decoder body, compressed
// if requested. The header stores the decoder type, byte order, compression and
// an xxHash64 of the uncompressed body.
//
// Parameters:
//   - dec: an initialized decoder from this package
//   - opts: WithBigEndian, WithCompression and WithChecksum
//
// Returns:
//   - []byte: the encoded record
//   - error: ErrNotInitialized, ErrUnsupportedOperation for foreign decoders, or compression errors
func EncodeRecord(dec ColumnDecoder, opts ...RecordOption) ([]byte, error) {
	bb := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(bb)

	if err := appendRecord(bb, dec, opts); err != nil {
		return nil, err
	}

	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())

	return out, nil
}

// WriteRecord writes the record of dec to w.
//
// Returns:
//   - int64: bytes written
//   - error: encoding or write errors
func WriteRecord(w io.Writer, dec ColumnDecoder, opts ...RecordOption) (int64, error) {
	bb := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(bb)

	if err := appendRecord(bb, dec, opts); err != nil {
		return 0, err
	}

	return bb.WriteTo(w)
}

func appendRecord(bb *pool.ByteBuffer, dec ColumnDecoder, opts []RecordOption) error {
	cfg, err := newRecordConfig(opts)
	if err != nil {
		return err
	}

	pc, ok := dec.(payloadCodec)
	if !ok {
		return fmt.Errorf("%w: cannot serialize decoder %T", errs.ErrUnsupportedOperation, dec)
	}

	header := section.NewRecordHeader(dec.Type())
	if cfg.bigEndian {
		header.Flag.WithBigEndian()
	}
	header.Flag.SetChecksum(cfg.checksum)
	header.Flag.SetCompression(cfg.compression)

	w := encoding.NewWriter(header.Flag.GetEndianEngine())
	defer w.Finish()
	if err := pc.encodeBody(w); err != nil {
		return err
	}
	body := w.Bytes()
	if uint64(len(body)) > math.MaxUint32 {
		return fmt.Errorf("%w: body of %d bytes is too large", errs.ErrInvalidPayload, len(body))
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return err
	}
	payload, err := codec.Compress(body)
	if err != nil {
		return fmt.Errorf("compress record body: %w", err)
	}

	header.ColumnCount = uint32(len(dec.Columns())) //nolint: gosec
	header.RawSize = uint32(len(body))              //nolint: gosec
	header.PayloadSize = uint32(len(payload))       //nolint: gosec
	if cfg.checksum {
		header.Checksum = hash.Checksum(body)
	}

	bb.Grow(section.RecordHeaderSize + len(payload))
	bb.MustWrite(header.Bytes())
	bb.MustWrite(payload)

	return nil
}

// DecodeRecord reconstructs a decoder from a record produced by EncodeRecord.
//
// The returned decoder is initialized. Bytes after the record are ignored, so
// records may be concatenated; use RecordSize to advance past one.
//
// Returns:
//   - ColumnDecoder: the decoder with its parsed metadata
//   - error: header errors (ErrInvalidHeaderSize, ErrInvalidMagicNumber, ErrInvalidHeaderFlags),
//     ErrChecksumMismatch, or ErrInvalidPayload for a truncated or inconsistent body
func DecodeRecord(data []byte) (ColumnDecoder, error) {
	header, err := section.ParseRecordHeader(data)
	if err != nil {
		return nil, err
	}

	end := section.RecordHeaderSize + int(header.PayloadSize)
	if len(data) < end {
		return nil, fmt.Errorf("%w: record needs %d bytes, have %d", errs.ErrInvalidPayload, end, len(data))
	}

	return decodeRecordBody(header, data[section.RecordHeaderSize:end])
}

// RecordSize returns the total size of the record at the front of data.
func RecordSize(data []byte) (int, error) {
	header, err := section.ParseRecordHeader(data)
	if err != nil {
		return 0, err
	}

	return section.RecordHeaderSize + int(header.PayloadSize), nil
}

// ReadRecord reads one record from r and reconstructs its decoder.
func ReadRecord(r io.Reader) (ColumnDecoder, error) {
	hb := make([]byte, section.RecordHeaderSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errs.ErrInvalidHeaderSize
		}

		return nil, err
	}

	header, err := section.ParseRecordHeader(hb)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: record payload truncated", errs.ErrInvalidPayload)
		}

		return nil, err
	}

	return decodeRecordBody(header, payload)
}

func decodeRecordBody(header section.RecordHeader, payload []byte) (ColumnDecoder, error) {
	codec, err := compress.GetCodec(header.Flag.Compression())
	if err != nil {
		return nil, err
	}
	body, err := codec.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress body: %w", errs.ErrInvalidPayload, err)
	}
	if len(body) != int(header.RawSize) {
		return nil, fmt.Errorf("%w: body has %d bytes, header declares %d",
			errs.ErrInvalidPayload, len(body), header.RawSize)
	}
	if header.Flag.HasChecksum() && hash.Checksum(body) != header.Checksum {
		return nil, errs.ErrChecksumMismatch
	}

	dec, err := newEmptyDecoder(header.Flag.Decoder())
	if err != nil {
		return nil, err
	}

	r := encoding.NewReader(body, header.Flag.GetEndianEngine())
	if err := dec.(payloadCodec).decodeBody(r); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidPayload, r.Remaining())
	}
	if got := len(dec.Columns()); got != int(header.ColumnCount) {
		return nil, fmt.Errorf("%w: body has %d columns, header declares %d",
			errs.ErrInvalidPayload, got, header.ColumnCount)
	}

	return dec, nil
}
