// Package errs defines the sentinel errors returned by coldecode packages.
//
// Errors are wrapped with additional context using fmt.Errorf and the %w verb,
// so callers should match them with errors.Is:
//
//	if errors.Is(err, errs.ErrOutOfRangeBin) {
//	    // encoded matrix and metadata disagree
//	}
//
// None of these errors are transient. They indicate a mismatch between the
// state captured at encoding time and the state supplied at decoding time.
package errs

import "errors"

// Decode contract errors.
var (
	// ErrMetadataCorruption is returned when a metadata column does not hold the
	// expected number of contiguous entries.
	ErrMetadataCorruption = errors.New("metadata corruption")

	// ErrMetadataParse is returned when a metadata entry is malformed.
	ErrMetadataParse = errors.New("malformed metadata entry")

	// ErrOutOfRangeBin is returned when an encoded bin ordinal is outside [1, numBins].
	ErrOutOfRangeBin = errors.New("bin ordinal out of range")

	// ErrInvalidRecodeCode is returned when an encoded recode value has no label.
	ErrInvalidRecodeCode = errors.New("recode code out of range")

	// ErrInvalidOneHot is returned when a dummy-coded block has no hot position.
	ErrInvalidOneHot = errors.New("invalid one-hot block")

	// ErrUnsupportedOperation is returned when an operation is not supported
	// by a decoder variant or configuration.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrConfiguration is returned for invalid transform specifications.
	ErrConfiguration = errors.New("invalid transform configuration")

	// ErrNotInitialized is returned when a decoder is used before InitMetaData.
	ErrNotInitialized = errors.New("decoder metadata not initialized")

	// ErrAlreadyInitialized is returned when InitMetaData is called twice.
	ErrAlreadyInitialized = errors.New("decoder metadata already initialized")

	// ErrInvalidRowRange is returned for an inverted or out-of-bounds row range.
	ErrInvalidRowRange = errors.New("invalid row range")

	// ErrInvalidColumn is returned when a column index is outside the matrix or frame.
	ErrInvalidColumn = errors.New("invalid column index")

	// ErrInvalidValueType is returned for an unknown value type.
	ErrInvalidValueType = errors.New("invalid value type")

	// ErrInvalidColumnName is returned for an empty or unknown column name.
	ErrInvalidColumnName = errors.New("invalid column name")

	// ErrDuplicateColumnName is returned when a column name appears twice.
	ErrDuplicateColumnName = errors.New("duplicate column name")
)

// Binary record errors.
var (
	// ErrInvalidHeaderSize is returned when the record header is truncated.
	ErrInvalidHeaderSize = errors.New("invalid record header size")

	// ErrInvalidMagicNumber is returned when the record magic number does not match.
	ErrInvalidMagicNumber = errors.New("invalid record magic number")

	// ErrInvalidHeaderFlags is returned when the record header flags are invalid.
	ErrInvalidHeaderFlags = errors.New("invalid record header flags")

	// ErrInvalidPayload is returned when a serialized decoder payload is truncated or inconsistent.
	ErrInvalidPayload = errors.New("invalid decoder payload")

	// ErrChecksumMismatch is returned when the payload checksum does not match the header.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")

	// ErrUnknownDecoderType is returned when a record holds an unknown decoder type.
	ErrUnknownDecoderType = errors.New("unknown decoder type")
)
