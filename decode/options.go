package decode

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/arloliu/coldecode/compress"
	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/internal/options"
)

// DefaultChunkRows is the number of rows per chunk used by DecodeParallel.
const DefaultChunkRows = 1024

type factoryConfig struct {
	logger *zap.Logger
	strict bool
}

func newFactoryConfig(opts []FactoryOption) (*factoryConfig, error) {
	cfg := &factoryConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}

	return cfg, nil
}

// FactoryOption configures spec parsing and decoder construction.
type FactoryOption = options.Option[*factoryConfig]

// WithLogger sets the logger used while parsing specs and building decoders.
// The package logger is used by default.
func WithLogger(l *zap.Logger) FactoryOption {
	return options.NoError(func(cfg *factoryConfig) {
		cfg.logger = l
	})
}

// WithStrictSpec rejects transform specs with keys this package does not decode,
// including encoder-only transforms that are otherwise ignored.
func WithStrictSpec() FactoryOption {
	return options.NoError(func(cfg *factoryConfig) {
		cfg.strict = true
	})
}

type recordConfig struct {
	bigEndian   bool
	compression format.CompressionType
	checksum    bool
}

func newRecordConfig(opts []RecordOption) (*recordConfig, error) {
	cfg := &recordConfig{
		compression: format.CompressionNone,
		checksum:    true,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RecordOption configures EncodeRecord and WriteRecord.
type RecordOption = options.Option[*recordConfig]

// WithLittleEndian writes the record body in little-endian byte order. This is the default.
func WithLittleEndian() RecordOption {
	return options.NoError(func(cfg *recordConfig) {
		cfg.bigEndian = false
	})
}

// WithBigEndian writes the record body in big-endian byte order.
func WithBigEndian() RecordOption {
	return options.NoError(func(cfg *recordConfig) {
		cfg.bigEndian = true
	})
}

// WithCompression compresses the record body. The default is format.CompressionNone.
func WithCompression(c format.CompressionType) RecordOption {
	return options.New(func(cfg *recordConfig) error {
		if !compress.IsSupported(c) {
			return fmt.Errorf("invalid record compression: %s", c)
		}
		cfg.compression = c

		return nil
	})
}

// WithChecksum enables or disables the xxHash64 body checksum. Enabled by default.
func WithChecksum(enabled bool) RecordOption {
	return options.NoError(func(cfg *recordConfig) {
		cfg.checksum = enabled
	})
}

type parallelConfig struct {
	workers   int
	chunkRows int
	metrics   *Metrics
}

func newParallelConfig(opts []ParallelOption) (*parallelConfig, error) {
	cfg := &parallelConfig{
		workers:   runtime.GOMAXPROCS(0),
		chunkRows: DefaultChunkRows,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParallelOption configures DecodeParallel.
type ParallelOption = options.Option[*parallelConfig]

// WithWorkers bounds the number of chunks decoded concurrently.
// The default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) ParallelOption {
	return options.New(func(cfg *parallelConfig) error {
		if n < 1 {
			return fmt.Errorf("invalid worker count: %d", n)
		}
		cfg.workers = n

		return nil
	})
}

// WithChunkRows sets the number of rows per chunk. The default is DefaultChunkRows.
func WithChunkRows(n int) ParallelOption {
	return options.New(func(cfg *parallelConfig) error {
		if n < 1 {
			return fmt.Errorf("invalid chunk rows: %d", n)
		}
		cfg.chunkRows = n

		return nil
	})
}

// WithMetrics records chunk and row counts in m.
func WithMetrics(m *Metrics) ParallelOption {
	return options.NoError(func(cfg *parallelConfig) {
		cfg.metrics = m
	})
}
