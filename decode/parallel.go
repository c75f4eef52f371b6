package decode

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DecodeParallel decodes all rows of m into out by splitting them into
// disjoint row chunks decoded concurrently with ColumnDecodeRange.
//
// The context is checked before each chunk starts; chunks already running are
// not interrupted. On the first failure no further chunks are started, and
// cells written by other chunks are left in place.
//
// Parameters:
//   - ctx: cancels scheduling of remaining chunks
//   - dec: an initialized decoder
//   - m: encoded matrix
//   - out: output frame with at least m.NumRows() rows
//   - opts: WithWorkers, WithChunkRows and WithMetrics
//
// Returns:
//   - error: the first decode error, or the context error if cancellation
//     left rows undecoded
func DecodeParallel(ctx context.Context, dec ColumnDecoder, m MatrixReader, out FrameWriter, opts ...ParallelOption) error {
	cfg, err := newParallelConfig(opts)
	if err != nil {
		return err
	}

	rows := m.NumRows()
	chunks := (rows + cfg.chunkRows - 1) / cfg.chunkRows
	Logger().Debug("parallel decode scheduled",
		zap.Stringer("decoder", dec.Type()),
		zap.Int("rows", rows),
		zap.Int("chunks", chunks),
		zap.Int("workers", cfg.workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	stopped := false
	for rl := 0; rl < rows; rl += cfg.chunkRows {
		if gctx.Err() != nil {
			stopped = true
			break
		}

		ru := min(rl+cfg.chunkRows, rows)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			err := dec.ColumnDecodeRange(m, out, rl, ru)
			cfg.metrics.observeChunk(ru-rl, time.Since(start).Seconds(), err)
			if err != nil {
				Logger().Warn("chunk decode failed", zap.Int("rowStart", rl), zap.Int("rowEnd", ru), zap.Error(err))
				return err
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// Every scheduled chunk succeeded; only report cancellation if rows were skipped.
	if stopped {
		return ctx.Err()
	}

	return nil
}
