package decode

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of DecodeParallel.
type Metrics struct {
	RowsDecoded   prometheus.Counter
	ChunksDecoded prometheus.Counter
	DecodeErrors  prometheus.Counter
	ChunkDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	rowsDecoded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coldecode_rows_decoded_total",
		Help: "Total matrix rows decoded by parallel decode",
	})

	chunksDecoded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coldecode_chunks_decoded_total",
		Help: "Total row chunks decoded successfully",
	})

	decodeErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coldecode_decode_errors_total",
		Help: "Total row chunks that failed to decode",
	})

	chunkDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coldecode_chunk_duration_seconds",
		Help:    "Time spent decoding one row chunk",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	reg.MustRegister(rowsDecoded, chunksDecoded, decodeErrors, chunkDuration)

	return &Metrics{
		RowsDecoded:   rowsDecoded,
		ChunksDecoded: chunksDecoded,
		DecodeErrors:  decodeErrors,
		ChunkDuration: chunkDuration,
	}
}

func (m *Metrics) observeChunk(rows int, seconds float64, err error) {
	if m == nil {
		return
	}

	m.ChunkDuration.Observe(seconds)
	if err != nil {
		m.DecodeErrors.Inc()
		return
	}
	m.ChunksDecoded.Inc()
	m.RowsDecoded.Add(float64(rows))
}
