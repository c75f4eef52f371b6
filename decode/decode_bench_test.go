package decode

import (
	"context"
	"fmt"
	"testing"

	"github.com/arloliu/coldecode/format"
	"github.com/arloliu/coldecode/frame"
)

// === Decoder Benchmarks ===

func BenchmarkBinDecoder_ColumnDecode(b *testing.B) {
	for _, rows := range []int{100, 10000} {
		b.Run(fmt.Sprintf("Rows%d", rows), func(b *testing.B) {
			dec, m := binGrid(b, rows)
			out := frame.New(dec.Schema(), rows)
			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				if err := dec.ColumnDecodeRange(m, out, 0, rows); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkComposite_ColumnDecode(b *testing.B) {
	for _, rows := range []int{100, 10000} {
		b.Run(fmt.Sprintf("Rows%d", rows), func(b *testing.B) {
			fx := encodeFixture(b, 1, rows)
			dec := newFixtureDecoder(b, fx)
			out := frame.New(fx.schema, rows)
			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				if err := dec.ColumnDecodeRange(fx.m, out, 0, rows); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecodeParallel(b *testing.B) {
	fx := encodeFixture(b, 1, 100000)
	dec := newFixtureDecoder(b, fx)

	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("Workers%d", workers), func(b *testing.B) {
			out := frame.New(fx.schema, fx.m.NumRows())
			b.ResetTimer()

			for b.Loop() {
				if err := DecodeParallel(context.Background(), dec, fx.m, out, WithWorkers(workers)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// === Record Benchmarks ===

func BenchmarkEncodeRecord(b *testing.B) {
	fx := encodeFixture(b, 1, 1000)
	dec := newFixtureDecoder(b, fx)

	for _, c := range []format.CompressionType{format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		b.Run(c.String(), func(b *testing.B) {
			b.ReportAllocs()

			for b.Loop() {
				if _, err := EncodeRecord(dec, WithCompression(c)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecodeRecord(b *testing.B) {
	fx := encodeFixture(b, 1, 1000)
	dec := newFixtureDecoder(b, fx)
	data, err := EncodeRecord(dec, WithCompression(format.CompressionZstd))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		if _, err := DecodeRecord(data); err != nil {
			b.Fatal(err)
		}
	}
}
