package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/ja7ad/windpower/pkg/operation"
	"github.com/ja7ad/windpower/pkg/turbulence"
)

type recordParquetRow struct {
	RunID     string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Turbine   string  `parquet:"name=turbine, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp int64   `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Speed     float64 `parquet:"name=speed_ms, type=DOUBLE"`
	Omega     float64 `parquet:"name=omega_rads, type=DOUBLE"`
	Power     float64 `parquet:"name=power_kw, type=DOUBLE"`
	State     string  `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type seriesParquetRow struct {
	Timestamp  int64   `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Speed      float64 `parquet:"name=speed_ms, type=DOUBLE"`
	Mean       float64 `parquet:"name=mean_ms, type=DOUBLE"`
	Wave       float64 `parquet:"name=wave_ms, type=DOUBLE"`
	Turbulence float64 `parquet:"name=turbulence_ms, type=DOUBLE"`
}

// memFile is a write-only in-memory parquet sink.
type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buffer.Bytes() }

func compressionCodec(name string) parquet.CompressionCodec {
	switch strings.ToLower(name) {
	case "gzip":
		return parquet.CompressionCodec_GZIP
	case "none", "uncompressed":
		return parquet.CompressionCodec_UNCOMPRESSED
	default:
		return parquet.CompressionCodec_SNAPPY
	}
}

func encodeParquet[T any](rows []T, compression string) ([]byte, error) {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, new(T), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(compression)

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return mem.Bytes(), nil
}

// RecordsParquet encodes operational records of one run.
func RecordsParquet(runID, turbineName string, records []operation.Record, compression string) ([]byte, error) {
	rows := make([]recordParquetRow, len(records))
	for i, r := range records {
		rows[i] = recordParquetRow{
			RunID:     runID,
			Turbine:   turbineName,
			Timestamp: r.Timestamp.UnixMilli(),
			Speed:     r.Speed,
			Omega:     r.Omega,
			Power:     r.Power,
			State:     r.State.String(),
		}
	}
	return encodeParquet(rows, compression)
}

// SeriesParquet encodes a synthesized series.
func SeriesParquet(samples []turbulence.Sample, compression string) ([]byte, error) {
	rows := make([]seriesParquetRow, len(samples))
	for i, s := range samples {
		rows[i] = seriesParquetRow{
			Timestamp:  s.Timestamp.UnixMilli(),
			Speed:      s.Speed,
			Mean:       s.Mean,
			Wave:       s.Wave,
			Turbulence: s.Turbulence,
		}
	}
	return encodeParquet(rows, compression)
}
