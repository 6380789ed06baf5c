package writer

import (
	"fmt"

	"github.com/xitongsys/parquet-go/parquet"
	pwriter "github.com/xitongsys/parquet-go/writer"

	"ordersummary/internal/parquetfile"
	"ordersummary/logger"
	"ordersummary/models"
	"ordersummary/processor"
)

// ParquetOptions control how the matrix is encoded.
type ParquetOptions struct {
	Compression  string // none, snappy or gzip
	IncludeEmpty bool   // also write cells with a zero count
}

// MatrixCells flattens m into export rows, one per cell in weekday then
// interval order. Zero cells are dropped unless includeEmpty is set.
func MatrixCells(m *processor.Matrix, runID string, includeEmpty bool) []models.ParquetMatrixCell {
	cells := make([]models.ParquetMatrixCell, 0, models.DaysPerWeek*m.Intervals())
	for _, day := range models.Weekdays() {
		for i, count := range m.Row(day) {
			if count == 0 && !includeEmpty {
				continue
			}
			cells = append(cells, models.ParquetMatrixCell{
				RunID:       runID,
				Day:         day.String(),
				DayIndex:    int32(day),
				Interval:    int32(i),
				Label:       m.Label(i),
				StartMinute: int32(processor.OpenTime + i*m.IntervalLength()),
				Length:      int32(m.IntervalLength()),
				Count:       int64(count),
			})
		}
	}
	return cells
}

// EncodeParquet builds an in-memory Parquet file holding the cells of m.
// It returns the file and the number of rows written.
func EncodeParquet(m *processor.Matrix, runID string, opts ParquetOptions) ([]byte, int, error) {
	cells := MatrixCells(m, runID, opts.IncludeEmpty)

	log := logger.GetLogger().WithComponent("parquet_encoder").WithFields(logger.Fields{
		"run_id":      runID,
		"rows":        len(cells),
		"compression": opts.Compression,
		"operation":   "encode_parquet",
	})

	fw := parquetfile.NewWriter()
	pw, err := pwriter.NewParquetWriter(fw, new(models.ParquetMatrixCell), 1)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	switch opts.Compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	for _, cell := range cells {
		if err := pw.Write(cell); err != nil {
			pw.WriteStop()
			return nil, 0, fmt.Errorf("failed to write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, 0, fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	data := fw.Bytes()
	log.WithFields(logger.Fields{"file_size": len(data)}).Debug("parquet file created")
	return data, len(cells), nil
}
