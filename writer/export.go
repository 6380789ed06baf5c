package writer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	appconfig "ordersummary/config"
	"ordersummary/internal/metadata"
	"ordersummary/logger"
	"ordersummary/processor"
)

// ExportResult describes where a matrix export ended up.
type ExportResult struct {
	RunID    string
	Rows     int
	Bytes    int
	Path     string // local file, empty when not written locally
	S3Key    string // object key, empty when not uploaded
	S3Bucket string
}

// Exporter writes the encoded matrix to a local path and/or S3.
type Exporter struct {
	cfg *appconfig.Config
	s3  *S3Writer
	log *logger.Log
	now func() time.Time
}

// NewExporter creates an exporter. s3 may be nil when uploads are disabled.
func NewExporter(cfg *appconfig.Config, s3 ObjectPutter) *Exporter {
	e := &Exporter{cfg: cfg, log: logger.GetLogger(), now: time.Now}
	if s3 != nil && cfg.Storage.S3.Enabled {
		e.s3 = NewS3Writer(s3, cfg)
	}
	return e
}

// Export encodes m and delivers it. out overrides export.path; a directory
// receives the default file name.
func (e *Exporter) Export(ctx context.Context, m *processor.Matrix, runID, out string) (ExportResult, error) {
	if out == "" {
		out = e.cfg.Export.Path
	}
	if out == "" && e.s3 == nil {
		return ExportResult{}, errors.New("no export destination (set export.path, --out or storage.s3)")
	}

	log := e.log.WithComponent("exporter").WithFields(logger.Fields{
		"run_id":          runID,
		"interval_length": m.IntervalLength(),
	})

	start := time.Now()
	data, rows, err := EncodeParquet(m, runID, ParquetOptions{
		Compression:  e.cfg.Export.Compression,
		IncludeEmpty: e.cfg.Export.IncludeEmpty,
	})
	if err != nil {
		return ExportResult{}, err
	}
	res := ExportResult{RunID: runID, Rows: rows, Bytes: len(data)}

	if out != "" {
		path, err := writeLocal(out, runID, data)
		if err != nil {
			log.WithError(err).Error("failed to write export file")
			return res, err
		}
		res.Path = path
		logger.LogDataFlowEntry(log, "matrix", path, rows, "cells")

		df := metadata.DataFile{
			Path:        path,
			FileSize:    int64(len(data)),
			RecordCount: int64(rows),
			RunID:       runID,
			Partition:   map[string]any{"interval_length": m.IntervalLength()},
			WrittenAt:   e.now().UTC(),
		}
		if err := metadata.NewCatalog(filepath.Dir(path)).AddFile(df); err != nil {
			log.WithError(err).Warn("failed to update export manifest")
		}
	}

	if e.s3 != nil {
		key, err := e.s3.Upload(ctx, runID, m.IntervalLength(), data, e.now())
		if err != nil {
			return res, err
		}
		res.S3Bucket = e.s3.bucket
		res.S3Key = key
		logger.LogDataFlowEntry(log, "matrix", "s3://"+e.s3.bucket+"/"+key, rows, "cells")
	}

	logger.IncrementExports()
	logger.LogPerformanceEntry(log, "exporter", "export", time.Since(start), logger.Fields{
		"rows":  rows,
		"bytes": len(data),
	})
	log.LogMetric("exporter", "cells_exported", float64(rows), nil)
	return res, nil
}

// writeLocal writes data to out. An existing directory, a path ending in a
// separator or a path without a .parquet extension names a directory that
// receives FileName(runID).
func writeLocal(out, runID string, data []byte) (string, error) {
	if isExportDir(out) {
		out = filepath.Join(out, FileName(runID))
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return out, nil
}

func isExportDir(out string) bool {
	if info, err := os.Stat(out); err == nil {
		return info.IsDir()
	}
	if strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator)) {
		return true
	}
	return !strings.EqualFold(filepath.Ext(out), ".parquet")
}
