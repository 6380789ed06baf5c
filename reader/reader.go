package reader

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	appconfig "ordersummary/config"
	"ordersummary/internal/s3client"
	"ordersummary/logger"
	"ordersummary/models"
)

// OrderReader loads the complete order log for one run.
type OrderReader interface {
	ReadOrders(ctx context.Context) ([]models.Order, error)
	Name() string
}

const (
	FormatAuto    = "auto"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Options control how raw order files are decoded.
type Options struct {
	Format     string
	SkipHeader bool
	Delimiter  rune
	DateColumn int
	TimeColumn int
}

// OptionsFromConfig converts the source section of the configuration.
func OptionsFromConfig(cfg appconfig.SourceConfig) Options {
	opts := Options{
		Format:     cfg.Format,
		SkipHeader: cfg.SkipHeader,
		Delimiter:  ',',
		DateColumn: cfg.DateColumn,
		TimeColumn: cfg.TimeColumn,
	}
	if cfg.Delimiter != "" {
		opts.Delimiter = []rune(cfg.Delimiter)[0]
	}
	if opts.Format == "" {
		opts.Format = FormatAuto
	}
	return opts
}

// formatFor resolves "auto" from the file extension. Anything that is not
// .parquet is read as CSV.
func formatFor(name, configured string) string {
	if configured != "" && configured != FormatAuto {
		return configured
	}
	if strings.EqualFold(filepath.Ext(name), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// Decode parses one file worth of orders in the format chosen for name.
func Decode(data []byte, name string, opts Options) ([]models.Order, error) {
	switch formatFor(name, opts.Format) {
	case FormatParquet:
		return DecodeParquet(data, name)
	case FormatCSV:
		return DecodeCSV(bytes.NewReader(data), name, opts)
	default:
		return nil, fmt.Errorf("unsupported order format %q", opts.Format)
	}
}

// New picks the reader for cfg.Source.Path: an S3 prefix or a local file or
// directory.
func New(ctx context.Context, cfg *appconfig.Config) (OrderReader, error) {
	path := strings.TrimSpace(cfg.Source.Path)
	if path == "" {
		return nil, fmt.Errorf("no order source configured (set source.path, ORDERS_PATH or --orders)")
	}
	opts := OptionsFromConfig(cfg.Source)

	if s3client.IsURI(path) {
		bucket, prefix, err := s3client.ParseURI(path)
		if err != nil {
			return nil, err
		}
		client, err := s3client.New(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		return NewS3Reader(client, bucket, prefix, opts, cfg.Source.RequestsPerSecond, cfg.Source.Burst), nil
	}

	return NewFileReader(path, opts), nil
}

// Load reads every order from r and wraps them in a batch.
func Load(ctx context.Context, r OrderReader, runID string) (models.OrderBatch, error) {
	log := logger.GetLogger().WithComponent("reader").WithFields(logger.Fields{
		"source": r.Name(),
		"run_id": runID,
	})
	orders, err := r.ReadOrders(ctx)
	if err != nil {
		log.WithError(err).Error("failed to load orders")
		return models.OrderBatch{}, err
	}
	logger.AddOrdersRead(len(orders))
	logger.LogDataFlowEntry(log, r.Name(), "matrix_builder", len(orders), "orders")
	return models.NewOrderBatch(runID, []string{r.Name()}, orders), nil
}
