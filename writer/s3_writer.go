package writer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "ordersummary/config"
	"ordersummary/logger"
)

// ObjectPutter is the part of the S3 client the exporter needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Writer uploads encoded matrix files under a time partitioned key.
type S3Writer struct {
	client       ObjectPutter
	bucket       string
	partitioning appconfig.PartitioningConfig
	compression  string
	version      string
	log          *logger.Log
}

func NewS3Writer(client ObjectPutter, cfg *appconfig.Config) *S3Writer {
	return &S3Writer{
		client:       client,
		bucket:       cfg.Storage.S3.Bucket,
		partitioning: cfg.Export.Partitioning,
		compression:  cfg.Export.Compression,
		version:      cfg.App.Version,
		log:          logger.GetLogger(),
	}
}

// GenerateKey builds <prefix>/<time path>/ordersummary_<run>.parquet.
// Supported placeholders are {year}, {month}, {day} and {hour}.
func GenerateKey(p appconfig.PartitioningConfig, runID string, at time.Time) string {
	at = at.UTC()
	var parts []string
	if p.Prefix != "" {
		parts = append(parts, p.Prefix)
	}
	if p.TimeFormat != "" {
		timePath := strings.ReplaceAll(p.TimeFormat, "{year}", fmt.Sprintf("%04d", at.Year()))
		timePath = strings.ReplaceAll(timePath, "{month}", fmt.Sprintf("%02d", at.Month()))
		timePath = strings.ReplaceAll(timePath, "{day}", fmt.Sprintf("%02d", at.Day()))
		timePath = strings.ReplaceAll(timePath, "{hour}", fmt.Sprintf("%02d", at.Hour()))
		parts = append(parts, timePath)
	}
	parts = append(parts, FileName(runID))
	return filepath.ToSlash(filepath.Join(parts...))
}

// FileName is the base name of an exported matrix file.
func FileName(runID string) string {
	return fmt.Sprintf("ordersummary_%s.parquet", runID)
}

// Upload stores data for runID and returns the object key.
func (w *S3Writer) Upload(ctx context.Context, runID string, intervalLength int, data []byte, at time.Time) (string, error) {
	key := GenerateKey(w.partitioning, runID, at)
	log := w.log.WithComponent("s3_writer").WithFields(logger.Fields{
		"operation": "upload_to_s3",
		"bucket":    w.bucket,
		"s3_key":    key,
		"data_size": len(data),
	})
	log.Debug("uploading to S3")

	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":         "parquet",
			"compression":          w.compression,
			"run-id":               runID,
			"interval-length":      fmt.Sprintf("%d", intervalLength),
			"ordersummary-version": w.version,
		},
	}

	if _, err := w.client.PutObject(ctx, input); err != nil {
		log.WithEnv("EXPORT_BUCKET").WithError(err).Error("failed to upload to S3")
		return "", fmt.Errorf("failed to upload to S3 bucket %s: %w", w.bucket, err)
	}

	log.Info("matrix uploaded to S3")
	return key, nil
}
