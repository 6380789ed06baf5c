package reader

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/time/rate"

	"ordersummary/logger"
	"ordersummary/models"
)

// ObjectAPI is the subset of the S3 client used to load order logs.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Reader loads every object under a bucket prefix. Requests are paced by
// a token bucket so large prefixes do not trip S3 request limits.
type S3Reader struct {
	client  ObjectAPI
	bucket  string
	prefix  string
	opts    Options
	limiter *rate.Limiter
	log     *logger.Log
}

// NewS3Reader creates a reader for s3://bucket/prefix. rps <= 0 disables
// pacing.
func NewS3Reader(client ObjectAPI, bucket, prefix string, opts Options, rps float64, burst int) *S3Reader {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &S3Reader{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		opts:    opts,
		limiter: rate.NewLimiter(limit, burst),
		log:     logger.GetLogger(),
	}
}

func (r *S3Reader) Name() string {
	return "s3://" + r.bucket + "/" + r.prefix
}

func (r *S3Reader) ReadOrders(ctx context.Context) ([]models.Order, error) {
	log := r.log.WithComponent("s3_reader").WithFields(logger.Fields{
		"bucket": r.bucket,
		"prefix": r.prefix,
	})

	keys, err := r.listKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no order objects under %s", r.Name())
	}
	log.WithFields(logger.Fields{"objects": len(keys)}).Info("loading order objects")

	var orders []models.Order
	for _, key := range keys {
		data, err := r.fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		name := "s3://" + r.bucket + "/" + key
		decoded, err := Decode(data, name, r.opts)
		if err != nil {
			return nil, err
		}
		logger.LogDataFlowEntry(log, name, "order_batch", len(decoded), "orders")
		orders = append(orders, decoded...)
	}
	return orders, nil
}

func (r *S3Reader) listKeys(ctx context.Context) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})
	for p.HasMorePages() {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", r.Name(), err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *S3Reader) fetch(ctx context.Context, key string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", r.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", r.bucket, key, err)
	}
	logger.IncrementObjectFetches()
	return data, nil
}
