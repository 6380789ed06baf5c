package logger

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	warnsTotal     int64
	errorsTotal    int64
	ordersRead     int64
	ordersCounted  int64
	ordersSkipped  int64
	queriesServed  int64
	exportsWritten int64
	objectsFetched int64
)

func recordWarn()  { atomic.AddInt64(&warnsTotal, 1) }
func recordError() { atomic.AddInt64(&errorsTotal, 1) }

// AddOrdersRead counts records loaded from a source.
func AddOrdersRead(n int) { atomic.AddInt64(&ordersRead, int64(n)) }

// AddOrdersCounted counts records placed in the matrix.
func AddOrdersCounted(n int) { atomic.AddInt64(&ordersCounted, int64(n)) }

// AddOrdersSkipped counts records dropped by the out-of-hours policy.
func AddOrdersSkipped(n int) { atomic.AddInt64(&ordersSkipped, int64(n)) }

func IncrementQueries()       { atomic.AddInt64(&queriesServed, 1) }
func IncrementExports()       { atomic.AddInt64(&exportsWritten, 1) }
func IncrementObjectFetches() { atomic.AddInt64(&objectsFetched, 1) }

// RunReport is a snapshot of the per-run counters.
type RunReport struct {
	RunID          string
	Duration       time.Duration
	OrdersRead     int64
	OrdersCounted  int64
	OrdersSkipped  int64
	QueriesServed  int64
	ExportsWritten int64
	ObjectsFetched int64
	Warnings       int64
	Errors         int64
}

// SnapshotReport reads the current counter values.
func SnapshotReport(runID string, started time.Time) RunReport {
	return RunReport{
		RunID:          runID,
		Duration:       time.Since(started),
		OrdersRead:     atomic.LoadInt64(&ordersRead),
		OrdersCounted:  atomic.LoadInt64(&ordersCounted),
		OrdersSkipped:  atomic.LoadInt64(&ordersSkipped),
		QueriesServed:  atomic.LoadInt64(&queriesServed),
		ExportsWritten: atomic.LoadInt64(&exportsWritten),
		ObjectsFetched: atomic.LoadInt64(&objectsFetched),
		Warnings:       atomic.LoadInt64(&warnsTotal),
		Errors:         atomic.LoadInt64(&errorsTotal),
	}
}

// ResetReport zeroes every counter.
func ResetReport() {
	for _, p := range []*int64{&warnsTotal, &errorsTotal, &ordersRead, &ordersCounted, &ordersSkipped, &queriesServed, &exportsWritten, &objectsFetched} {
		atomic.StoreInt64(p, 0)
	}
}

// LogRunReport logs the run counters and publishes them to CloudWatch.
func LogRunReport(ctx context.Context, log *Log, report RunReport) {
	log.WithComponent("report").WithFields(Fields{
		"run_id":          report.RunID,
		"duration_ms":     float64(report.Duration.Nanoseconds()) / 1e6,
		"orders_read":     report.OrdersRead,
		"orders_counted":  report.OrdersCounted,
		"orders_skipped":  report.OrdersSkipped,
		"queries_served":  report.QueriesServed,
		"exports_written": report.ExportsWritten,
		"objects_fetched": report.ObjectsFetched,
		"warnings":        report.Warnings,
		"errors":          report.Errors,
	}).Info("run report")

	count := func(name string, v int64) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(v)),
		}
	}

	publishMetrics(ctx, []cwtypes.MetricDatum{
		count("OrdersRead", report.OrdersRead),
		count("OrdersCounted", report.OrdersCounted),
		count("OrdersSkipped", report.OrdersSkipped),
		count("QueriesServed", report.QueriesServed),
		count("ExportsWritten", report.ExportsWritten),
		count("ObjectsFetched", report.ObjectsFetched),
		count("Warnings", report.Warnings),
		count("Errors", report.Errors),
		{
			MetricName: aws.String("RunDuration"),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Value:      aws.Float64(float64(report.Duration.Milliseconds())),
		},
	})
}
