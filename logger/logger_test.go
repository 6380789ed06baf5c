package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	v, ok := entry.Entry.Data["component"]
	require.True(t, ok)
	assert.Equal(t, "test", v)
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	assert.Error(t, log.Configure("invalid", "json", "stderr", 0))
	assert.Error(t, log.Configure("info", "xml", "stderr", 0))
}

func TestConfigureFileOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "run.log")

	log := Logger()
	require.NoError(t, log.Configure("debug", "json", path, 0))
	log.WithComponent("test").Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "test", line["component"])
}

func TestWithEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	log := Logger()
	entry := log.WithComponent("test").WithEnv("FOO")
	assert.Equal(t, "bar", entry.Entry.Data["FOO"])
}

type fakeCloudWatch struct {
	inputs     []*cloudwatch.PutMetricDataInput
	dashboards []*cloudwatch.PutDashboardInput
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (f *fakeCloudWatch) PutDashboard(_ context.Context, in *cloudwatch.PutDashboardInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutDashboardOutput, error) {
	f.dashboards = append(f.dashboards, in)
	return &cloudwatch.PutDashboardOutput{}, nil
}

func TestRunReportPublishesCounters(t *testing.T) {
	fake := &fakeCloudWatch{}
	SetCloudWatchClient(fake, "OrderSummaryTest", "orders")
	t.Cleanup(func() { SetCloudWatchClient(nil, "", "") })
	ResetReport()

	AddOrdersRead(10)
	AddOrdersCounted(8)
	AddOrdersSkipped(2)
	IncrementQueries()
	IncrementExports()

	report := SnapshotReport("run-1", time.Now())
	assert.EqualValues(t, 10, report.OrdersRead)
	assert.EqualValues(t, 8, report.OrdersCounted)
	assert.EqualValues(t, 2, report.OrdersSkipped)
	assert.EqualValues(t, 1, report.QueriesServed)

	log := Logger()
	log.SetOutput(&bytes.Buffer{})
	LogRunReport(context.Background(), log, report)

	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "OrderSummaryTest", *fake.inputs[0].Namespace)
	names := map[string]float64{}
	for _, d := range fake.inputs[0].MetricData {
		names[*d.MetricName] = *d.Value
	}
	assert.Equal(t, float64(10), names["OrdersRead"])
	assert.Equal(t, float64(2), names["OrdersSkipped"])

	CreateDefaultDashboard(context.Background())
	require.Len(t, fake.dashboards, 1)
	assert.Equal(t, "orders", *fake.dashboards[0].DashboardName)
}

func TestPublishWithoutClientIsNoop(t *testing.T) {
	SetCloudWatchClient(nil, "", "")
	log := Logger()
	log.SetOutput(&bytes.Buffer{})
	log.WithComponent("writer").LogMetric("writer", "cells_exported", 3, nil)
}

func TestLogMetricPublishesStringDimensions(t *testing.T) {
	fake := &fakeCloudWatch{}
	SetCloudWatchClient(fake, "OrderSummaryTest", "orders")
	t.Cleanup(func() { SetCloudWatchClient(nil, "", "") })

	var buf bytes.Buffer
	log := Logger()
	log.SetOutput(&buf)
	log.WithComponent("writer").LogMetric("exporter", "cells_exported", 7, Fields{"target": "local", "rows": 7})

	require.Len(t, fake.inputs, 1)
	datum := fake.inputs[0].MetricData[0]
	assert.Equal(t, "cells_exported", *datum.MetricName)
	assert.Equal(t, float64(7), *datum.Value)
	dims := map[string]string{}
	for _, d := range datum.Dimensions {
		dims[*d.Name] = *d.Value
	}
	assert.Equal(t, map[string]string{"component": "exporter", "target": "local"}, dims)
	assert.Contains(t, buf.String(), `"metric":"cells_exported"`)
}

func TestConfigureTextFormatKeepsSettingsOnError(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	log := Logger()
	require.NoError(t, log.Configure("warn", "text", "stdout", 0))
	assert.Equal(t, "warning", log.GetLevel().String())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	missing := filepath.Join(t.TempDir(), "missing", "run.log")
	assert.Error(t, log.Configure("debug", "json", missing, 0))
	assert.Equal(t, "warning", log.GetLevel().String())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
