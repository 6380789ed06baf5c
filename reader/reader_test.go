package reader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pwriter "github.com/xitongsys/parquet-go/writer"

	appconfig "ordersummary/config"
	"ordersummary/internal/parquetfile"
	"ordersummary/models"
	"ordersummary/processor"
)

const sampleCSV = `date,time,item
2024-01-01,09:15:00,latte
2024-01-01, 09:45:00,mocha

2024-01-02,10:00:00,espresso
`

func defaultOptions() Options {
	return OptionsFromConfig(appconfig.Default().Source)
}

func TestDecodeCSV(t *testing.T) {
	orders, err := DecodeCSV(strings.NewReader(sampleCSV), "orders.csv", defaultOptions())
	require.NoError(t, err)
	require.Len(t, orders, 3)

	assert.Equal(t, "2024-01-01", orders[0].Date)
	assert.Equal(t, "09:15:00", orders[0].Time)
	assert.Equal(t, []string{"latte"}, orders[0].Extra)
	assert.Equal(t, 2, orders[0].Line)
	assert.Equal(t, "09:45:00", orders[1].Time)
	assert.Equal(t, 5, orders[2].Line)
	assert.Equal(t, "orders.csv", orders[2].Source)
}

func TestDecodeCSVWithoutHeaderAndCustomColumns(t *testing.T) {
	opts := defaultOptions()
	opts.SkipHeader = false
	opts.Delimiter = ';'
	opts.DateColumn = 1
	opts.TimeColumn = 2
	orders, err := DecodeCSV(strings.NewReader("42;2024-01-03;08:00:00;cash\n"), "orders.csv", opts)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "2024-01-03", orders[0].Date)
	assert.Equal(t, []string{"42", "cash"}, orders[0].Extra)
}

func TestDecodeCSVShortRow(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("date,time\n2024-01-01\n"), "orders.csv", defaultOptions())
	var fe *processor.FormatError
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Contains(t, err.Error(), "orders.csv:2")
}

func parquetBytes(t *testing.T, rows []models.ParquetOrder) []byte {
	t.Helper()
	fw := parquetfile.NewWriter()
	pw, err := pwriter.NewParquetWriter(fw, new(models.ParquetOrder), 1)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, pw.Write(r))
	}
	require.NoError(t, pw.WriteStop())
	return fw.Bytes()
}

func TestDecodeParquet(t *testing.T) {
	data := parquetBytes(t, []models.ParquetOrder{
		{Date: "2024-01-01", Time: "09:15:00", Item: "latte"},
		{Date: "2024-01-02", Time: "10:00:00"},
	})
	orders, err := Decode(data, "orders.parquet", defaultOptions())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "09:15:00", orders[0].Time)
	assert.Equal(t, []string{"latte"}, orders[0].Extra)
	assert.Nil(t, orders[1].Extra)
	assert.Equal(t, 2, orders[1].Line)
}

func TestDecodeParquetGarbage(t *testing.T) {
	_, err := DecodeParquet([]byte("not parquet at all"), "bad.parquet")
	var fe *processor.FormatError
	assert.True(t, errors.As(err, &fe), "got %v", err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatParquet, formatFor("week.PARQUET", FormatAuto))
	assert.Equal(t, FormatCSV, formatFor("week.txt", FormatAuto))
	assert.Equal(t, FormatParquet, formatFor("week.csv", FormatParquet))
}

func TestFileReaderDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("date,time\n2024-01-02,10:00:00\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("date,time\n2024-01-01,09:00:00\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("junk"), 0o644))

	orders, err := NewFileReader(dir, defaultOptions()).ReadOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "2024-01-01", orders[0].Date)
	assert.Equal(t, "2024-01-02", orders[1].Date)
}

func TestFileReaderMissing(t *testing.T) {
	_, err := NewFileReader(filepath.Join(t.TempDir(), "missing.csv"), defaultOptions()).ReadOrders(context.Background())
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string][]byte
	gets    []string
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3ReaderLoadsPrefix(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"week-01/monday.csv":      []byte("date,time\n2024-01-01,09:15:00\n2024-01-01,09:45:00\n"),
		"week-01/tuesday.parquet": parquetBytes(t, []models.ParquetOrder{{Date: "2024-01-02", Time: "10:00:00"}}),
		"week-01/":                nil,
		"week-02/monday.csv":      []byte("date,time\n2024-01-08,09:00:00\n"),
	}}

	r := NewS3Reader(fake, "orders", "week-01/", defaultOptions(), 0, 0)
	orders, err := r.ReadOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"week-01/monday.csv", "week-01/tuesday.parquet"}, fake.gets)
	assert.Equal(t, "s3://orders/week-01/tuesday.parquet", orders[2].Source)

	m, _, err := processor.Compose(orders, 60, processor.ComposeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count(models.Monday, 3))
	assert.Equal(t, 1, m.Count(models.Tuesday, 4))
}

func TestS3ReaderEmptyPrefix(t *testing.T) {
	r := NewS3Reader(&fakeS3{objects: map[string][]byte{}}, "orders", "none/", defaultOptions(), 5, 1)
	_, err := r.ReadOrders(context.Background())
	assert.Error(t, err)
}

func TestS3ReaderHonoursCancellation(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"a.csv": []byte("date,time\n")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewS3Reader(fake, "orders", "", defaultOptions(), 1, 1).ReadOrders(ctx)
	assert.Error(t, err)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(context.Background(), appconfig.Default())
	assert.Error(t, err)

	cfg := appconfig.Default()
	cfg.Source.Path = "orders.csv"
	r, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", r.Name())
}

func TestLoadWrapsBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	batch, err := Load(context.Background(), NewFileReader(path, defaultOptions()), "run-7")
	require.NoError(t, err)
	assert.Equal(t, 3, batch.RecordCount)
	assert.Equal(t, "run-7", batch.RunID)
	assert.Equal(t, []string{path}, batch.Sources)
}
