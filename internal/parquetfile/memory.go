// Package parquetfile provides an in-memory source.ParquetFile so Parquet
// data can be built and read without touching the local filesystem.
package parquetfile

import (
	"bytes"
	"errors"

	"github.com/xitongsys/parquet-go/source"
)

// Memory implements source.ParquetFile. A Memory created by NewWriter
// accumulates written bytes; one created by NewReader serves reads and seeks
// over a fixed byte slice.
type Memory struct {
	buffer *bytes.Buffer
	reader *bytes.Reader
	data   []byte
}

var _ source.ParquetFile = (*Memory)(nil)

func NewWriter() *Memory {
	return &Memory{buffer: &bytes.Buffer{}}
}

func NewReader(data []byte) *Memory {
	return &Memory{reader: bytes.NewReader(data), data: data}
}

func (m *Memory) Create(name string) (source.ParquetFile, error) {
	return m, nil
}

// Open returns an independent read handle; the Parquet reader opens one per
// column.
func (m *Memory) Open(name string) (source.ParquetFile, error) {
	if m.reader != nil {
		return NewReader(m.data), nil
	}
	return NewReader(m.buffer.Bytes()), nil
}

func (m *Memory) Seek(offset int64, whence int) (int64, error) {
	if m.reader != nil {
		return m.reader.Seek(offset, whence)
	}
	// The writer only ever appends.
	return int64(m.buffer.Len()), nil
}

func (m *Memory) Read(b []byte) (int, error) {
	if m.reader != nil {
		return m.reader.Read(b)
	}
	return m.buffer.Read(b)
}

func (m *Memory) Write(b []byte) (int, error) {
	if m.buffer == nil {
		return 0, errors.New("parquetfile: write to read-only file")
	}
	return m.buffer.Write(b)
}

func (m *Memory) Close() error {
	return nil
}

// Bytes returns the written data.
func (m *Memory) Bytes() []byte {
	if m.reader != nil {
		return m.data
	}
	return m.buffer.Bytes()
}
