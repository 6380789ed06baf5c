// Package metadata keeps a JSON manifest of the matrix files exported to a
// directory so downstream jobs can find every run without listing files.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is the manifest name inside an export directory.
const ManifestFile = "_manifest.json"

// DataFile describes one exported Parquet file.
type DataFile struct {
	Path        string         `json:"path"`
	FileSize    int64          `json:"file_size_in_bytes"`
	RecordCount int64          `json:"record_count"`
	RunID       string         `json:"run_id"`
	Partition   map[string]any `json:"partition,omitempty"`
	WrittenAt   time.Time      `json:"written_at"`
}

// Manifest lists the files of an export directory in the order written.
type Manifest struct {
	FormatVersion int        `json:"format-version"`
	Location      string     `json:"location"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Files         []DataFile `json:"files"`
}

// Catalog reads and updates the manifest of one directory.
type Catalog struct {
	dir string
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

func (c *Catalog) Path() string {
	return filepath.Join(c.dir, ManifestFile)
}

// Load returns the current manifest; a missing manifest is empty.
func (c *Catalog) Load() (Manifest, error) {
	m := Manifest{FormatVersion: 1, Location: c.dir}
	b, err := os.ReadFile(c.Path())
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse %s: %w", c.Path(), err)
	}
	return m, nil
}

// AddFile appends df. An entry with the same path is replaced.
func (c *Catalog) AddFile(df DataFile) error {
	m, err := c.Load()
	if err != nil {
		return err
	}
	files := m.Files[:0]
	for _, f := range m.Files {
		if f.Path != df.Path {
			files = append(files, f)
		}
	}
	m.Files = append(files, df)
	m.UpdatedAt = df.WrittenAt
	return c.write(m)
}

// write replaces the manifest through a temporary file so readers never see
// a partial document.
func (c *Catalog) write(m Manifest) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ManifestFile+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.Path())
}
