package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ordersummary/logger"
	"ordersummary/models"
)

// FileReader loads orders from a local file, or from every regular file in
// a directory in lexical order.
type FileReader struct {
	path string
	opts Options
	log  *logger.Log
}

func NewFileReader(path string, opts Options) *FileReader {
	return &FileReader{path: path, opts: opts, log: logger.GetLogger()}
}

func (r *FileReader) Name() string { return r.path }

func (r *FileReader) ReadOrders(ctx context.Context) ([]models.Order, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return nil, fmt.Errorf("open order source: %w", err)
	}

	files := []string{r.path}
	if info.IsDir() {
		files, err = r.listDir()
		if err != nil {
			return nil, err
		}
	}

	var orders []models.Order
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		decoded, err := Decode(data, f, r.opts)
		if err != nil {
			return nil, err
		}
		r.log.WithComponent("file_reader").WithFields(logger.Fields{
			"file":   f,
			"orders": len(decoded),
			"format": formatFor(f, r.opts.Format),
		}).Debug("order file decoded")
		orders = append(orders, decoded...)
	}
	return orders, nil
}

func (r *FileReader) listDir() ([]string, error) {
	entries, err := os.ReadDir(r.path)
	if err != nil {
		return nil, fmt.Errorf("list order directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(r.path, e.Name()))
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("order directory %s is empty", r.path)
	}
	return files, nil
}
