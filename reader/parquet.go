package reader

import (
	"fmt"
	"strings"

	preader "github.com/xitongsys/parquet-go/reader"

	"ordersummary/internal/parquetfile"
	"ordersummary/models"
	"ordersummary/processor"
)

// DecodeParquet reads orders stored with the models.ParquetOrder layout.
// Line numbers are 1-based row numbers.
func DecodeParquet(data []byte, name string) ([]models.Order, error) {
	pr, err := preader.NewParquetReader(parquetfile.NewReader(data), new(models.ParquetOrder), 4)
	if err != nil {
		return nil, &processor.FormatError{Field: "parquet file", Value: name, Err: err}
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	rows := make([]models.ParquetOrder, num)
	if num > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, &processor.FormatError{Field: "parquet file", Value: name, Err: fmt.Errorf("read rows: %w", err)}
		}
	}

	orders := make([]models.Order, 0, len(rows))
	for i, row := range rows {
		o := models.Order{
			Date:   strings.TrimSpace(row.Date),
			Time:   strings.TrimSpace(row.Time),
			Source: name,
			Line:   i + 1,
		}
		if row.Item != "" {
			o.Extra = []string{row.Item}
		}
		orders = append(orders, o)
	}
	return orders, nil
}
