package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ordersummary/models"
	"ordersummary/processor"
)

// DecodeCSV reads order rows from r. The first row is a header and is
// dropped when opts.SkipHeader is set. Rows may carry any number of extra
// columns; blank lines are ignored.
func DecodeCSV(r io.Reader, name string, opts Options) ([]models.Order, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	need := opts.DateColumn
	if opts.TimeColumn > need {
		need = opts.TimeColumn
	}

	var orders []models.Order
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &processor.FormatError{Field: "csv record", Value: name, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if opts.SkipHeader {
				continue
			}
		}
		if len(record) <= need {
			return nil, &processor.FormatError{
				Field: "csv record",
				Value: fmt.Sprintf("%s:%d", name, line),
				Err:   fmt.Errorf("expected at least %d columns, got %d", need+1, len(record)),
			}
		}

		o := models.Order{
			Date:   strings.TrimSpace(record[opts.DateColumn]),
			Time:   strings.TrimSpace(record[opts.TimeColumn]),
			Source: name,
			Line:   line,
		}
		for i, v := range record {
			if i == opts.DateColumn || i == opts.TimeColumn {
				continue
			}
			o.Extra = append(o.Extra, v)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
