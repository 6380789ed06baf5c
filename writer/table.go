package writer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"ordersummary/models"
	"ordersummary/processor"
)

const (
	tableTitle     = "WEEKLY ORDER SUMMARY"
	tableCorner    = "DAY\\TIME"
	dayColumnWidth = 9
	labelCellWidth = 11
	countCellWidth = 12
	tableSeparator = "-"
	tableColumnDiv = "|"
)

// TableWriter renders the weekly matrix as a fixed-width text table.
type TableWriter struct {
	out io.Writer
}

func NewTableWriter(out io.Writer) *TableWriter {
	return &TableWriter{out: out}
}

// Write renders m. Labels end in a column divider while counts are padded
// one column wider, so each count lines up under the divider of its label.
func (w *TableWriter) Write(m *processor.Matrix) error {
	bw := bufio.NewWriter(w.out)

	header := Header(m)
	rule := strings.Repeat(tableSeparator, len(header))

	fmt.Fprintf(bw, "\n%s\n\n", tableTitle)
	fmt.Fprintln(bw, header)
	fmt.Fprintln(bw, rule)
	for _, day := range models.Weekdays() {
		fmt.Fprintln(bw, Row(day, m.Row(day)))
	}
	fmt.Fprintln(bw, rule)

	return bw.Flush()
}

// Header returns the label row of the table.
func Header(m *processor.Matrix) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-*s", dayColumnWidth, tableCorner))
	sb.WriteString(tableColumnDiv)
	for _, label := range m.Labels() {
		sb.WriteString(fmt.Sprintf("%*s", labelCellWidth, label))
		sb.WriteString(tableColumnDiv)
	}
	return sb.String()
}

// Row returns the table line for one day.
func Row(day models.Weekday, counts []int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-*s", dayColumnWidth, day.String()))
	for _, c := range counts {
		sb.WriteString(fmt.Sprintf("%*d", countCellWidth, c))
	}
	return sb.String()
}

// RenderTable writes m to out.
func RenderTable(out io.Writer, m *processor.Matrix) error {
	return NewTableWriter(out).Write(m)
}
