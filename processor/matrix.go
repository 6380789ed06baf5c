package processor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ordersummary/logger"
	"ordersummary/models"
)

// DefaultIntervalLength is used when no interval length is configured.
const DefaultIntervalLength = 60

// OutOfHoursPolicy decides what Compose does with an order placed outside
// [OpenTime, CloseTime).
type OutOfHoursPolicy string

const (
	// OutOfHoursReject aborts matrix construction with a DomainError.
	OutOfHoursReject OutOfHoursPolicy = "reject"
	// OutOfHoursSkip logs the order, counts it as skipped and carries on.
	OutOfHoursSkip OutOfHoursPolicy = "skip"
)

// ParseOutOfHoursPolicy accepts "reject", "skip" or "" (reject).
func ParseOutOfHoursPolicy(s string) (OutOfHoursPolicy, error) {
	switch OutOfHoursPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutOfHoursReject:
		return OutOfHoursReject, nil
	case OutOfHoursSkip:
		return OutOfHoursSkip, nil
	default:
		return "", fmt.Errorf("unknown out-of-hours policy %q (want reject or skip)", s)
	}
}

// Matrix counts orders per weekday and time interval. Rows are the seven
// weekdays in models.Weekdays order; the column count is fixed when the
// matrix is built. A Matrix is never modified after Compose returns it.
type Matrix struct {
	intervalLength int
	intervals      int
	cells          [models.DaysPerWeek][]int
}

func newMatrix(intervalLength int) (*Matrix, error) {
	if err := ValidateIntervalLength(intervalLength); err != nil {
		return nil, err
	}
	m := &Matrix{
		intervalLength: intervalLength,
		intervals:      OperatingWindow / intervalLength,
	}
	for d := range m.cells {
		m.cells[d] = make([]int, m.intervals)
	}
	return m, nil
}

// IntervalLength returns the column width in minutes.
func (m *Matrix) IntervalLength() int { return m.intervalLength }

// Intervals returns the column count.
func (m *Matrix) Intervals() int { return m.intervals }

// Count returns a single cell. It panics on an out-of-range interval, like
// slice indexing.
func (m *Matrix) Count(day models.Weekday, interval int) int {
	return m.cells[day][interval]
}

// Row returns a copy of the counts for one day.
func (m *Matrix) Row(day models.Weekday) []int {
	out := make([]int, m.intervals)
	copy(out, m.cells[day])
	return out
}

// Total returns the sum of all cells.
func (m *Matrix) Total() int {
	total := 0
	for _, row := range m.cells {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// Label returns the "H:MM-H:MM" label for a column.
func (m *Matrix) Label(interval int) string {
	return Label(interval, OpenTime, m.intervalLength)
}

// Labels returns every column label in order.
func (m *Matrix) Labels() []string {
	out := make([]string, m.intervals)
	for i := range out {
		out[i] = m.Label(i)
	}
	return out
}

// ValidateIntervalLength accepts lengths between 1 and OperatingWindow that
// split the window into whole intervals.
func ValidateIntervalLength(intervalLength int) error {
	if intervalLength < 1 || intervalLength > OperatingWindow {
		return &DomainError{
			Reason: fmt.Sprintf("interval length must be between 1 and %d minutes", OperatingWindow),
			Value:  strconv.Itoa(intervalLength),
		}
	}
	if OperatingWindow%intervalLength != 0 {
		return &DomainError{
			Reason: fmt.Sprintf("interval length must divide the %d minute operating window", OperatingWindow),
			Value:  strconv.Itoa(intervalLength),
		}
	}
	return nil
}

// ParseIntervalLength parses a user supplied interval length. Non-numeric or
// non-positive input is an InputValidationError; a number that does not fit
// the operating window is a DomainError.
func ParseIntervalLength(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &InputValidationError{Field: "interval length", Value: s, Reason: "not a whole number of minutes"}
	}
	if n <= 0 {
		return 0, &InputValidationError{Field: "interval length", Value: s, Reason: "must be positive"}
	}
	if err := ValidateIntervalLength(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ComposeOptions tune Compose. The zero value rejects out-of-hours orders.
type ComposeOptions struct {
	OutOfHours OutOfHoursPolicy
	Log        *logger.Log
}

// BuildStats summarises one Compose call.
type BuildStats struct {
	Orders   int
	Counted  int
	Skipped  int
	Duration time.Duration
}

// Compose builds the weekly order matrix. It is a pure function of orders
// and intervalLength, apart from logging skipped records.
func Compose(orders []models.Order, intervalLength int, opts ComposeOptions) (*Matrix, BuildStats, error) {
	start := time.Now()
	stats := BuildStats{Orders: len(orders)}

	m, err := newMatrix(intervalLength)
	if err != nil {
		return nil, stats, err
	}

	log := opts.Log
	if log == nil {
		log = logger.GetLogger()
	}
	entry := log.WithComponent("matrix_builder").WithFields(logger.Fields{
		"interval_length": intervalLength,
		"orders":          len(orders),
	})

	for i := range orders {
		o := &orders[i]
		day, interval, err := m.locate(o)
		if err != nil {
			var domainErr *DomainError
			if opts.OutOfHours == OutOfHoursSkip && errors.As(err, &domainErr) {
				stats.Skipped++
				entry.WithFields(logger.Fields{
					"source": o.Source,
					"line":   o.Line,
					"date":   o.Date,
					"time":   o.Time,
				}).Warn("skipping order outside operating hours")
				continue
			}
			return nil, stats, fmt.Errorf("%s: %w", recordRef(o, i), err)
		}
		m.cells[day][interval]++
		stats.Counted++
	}

	stats.Duration = time.Since(start)
	logger.LogPerformanceEntry(entry, "matrix_builder", "compose", stats.Duration, logger.Fields{
		"counted": stats.Counted,
		"skipped": stats.Skipped,
	})
	return m, stats, nil
}

func (m *Matrix) locate(o *models.Order) (models.Weekday, int, error) {
	day, err := DayOf(o.Date)
	if err != nil {
		return 0, 0, err
	}
	minute, err := ToMinutes(o.Time)
	if err != nil {
		return 0, 0, err
	}
	if minute < OpenTime || minute >= CloseTime {
		return 0, 0, &DomainError{Reason: "order outside operating hours 6:00-21:59", Value: o.Date + " " + o.Time}
	}
	interval := (minute - OpenTime) / m.intervalLength
	if interval >= m.intervals {
		return 0, 0, &DomainError{Reason: "order beyond last interval", Value: o.Date + " " + o.Time}
	}
	return day, interval, nil
}

func recordRef(o *models.Order, index int) string {
	switch {
	case o.Source != "" && o.Line > 0:
		return fmt.Sprintf("%s:%d", o.Source, o.Line)
	case o.Line > 0:
		return fmt.Sprintf("line %d", o.Line)
	default:
		return fmt.Sprintf("order %d", index+1)
	}
}
