package processor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ordersummary/models"
)

// Operating hours of the shop, in minutes after midnight.
const (
	OpenTime        = 6 * 60
	CloseTime       = 22 * 60
	OperatingWindow = CloseTime - OpenTime
)

// ToMinutes converts "HH:MM:SS" to minutes after midnight. Seconds are
// truncated, so "09:05:59" and "09:05:00" both give 545.
func ToMinutes(clock string) (int, error) {
	parts, err := splitInts(clock, ":", "time")
	if err != nil {
		return 0, err
	}
	h, m, s := parts[0], parts[1], parts[2]
	return h*60 + m + s/60, nil
}

// ParseDate parses "YYYY-MM-DD". Components need not be zero padded but must
// name a real calendar day.
func ParseDate(date string) (time.Time, error) {
	parts, err := splitInts(date, "-", "date")
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := parts[0], parts[1], parts[2]
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, &FormatError{Field: "date", Value: date, Err: fmt.Errorf("no such calendar day")}
	}
	return t, nil
}

// DayOf returns the matrix row for a "YYYY-MM-DD" date.
func DayOf(date string) (models.Weekday, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return models.WeekdayOf(t), nil
}

// Label renders the inclusive "H:MM-H:MM" span of an interval. The index is
// not checked against CloseTime.
func Label(index, openingTime, intervalLength int) string {
	start := openingTime + intervalLength*index
	end := start + intervalLength - 1
	return fmt.Sprintf("%d:%02d-%d:%02d", start/60, start%60, end/60, end%60)
}

func splitInts(s, sep, field string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(strings.TrimSpace(s), sep)
	if len(parts) != 3 {
		return out, &FormatError{Field: field, Value: s, Err: fmt.Errorf("expected 3 %q separated components, got %d", sep, len(parts))}
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, &FormatError{Field: field, Value: s, Err: err}
		}
		if n < 0 {
			return out, &FormatError{Field: field, Value: s, Err: fmt.Errorf("negative component %d", n)}
		}
		out[i] = n
	}
	return out, nil
}
