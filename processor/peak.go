package processor

import (
	"fmt"

	"ordersummary/models"
)

// NoOrdersMessage is printed for a day without any orders.
const NoOrdersMessage = "There are no orders on this day."

// PeakResult is the busiest interval of one day.
type PeakResult struct {
	Day      models.Weekday
	Interval int
	Label    string
	Count    int
	// Empty is set when the day has no orders at all; Interval and Label
	// are then meaningless.
	Empty bool
}

func (r PeakResult) String() string {
	if r.Empty {
		return NoOrdersMessage
	}
	return fmt.Sprintf("%s, %d orders", r.Label, r.Count)
}

// Peak validates a day name and returns that day's peak interval.
func Peak(m *Matrix, dayName string) (PeakResult, error) {
	day, ok := models.ParseWeekday(dayName)
	if !ok {
		return PeakResult{}, &InputValidationError{Field: "day", Value: dayName, Reason: "not a day of the week"}
	}
	return PeakOf(m, day), nil
}

// PeakOf returns the interval with the highest count for day. Ties go to the
// earliest interval.
func PeakOf(m *Matrix, day models.Weekday) PeakResult {
	res := PeakResult{Day: day, Empty: true}
	for i, c := range m.cells[day] {
		if c > res.Count {
			res.Count = c
			res.Interval = i
			res.Empty = false
		}
	}
	if !res.Empty {
		res.Label = m.Label(res.Interval)
	}
	return res
}

// WeeklyPeaks returns PeakOf for every day in matrix order.
func WeeklyPeaks(m *Matrix) []PeakResult {
	out := make([]PeakResult, 0, models.DaysPerWeek)
	for _, d := range models.Weekdays() {
		out = append(out, PeakOf(m, d))
	}
	return out
}
