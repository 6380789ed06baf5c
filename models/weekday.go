package models

import (
	"strconv"
	"strings"
	"time"
)

// Weekday indexes the rows of the weekly order matrix. Monday is 0.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysPerWeek is the fixed row count of the order matrix.
const DaysPerWeek = 7

var weekdayNames = [DaysPerWeek]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// Weekdays returns the seven days in matrix order.
func Weekdays() []Weekday {
	days := make([]Weekday, DaysPerWeek)
	for i := range days {
		days[i] = Weekday(i)
	}
	return days
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// Valid reports whether d is one of the seven days.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// ParseWeekday resolves a day name case-insensitively, ignoring surrounding
// whitespace. "friday", "FRIDAY" and " Friday " all resolve to Friday.
func ParseWeekday(name string) (Weekday, bool) {
	name = strings.TrimSpace(name)
	for i, n := range weekdayNames {
		if strings.EqualFold(n, name) {
			return Weekday(i), true
		}
	}
	return 0, false
}

// WeekdayOf maps a calendar date onto the Monday-first matrix row.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % DaysPerWeek)
}
