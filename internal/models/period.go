package models

import (
	"time"

	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

// Periods follow the institutional timetable: seven fixed slots per day.
const (
	MinPeriod = 1
	MaxPeriod = 7
)

// PeriodWindow is the wall-clock span of a teaching period, zero-padded "HH:MM".
// Zero-padded clock strings compare correctly with plain string ordering.
type PeriodWindow struct {
	Start string
	End   string
}

// PeriodTable maps period numbers to their fixed start/end times.
// It is never mutated at runtime.
var PeriodTable = map[int]PeriodWindow{
	1: {Start: "08:50", End: "10:20"},
	2: {Start: "10:30", End: "12:00"},
	3: {Start: "13:00", End: "14:30"},
	4: {Start: "14:40", End: "16:10"},
	5: {Start: "16:20", End: "17:50"},
	6: {Start: "18:00", End: "19:30"},
	7: {Start: "19:40", End: "21:10"},
}

// WindowForPeriod resolves a period number against the timetable.
func WindowForPeriod(period int) (PeriodWindow, error) {
	window, ok := PeriodTable[period]
	if !ok {
		return PeriodWindow{}, appErrors.Clone(appErrors.ErrInvalidPeriod, "period must be between 1 and 7")
	}
	return window, nil
}

// WeekdayIndex converts a timestamp's weekday to the timetable convention,
// 0=Monday through 6=Sunday.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ClockString formats a timestamp's time of day as zero-padded "HH:MM".
func ClockString(t time.Time) string {
	return t.Format("15:04")
}

// DayNames lists weekday labels in timetable order.
var DayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
