package schedule

import (
	"fmt"
	"time"

	"github.com/contasync/billing/pkg/types"
)

// NextDueDate computes the due date following last for the given frequency
// and target day of month, normalized to midnight in loc.
//
// The month is advanced from the first of last's month so a 31st-of-January
// start cannot overflow into March; the target day is then clamped to the
// last valid day of the resulting month (31 in February becomes the 28th or
// 29th). Pure and deterministic: no I/O, no clock reads.
func NextDueDate(last time.Time, frequency types.Frequency, dayOfMonth int, loc *time.Location) (time.Time, error) {
	months, err := frequency.Months()
	if err != nil {
		return time.Time{}, err
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return time.Time{}, fmt.Errorf("day of month out of range: %d", dayOfMonth)
	}
	if loc == nil {
		loc = time.UTC
	}

	t := last.In(loc)
	anchor := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, months, 0)

	day := dayOfMonth
	if max := daysInMonth(anchor.Year(), anchor.Month()); day > max {
		day = max
	}
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, loc), nil
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
