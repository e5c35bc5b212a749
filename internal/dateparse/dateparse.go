// Package dateparse parses the remote workspace's date/datetime wire
// formats and computes horizon boundaries for the planner.
package dateparse

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for due.date.
const DateLayout = "2006-01-02"

// DatetimeLayouts are the accepted wire formats for due.datetime and
// event_date, tried in order.
var DatetimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.000Z",
}

// ParseDate parses a bare YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// ParseDatetime tries each accepted layout in turn and returns the first
// successful parse.
func ParseDatetime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range DatetimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parse datetime %q: %w", s, lastErr)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns today's date — the "day" horizon's end is the day itself.
func EndOfDay(today time.Time) time.Time {
	return StartOfDay(today)
}

// EndOfWeek returns the Sunday on or after today.
func EndOfWeek(today time.Time) time.Time {
	d := StartOfDay(today)
	// time.Sunday == 0; days-until-Sunday counts forward from today.
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset)
}

// EndOfMonth returns the last day of today's month.
func EndOfMonth(today time.Time) time.Time {
	d := StartOfDay(today)
	firstOfNextMonth := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
	return firstOfNextMonth.AddDate(0, 0, -1)
}

// EndOfQuarter returns the last day of the last month of today's quarter.
func EndOfQuarter(today time.Time) time.Time {
	d := StartOfDay(today)
	quarterEndMonth := ((int(d.Month())-1)/3+1)*3 - 2 // first month of quarter
	lastMonthOfQuarter := time.Month(quarterEndMonth + 2)
	firstOfNext := time.Date(d.Year(), lastMonthOfQuarter, 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// EndOfYear returns December 31st of today's year.
func EndOfYear(today time.Time) time.Time {
	d := StartOfDay(today)
	return time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, d.Location())
}

// HorizonEnd computes the end date for a named horizon given today's date.
func HorizonEnd(horizon string, today time.Time) (time.Time, error) {
	switch horizon {
	case "day":
		return EndOfDay(today), nil
	case "week":
		return EndOfWeek(today), nil
	case "month":
		return EndOfMonth(today), nil
	case "quarter":
		return EndOfQuarter(today), nil
	case "year":
		return EndOfYear(today), nil
	default:
		return time.Time{}, fmt.Errorf("unknown horizon %q", horizon)
	}
}
