package utils

import (
	"time"

	"ms-backoffice/internal/apperr"
)

const DateLayout = "2006-01-02"

// Calendar dates (enquiry, admission, birth and bill dates) are stored as midnight UTC so that
// equality and range filters behave the same on Postgres and SQLite.

// ParseDate parses a YYYY-MM-DD value into a calendar date.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, apperr.Invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// CivilDate returns the calendar date of t as seen in loc.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayBounds returns [start of day, start of next day) for t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// MonthBounds returns [first of month, first of next month) for t in loc.
func MonthBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// YearBounds returns [1 Jan, 1 Jan next year) for t in loc.
func YearBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}
