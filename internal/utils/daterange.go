package utils

import (
	"errors"
	"math"
	"strings"
	"time"
)

const day = 24 * time.Hour

// ErrInvalidRange is returned when a range ends before it starts.
var ErrInvalidRange = errors.New("end date must not be before start date")

// DateRange is a closed interval of calendar days. Start and End hold 00:00 UTC
// of their day; End is treated as 23:59:59 of its day for membership tests.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewDateRange normalizes both ends to their calendar day.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: StartOfDay(start), End: StartOfDay(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, ErrInvalidRange
	}
	return r, nil
}

// ParseDateRange parses both ends with ParseDate and builds a normalized range.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// StartOfDay returns 00:00 UTC of t's calendar day in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(day - time.Nanosecond)
}

// Overlaps reports whether a and b share at least one calendar day.
// Ranges that only touch on a boundary day overlap.
func Overlaps(a, b DateRange) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

// Overlaps is the method form of the package level Overlaps.
func (r DateRange) Overlaps(other DateRange) bool {
	return Overlaps(r, other)
}

// Contains reports whether t falls on one of the range's days.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(EndOfDay(r.End))
}

// Days is the number of booked calendar days, both ends included.
func (r DateRange) Days() int {
	n, _ := DaysInclusive(r.Start, r.End)
	return n
}

// DaysInclusive is ceil((end-start)/1 day) + 1.
func DaysInclusive(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return int(math.Ceil(end.Sub(start).Hours()/24)) + 1, nil
}

func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}
