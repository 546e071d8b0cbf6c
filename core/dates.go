package core

import (
	"fmt"
	"time"
)

// CalendarDateLayout is the date format used at the edge
const CalendarDateLayout = "2006-01-02"

// ParseCalendarDate converts a calendar date to the midnight UTC millisecond timestamp.
// Both directions use UTC so a date never shifts across a day boundary.
func ParseCalendarDate(date string) (Millis, error) {
	t, err := time.ParseInLocation(CalendarDateLayout, date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: due date %q: %v", ErrInvalidInput, date, err)
	}
	return MillisOf(t), nil
}

// FormatCalendarDate renders a millisecond timestamp as its UTC calendar date
func FormatCalendarDate(m Millis) string {
	return m.Time().Format(CalendarDateLayout)
}
