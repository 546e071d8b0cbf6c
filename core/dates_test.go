package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDateRoundTrip(t *testing.T) {
	dates := []string{"1970-01-01", "1999-12-31", "2000-01-01", "2024-02-29", "2024-12-31", "2025-03-30"}

	for _, date := range dates {
		t.Run(date, func(t *testing.T) {
			ms, err := ParseCalendarDate(date)
			require.NoError(t, err)
			assert.Equal(t, date, FormatCalendarDate(ms))
			assert.Zero(t, int64(ms)%(24*60*60*1000), "midnight UTC")
		})
	}
}

func TestFormatCalendarDate_DayBoundary(t *testing.T) {
	lastMilli := time.Date(2024, 12, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	assert.Equal(t, "2024-12-31", FormatCalendarDate(MillisOf(lastMilli)))
	assert.Equal(t, "2025-01-01", FormatCalendarDate(MillisOf(lastMilli)+1))
}

func TestParseCalendarDate_Invalid(t *testing.T) {
	for _, date := range []string{"", "2024-02-30", "2024/01/01", "yesterday"} {
		_, err := ParseCalendarDate(date)
		require.ErrorIs(t, err, ErrInvalidInput, date)
	}
}

func TestMillisTime(t *testing.T) {
	ms := Millis(1741910400000)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), ms.Time())
	assert.Equal(t, ms, MillisOf(ms.Time().In(time.FixedZone("UTC+9", 9*3600))))
}
