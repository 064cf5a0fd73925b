package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

func TestWindowForPeriod(t *testing.T) {
	window, err := WindowForPeriod(3)
	require.NoError(t, err)
	assert.Equal(t, "13:00", window.Start)
	assert.Equal(t, "14:30", window.End)

	window, err = WindowForPeriod(7)
	require.NoError(t, err)
	assert.Equal(t, "19:40", window.Start)
	assert.Equal(t, "21:10", window.End)

	for _, period := range []int{0, -1, 8, 100} {
		_, err := WindowForPeriod(period)
		require.Error(t, err, "period %d", period)
		assert.Equal(t, appErrors.ErrInvalidPeriod.Code, appErrors.FromError(err).Code)
	}
}

func TestPeriodTableCoversAllPeriods(t *testing.T) {
	require.Len(t, PeriodTable, MaxPeriod)
	for period := MinPeriod; period <= MaxPeriod; period++ {
		window, ok := PeriodTable[period]
		require.True(t, ok, "period %d", period)
		assert.Less(t, window.Start, window.End, "period %d", period)
	}
}

func TestWeekdayIndex(t *testing.T) {
	// 2025-01-13 is a Monday.
	monday := time.Date(2025, time.January, 13, 12, 0, 0, 0, time.UTC)
	for offset := 0; offset < 7; offset++ {
		day := monday.AddDate(0, 0, offset)
		assert.Equal(t, offset, WeekdayIndex(day))
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "08:05", ClockString(time.Date(2025, 1, 13, 8, 5, 0, 0, time.UTC)))
	assert.Equal(t, "21:10", ClockString(time.Date(2025, 1, 13, 21, 10, 59, 0, time.UTC)))
}
