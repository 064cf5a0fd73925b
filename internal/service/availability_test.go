package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

func snapshot(count int) *models.OccupancySnapshot {
	return &models.OccupancySnapshot{
		ID:                  "occ-1",
		ClassroomID:         "room-101",
		CurrentCount:        count,
		DetectionConfidence: 0.9,
		LastUpdated:         time.Now(),
	}
}

func wednesdaySession(start, end string) models.ClassSession {
	return models.ClassSession{
		ID:          "sess-1",
		ClassroomID: "room-101",
		ClassName:   "Linear Algebra",
		DayOfWeek:   2,
		Period:      3,
		StartTime:   start,
		EndTime:     end,
	}
}

func TestOccupancyRate(t *testing.T) {
	assert.InDelta(t, 0.25, OccupancyRate(40, snapshot(10)), 1e-9)
	assert.InDelta(t, 1.0, OccupancyRate(40, snapshot(40)), 1e-9)

	// Counts above capacity clamp to exactly 1.0.
	assert.Equal(t, 1.0, OccupancyRate(40, snapshot(55)))

	// Zero capacity or missing snapshot never divides.
	assert.Equal(t, 0.0, OccupancyRate(0, snapshot(100)))
	assert.Equal(t, 0.0, OccupancyRate(40, nil))
	assert.Equal(t, 0.0, OccupancyRate(-1, snapshot(3)))
}

func TestMatchSessionNowInclusiveBoundaries(t *testing.T) {
	sessions := []models.ClassSession{wednesdaySession("13:00", "14:30")}

	// 2025-01-15 is a Wednesday.
	wednesday := func(hour, min int) time.Time {
		return time.Date(2025, time.January, 15, hour, min, 0, 0, time.UTC)
	}

	for _, tc := range []struct {
		name  string
		at    time.Time
		match bool
	}{
		{"start boundary", wednesday(13, 0), true},
		{"midway", wednesday(13, 45), true},
		{"end boundary", wednesday(14, 30), true},
		{"one minute early", wednesday(12, 59), false},
		{"one minute late", wednesday(14, 31), false},
		{"right time wrong day", time.Date(2025, time.January, 14, 13, 30, 0, 0, time.UTC), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := MatchSessionNow(sessions, tc.at)
			if tc.match {
				require.NotNil(t, got)
				assert.Equal(t, "Linear Algebra", got.ClassName)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestMatchSessionNowFirstMatchWins(t *testing.T) {
	first := wednesdaySession("13:00", "14:30")
	second := wednesdaySession("13:00", "14:30")
	second.ID = "sess-2"
	second.ClassName = "Statistics"

	got := MatchSessionNow([]models.ClassSession{first, second}, time.Date(2025, time.January, 15, 13, 30, 0, 0, time.UTC))
	require.NotNil(t, got)
	assert.Equal(t, "sess-1", got.ID)
}

func TestMatchSessionNowNoSessions(t *testing.T) {
	assert.Nil(t, MatchSessionNow(nil, time.Now()))
}

func TestMatchSessionFuture(t *testing.T) {
	sessions := []models.ClassSession{wednesdaySession("13:00", "14:30")}

	// Matching weekday and period.
	got, err := MatchSessionFuture(sessions, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Linear Algebra", got.ClassName)

	// Same weekday, different period.
	got, err = MatchSessionFuture(sessions, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), 4)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Different weekday.
	got, err = MatchSessionFuture(sessions, time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC), 3)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Period outside the table surfaces a structured error, not a silent miss.
	_, err = MatchSessionFuture(sessions, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), 8)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPeriod.Code, appErrors.FromError(err).Code)

	_, err = MatchSessionFuture(sessions, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPeriod.Code, appErrors.FromError(err).Code)
}

func TestParseTargetDate(t *testing.T) {
	d, err := ParseTargetDate("2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Weekday(3), d.Weekday())

	_, err = ParseTargetDate("15/01/2025")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDate.Code, appErrors.FromError(err).Code)
}

func TestClassifyCurrentModeBoundaries(t *testing.T) {
	c := NewStatusClassifier(0, 0)
	session := wednesdaySession("13:00", "14:30")

	// Capacity 10000 lets counts hit the thresholds exactly and just below.
	const capacity = 10000

	for _, tc := range []struct {
		name      string
		session   *models.ClassSession
		count     int
		status    models.RoomStatus
		available bool
	}{
		{"scheduled at low boundary", &session, 1000, models.StatusInClass, false},
		{"scheduled just below low", &session, 999, models.StatusScheduledLow, false},
		{"unscheduled at crowded boundary", nil, 5000, models.StatusOccupied, false},
		{"unscheduled just below crowded", nil, 4999, models.StatusPartiallyOccupied, true},
		{"unscheduled just below low", nil, 999, models.StatusAvailable, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result := c.Classify(capacity, snapshot(tc.count), tc.session, models.EvalNow)
			assert.Equal(t, tc.status, result.Status)
			assert.Equal(t, tc.available, result.IsAvailable)
		})
	}
}

func TestClassifyAvailabilityFollowsStatus(t *testing.T) {
	c := NewStatusClassifier(0, 0)
	session := wednesdaySession("13:00", "14:30")

	cases := map[models.RoomStatus]models.StatusResult{
		models.StatusInClass:           c.Classify(40, snapshot(20), &session, models.EvalNow),
		models.StatusScheduledLow:      c.Classify(40, snapshot(1), &session, models.EvalNow),
		models.StatusOccupied:          c.Classify(40, snapshot(30), nil, models.EvalNow),
		models.StatusPartiallyOccupied: c.Classify(40, snapshot(10), nil, models.EvalNow),
		models.StatusAvailable:         c.Classify(40, snapshot(1), nil, models.EvalNow),
	}

	for status, result := range cases {
		require.Equal(t, status, result.Status)
		wantAvailable := status == models.StatusAvailable || status == models.StatusPartiallyOccupied
		assert.Equal(t, wantAvailable, result.IsAvailable, "status %s", status)
	}
}

func TestClassifyMissingSnapshotIsEmptyRoom(t *testing.T) {
	c := NewStatusClassifier(0, 0)

	result := c.Classify(40, nil, nil, models.EvalNow)
	assert.Equal(t, models.StatusAvailable, result.Status)
	assert.True(t, result.IsAvailable)
	assert.Equal(t, 0.0, result.OccupancyRate)

	session := wednesdaySession("13:00", "14:30")
	result = c.Classify(40, nil, &session, models.EvalNow)
	assert.Equal(t, models.StatusScheduledLow, result.Status)
	assert.False(t, result.IsAvailable)
}

func TestClassifyFutureModeIgnoresOccupancy(t *testing.T) {
	c := NewStatusClassifier(0, 0)
	session := wednesdaySession("13:00", "14:30")

	// Whatever the detector reports, a future verdict depends on the
	// timetable alone.
	for _, count := range []int{0, 3, 25, 40, 120} {
		withSession := c.Classify(40, snapshot(count), &session, models.EvalFuture)
		assert.Equal(t, models.StatusInClass, withSession.Status, "count %d", count)
		assert.False(t, withSession.IsAvailable)
		require.NotNil(t, withSession.ActiveClass)

		free := c.Classify(40, snapshot(count), nil, models.EvalFuture)
		assert.Equal(t, models.StatusAvailable, free.Status, "count %d", count)
		assert.True(t, free.IsAvailable)
		assert.Nil(t, free.ActiveClass)
	}
}

func TestClassifyEndToEndScenarios(t *testing.T) {
	c := NewStatusClassifier(0, 0)
	session := wednesdaySession("13:00", "14:30")

	// Capacity 40, 5 people, class scheduled: rate 0.125 counts as in-class.
	result := c.Classify(40, snapshot(5), &session, models.EvalNow)
	assert.Equal(t, models.StatusInClass, result.Status)
	assert.False(t, result.IsAvailable)
	require.NotNil(t, result.ActiveClass)
	assert.Equal(t, "Linear Algebra", result.ActiveClass.ClassName)
	assert.InDelta(t, 0.125, result.OccupancyRate, 1e-9)

	// No class, 25 people: ad hoc crowd.
	result = c.Classify(40, snapshot(25), nil, models.EvalNow)
	assert.Equal(t, models.StatusOccupied, result.Status)
	assert.False(t, result.IsAvailable)
	assert.InDelta(t, 0.625, result.OccupancyRate, 1e-9)

	// No class, 2 people: free.
	result = c.Classify(40, snapshot(2), nil, models.EvalNow)
	assert.Equal(t, models.StatusAvailable, result.Status)
	assert.True(t, result.IsAvailable)
	assert.InDelta(t, 0.05, result.OccupancyRate, 1e-9)
}

func TestNewStatusClassifierDefaults(t *testing.T) {
	c := NewStatusClassifier(0, 0)
	assert.Equal(t, DefaultLowOccupancyThreshold, c.LowThreshold)
	assert.Equal(t, DefaultCrowdedThreshold, c.CrowdedThreshold)

	// A crowded threshold at or below the low threshold is rejected.
	c = NewStatusClassifier(0.2, 0.1)
	assert.Equal(t, 0.2, c.LowThreshold)
	assert.Equal(t, DefaultCrowdedThreshold, c.CrowdedThreshold)
}
