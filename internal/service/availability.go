package service

import (
	"fmt"
	"time"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

// Classifier thresholds. The defaults are a compatibility contract with the
// frontend: changing them changes which rooms the campus map shows as free.
const (
	// DefaultLowOccupancyThreshold separates "almost nobody present" from
	// "people present" when weighed against a scheduled class.
	DefaultLowOccupancyThreshold = 0.10
	// DefaultCrowdedThreshold marks an unscheduled room as occupied.
	DefaultCrowdedThreshold = 0.50
)

// MatchSessionNow returns the session active at t for the given classroom
// sessions, or nil when none is. A session is active when t falls on its
// weekday and its time window contains t's clock time, inclusive on both ends.
//
// When sessions overlap (a malformed timetable), the first match in list
// order wins. Callers must not rely on which one that is.
func MatchSessionNow(sessions []models.ClassSession, t time.Time) *models.ClassSession {
	weekday := models.WeekdayIndex(t)
	clock := models.ClockString(t)
	for i := range sessions {
		s := &sessions[i]
		if s.DayOfWeek != weekday {
			continue
		}
		if s.StartTime <= clock && clock <= s.EndTime {
			return s
		}
	}
	return nil
}

// MatchSessionFuture returns the session scheduled on targetDate's weekday at
// targetPeriod, or nil. No time-of-day comparison happens in this mode; there
// is no occupancy data for a future time.
func MatchSessionFuture(sessions []models.ClassSession, targetDate time.Time, targetPeriod int) (*models.ClassSession, error) {
	if _, err := models.WindowForPeriod(targetPeriod); err != nil {
		return nil, err
	}
	weekday := models.WeekdayIndex(targetDate)
	for i := range sessions {
		s := &sessions[i]
		if s.DayOfWeek == weekday && s.Period == targetPeriod {
			return s, nil
		}
	}
	return nil, nil
}

// ParseTargetDate parses a YYYY-MM-DD date for future-mode evaluation.
func ParseTargetDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidDate.Code, appErrors.ErrInvalidDate.Status, appErrors.ErrInvalidDate.Message)
	}
	return t, nil
}

// StatusClassifier maps (capacity, snapshot, matched session, mode) to a
// StatusResult. It is a pure value type: no I/O, no locks, safe to share.
type StatusClassifier struct {
	LowThreshold     float64
	CrowdedThreshold float64
}

// NewStatusClassifier builds a classifier, falling back to the default
// thresholds when the provided values are not usable.
func NewStatusClassifier(low, crowded float64) StatusClassifier {
	if low <= 0 || low >= 1 {
		low = DefaultLowOccupancyThreshold
	}
	if crowded <= low || crowded >= 1 {
		crowded = DefaultCrowdedThreshold
	}
	return StatusClassifier{LowThreshold: low, CrowdedThreshold: crowded}
}

// OccupancyRate computes detected count over capacity, clamped to [0,1].
// A zero capacity or a missing snapshot always yields 0.
func OccupancyRate(capacity int, snapshot *models.OccupancySnapshot) float64 {
	if capacity <= 0 || snapshot == nil {
		return 0
	}
	rate := float64(snapshot.CurrentCount) / float64(capacity)
	if rate > 1 {
		return 1
	}
	return rate
}

// Classify decides the discrete room status. It never fails: a classroom
// without a snapshot is treated as empty, not as unknown.
func (c StatusClassifier) Classify(capacity int, snapshot *models.OccupancySnapshot, session *models.ClassSession, mode models.EvaluationMode) models.StatusResult {
	rate := OccupancyRate(capacity, snapshot)

	if mode == models.EvalFuture {
		// Schedule-only verdict; occupancy is ignored entirely.
		if session != nil {
			return models.StatusResult{
				Status:        models.StatusInClass,
				StatusDetail:  fmt.Sprintf("class scheduled: %s", session.ClassName),
				IsAvailable:   false,
				OccupancyRate: rate,
				ActiveClass:   session,
			}
		}
		return models.StatusResult{
			Status:        models.StatusAvailable,
			StatusDetail:  "room is free",
			IsAvailable:   true,
			OccupancyRate: rate,
		}
	}

	var status models.RoomStatus
	var detail string
	switch {
	case session != nil && rate >= c.LowThreshold:
		status = models.StatusInClass
		detail = fmt.Sprintf("class in session: %s", session.ClassName)
	case session != nil:
		status = models.StatusScheduledLow
		detail = fmt.Sprintf("class scheduled: %s", session.ClassName)
	case rate >= c.CrowdedThreshold:
		status = models.StatusOccupied
		detail = "room free but crowded"
	case rate >= c.LowThreshold:
		status = models.StatusPartiallyOccupied
		detail = "room free, partially in use"
	default:
		status = models.StatusAvailable
		detail = "room is free"
	}

	// A scheduled class keeps the room unavailable even when the sensor sees
	// almost nobody; the timetable wins over the raw count.
	return models.StatusResult{
		Status:        status,
		StatusDetail:  detail,
		IsAvailable:   status == models.StatusAvailable || status == models.StatusPartiallyOccupied,
		OccupancyRate: rate,
		ActiveClass:   session,
	}
}
