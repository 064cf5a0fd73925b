package models

import "time"

// RoomStatus is the discrete occupancy classification for a classroom.
type RoomStatus string

const (
	StatusInClass           RoomStatus = "in-class"
	StatusScheduledLow      RoomStatus = "scheduled-low"
	StatusOccupied          RoomStatus = "occupied"
	StatusPartiallyOccupied RoomStatus = "partially-occupied"
	StatusAvailable         RoomStatus = "available"
)

// StatusResult is the computed classification for one classroom at one
// evaluation point. It is never persisted; every query recomputes it.
type StatusResult struct {
	Status        RoomStatus    `json:"status"`
	StatusDetail  string        `json:"status_detail"`
	IsAvailable   bool          `json:"is_available"`
	OccupancyRate float64       `json:"occupancy_rate"`
	ActiveClass   *ClassSession `json:"active_class"`
}

// EvaluationMode selects between the two status evaluation modes.
type EvaluationMode int

const (
	// EvalNow evaluates against a concrete timestamp using both schedule and
	// the latest occupancy snapshot.
	EvalNow EvaluationMode = iota
	// EvalFuture evaluates a (date, period) pair using schedule data only.
	EvalFuture
)

// EvaluationPoint is the tagged variant dispatched once at the API boundary:
// either Now(timestamp) or Future(date, period).
type EvaluationPoint struct {
	Mode         EvaluationMode
	At           time.Time
	TargetDate   time.Time
	TargetPeriod int
}

// NowAt builds a current-time evaluation point.
func NowAt(t time.Time) EvaluationPoint {
	return EvaluationPoint{Mode: EvalNow, At: t}
}

// FutureAt builds a future-mode evaluation point.
func FutureAt(date time.Time, period int) EvaluationPoint {
	return EvaluationPoint{Mode: EvalFuture, TargetDate: date, TargetPeriod: period}
}

// ClassroomStatusReport is the assembled record returned by the status
// endpoint: directory attributes, raw occupancy numbers, the StatusResult,
// and a link to the most recent annotated detection frame when one exists.
type ClassroomStatusReport struct {
	Classroom Classroom          `json:"classroom"`
	Occupancy *OccupancySnapshot `json:"occupancy"`
	StatusResult
	ImageURL *string `json:"image_url"`
}
