package models

import "time"

// OccupancySnapshot is the single most-recent occupancy observation for a
// classroom. Exactly one row exists per classroom; updates overwrite it
// (last committed write wins).
type OccupancySnapshot struct {
	ID                  string    `db:"id" json:"id"`
	ClassroomID         string    `db:"classroom_id" json:"classroom_id"`
	CurrentCount        int       `db:"current_count" json:"current_count"`
	DetectionConfidence float64   `db:"detection_confidence" json:"detection_confidence"`
	CameraID            *string   `db:"camera_id" json:"camera_id,omitempty"`
	LastUpdated         time.Time `db:"last_updated" json:"last_updated"`
}

// OccupancyObservation is one append-only history row. The history log is an
// audit trail; no status computation depends on it.
type OccupancyObservation struct {
	ID                  string    `db:"id" json:"id"`
	ClassroomID         string    `db:"classroom_id" json:"classroom_id"`
	Timestamp           time.Time `db:"timestamp" json:"timestamp"`
	Count               int       `db:"count" json:"count"`
	DetectionConfidence float64   `db:"detection_confidence" json:"detection_confidence"`
	CameraID            *string   `db:"camera_id" json:"camera_id,omitempty"`
}

// OccupancyFilter narrows occupancy listings by classroom attributes.
type OccupancyFilter struct {
	Faculty       string
	BuildingID    string
	Floor         *int
	AvailableOnly bool
}

// HistoryFilter bounds a history query for one classroom.
type HistoryFilter struct {
	ClassroomID string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}
