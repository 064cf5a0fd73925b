package dto

import "github.com/opencampus/classroom-occupancy-api/internal/models"

// UpdateOccupancyRequest is the payload camera agents push after a detection
// pass over one room.
type UpdateOccupancyRequest struct {
	CurrentCount        int     `json:"current_count" validate:"min=0"`
	DetectionConfidence float64 `json:"detection_confidence" validate:"min=0,max=1"`
	CameraID            *string `json:"camera_id"`
}

// StatusQuery captures the evaluation point for the status endpoint. When
// Date and Period are both empty the endpoint evaluates "now".
type StatusQuery struct {
	Faculty       string
	BuildingID    string
	AvailableOnly bool
	Date          string
	Period        int
}

// StatusListResponse is the classroom status board.
type StatusListResponse struct {
	Results []models.ClassroomStatusReport `json:"results"`
	Total   int                            `json:"total"`
}

// HistoryResponse pages through stored observations for one room.
type HistoryResponse struct {
	ClassroomID  string                        `json:"classroom_id"`
	Observations []models.OccupancyObservation `json:"observations"`
	Pagination   models.Pagination             `json:"pagination"`
}
