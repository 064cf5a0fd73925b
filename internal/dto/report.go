package dto

import "github.com/opencampus/classroom-occupancy-api/internal/models"

// CreateReportRequest queues an asynchronous export job.
type CreateReportRequest struct {
	Type        models.ReportType   `json:"type" validate:"required,oneof=utilization history"`
	Format      models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ClassroomID *string             `json:"classroom_id"`
	Faculty     *string             `json:"faculty"`
	From        *string             `json:"from" validate:"omitempty,len=10"`
	To          *string             `json:"to" validate:"omitempty,len=10"`
}

// ReportJobResponse reports a job's current lifecycle state and, once
// finished, a signed download URL.
type ReportJobResponse struct {
	models.ReportJob
	DownloadURL *string `json:"download_url,omitempty"`
}

// CreateFavoriteRequest marks a classroom as a favorite.
type CreateFavoriteRequest struct {
	ClassroomID string `json:"classroom_id" validate:"required"`
}

// CreateSearchEntryRequest records a search a user ran. Filters carries the
// frontend's serialized filter state verbatim.
type CreateSearchEntryRequest struct {
	Query   string  `json:"query" validate:"required"`
	Filters *string `json:"filters"`
}
