package dto

import "github.com/opencampus/classroom-occupancy-api/internal/models"

// CreateSessionRequest registers one weekly class session. StartTime and
// EndTime may be omitted, in which case the period's timetable window is used.
type CreateSessionRequest struct {
	ClassroomID string  `json:"classroom_id" validate:"required"`
	ClassName   string  `json:"class_name" validate:"required"`
	Instructor  *string `json:"instructor"`
	DayOfWeek   int     `json:"day_of_week" validate:"min=0,max=6"`
	Period      int     `json:"period" validate:"required,min=1,max=7"`
	StartTime   string  `json:"start_time" validate:"omitempty,len=5"`
	EndTime     string  `json:"end_time" validate:"omitempty,len=5"`
	Semester    *string `json:"semester"`
	CourseCode  *string `json:"course_code"`
}

// BulkCreateSessionsRequest registers a batch of sessions at once, typically
// a semester timetable import.
type BulkCreateSessionsRequest struct {
	Sessions []CreateSessionRequest `json:"sessions" validate:"required,min=1,dive"`
}

// UpdateSessionRequest patches an existing session. Nil fields are untouched.
type UpdateSessionRequest struct {
	ClassName  *string `json:"class_name"`
	Instructor *string `json:"instructor"`
	DayOfWeek  *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	Period     *int    `json:"period" validate:"omitempty,min=1,max=7"`
	StartTime  *string `json:"start_time" validate:"omitempty,len=5"`
	EndTime    *string `json:"end_time" validate:"omitempty,len=5"`
	Semester   *string `json:"semester"`
	CourseCode *string `json:"course_code"`
}

// SessionListResponse pairs a session page with pagination metadata.
type SessionListResponse struct {
	Sessions   []models.ClassSession `json:"sessions"`
	Pagination models.Pagination     `json:"pagination"`
}
