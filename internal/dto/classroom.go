package dto

import "github.com/opencampus/classroom-occupancy-api/internal/models"

// CreateClassroomRequest creates a new room in the directory.
type CreateClassroomRequest struct {
	RoomNumber      string `json:"room_number" validate:"required"`
	BuildingID      string `json:"building_id" validate:"required"`
	Faculty         string `json:"faculty" validate:"required"`
	Floor           int    `json:"floor" validate:"min=0"`
	Capacity        int    `json:"capacity" validate:"required,min=1"`
	HasProjector    bool   `json:"has_projector"`
	HasWifi         bool   `json:"has_wifi"`
	HasPowerOutlets bool   `json:"has_power_outlets"`
}

// UpdateClassroomRequest patches an existing room. Nil fields are untouched.
type UpdateClassroomRequest struct {
	RoomNumber      *string `json:"room_number"`
	BuildingID      *string `json:"building_id"`
	Faculty         *string `json:"faculty"`
	Floor           *int    `json:"floor" validate:"omitempty,min=0"`
	Capacity        *int    `json:"capacity" validate:"omitempty,min=1"`
	HasProjector    *bool   `json:"has_projector"`
	HasWifi         *bool   `json:"has_wifi"`
	HasPowerOutlets *bool   `json:"has_power_outlets"`
}

// ClassroomListResponse pairs a classroom page with pagination metadata.
type ClassroomListResponse struct {
	Classrooms []models.Classroom `json:"classrooms"`
	Pagination models.Pagination  `json:"pagination"`
}
