package models

import "time"

// Classroom represents one monitored room in the campus directory.
type Classroom struct {
	ID              string    `db:"id" json:"id"`
	RoomNumber      string    `db:"room_number" json:"room_number"`
	BuildingID      string    `db:"building_id" json:"building_id"`
	Faculty         string    `db:"faculty" json:"faculty"`
	Floor           int       `db:"floor" json:"floor"`
	Capacity        int       `db:"capacity" json:"capacity"`
	HasProjector    bool      `db:"has_projector" json:"has_projector"`
	HasWifi         bool      `db:"has_wifi" json:"has_wifi"`
	HasPowerOutlets bool      `db:"has_power_outlets" json:"has_power_outlets"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Building groups classrooms by campus building.
type Building struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Faculty   string    `db:"faculty" json:"faculty"`
	Floors    int       `db:"floors" json:"floors"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter captures filtering criteria for classroom listings.
type ClassroomFilter struct {
	Faculty    string
	BuildingID string
	Floor      *int
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
