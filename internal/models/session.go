package models

import "time"

// ClassSession is one weekly recurring scheduled class slot for a classroom.
// Activity is always computed against a supplied timestamp; sessions carry no
// mutable "active" flag.
type ClassSession struct {
	ID          string    `db:"id" json:"id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	ClassName   string    `db:"class_name" json:"class_name"`
	Instructor  *string   `db:"instructor" json:"instructor,omitempty"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	Period      int       `db:"period" json:"period"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	Semester    *string   `db:"semester" json:"semester,omitempty"`
	CourseCode  *string   `db:"course_code" json:"course_code,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SessionFilter describes query params for listing class sessions.
type SessionFilter struct {
	ClassroomID string
	DayOfWeek   *int
	Period      *int
	Semester    string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
