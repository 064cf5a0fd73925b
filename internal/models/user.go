package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole distinguishes admins (classroom/session mutation rights) from
// regular signed-in students and staff.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleMember UserRole = "MEMBER"
)

// User represents an application user. Most users arrive through Google
// OAuth and have no password hash; local admin accounts keep one.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	Picture      *string    `db:"picture" json:"picture,omitempty"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	GoogleID     *string    `db:"google_id" json:"-"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// RefreshToken is a persisted refresh credential for one user session.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// JWTClaims are the access-token claims checked by the auth middleware.
type JWTClaims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Favorite marks one classroom pinned by one user.
type Favorite struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FavoriteWithClassroom joins the favorite with its directory record.
type FavoriteWithClassroom struct {
	Favorite
	Classroom Classroom `json:"classroom"`
}

// SearchEntry is one saved search from the frontend's search box.
type SearchEntry struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Query     string    `db:"query" json:"query"`
	Filters   *string   `db:"filters" json:"filters,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
