package dto

import "github.com/opencampus/classroom-occupancy-api/internal/models"

// AdminLoginRequest authenticates a password-backed administrator account.
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse carries an issued token pair plus the signed-in profile.
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	User         models.User `json:"user"`
}

// LoginURLResponse points the client at the Google consent screen.
type LoginURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}
