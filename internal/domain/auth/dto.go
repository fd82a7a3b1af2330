package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
)

// RegisterRequest for POST /auth/register
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50,username"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Nickname    string `json:"nickname" validate:"required,max=50"`
	Role        string `json:"role" validate:"required,self_role"`
	Affiliation string `json:"affiliation" validate:"required,affiliation"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email       string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest for POST /auth/refresh and /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse returned after login/register
type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

// UserResponse represents user in API response
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Nickname    string    `json:"nickname"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	Affiliation string    `json:"affiliation"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

// TokensResponse represents tokens in API response
type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds until access token expires
	TokenType    string `json:"token_type"`
}

// NewUserResponse creates UserResponse from user
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		Role:        string(u.Role),
		Status:      string(u.Status),
		Affiliation: string(u.Affiliation),
		Phone:       u.Phone.String,
		Email:       u.Email.String,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}
