package dto

import (
	"time"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/service"
)

// RegisterRequest payload. Type carries the role.
type RegisterRequest struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Type        domain.Role `json:"type"`
	Designation *string     `json:"designation"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Type     domain.Role `json:"type"`
}

// GetUserRequest payload.
type GetUserRequest struct {
	UserID string `json:"userId"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User      domain.UserSummary `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// NewAuthResponse maps a service result.
func NewAuthResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{User: res.User, Token: res.Token, ExpiresAt: res.ExpiresAt}
}

// TokenPayload echoes verified token claims.
type TokenPayload struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	Iat    int64       `json:"iat,omitempty"`
	Exp    int64       `json:"exp"`
}
