package dto

import (
	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/domain"
)

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

type UserResponse struct {
	User *domain.User `json:"user"`
}

type OrderCreatedResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                `json:"error"`
	Details []apperror.FieldError `json:"details,omitempty"`
}
