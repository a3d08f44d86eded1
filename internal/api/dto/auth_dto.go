package dto

import (
	"time"

	"github.com/jobportal/profile-sync/internal/domain"
)

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber string `json:"phoneNumber" validate:"max=32"`
	Address     string `json:"address" validate:"max=255"`
	Role        string `json:"role" validate:"required,oneof=jobseeker employer"`
}

// AdminRegisterRequest lets an admin open an account of any role.
type AdminRegisterRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber string `json:"phoneNumber" validate:"max=32"`
	Address     string `json:"address" validate:"max=255"`
	Role        string `json:"role" validate:"required,oneof=jobseeker employer admin"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by login and self-registration.
type AuthResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	Profile   *domain.ProfileRecord `json:"profile"`
}
