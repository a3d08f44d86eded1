package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jobportal/profile-sync/internal/api/dto"
	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/service"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := dto.DecodeStrict(c.Body(), &req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.UserContext(), service.Registration{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, authResponse(result))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := dto.DecodeStrict(c.Body(), &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, authResponse(result))
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.Identity.ExpiresAt,
		Profile:   result.Profile,
	}
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"data": data})
}
