package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jobportal/profile-sync/internal/api/dto"
	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/service"
)

// AdminHandler exposes admin-only account management and aggregates.
type AdminHandler struct {
	auth      *service.AuthService
	dashboard *service.DashboardService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, dashboard *service.DashboardService) *AdminHandler {
	return &AdminHandler{auth: authService, dashboard: dashboard}
}

// Register handles POST /admin/register.
func (h *AdminHandler) Register(c *fiber.Ctx) error {
	caller, _, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AdminRegisterRequest
	if err := dto.DecodeStrict(c.Body(), &req); err != nil {
		return err
	}

	record, err := h.auth.RegisterByAdmin(c.UserContext(), caller, service.Registration{
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
	return respond(c, http.StatusCreated, record)
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	caller, _, err := principal(c)
	if err != nil {
		return err
	}

	stats, err := h.dashboard.Stats(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}
