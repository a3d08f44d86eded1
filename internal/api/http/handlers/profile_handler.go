package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jobportal/profile-sync/internal/api/dto"
	"github.com/jobportal/profile-sync/internal/auth"
	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/service"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

// LastModifiedLayout formats profile timestamps in Last-Modified and If-Modified-Since.
const LastModifiedLayout = time.RFC3339Nano

// ProfileHandler exposes profile reads and partial updates.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetDetails handles GET /profile/details. A request carrying If-Modified-Since that is
// not older than the record's updatedAt gets 304 and no body.
func (h *ProfileHandler) GetDetails(c *fiber.Ctx) error {
	caller, target, err := principal(c)
	if err != nil {
		return err
	}

	since := parseIfModifiedSince(c.Get(fiber.HeaderIfModifiedSince))
	record, modified, err := h.profiles.GetDetails(c.UserContext(), caller, target, since)
	if err != nil {
		return err
	}
	if !modified {
		return c.SendStatus(http.StatusNotModified)
	}
	return respondRecord(c, http.StatusOK, record)
}

// GetByEmail handles GET /profile/email-details?email=.
func (h *ProfileHandler) GetByEmail(c *fiber.Ctx) error {
	caller, _, err := principal(c)
	if err != nil {
		return err
	}
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return apperrors.NewValidationError("email query parameter is required", nil)
	}

	record, err := h.profiles.GetByEmail(c.UserContext(), caller, email)
	if err != nil {
		return err
	}
	return respondRecord(c, http.StatusOK, record)
}

// UpdateUser handles PATCH /profile/update-user.
func (h *ProfileHandler) UpdateUser(c *fiber.Ctx) error {
	caller, target, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := dto.DecodeStrict(c.Body(), &req); err != nil {
		return err
	}

	record, err := h.profiles.UpdateUser(c.UserContext(), caller, target, req.ToPatch())
	if err != nil {
		return err
	}
	return respondRecord(c, http.StatusOK, record)
}

// AddDetails handles POST /profile/add-details.
func (h *ProfileHandler) AddDetails(c *fiber.Ctx) error {
	caller, target, err := principal(c)
	if err != nil {
		return err
	}
	req, err := dto.ParseAddDetails(c.Body())
	if err != nil {
		return err
	}

	record, err := h.profiles.AddDetails(c.UserContext(), caller, target, req.Section, req.Entries)
	if err != nil {
		return err
	}
	return respondRecord(c, http.StatusOK, record)
}

// UpdateDetails handles PATCH /profile/update-details.
func (h *ProfileHandler) UpdateDetails(c *fiber.Ctx) error {
	caller, target, err := principal(c)
	if err != nil {
		return err
	}
	req, err := dto.ParseUpdateDetails(c.Body())
	if err != nil {
		return err
	}

	record, err := h.profiles.UpdateDetails(c.UserContext(), caller, target, req.Section, req.Entry,
		service.EntryTarget{ID: req.EntryID(), Index: req.Index})
	if err != nil {
		return err
	}
	return respondRecord(c, http.StatusOK, record)
}

func principal(c *fiber.Ctx) (domain.Identity, string, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, "", apperrors.NewMissingToken()
	}
	return identity, auth.TargetOwnerFromContext(c), nil
}

func respondRecord(c *fiber.Ctx, status int, record *domain.ProfileRecord) error {
	c.Set(fiber.HeaderLastModified, record.UpdatedAt.UTC().Format(LastModifiedLayout))
	return respond(c, status, record)
}

// parseIfModifiedSince accepts RFC 3339 with sub-second precision and falls back to an
// HTTP date. Anything else is ignored.
func parseIfModifiedSince(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return &t
	}
	if t, err := http.ParseTime(value); err == nil {
		return &t
	}
	return nil
}
