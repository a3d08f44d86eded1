package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobportal/profile-sync/internal/auth"
	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/events"
	"github.com/jobportal/profile-sync/internal/observability"
	"github.com/jobportal/profile-sync/internal/repository"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

// ProfileService coordinates profile reads and partial updates.
type ProfileService struct {
	profiles repository.ProfileRepository
	events   events.Dispatcher
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// ProfileDependencies bundles collaborators for the profile service.
type ProfileDependencies struct {
	Profiles repository.ProfileRepository
	Events   events.Dispatcher
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// EntryTarget addresses the section entry an update replaces. ID is preferred; Index,
// when given together with ID, must still point at that entry.
type EntryTarget struct {
	ID    string
	Index *int
}

// NewProfileService constructs the service.
func NewProfileService(deps ProfileDependencies) *ProfileService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Events
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}
	return &ProfileService{
		profiles: deps.Profiles,
		events:   dispatcher,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source used for the token expiry re-check.
func (s *ProfileService) WithClock(now func() time.Time) *ProfileService {
	s.now = now
	return s
}

// GetDetails returns the owner's record. When since is set and the record has not changed
// after it, modified is false and the record is nil.
func (s *ProfileService) GetDetails(ctx context.Context, caller domain.Identity, ownerID string, since *time.Time) (*domain.ProfileRecord, bool, error) {
	if err := s.authorize(caller, ownerID); err != nil {
		return nil, false, err
	}

	record, err := withStoreRetry(ctx, s.logger, s.metrics, "get_by_owner", func() (*domain.ProfileRecord, error) {
		return s.profiles.GetByOwner(ctx, ownerID)
	})
	if err != nil {
		return nil, false, mapStoreError(err)
	}
	if since != nil && !record.ModifiedSince(*since) {
		return nil, false, nil
	}
	return record, true, nil
}

// GetByEmail resolves a record by email. Non-admin callers may only resolve their own
// record, and an unknown email is reported to them as Forbidden.
func (s *ProfileService) GetByEmail(ctx context.Context, caller domain.Identity, email string) (*domain.ProfileRecord, error) {
	if err := s.ensureLive(caller); err != nil {
		return nil, err
	}

	record, err := withStoreRetry(ctx, s.logger, s.metrics, "get_by_email", func() (*domain.ProfileRecord, error) {
		return s.profiles.GetByEmail(ctx, email)
	})
	if errors.Is(err, domain.ErrProfileNotFound) && caller.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("not the owner of this profile")
	}
	if err != nil {
		return nil, mapStoreError(err)
	}
	if err := auth.Check(caller, auth.OwnerOrAdmin, record.OwnerID); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateUser overwrites the top-level fields named in patch and leaves the rest untouched.
func (s *ProfileService) UpdateUser(ctx context.Context, caller domain.Identity, ownerID string, patch domain.ProfilePatch) (*domain.ProfileRecord, error) {
	if err := s.authorize(caller, ownerID); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperrors.NewValidationError("no updatable field supplied", nil)
	}

	record, err := withStoreRetry(ctx, s.logger, s.metrics, "patch_top_level", func() (*domain.ProfileRecord, error) {
		if err := s.ensureLive(caller); err != nil {
			return nil, err
		}
		return s.profiles.PatchTopLevel(ctx, ownerID, patch)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.publish(ctx, caller, record, events.EventProfileUpdated, events.ProfileUpdatedPayload{Fields: patchedFields(patch)})
	return record, nil
}

// AddDetails appends entries to a section. Each appended entry receives a fresh id.
func (s *ProfileService) AddDetails(ctx context.Context, caller domain.Identity, ownerID string, section domain.SectionKey, entries []domain.SectionEntry) (*domain.ProfileRecord, error) {
	if len(entries) == 0 {
		return nil, apperrors.NewValidationError("at least one entry is required", map[string]any{"section": section})
	}
	return s.merge(ctx, caller, ownerID, section, entries, domain.Append())
}

// UpdateDetails replaces one section entry, addressed by id or by index.
func (s *ProfileService) UpdateDetails(ctx context.Context, caller domain.Identity, ownerID string, section domain.SectionKey, entry domain.SectionEntry, target EntryTarget) (*domain.ProfileRecord, error) {
	var mode domain.MergeMode
	switch {
	case target.ID != "":
		mode = domain.ReplaceByID(target.ID, target.Index)
	case target.Index != nil:
		mode = domain.ReplaceAt(*target.Index)
	default:
		return nil, apperrors.NewValidationError("entry id or index is required", map[string]any{"section": section})
	}
	return s.merge(ctx, caller, ownerID, section, []domain.SectionEntry{entry}, mode)
}

func (s *ProfileService) merge(ctx context.Context, caller domain.Identity, ownerID string, section domain.SectionKey, entries []domain.SectionEntry, mode domain.MergeMode) (*domain.ProfileRecord, error) {
	if err := s.authorize(caller, ownerID); err != nil {
		return nil, err
	}
	if !section.Valid() {
		return nil, apperrors.NewValidationError("unknown section", map[string]any{"section": section})
	}

	current, err := withStoreRetry(ctx, s.logger, s.metrics, "get_by_owner", func() (*domain.ProfileRecord, error) {
		return s.profiles.GetByOwner(ctx, ownerID)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !section.AllowedFor(current.Role) {
		return nil, apperrors.NewValidationError("section not available for this profile",
			map[string]any{"section": section, "role": current.Role})
	}

	// The identity may expire during the pre-read or between attempts.
	mergeFn := func() (*domain.ProfileRecord, error) {
		if err := s.ensureLive(caller); err != nil {
			return nil, err
		}
		return s.profiles.MergeDetails(ctx, ownerID, section, entries, mode)
	}
	var record *domain.ProfileRecord
	if mode.Kind == domain.MergeAppend {
		// An append whose commit outcome is unknown must not be replayed.
		record, err = mergeFn()
	} else {
		record, err = withStoreRetry(ctx, s.logger, s.metrics, "merge_details", mergeFn)
	}
	s.metrics.RecordMerge(string(section), mode.Kind.String(), err)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.publish(ctx, caller, record, events.EventDetailsMerged, events.DetailsMergedPayload{
		Section: section,
		Mode:    mode.Kind.String(),
		Entries: len(entries),
	})
	return record, nil
}

// authorize repeats the gate's ownership decision so the service is safe to call from
// paths that bypass the HTTP middleware.
func (s *ProfileService) authorize(caller domain.Identity, ownerID string) error {
	if err := s.ensureLive(caller); err != nil {
		return err
	}
	if ownerID == "" {
		return apperrors.NewValidationError("owner id is required", nil)
	}
	return auth.Check(caller, auth.OwnerOrAdmin, ownerID)
}

func (s *ProfileService) ensureLive(caller domain.Identity) error {
	if caller.ID == "" {
		return apperrors.NewMissingToken()
	}
	if caller.Expired(s.now()) {
		return apperrors.NewTokenExpired()
	}
	return nil
}

func (s *ProfileService) publish(ctx context.Context, caller domain.Identity, record *domain.ProfileRecord, eventType events.EventType, payload any) {
	_ = s.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		OwnerID:   record.OwnerID,
		Actor:     events.ActorFrom(caller),
		Timestamp: record.UpdatedAt,
		Payload:   payload,
	})
}

func patchedFields(patch domain.ProfilePatch) []string {
	fields := make([]string, 0, 5)
	if patch.FirstName != nil {
		fields = append(fields, "firstName")
	}
	if patch.LastName != nil {
		fields = append(fields, "lastName")
	}
	if patch.Email != nil {
		fields = append(fields, "email")
	}
	if patch.PhoneNumber != nil {
		fields = append(fields, "phoneNumber")
	}
	if patch.Address != nil {
		fields = append(fields, "address")
	}
	return fields
}
