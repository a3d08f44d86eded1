package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/repository"
)

func identity(id string, role domain.Role) domain.Identity {
	now := time.Now()
	return domain.Identity{ID: id, Role: role, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func skill(name, level string) domain.SectionEntry {
	return domain.SectionEntry{Fields: map[string]string{"skillName": name, "proficiency": level}}
}

func seedProfile(repo repository.ProfileRepository, ownerID, email string, role domain.Role) {
	if err := repo.Create(context.Background(), &domain.ProfileRecord{
		OwnerID:   ownerID,
		Email:     email,
		FirstName: "First",
		LastName:  "Last",
		Role:      role,
	}); err != nil {
		panic(err)
	}
}

// flakyRepository fails the next `failures` calls of every method with ErrStoreUnavailable.
type flakyRepository struct {
	repository.ProfileRepository
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flakyRepository) fail() error {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return fmt.Errorf("%w: connection reset", repository.ErrStoreUnavailable)
	}
	return nil
}

func (f *flakyRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.ProfileRecord, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.ProfileRepository.GetByOwner(ctx, ownerID)
}

func (f *flakyRepository) PatchTopLevel(ctx context.Context, ownerID string, patch domain.ProfilePatch) (*domain.ProfileRecord, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.ProfileRepository.PatchTopLevel(ctx, ownerID, patch)
}

func (f *flakyRepository) MergeDetails(ctx context.Context, ownerID string, section domain.SectionKey, entries []domain.SectionEntry, mode domain.MergeMode) (*domain.ProfileRecord, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.ProfileRepository.MergeDetails(ctx, ownerID, section, entries, mode)
}

// countingCache records cache traffic in memory.
type countingCache struct {
	stats       *domain.DashboardStats
	gets        int
	sets        int
	invalidates int
}

func (c *countingCache) Get(context.Context) (*domain.DashboardStats, bool, error) {
	c.gets++
	if c.stats == nil {
		return nil, false, nil
	}
	cp := *c.stats
	return &cp, true, nil
}

func (c *countingCache) Set(_ context.Context, stats domain.DashboardStats, _ time.Duration) error {
	c.sets++
	c.stats = &stats
	return nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidates++
	c.stats = nil
	return nil
}

// hookedRepository runs before ahead of every read or write it forwards. A non-nil error
// from before is returned in place of the call.
type hookedRepository struct {
	repository.ProfileRepository
	before func(op string) error
}

func (h *hookedRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.ProfileRecord, error) {
	if err := h.before("get_by_owner"); err != nil {
		return nil, err
	}
	return h.ProfileRepository.GetByOwner(ctx, ownerID)
}

func (h *hookedRepository) PatchTopLevel(ctx context.Context, ownerID string, patch domain.ProfilePatch) (*domain.ProfileRecord, error) {
	if err := h.before("patch_top_level"); err != nil {
		return nil, err
	}
	return h.ProfileRepository.PatchTopLevel(ctx, ownerID, patch)
}

func (h *hookedRepository) MergeDetails(ctx context.Context, ownerID string, section domain.SectionKey, entries []domain.SectionEntry, mode domain.MergeMode) (*domain.ProfileRecord, error) {
	if err := h.before("merge_details"); err != nil {
		return nil, err
	}
	return h.ProfileRepository.MergeDetails(ctx, ownerID, section, entries, mode)
}
