package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobportal/profile-sync/internal/domain"
)

// MemoryProfileRepository keeps profiles in process memory. A single mutex serializes
// every write, which trivially linearizes writes per owner. Records are cloned on the way
// in and out so callers never alias stored state.
type MemoryProfileRepository struct {
	mu      sync.RWMutex
	byOwner map[string]*domain.ProfileRecord
	byEmail map[string]string
	now     func() time.Time
	newID   func() string
}

// NewMemoryProfileRepository returns an empty in-memory store.
func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{
		byOwner: make(map[string]*domain.ProfileRecord),
		byEmail: make(map[string]string),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithClock overrides the time source used for created/updated timestamps.
func (r *MemoryProfileRepository) WithClock(now func() time.Time) *MemoryProfileRepository {
	r.now = now
	return r
}

func (r *MemoryProfileRepository) Create(_ context.Context, record *domain.ProfileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.Email = domain.NormalizeEmail(record.Email)
	if _, exists := r.byOwner[record.OwnerID]; exists {
		return domain.ErrProfileExists
	}
	if _, taken := r.byEmail[record.Email]; taken {
		return domain.ErrEmailTaken
	}

	now := r.now().UTC().Truncate(time.Microsecond)
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Details == nil {
		record.Details = domain.Details{}
	}

	r.byOwner[record.OwnerID] = record.Clone()
	r.byEmail[record.Email] = record.OwnerID
	return nil
}

func (r *MemoryProfileRepository) GetByOwner(_ context.Context, ownerID string) (*domain.ProfileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return record.Clone(), nil
}

func (r *MemoryProfileRepository) GetByEmail(_ context.Context, email string) (*domain.ProfileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ownerID, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return r.byOwner[ownerID].Clone(), nil
}

func (r *MemoryProfileRepository) PatchTopLevel(_ context.Context, ownerID string, patch domain.ProfilePatch) (*domain.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}

	updated := stored.Clone()
	patch.Apply(updated)
	if updated.Email != stored.Email {
		if owner, taken := r.byEmail[updated.Email]; taken && owner != ownerID {
			return nil, domain.ErrEmailTaken
		}
		delete(r.byEmail, stored.Email)
		r.byEmail[updated.Email] = ownerID
	}
	updated.Touch(r.now())

	r.byOwner[ownerID] = updated
	return updated.Clone(), nil
}

func (r *MemoryProfileRepository) MergeDetails(_ context.Context, ownerID string, section domain.SectionKey, entries []domain.SectionEntry, mode domain.MergeMode) (*domain.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}

	merged, err := stored.Details.Merge(section, entries, mode, r.newID)
	if err != nil {
		return nil, err
	}

	updated := stored.Clone()
	updated.Details = merged
	updated.Touch(r.now())

	r.byOwner[ownerID] = updated
	return updated.Clone(), nil
}

func (r *MemoryProfileRepository) CountByRole(_ context.Context) (map[domain.Role]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.Role]int64)
	for _, record := range r.byOwner {
		counts[record.Role]++
	}
	return counts, nil
}

func (r *MemoryProfileRepository) CountWithSection(_ context.Context, section domain.SectionKey) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, record := range r.byOwner {
		if len(record.Details[section]) > 0 {
			count++
		}
	}
	return count, nil
}
