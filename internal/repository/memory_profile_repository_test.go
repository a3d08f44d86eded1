package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/profile-sync/internal/domain"
)

func skillEntry(name, level string) domain.SectionEntry {
	return domain.SectionEntry{Fields: map[string]string{"skillName": name, "proficiency": level}}
}

func seededMemoryRepo(t *testing.T, skills ...domain.SectionEntry) *MemoryProfileRepository {
	t.Helper()
	repo := NewMemoryProfileRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.ProfileRecord{
		OwnerID:   "u1",
		Email:     "u1@example.com",
		FirstName: "Uma",
		LastName:  "One",
		Role:      domain.RoleJobSeeker,
	}))
	if len(skills) > 0 {
		_, err := repo.MergeDetails(ctx, "u1", domain.SectionSkills, skills, domain.Append())
		require.NoError(t, err)
	}
	return repo
}

func TestMemoryRepository_CreateUniqueness(t *testing.T) {
	repo := seededMemoryRepo(t)
	ctx := context.Background()

	err := repo.Create(ctx, &domain.ProfileRecord{OwnerID: "u1", Email: "other@example.com", Role: domain.RoleJobSeeker})
	assert.True(t, errors.Is(err, domain.ErrProfileExists))

	err = repo.Create(ctx, &domain.ProfileRecord{OwnerID: "u2", Email: " U1@Example.com", Role: domain.RoleJobSeeker})
	assert.True(t, errors.Is(err, domain.ErrEmailTaken))
}

func TestMemoryRepository_GetByOwnerAndEmail(t *testing.T) {
	repo := seededMemoryRepo(t)
	ctx := context.Background()

	byOwner, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	byEmail, err := repo.GetByEmail(ctx, "U1@example.com")
	require.NoError(t, err)
	assert.Equal(t, byOwner, byEmail)

	_, err = repo.GetByOwner(ctx, "nobody")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))
}

func TestMemoryRepository_ReturnedRecordsAreCopies(t *testing.T) {
	repo := seededMemoryRepo(t, skillEntry("Go", "Intermediate"))
	ctx := context.Background()

	first, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	first.FirstName = "mutated"
	first.Details[domain.SectionSkills][0].Fields["proficiency"] = "mutated"

	second, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Uma", second.FirstName)
	assert.Equal(t, "Intermediate", second.Details[domain.SectionSkills][0].Fields["proficiency"])
}

func TestMemoryRepository_PatchTopLevelIsPartial(t *testing.T) {
	repo := seededMemoryRepo(t, skillEntry("Go", "Intermediate"))
	ctx := context.Background()
	before, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)

	phone := "+4912345"
	after, err := repo.PatchTopLevel(ctx, "u1", domain.ProfilePatch{PhoneNumber: &phone})
	require.NoError(t, err)

	assert.Equal(t, phone, after.PhoneNumber)
	assert.Equal(t, before.FirstName, after.FirstName)
	assert.Equal(t, before.LastName, after.LastName)
	assert.Equal(t, before.Email, after.Email)
	assert.Equal(t, before.Details, after.Details)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	_, err = repo.PatchTopLevel(ctx, "ghost", domain.ProfilePatch{PhoneNumber: &phone})
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))
}

func TestMemoryRepository_PatchEmailUniqueness(t *testing.T) {
	repo := seededMemoryRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.ProfileRecord{OwnerID: "u2", Email: "u2@example.com", Role: domain.RoleEmployer}))

	taken := "u2@example.com"
	_, err := repo.PatchTopLevel(ctx, "u1", domain.ProfilePatch{Email: &taken})
	assert.True(t, errors.Is(err, domain.ErrEmailTaken))

	fresh := "new@example.com"
	_, err = repo.PatchTopLevel(ctx, "u1", domain.ProfilePatch{Email: &fresh})
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)
	_, err = repo.GetByEmail(ctx, "u1@example.com")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))
}

func TestMemoryRepository_ReplaceAtScenario(t *testing.T) {
	repo := seededMemoryRepo(t, skillEntry("Go", "Intermediate"))
	ctx := context.Background()
	before, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)

	_, err = repo.MergeDetails(ctx, "u1", domain.SectionSkills, []domain.SectionEntry{skillEntry("Go", "Expert")}, domain.ReplaceAt(0))
	require.NoError(t, err)

	after, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, after.Details[domain.SectionSkills], 1)
	assert.Equal(t, "Expert", after.Details[domain.SectionSkills][0].Fields["proficiency"])
	assert.Equal(t, before.Details[domain.SectionSkills][0].ID, after.Details[domain.SectionSkills][0].ID)
}

func TestMemoryRepository_MergeErrors(t *testing.T) {
	repo := seededMemoryRepo(t, skillEntry("Go", "Intermediate"))
	ctx := context.Background()

	_, err := repo.MergeDetails(ctx, "u1", domain.SectionSkills, []domain.SectionEntry{skillEntry("x", "y")}, domain.ReplaceAt(1))
	assert.True(t, errors.Is(err, domain.ErrIndexOutOfRange))

	_, err = repo.MergeDetails(ctx, "ghost", domain.SectionSkills, []domain.SectionEntry{skillEntry("x", "y")}, domain.Append())
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))

	after, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, after.Details[domain.SectionSkills], 1)
}

func TestMemoryRepository_EveryWriteAdvancesUpdatedAt(t *testing.T) {
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryProfileRepository().WithClock(func() time.Time { return frozen })
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.ProfileRecord{OwnerID: "u1", Email: "a@b.c", Role: domain.RoleJobSeeker}))

	last := frozen
	for i := 0; i < 5; i++ {
		var (
			record *domain.ProfileRecord
			err    error
		)
		if i%2 == 0 {
			name := fmt.Sprintf("n%d", i)
			record, err = repo.PatchTopLevel(ctx, "u1", domain.ProfilePatch{FirstName: &name})
		} else {
			record, err = repo.MergeDetails(ctx, "u1", domain.SectionSkills, []domain.SectionEntry{skillEntry("Go", "x")}, domain.Append())
		}
		require.NoError(t, err)
		assert.True(t, record.UpdatedAt.After(last), "write %d did not advance updatedAt", i)
		last = record.UpdatedAt
	}
}

func TestMemoryRepository_ConcurrentReplacesAtDifferentIndices(t *testing.T) {
	const n = 16
	seed := make([]domain.SectionEntry, n)
	for i := range seed {
		seed[i] = skillEntry(fmt.Sprintf("skill-%d", i), "Beginner")
	}
	repo := seededMemoryRepo(t, seed...)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, err := repo.MergeDetails(ctx, "u1", domain.SectionSkills,
				[]domain.SectionEntry{skillEntry(fmt.Sprintf("skill-%d", index), "Expert")}, domain.ReplaceAt(index))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	after, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, after.Details[domain.SectionSkills], n)
	for i, entry := range after.Details[domain.SectionSkills] {
		assert.Equal(t, fmt.Sprintf("skill-%d", i), entry.Fields["skillName"])
		assert.Equal(t, "Expert", entry.Fields["proficiency"], "index %d lost its update", i)
	}
}

func TestMemoryRepository_ConcurrentAppendsAllSurvive(t *testing.T) {
	repo := seededMemoryRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.MergeDetails(ctx, "u1", domain.SectionSkills,
				[]domain.SectionEntry{skillEntry(fmt.Sprintf("s%d", i), "x")}, domain.Append())
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	after, err := repo.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, after.Details[domain.SectionSkills], 20)

	ids := map[string]struct{}{}
	for _, entry := range after.Details[domain.SectionSkills] {
		ids[entry.ID] = struct{}{}
	}
	assert.Len(t, ids, 20)
}

func TestMemoryRepository_CountWithSection(t *testing.T) {
	repo := seededMemoryRepo(t, domain.SectionEntry{Fields: map[string]string{"skillName": "Go"}})
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.ProfileRecord{OwnerID: "u2", Email: "u2@x.io", Role: domain.RoleJobSeeker}))

	count, err := repo.CountWithSection(ctx, domain.SectionResume)
	require.NoError(t, err)
	assert.Zero(t, count)

	resume := domain.SectionEntry{Fields: map[string]string{"title": "CV", "fileUrl": "https://x.io/cv.pdf"}}
	for _, owner := range []string{"u1", "u2"} {
		_, err = repo.MergeDetails(ctx, owner, domain.SectionResume, []domain.SectionEntry{resume}, domain.Append())
		require.NoError(t, err)
	}
	_, err = repo.MergeDetails(ctx, "u2", domain.SectionResume, []domain.SectionEntry{resume}, domain.Append())
	require.NoError(t, err)

	count, err = repo.CountWithSection(ctx, domain.SectionResume)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "profiles, not entries")

	count, err = repo.CountWithSection(ctx, domain.SectionSkills)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMemoryRepository_CountByRole(t *testing.T) {
	repo := seededMemoryRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.ProfileRecord{OwnerID: "e1", Email: "e1@x.io", Role: domain.RoleEmployer}))
	require.NoError(t, repo.Create(ctx, &domain.ProfileRecord{OwnerID: "a1", Email: "a1@x.io", Role: domain.RoleAdmin}))

	counts, err := repo.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Role]int64{domain.RoleJobSeeker: 1, domain.RoleEmployer: 1, domain.RoleAdmin: 1}, counts)
}
