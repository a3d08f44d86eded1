package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jobportal/profile-sync/internal/domain"
)

const profileColumns = `owner_id, email, password_hash, first_name, last_name, phone_number, address, role, details, created_at, updated_at`

type postgresProfileRepository struct {
	pool  pgxQuerier
	now   func() time.Time
	newID func() string
}

// NewPostgresProfileRepository returns a Postgres-backed implementation. Details are
// stored as a JSONB document per owner.
func NewPostgresProfileRepository(pool pgxQuerier) ProfileRepository {
	return &postgresProfileRepository{pool: pool, now: time.Now, newID: uuid.NewString}
}

func (r *postgresProfileRepository) Create(ctx context.Context, record *domain.ProfileRecord) error {
	const query = `
        INSERT INTO profiles (` + profileColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	now := r.now().UTC().Truncate(time.Microsecond)
	record.Email = domain.NormalizeEmail(record.Email)
	if record.Details == nil {
		record.Details = domain.Details{}
	}
	record.CreatedAt = now
	record.UpdatedAt = now

	details, err := json.Marshal(record.Details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		record.OwnerID,
		record.Email,
		record.PasswordHash,
		record.FirstName,
		record.LastName,
		record.PhoneNumber,
		record.Address,
		record.Role,
		details,
		record.CreatedAt,
		record.UpdatedAt,
	)
	return classifyError(err)
}

func (r *postgresProfileRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.ProfileRecord, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE owner_id = $1`

	record, err := scanProfile(r.pool.QueryRow(ctx, query, ownerID))
	if err != nil {
		return nil, classifyError(err)
	}
	return record, nil
}

func (r *postgresProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.ProfileRecord, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`

	record, err := scanProfile(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		return nil, classifyError(err)
	}
	return record, nil
}

// PatchTopLevel is a single UPDATE so the row lock is held only for the statement. NULL
// parameters keep the current column value.
func (r *postgresProfileRepository) PatchTopLevel(ctx context.Context, ownerID string, patch domain.ProfilePatch) (*domain.ProfileRecord, error) {
	const query = `
        UPDATE profiles SET
            first_name   = COALESCE($2, first_name),
            last_name    = COALESCE($3, last_name),
            email        = COALESCE($4, email),
            phone_number = COALESCE($5, phone_number),
            address      = COALESCE($6, address),
            updated_at   = GREATEST($7::timestamptz, updated_at + INTERVAL '1 microsecond')
        WHERE owner_id = $1
        RETURNING ` + profileColumns

	var email *string
	if patch.Email != nil {
		normalized := domain.NormalizeEmail(*patch.Email)
		email = &normalized
	}

	record, err := scanProfile(r.pool.QueryRow(ctx, query,
		ownerID,
		patch.FirstName,
		patch.LastName,
		email,
		patch.PhoneNumber,
		patch.Address,
		r.now().UTC().Truncate(time.Microsecond),
	))
	if err != nil {
		return nil, classifyError(err)
	}
	return record, nil
}

// MergeDetails locks the owner's row, merges in Go and writes the section back in the
// same transaction, so concurrent merges on one owner serialize.
func (r *postgresProfileRepository) MergeDetails(ctx context.Context, ownerID string, section domain.SectionKey, entries []domain.SectionEntry, mode domain.MergeMode) (_ *domain.ProfileRecord, err error) {
	const (
		selectQuery = `SELECT ` + profileColumns + ` FROM profiles WHERE owner_id = $1 FOR UPDATE`
		updateQuery = `UPDATE profiles SET details = $2, updated_at = $3 WHERE owner_id = $1`
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, classifyError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	record, err := scanProfile(tx.QueryRow(ctx, selectQuery, ownerID))
	if err != nil {
		return nil, classifyError(err)
	}

	merged, err := record.Details.Merge(section, entries, mode, r.newID)
	if err != nil {
		return nil, err
	}
	record.Details = merged
	record.Touch(r.now())

	payload, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	if _, err = tx.Exec(ctx, updateQuery, ownerID, payload, record.UpdatedAt); err != nil {
		return nil, classifyError(err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, classifyError(err)
	}
	return record, nil
}

func (r *postgresProfileRepository) CountByRole(ctx context.Context) (map[domain.Role]int64, error) {
	const query = `SELECT role, COUNT(*) FROM profiles GROUP BY role`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	counts := make(map[domain.Role]int64)
	for rows.Next() {
		var (
			role  domain.Role
			count int64
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, classifyError(err)
		}
		counts[role] = count
	}
	return counts, classifyError(rows.Err())
}

func (r *postgresProfileRepository) CountWithSection(ctx context.Context, section domain.SectionKey) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM profiles
        WHERE jsonb_array_length(COALESCE(details -> $1::text, '[]'::jsonb)) > 0`

	var count int64
	if err := r.pool.QueryRow(ctx, query, string(section)).Scan(&count); err != nil {
		return 0, classifyError(err)
	}
	return count, nil
}

func scanProfile(row pgx.Row) (*domain.ProfileRecord, error) {
	var (
		record  domain.ProfileRecord
		details []byte
	)
	if err := row.Scan(
		&record.OwnerID,
		&record.Email,
		&record.PasswordHash,
		&record.FirstName,
		&record.LastName,
		&record.PhoneNumber,
		&record.Address,
		&record.Role,
		&details,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	record.Details = domain.Details{}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &record.Details); err != nil {
			return nil, fmt.Errorf("decode details for %s: %w", record.OwnerID, err)
		}
	}
	return &record, nil
}
