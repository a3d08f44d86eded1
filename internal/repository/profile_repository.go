package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jobportal/profile-sync/internal/domain"
)

// ErrStoreUnavailable marks transient infrastructure failures that may succeed on retry.
var ErrStoreUnavailable = errors.New("profile store unavailable")

// ProfileRepository is keyed access to profile records. Writes against one owner are
// linearizable.
type ProfileRepository interface {
	Create(ctx context.Context, record *domain.ProfileRecord) error
	GetByOwner(ctx context.Context, ownerID string) (*domain.ProfileRecord, error)
	GetByEmail(ctx context.Context, email string) (*domain.ProfileRecord, error)
	// PatchTopLevel overwrites only the fields set in patch.
	PatchTopLevel(ctx context.Context, ownerID string, patch domain.ProfilePatch) (*domain.ProfileRecord, error)
	// MergeDetails folds entries into one section without replacing the section wholesale.
	MergeDetails(ctx context.Context, ownerID string, section domain.SectionKey, entries []domain.SectionEntry, mode domain.MergeMode) (*domain.ProfileRecord, error)
	CountByRole(ctx context.Context) (map[domain.Role]int64, error)
	// CountWithSection counts profiles whose section holds at least one entry.
	CountWithSection(ctx context.Context, section domain.SectionKey) (int64, error)
}

// pgxQuerier is the subset of pgxpool.Pool used by the Postgres repository.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const pgUniqueViolation = "23505"

// classifyError maps driver errors onto domain sentinels and ErrStoreUnavailable.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrProfileNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "profiles_email_key":
			return domain.ErrEmailTaken
		case pgErr.Code == pgUniqueViolation:
			return domain.ErrProfileExists
		case transientSQLState(pgErr.Code):
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

func transientSQLState(code string) bool {
	switch {
	case len(code) >= 2 && code[:2] == "08": // connection exception
		return true
	case code == "40001", code == "40P01": // serialization failure, deadlock
		return true
	case code == "57P01", code == "57P03": // admin shutdown, cannot connect now
		return true
	}
	return false
}
