package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/observability"
	"github.com/jobportal/profile-sync/internal/repository"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

// withStoreRetry runs fn and repeats it once, immediately, when the store reports a
// transient failure. Any other error is returned as is.
func withStoreRetry[T any](ctx context.Context, logger *zap.Logger, metrics *observability.Metrics, op string, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil || !errors.Is(err, repository.ErrStoreUnavailable) || ctx.Err() != nil {
		return result, err
	}

	logger.Warn("store unavailable, retrying once", zap.String("op", op), zap.Error(err))
	metrics.RecordStoreRetry()
	return fn()
}

// mapStoreError translates repository and domain errors into client-facing DomainErrors
// without exposing driver detail.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var mergeErr *domain.MergeError
	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		return apperrors.NewStoreUnavailable(err)
	case errors.Is(err, domain.ErrProfileNotFound):
		return apperrors.NewNotFound("profile", nil)
	case errors.Is(err, domain.ErrEmailTaken):
		return apperrors.NewConflict("email already registered", nil)
	case errors.Is(err, domain.ErrProfileExists):
		return apperrors.NewConflict("profile already exists", nil)
	case errors.As(err, &mergeErr) && errors.Is(err, domain.ErrIndexOutOfRange):
		return apperrors.NewIndexOutOfRange(string(mergeErr.Section), mergeErr.Index, mergeErr.Length)
	case errors.As(err, &mergeErr) && errors.Is(err, domain.ErrEntryNotFound):
		return apperrors.NewEntryNotFound(string(mergeErr.Section), mergeErr.EntryID)
	case errors.Is(err, domain.ErrInvalidMerge), errors.Is(err, domain.ErrUnknownSection):
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return apperrors.NewInternalError(err)
}
