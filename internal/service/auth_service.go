package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobportal/profile-sync/internal/auth"
	"github.com/jobportal/profile-sync/internal/config"
	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/events"
	"github.com/jobportal/profile-sync/internal/observability"
	"github.com/jobportal/profile-sync/internal/repository"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

// Registration carries the fields needed to open an account.
type Registration struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
	Address     string
	Role        domain.Role
}

// AuthResult is returned by login and self-registration.
type AuthResult struct {
	Profile  *domain.ProfileRecord
	Token    string
	Identity domain.Identity
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	profiles repository.ProfileRepository
	codec    *auth.TokenCodec
	hasher   auth.PasswordHasher
	tokenTTL time.Duration
	events   events.Dispatcher
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Profiles repository.ProfileRepository
	Codec    *auth.TokenCodec
	Events   events.Dispatcher
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Events
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}
	return &AuthService{
		profiles: deps.Profiles,
		codec:    deps.Codec,
		hasher:   auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokenTTL: cfg.Auth.AccessTokenTTL(),
		events:   dispatcher,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Register opens a jobseeker or employer account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	if !reg.Role.In(domain.RoleJobSeeker, domain.RoleEmployer) {
		return nil, apperrors.NewValidationError("role must be jobseeker or employer", map[string]any{"role": reg.Role})
	}

	record, err := s.createAccount(ctx, reg, events.Actor{Role: reg.Role})
	if err != nil {
		return nil, err
	}
	return s.issue(record)
}

// RegisterByAdmin opens an account of any role on behalf of an admin. No token is issued.
func (s *AuthService) RegisterByAdmin(ctx context.Context, admin domain.Identity, reg Registration) (*domain.ProfileRecord, error) {
	if err := auth.Check(admin, auth.AdminOnly, ""); err != nil {
		return nil, err
	}
	if admin.Expired(s.now()) {
		return nil, apperrors.NewTokenExpired()
	}
	if !reg.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": reg.Role})
	}
	return s.createAccount(ctx, reg, events.ActorFrom(admin))
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	record, err := withStoreRetry(ctx, s.logger, s.metrics, "get_by_email", func() (*domain.ProfileRecord, error) {
		return s.profiles.GetByEmail(ctx, email)
	})
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, apperrors.NewBadCredentials()
	}
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !s.hasher.Matches(record.PasswordHash, password) {
		return nil, apperrors.NewBadCredentials()
	}
	return s.issue(record)
}

// EnsureBootstrapAdmin creates the configured admin account when it does not exist yet.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}

	_, err := s.createAccount(ctx, Registration{
		FirstName: "Admin",
		Email:     email,
		Password:  password,
		Role:      domain.RoleAdmin,
	}, events.Actor{Role: domain.RoleAdmin})
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("email", domain.NormalizeEmail(email)))
	return nil
}

func (s *AuthService) createAccount(ctx context.Context, reg Registration, actor events.Actor) (*domain.ProfileRecord, error) {
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	record := &domain.ProfileRecord{
		OwnerID:      uuid.NewString(),
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        reg.Email,
		PhoneNumber:  reg.PhoneNumber,
		Address:      reg.Address,
		Role:         reg.Role,
		Details:      domain.Details{},
		PasswordHash: hash,
	}
	if err := s.profiles.Create(ctx, record); err != nil {
		return nil, mapStoreError(err)
	}

	if actor.ID == "" {
		actor.ID = record.OwnerID
	}
	_ = s.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventProfileRegistered,
		OwnerID:   record.OwnerID,
		Actor:     actor,
		Timestamp: record.CreatedAt,
		Payload:   events.ProfileRegisteredPayload{Role: record.Role},
	})
	return record, nil
}

func (s *AuthService) issue(record *domain.ProfileRecord) (*AuthResult, error) {
	token, identity, err := s.codec.Issue(domain.Identity{ID: record.OwnerID, Role: record.Role}, s.tokenTTL)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{Profile: record, Token: token, Identity: identity}, nil
}
