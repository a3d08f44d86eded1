package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jobportal/profile-sync/internal/auth"
	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/observability"
	"github.com/jobportal/profile-sync/internal/repository"
)

// DashboardService serves admin aggregates through a read-through cache.
type DashboardService struct {
	profiles repository.ProfileRepository
	cache    repository.StatsCache
	ttl      time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	Profiles repository.ProfileRepository
	Cache    repository.StatsCache
	TTL      time.Duration
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewDashboardService constructs the service. A nil cache disables caching.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	cache := deps.Cache
	if cache == nil {
		cache = repository.NewRedisStatsCache(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		profiles: deps.Profiles,
		cache:    cache,
		ttl:      deps.TTL,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Stats returns per-role totals and the number of jobseekers with a resume. Cache failures fall back to the store.
func (s *DashboardService) Stats(ctx context.Context, caller domain.Identity) (domain.DashboardStats, error) {
	if err := auth.Check(caller, auth.AdminOnly, ""); err != nil {
		return domain.DashboardStats{}, err
	}

	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}
	if ok {
		return *cached, nil
	}

	counts, err := withStoreRetry(ctx, s.logger, s.metrics, "count_by_role", func() (map[domain.Role]int64, error) {
		return s.profiles.CountByRole(ctx)
	})
	if err != nil {
		return domain.DashboardStats{}, mapStoreError(err)
	}
	resumes, err := withStoreRetry(ctx, s.logger, s.metrics, "count_resumes", func() (int64, error) {
		return s.profiles.CountWithSection(ctx, domain.SectionResume)
	})
	if err != nil {
		return domain.DashboardStats{}, mapStoreError(err)
	}

	stats := domain.StatsFromCounts(counts, resumes)
	if s.ttl > 0 {
		if err := s.cache.Set(ctx, stats, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// Invalidate drops cached aggregates, typically after a registration.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
