package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobportal/profile-sync/internal/api/http/handlers"
	"github.com/jobportal/profile-sync/internal/auth"
	"github.com/jobportal/profile-sync/internal/config"
	"github.com/jobportal/profile-sync/internal/events"
	"github.com/jobportal/profile-sync/internal/observability"
	"github.com/jobportal/profile-sync/internal/repository"
	"github.com/jobportal/profile-sync/internal/service"
	"github.com/jobportal/profile-sync/internal/worker"
)

// ServerDependencies are the infrastructure pieces the HTTP server is built from.
type ServerDependencies struct {
	Config     config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Profiles   repository.ProfileRepository
	StatsCache repository.StatsCache
	Health     map[string]handlers.Dependency
}

// Server is the assembled application.
type Server struct {
	App       *fiber.App
	Auth      *service.AuthService
	Profiles  *service.ProfileService
	Dashboard *service.DashboardService
	Codec     *auth.TokenCodec
}

// NewServer wires services, handlers and routes onto a new fiber app.
func NewServer(deps ServerDependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config

	dispatcher := events.NewInMemoryDispatcher(logger)
	codec := auth.NewTokenCodec(cfg.Auth.JWTSecret)
	gate := auth.NewGate(codec, deps.Metrics)

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		Profiles: deps.Profiles,
		Codec:    codec,
		Events:   dispatcher,
		Metrics:  deps.Metrics,
		Logger:   logger,
	})
	profileService := service.NewProfileService(service.ProfileDependencies{
		Profiles: deps.Profiles,
		Events:   dispatcher,
		Metrics:  deps.Metrics,
		Logger:   logger,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		Profiles: deps.Profiles,
		Cache:    deps.StatsCache,
		TTL:      cfg.Dashboard.CacheTTL(),
		Metrics:  deps.Metrics,
		Logger:   logger,
	})
	worker.StartProfileEventWorker(dispatcher, dashboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, cfg.App.RequestTimeout())
	RegisterRoutes(app, RouteConfig{
		BasePath: cfg.App.BasePath,
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Health),
		Auth:     handlers.NewAuthHandler(authService),
		Profile:  handlers.NewProfileHandler(profileService),
		Admin:    handlers.NewAdminHandler(authService, dashboardService),
		Gate:     gate,
		Metrics:  deps.Metrics,
	})

	return &Server{
		App:       app,
		Auth:      authService,
		Profiles:  profileService,
		Dashboard: dashboardService,
		Codec:     codec,
	}
}
