package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobportal/profile-sync/internal/api/http/handlers"
	"github.com/jobportal/profile-sync/internal/auth"
	"github.com/jobportal/profile-sync/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	BasePath string
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Profile  *handlers.ProfileHandler
	Admin    *handlers.AdminHandler
	Gate     *auth.Gate
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if registry := cfg.Metrics.Registry(); registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := app.Group(cfg.BasePath)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	profile := api.Group("/profile")
	profile.Get("/details", cfg.Gate.Require(auth.OwnerOrAdmin), cfg.Profile.GetDetails)
	profile.Get("/email-details", cfg.Gate.Require(auth.Authenticated), cfg.Profile.GetByEmail)
	profile.Patch("/update-user", cfg.Gate.Require(auth.OwnerOrAdmin), cfg.Profile.UpdateUser)
	profile.Post("/add-details", cfg.Gate.Require(auth.OwnerOrAdmin), cfg.Profile.AddDetails)
	profile.Patch("/update-details", cfg.Gate.Require(auth.OwnerOrAdmin), cfg.Profile.UpdateDetails)

	admin := api.Group("/admin", cfg.Gate.Require(auth.AdminOnly))
	admin.Post("/register", cfg.Admin.Register)
	admin.Get("/dashboard", cfg.Admin.Dashboard)
}
