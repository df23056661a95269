package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lfpl47/hiring-data-service/internal/api/http/handlers"
	"github.com/lfpl47/hiring-data-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Ingest         *handlers.IngestHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Ingestion writes require a bearer token
// with the ingest role; metrics reads are open.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	ingestGroup := api.Group("/ingest", cfg.AuthMiddleware.Handle, auth.RequireRole(auth.RoleIngest))
	ingestGroup.Post("/", cfg.Ingest.IngestAll)
	ingestGroup.Post("/:table", cfg.Ingest.IngestTable)

	metricsGroup := api.Group("/metrics")
	metricsGroup.Get("/hired_by_quarter", cfg.Metrics.HiredByQuarter)
	metricsGroup.Get("/departments_above_mean", cfg.Metrics.DepartmentsAboveMean)
}
