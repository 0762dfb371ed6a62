package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/employee-directory/internal/api/http/handlers"
	"github.com/spec-kit/employee-directory/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Employees *handlers.EmployeesHandler
	Metrics   *observability.Metrics
	// SeedFile, when set, is served at /employees.json.
	SeedFile string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	if cfg.SeedFile != "" {
		app.Static("/employees.json", cfg.SeedFile)
	}

	employees := app.Group("/employees")
	employees.Get("/", cfg.Employees.ListEmployees)
	employees.Post("/", cfg.Employees.AddEmployee)
	employees.Get("/search", cfg.Employees.SearchEmployees)
	employees.Post("/sort", cfg.Employees.SortEmployees)
	employees.Post("/refresh", cfg.Employees.RefreshEmployees)
}
