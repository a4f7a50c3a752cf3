package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/parking-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Parking *handlers.ParkingHandler
	// Metrics is optional; /metrics is not mounted without it.
	Metrics *prometheus.Registry
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{})))
	}

	parking := app.Group("/api/v1/parking")
	parking.Post("/vehicles", cfg.Parking.ParkVehicle)
	parking.Get("/vehicles/:number/sessions", cfg.Parking.VehicleSessions)
	parking.Get("/slots", cfg.Parking.ListSlots)
	parking.Get("/tokens/:token", cfg.Parking.GetToken)
	parking.Delete("/tokens/:token", cfg.Parking.ReleaseToken)
}
