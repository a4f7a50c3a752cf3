package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

const dependencyDisabled = "disabled"

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName  string
	version      string
	dependencies map[string]dependency
}

type dependency struct {
	pinger   Pinger
	disabled error
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, dependencies: map[string]dependency{}}
}

// WithDependency registers a readiness check. A Ping error matching disabled
// is reported as "disabled" and does not fail readiness.
func (h *HealthHandler) WithDependency(name string, pinger Pinger, disabled error) *HealthHandler {
	h.dependencies[name] = dependency{pinger: pinger, disabled: disabled}
	return h
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	for name, dep := range h.dependencies {
		err := dep.pinger.Ping(ctx)
		switch {
		case err == nil:
			depStatus[name] = "ok"
		case dep.disabled != nil && errors.Is(err, dep.disabled):
			depStatus[name] = dependencyDisabled
		default:
			depStatus[name] = err.Error()
			ready = false
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
