// Package health exposes the liveness endpoint and the Prometheus metrics
// endpoint. Both are served before the access gate so load balancers and
// scrapers keep working in every access mode, maintenance included.
package health

import (
	"sync/atomic"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Path is the path of the liveness endpoint.
const Path = "/healthz"

// MetricsPath is the path of the Prometheus metrics endpoint.
const MetricsPath = "/metrics"

// Service is the health handler service.
type Service struct {
	alive *atomic.Bool
}

// Handler is the health handler.
var Handler = Service{}

// Init initializes the health handler. alive flips to false during graceful
// shutdown so the load balancer drains this instance.
func (s *Service) Init(app *fiber.App, alive *atomic.Bool) {
	s.alive = alive

	app.Get(Path, s.Get)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
}

// Get reports liveness.
func (s *Service) Get(c *fiber.Ctx) error {
	if s.alive != nil && !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "shutting down"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
