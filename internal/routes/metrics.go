package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chaincred/chaincred/internal/metrics"
)

// RegisterMetricsRoute exposes the Prometheus scrape endpoint.
func RegisterMetricsRoute(app *fiber.App, m *metrics.Metrics) {
	handler := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	app.Get("/metrics", adaptor.HTTPHandler(handler))
}
