package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type probe struct {
	name     string
	disabled string
	ping     func(context.Context) error
}

// RegisterHealthRoutes adds /healthz and the Prometheus scrape endpoint.
// Optional backends that are not configured report their fallback mode and
// never fail the check.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	probes := []probe{{name: "postgres", disabled: "in-memory"}, {name: "redis", disabled: "disabled"}}
	if d.DB != nil {
		probes[0].ping = d.DB.Ping
	}
	if d.Cache != nil {
		probes[1].ping = func(ctx context.Context) error { return d.Cache.Ping(ctx).Err() }
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := fiber.Map{}
		for _, p := range probes {
			switch {
			case p.ping == nil:
				report[p.name] = p.disabled
			case p.ping(ctx) != nil:
				report[p.name] = "unreachable"
				status = http.StatusServiceUnavailable
			default:
				report[p.name] = "ok"
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    report,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
