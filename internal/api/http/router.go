package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Lookups *handlers.LookupsHandler
}

// NewApp builds the fiber app with the shared middleware chain.
func NewApp(appName string, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, metrics),
	})
	RegisterMiddlewares(app, logger, metrics, timeout)
	return app
}

// RegisterRoutes wires HTTP routes. Static ticket sub-paths are registered
// before the :id routes so they are not captured as ids.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	tickets := app.Group("/api/tickets")
	tickets.Get("/priorities", cfg.Lookups.Priorities)
	tickets.Get("/types", cfg.Lookups.TicketTypes)
	tickets.Get("/statuses", cfg.Lookups.Statuses)
	tickets.Get("/environments", cfg.Lookups.Environments)
	tickets.Post("/reply", cfg.Tickets.AddReply)

	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/events", cfg.Tickets.ListTicketEvents)
}
