package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-chat/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-chat/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	System         *handlers.SystemHandler
	Health         *handlers.HealthHandler
	Chat           *handlers.ChatHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.System.Root)
	app.Get("/metrics", cfg.System.Metrics)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authed := app.Group("", cfg.AuthMiddleware.Handle)
	authed.Post("/chat", cfg.Chat.Chat)
	authed.Get("/chat/history/:session_id", cfg.Chat.History)
	authed.Get("/tickets", cfg.Tickets.ListTickets)
	authed.Get("/tickets/:key", cfg.Tickets.GetTicket)
}
