package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spinozarabel/headstart-admission/internal/api/http/handlers"
	"github.com/spinozarabel/headstart-admission/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Webhook        *handlers.WebhookHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics)

	app.Post("/webhook/order-completed", cfg.Webhook.OrderCompleted)

	app.Post("/auth/login", cfg.Auth.Login)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)
	admin.Post("/retry/account-errors", cfg.Admin.RetryAccountErrors)
	admin.Post("/retry/order-errors", cfg.Admin.RetryOrderErrors)
}
