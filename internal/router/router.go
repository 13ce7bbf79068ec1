package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buspass-vn/buspass-go-api/internal/config"
	"github.com/buspass-vn/buspass-go-api/internal/handler"
	"github.com/buspass-vn/buspass-go-api/internal/middleware"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AccountHandler      *handler.AccountHandler
	EnrollmentHandler   *handler.EnrollmentHandler
	ClassHandler        *handler.ClassHandler
	NotificationHandler *handler.NotificationHandler
	SwipeHandler        *handler.SwipeHandler
	ActivityHandler     *handler.ActivityHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public surface: login and the reader ingestion endpoint.
	if deps.AccountHandler != nil {
		auth := api.Group("/auth")
		auth.Post("/login",
			middleware.RateLimit("login", cfg.LoginRateMax, cfg.LoginRateWindow),
			deps.AccountHandler.Login)
	}
	if deps.SwipeHandler != nil {
		deps.SwipeHandler.RegisterIngest(api.Group("/ingest"))
	}

	protected := api.Group("/", jwtMiddleware)

	if deps.AccountHandler != nil {
		protected.Get("/accounts/me", deps.AccountHandler.Me)

		accounts := protected.Group("/accounts", middleware.RequireRole(models.RoleAdmin))
		deps.AccountHandler.Register(accounts)
	}

	if deps.EnrollmentHandler != nil {
		enrollment := protected.Group("/enrollment", middleware.RequireRole(models.RoleAdmin))
		deps.EnrollmentHandler.Register(enrollment)
	}

	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(protected)
	}

	if deps.NotificationHandler != nil {
		notifications := protected.Group("/notifications")
		deps.NotificationHandler.Register(notifications)
	}

	if deps.SwipeHandler != nil {
		deps.SwipeHandler.Register(protected)
	}

	if deps.ActivityHandler != nil {
		activity := protected.Group("/activity", middleware.RequireRole(models.RoleAdmin))
		deps.ActivityHandler.Register(activity)
	}
}
