package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/elise-dlc/evalio-api/internal/config"
	"github.com/elise-dlc/evalio-api/internal/handler"
	"github.com/elise-dlc/evalio-api/internal/middleware"
	"github.com/elise-dlc/evalio-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	PromotionHandler  *handler.PromotionHandler
	GroupHandler      *handler.GroupHandler
	SubGroupHandler   *handler.SubGroupHandler
	StudentHandler    *handler.StudentHandler
	FormHandler       *handler.FormHandler
	EvaluationHandler *handler.EvaluationHandler
	StatsHandler      *handler.StatsHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	professorOnly := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleProfessor)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	if deps.PromotionHandler != nil {
		deps.PromotionHandler.Register(api.Group("/promotions", jwtMiddleware), adminOnly)
	}
	if deps.GroupHandler != nil {
		deps.GroupHandler.Register(api.Group("/groups", jwtMiddleware), adminOnly)
	}
	if deps.SubGroupHandler != nil {
		deps.SubGroupHandler.Register(api.Group("/subgroups", jwtMiddleware), adminOnly)
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware), adminOnly)
	}
	if deps.FormHandler != nil {
		deps.FormHandler.Register(api.Group("/forms", jwtMiddleware, professorOnly))
	}
	if deps.EvaluationHandler != nil {
		evaluations := api.Group("/evaluations", jwtMiddleware, professorOnly)
		evaluations.Use("/bulk", middleware.RateLimit("evaluations_bulk", 10, time.Minute))
		deps.EvaluationHandler.Register(evaluations, adminOnly)
	}
	if deps.StatsHandler != nil {
		deps.StatsHandler.Register(api.Group("/stats", jwtMiddleware))
	}
}
