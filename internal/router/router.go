package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/revu-go-api/internal/config"
	"github.com/noah-isme/revu-go-api/internal/handler"
	"github.com/noah-isme/revu-go-api/internal/middleware"
	"github.com/noah-isme/revu-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	UserHandler       *handler.UserHandler
	CycleHandler      *handler.CycleHandler
	AssignmentHandler *handler.AssignmentHandler
	EvaluationHandler *handler.EvaluationHandler
	EmployeeHandler   *handler.EmployeeHandler
	FormHandler       *handler.FormHandler
	AuditHandler      *handler.AuditHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", jwtMiddleware))
	}

	// Cycle lifecycle and assignment management are admin surfaces;
	// evaluation routes are open to any authenticated user and guarded
	// by per-assignment role checks in the service.
	adminOnly := middleware.RequireRole("admin")

	if deps.CycleHandler != nil {
		cycles := api.Group("/cycles", jwtMiddleware)
		deps.CycleHandler.Register(cycles, adminOnly)
		if deps.AssignmentHandler != nil {
			deps.AssignmentHandler.Register(cycles, adminOnly)
		}
		if deps.EvaluationHandler != nil {
			deps.EvaluationHandler.Register(cycles)
		}
	}

	if deps.EmployeeHandler != nil {
		deps.EmployeeHandler.Register(api.Group("/employees", jwtMiddleware))
	}

	if deps.FormHandler != nil {
		deps.FormHandler.RegisterFields(api.Group("/fields", jwtMiddleware, adminOnly))
		deps.FormHandler.RegisterForms(api.Group("/forms", jwtMiddleware, adminOnly))
	}

	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(api.Group("/audit-events", jwtMiddleware, adminOnly))
	}
}
