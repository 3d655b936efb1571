package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostres/internal/api/http/handlers"
	"github.com/spec-kit/hostres/internal/auth"
	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Issues      *handlers.IssuesHandler
	Gate        *auth.Gate
	RateLimiter *RateLimiter
	Metrics     *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/", cfg.Auth.CheckToken)
	authGroup.Post("/register", cfg.RateLimiter.Handler("auth"), cfg.Auth.Register)
	authGroup.Post("/login", cfg.RateLimiter.Handler("auth"), cfg.Auth.Login)
	authGroup.Post("/getUser", cfg.Auth.GetUser)

	issues := app.Group("/issues", cfg.Gate.Handle)
	issues.Get("/", cfg.Issues.ListIssues)
	issues.Post("/", auth.RequireRole(domain.RoleStudent), cfg.Issues.CreateIssue)
	issues.Get("/:id", cfg.Issues.GetIssue)
	issues.Patch("/:id", cfg.Issues.UpdateIssue)
	issues.Delete("/:id", cfg.Issues.DeleteIssue)
	issues.Post("/:id/upvote", cfg.Issues.UpvoteIssue)
	issues.Get("/:id/history", cfg.Issues.IssueHistory)
}
