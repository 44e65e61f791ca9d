package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/api/http/handlers"
	"github.com/northwind-commerce/storefront-service/internal/auth"
	"github.com/northwind-commerce/storefront-service/internal/domain"
	"github.com/northwind-commerce/storefront-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Auth              *handlers.AuthHandler
	Impersonation     *handlers.ImpersonationHandler
	Pages             *handlers.PagesHandler
	SessionMiddleware *auth.SessionMiddleware
	Guard             auth.GuardConfig
	Limiter           *ratelimit.Limiter
	Logger            *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Use(cfg.SessionMiddleware.Handle)
	app.Use(auth.RouteGuard(cfg.Guard))

	limit := func(route string) fiber.Handler {
		return rateLimitMiddleware(cfg.Limiter, route, cfg.Logger)
	}
	requireAdmin := auth.Require(auth.Capability{Role: domain.RoleAdmin})

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/impersonate/session", cfg.Impersonation.Session)
	authGroup.Post("/impersonate/stop", cfg.Impersonation.Stop)

	admin := api.Group("/admin")
	admin.Get("/impersonate", auth.Require(auth.Capability{}), cfg.Impersonation.Permission)
	admin.Post("/impersonate", requireAdmin, limit("impersonate_issue"), cfg.Impersonation.Issue)
	admin.Get("/impersonate/audit", requireAdmin, cfg.Impersonation.Audit)

	app.Get("/auth/impersonate/:token", limit("impersonate_exchange"), cfg.Impersonation.Exchange)

	app.Get("/", cfg.Pages.Render("home"))
	app.Get("/login", cfg.Pages.Render("login"))
	app.Get("/signup", cfg.Pages.Render("signup"))
	app.Get("/account", cfg.Pages.Render("account"))
	app.Get("/admin/dashboard", cfg.Pages.Render("admin-dashboard"))
	app.Get("/admin/customers", cfg.Pages.Render("admin-customers"))
}
