// Package router registers the HTTP routes and wires request validation.
package router

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/superc/price-alert/internal/auth"
	"github.com/superc/price-alert/internal/config"
	"github.com/superc/price-alert/internal/handler"
	"github.com/superc/price-alert/internal/middleware"
	"github.com/superc/price-alert/internal/model"
	"github.com/superc/price-alert/internal/repository"
)

// requestValidator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound DTOs.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Register sets up validation, the authentication middleware and every route.
// The authentication middleware runs on all /api routes and only resolves a
// principal; the per-group guards decide who gets in. Middleware configs are
// loaded by the caller so the route table itself reads no environment.
func Register(e *echo.Echo, issuer *auth.Issuer,
	users *repository.UserRepo,
	ah *handler.AuthHandler, th *handler.TrackingHandler, ph *handler.ProductHandler,
	rdb *redis.Client, rlCfg config.RateLimitConfig, cacheCfg config.CacheConfig) {

	e.Validator = &requestValidator{validate: validator.New()}

	e.GET("/healthz", handler.Health)

	api := e.Group("/api")
	api.Use(middleware.Authenticate(issuer, users))

	// Credential endpoints: open, but rate limited against brute force.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(rlCfg, rdb))
	authGroup.POST("/register", ah.Register)
	authGroup.POST("/login", ah.Login)
	authGroup.POST("/refresh", ah.RefreshTokens)
	authGroup.POST("/logout", ah.Logout)
	authGroup.POST("/forgot-password", ah.ForgotPassword)
	authGroup.POST("/reset-password", ah.ResetPassword)

	// Public catalog search, cached.
	api.GET("/products/search", ph.Search, middleware.CacheGET(cacheCfg, rdb))

	// Any authenticated principal.
	me := api.Group("", middleware.RequireAuthenticated())
	me.GET("/me", ah.Me)
	me.GET("/dashboard", th.Dashboard)

	tracking := api.Group("/tracking", middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	tracking.POST("", th.Create)
	tracking.GET("", th.List)
	tracking.DELETE("/:id", th.Delete)

	admin := api.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/tracking", th.ListAll)
}
