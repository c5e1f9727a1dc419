// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/roamio/audio-tour-api/internal/config"
	"github.com/roamio/audio-tour-api/internal/handler"
	"github.com/roamio/audio-tour-api/internal/middleware"
)

// RegisterRoutes registers routes that live outside /api. Currently only
// the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the /api surface. rdb may be nil, in which case
// rate limiting and response caching are disabled.
func RegisterAPI(e *echo.Echo, cfg config.Config, rdb *redis.Client,
	ah *handler.AuthHandler, lh *handler.LocationHandler, uh *handler.UserHandler) {

	required := middleware.RequireAuth(cfg.JWTSecret)
	optional := middleware.OptionalAuth(cfg.JWTSecret)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	api := e.Group("/api")
	api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Auth: register/login are open, the rest need a valid token.
	authG := api.Group("/auth")
	authG.POST("/register", ah.Register)
	authG.POST("/login", ah.Login)
	authG.GET("/me", ah.Me, required)
	authG.PUT("/profile", ah.UpdateProfile, required)
	authG.PUT("/change-password", ah.ChangePassword, required)

	// Locations: reads are public with an optional identity; writes need
	// a token. The static stats route is registered ahead of /:id so
	// "stats" can never be taken for a location id.
	loc := api.Group("/locations")
	loc.GET("/stats/overview", lh.Overview, optional, cache)
	loc.GET("", lh.List, optional, cache)
	loc.GET("/:id", lh.Get, optional)
	loc.POST("", lh.Create, required)
	loc.PUT("/:id", lh.Update, required)
	loc.DELETE("/:id", lh.Delete, required)

	// Per-user resources, all behind a required identity.
	users := api.Group("/users", required)
	users.GET("/favorites", uh.ListFavorites)
	users.POST("/favorites/:locationID", uh.AddFavorite)
	users.DELETE("/favorites/:locationID", uh.RemoveFavorite)
	users.GET("/progress", uh.ListProgress)
	users.PUT("/progress/:locationID", uh.UpsertProgress)
	users.PUT("/subscription", uh.UpdateSubscription)
	users.GET("/stats", uh.Stats)
}
