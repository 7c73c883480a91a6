// Package router wires handlers, auth guards and the Redis middleware onto
// the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/wanderio/tourhub/internal/config"
	"github.com/wanderio/tourhub/internal/handler"
	"github.com/wanderio/tourhub/internal/middleware"
	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/repository"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Tours    *handler.TourHandler
	Reviews  *handler.ReviewHandler
	Bookings *handler.BookingHandler
}

// Register mounts all routes. The /api group carries the rate limiter; the
// public tour listing additionally sits behind the response cache.
func Register(e *echo.Echo, h Handlers, cfg config.Config, userStore repository.UserStore, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	protect := middleware.Protect(cfg.JWTSecret, userStore)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	api := e.Group("/api")
	// Identity is resolved before the limiter so logged-in traffic gets
	// per-user buckets; Protect later enforces it where required.
	api.Use(middleware.OptionalAuth(cfg.JWTSecret, userStore))
	api.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	// users
	users := api.Group("/v1/users")
	users.POST("/signup", h.Auth.SignUp)
	users.POST("/login", h.Auth.Login)
	users.GET("/logout", h.Auth.Logout)
	users.POST("/forgotPassword", h.Auth.ForgotPassword)
	users.PATCH("/resetPassword/:token", h.Auth.ResetPassword)

	users.PATCH("/updateMyPassword", h.Auth.UpdatePassword, protect)
	users.GET("/me", h.Users.GetMe, protect)
	users.PATCH("/updateMe", h.Users.UpdateMe, protect)
	users.DELETE("/deleteMe", h.Users.DeleteMe, protect)

	users.GET("", h.Users.List, protect, adminOnly)
	users.GET("/:id", h.Users.Get, protect, adminOnly)
	users.PATCH("/:id", h.Users.UpdateRole, protect, adminOnly)
	users.DELETE("/:id", h.Users.Delete, protect, adminOnly)

	// tours
	tours := api.Group("/v1/tours")
	tours.GET("", h.Tours.List, cache)
	tours.GET("/top-5-cheap", h.Tours.TopCheap, cache)
	tours.GET("/tour-stats", h.Tours.Stats)
	tours.GET("/monthly-plan/:year", h.Tours.MonthlyPlan, protect,
		middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide, model.RoleGuide))
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.Tours.Within)
	tours.GET("/distances/:latlng/unit/:unit", h.Tours.Distances)
	tours.GET("/:id", h.Tours.Get)
	tours.POST("", h.Tours.Create, protect, staff)
	tours.PATCH("/:id", h.Tours.Update, protect, staff)
	tours.DELETE("/:id", h.Tours.Delete, protect, staff)

	// reviews, nested under the parent tour and standalone. Every review
	// route, reads included, requires a session. The parent param shares the
	// ":id" name with the other tour routes; Echo requires one name per path
	// position.
	tours.GET("/:id/reviews", h.Reviews.List, protect)
	tours.POST("/:id/reviews", h.Reviews.Create, protect, middleware.RequireRole(model.RoleUser))

	reviews := api.Group("/v1/reviews", protect)
	reviews.GET("", h.Reviews.List)
	reviews.GET("/:id", h.Reviews.Get)
	reviews.PATCH("/:id", h.Reviews.Update, middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	reviews.DELETE("/:id", h.Reviews.Delete, middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	// bookings
	bookings := api.Group("/v1/bookings", protect)
	bookings.POST("/checkout/:tourId", h.Bookings.Checkout)
	bookings.GET("/my-bookings", h.Bookings.MyBookings)
	bookings.GET("", h.Bookings.List, staff)
	bookings.GET("/:id", h.Bookings.Get, staff)
	bookings.PATCH("/:id", h.Bookings.UpdateStatus, staff)
	bookings.DELETE("/:id", h.Bookings.Delete, staff)
}
