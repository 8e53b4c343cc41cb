package handlers

import (
	"log/slog"
	"time"

	"carrental/internal/caching"
	"carrental/internal/middleware"

	// swagger spec registration
	_ "carrental/docs"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

const APIVersion = "v1"

// Handlers groups the route handlers registered by RegisterRoutes.
type Handlers struct {
	Auth    *AuthHandlers
	Cars    *CarHandlers
	Rentals *RentalHandlers
	Users   *UserHandlers
	Health  *HealthHandlers
}

type RouteConfig struct {
	TokenParser    middleware.AccessTokenParser
	RateLimiter    caching.CacheService
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

type ServerConfig struct {
	AllowedOrigins []string
	AppVersion     string
}

// NewEcho builds the echo instance with the global middleware chain and
// the JSON error envelope.
func NewEcho(l *slog.Logger, cfg ServerConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}
	e.HTTPErrorHandler = NewHTTPErrorHandler(l)

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(l))
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	}
	e.Use(middleware.VersionHeader(APIVersion, cfg.AppVersion))
	return e
}

func RegisterRoutes(e *echo.Echo, h Handlers, cfg RouteConfig) {
	e.GET("/health", h.Health.HealthCheck)
	e.GET("/health/ready", h.Health.ReadinessCheck)
	e.GET("/api/docs/*", echoSwagger.WrapHandler)

	requireAuth := middleware.JWTMiddleware(cfg.TokenParser)
	admin := middleware.RequireAdmin()
	authLimit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if cfg.RateLimiter != nil && cfg.AuthRateLimit > 0 {
		authLimit = middleware.RateLimit(cfg.RateLimiter, cfg.AuthRateLimit, cfg.AuthRateWindow)
	}

	api := e.Group("/api/" + APIVersion)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register, authLimit)
	auth.POST("/login", h.Auth.Login, authLimit)
	auth.POST("/refresh", h.Auth.Refresh, authLimit)
	auth.POST("/logout", h.Auth.Logout, requireAuth)
	auth.GET("/me", h.Auth.Me, requireAuth)

	cars := api.Group("/cars", requireAuth)
	cars.GET("", h.Cars.ListCars)
	cars.GET("/available", h.Cars.ListAvailableCars)
	cars.GET("/nearby", h.Cars.FindNearbyCars)
	cars.GET("/:id", h.Cars.GetCar)
	cars.GET("/:id/image-url", h.Cars.GetCarImageURL)
	cars.POST("", h.Cars.CreateCar, admin)
	cars.PATCH("/:id", h.Cars.UpdateCar, admin)
	cars.DELETE("/:id", h.Cars.DeleteCar, admin)
	cars.POST("/:id/image", h.Cars.UploadCarImage, admin)

	rentals := api.Group("/rentals", requireAuth)
	rentals.POST("", h.Rentals.CreateRental)
	rentals.GET("/my", h.Rentals.ListMyRentals)
	rentals.GET("", h.Rentals.ListRentals, admin)
	rentals.GET("/active", h.Rentals.ListActiveRentals, admin)
	rentals.GET("/:id", h.Rentals.GetRental)
	rentals.PATCH("/:id/complete", h.Rentals.CompleteRental, admin)
	rentals.PATCH("/:id/cancel", h.Rentals.CancelRental)

	users := api.Group("/users", requireAuth, admin)
	users.GET("", h.Users.ListUsers)
	users.GET("/:id", h.Users.GetUser)
	users.DELETE("/:id", h.Users.DeleteUser)
	users.PATCH("/:id/restore", h.Users.RestoreUser)
}
