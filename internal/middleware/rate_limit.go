package middleware

import (
	"fmt"
	"time"

	"carrental/internal/caching"
	"carrental/internal/common"
	"carrental/internal/logger"

	"github.com/labstack/echo/v4"
)

// RateLimit allows limit requests per window for each client IP and route.
// Redis failures let the request through.
func RateLimit(cache caching.CacheService, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("%s:%s", c.Path(), c.RealIP())

			limited, err := cache.IsRateLimited(c.Request().Context(), key, limit, window)
			if err != nil {
				logger.Warn("rate limit check failed", "key", key, "error", err)
				return next(c)
			}
			if limited {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				return common.ErrTooManyRequests
			}
			return next(c)
		}
	}
}
