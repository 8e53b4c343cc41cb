package middleware

import (
	"github.com/labstack/echo/v4"
)

const (
	HeaderAPIVersion = "X-API-Version"
	HeaderAppVersion = "X-App-Version"
)

// VersionHeader stamps every response with the API and build versions.
func VersionHeader(apiVersion, appVersion string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(HeaderAPIVersion, apiVersion)
			if appVersion != "" {
				h.Set(HeaderAppVersion, appVersion)
			}
			return next(c)
		}
	}
}
