package middleware

import (
	"carrental/internal/common"
	"carrental/internal/logger"
	"carrental/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRoles rejects principals whose role is not listed. It must run
// after JWTMiddleware.
func RequireRoles(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if _, ok := common.GetUserIDFromContext(ctx); !ok {
				return common.ErrMissingToken
			}
			role, _ := common.GetUserRoleFromContext(ctx)
			if _, ok := allowed[role]; !ok {
				logger.Warn("role check failed", "path", c.Path(), "role", role)
				return common.Forbidden("insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireAdmin allows admins and superadmins.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRoles(models.AdminRoles...)
}
