package middleware

import (
	"errors"

	"carrental/internal/common"
	"carrental/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// ClaimsContextKey is the echo context key holding *services.TokenClaims.
const ClaimsContextKey = "user"

// AccessTokenParser verifies an access token and returns its claims.
type AccessTokenParser interface {
	ParseAccessToken(token string) (*services.TokenClaims, error)
}

// JWTMiddleware authenticates the bearer access token and stores the
// principal on the request context for services and RequireRoles.
func JWTMiddleware(parser AccessTokenParser) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := parser.ParseAccessToken(auth)
			if err != nil {
				return nil, err
			}
			userID, err := claims.UserID()
			if err != nil {
				return nil, common.ErrInvalidToken
			}

			ctx := common.WithUser(c.Request().Context(), userID, claims.Role, claims.Email)
			c.SetRequest(c.Request().WithContext(ctx))
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) {
				return common.ErrMissingToken
			}
			return common.ErrInvalidToken
		},
	})
}

// ClaimsFromContext returns the claims stored by JWTMiddleware.
func ClaimsFromContext(c echo.Context) (*services.TokenClaims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*services.TokenClaims)
	return claims, ok
}
