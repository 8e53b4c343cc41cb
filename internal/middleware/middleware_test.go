package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carrental/internal/common"
	"carrental/internal/models"
	"carrental/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAccessSecret = "middleware-test-secret"

func newAuthService() services.AuthService {
	return services.NewAuthService(nil, services.AuthConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: "refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
}

func signToken(t *testing.T, sub string, role models.Role, secret string, expires time.Time) string {
	t.Helper()
	claims := services.TokenClaims{
		Email: "jane@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "carrental-auth",
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, userID.String(), models.RoleAdmin, testAccessSecret, time.Now().Add(time.Minute)))
	c, _ := newContext(req)

	var gotID uuid.UUID
	var gotRole models.Role
	handler := JWTMiddleware(newAuthService())(func(c echo.Context) error {
		gotID, _ = common.GetUserIDFromContext(c.Request().Context())
		gotRole, _ = common.GetUserRoleFromContext(c.Request().Context())
		claims, ok := ClaimsFromContext(c)
		assert.True(t, ok)
		assert.Equal(t, "jane@example.com", claims.Email)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, userID, gotID)
	assert.Equal(t, models.RoleAdmin, gotRole)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"missing header", "", common.ErrMissingToken},
		{"wrong scheme", "Basic abc", common.ErrMissingToken},
		{"bad signature", "Bearer " + signToken(t, uuid.NewString(), models.RoleUser, "other-secret", time.Now().Add(time.Minute)), common.ErrInvalidToken},
		{"expired", "Bearer " + signToken(t, uuid.NewString(), models.RoleUser, testAccessSecret, time.Now().Add(-time.Minute)), common.ErrInvalidToken},
		{"non uuid subject", "Bearer " + signToken(t, "user-42", models.RoleUser, testAccessSecret, time.Now().Add(time.Minute)), common.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c, _ := newContext(req)

			err := JWTMiddleware(newAuthService())(func(c echo.Context) error {
				t.Fatal("handler must not run")
				return nil
			})(c)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, http.StatusUnauthorized, common.HTTPStatus(err))
		})
	}
}

func TestRequireRoles(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"admin allowed", common.WithUser(context.Background(), uuid.New(), models.RoleAdmin, ""), nil},
		{"superadmin allowed", common.WithUser(context.Background(), uuid.New(), models.RoleSuperAdmin, ""), nil},
		{"user forbidden", common.WithUser(context.Background(), uuid.New(), models.RoleUser, ""), common.ErrForbidden},
		{"anonymous", context.Background(), common.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tt.ctx)
			c, rec := newContext(req)

			err := RequireAdmin()(ok)(c)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.Equal(t, http.StatusNoContent, rec.Code)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) GetCar(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	return nil, nil
}

func (m *mockLimiter) SetCar(ctx context.Context, car *models.Car, ttl time.Duration) error {
	return nil
}

func (m *mockLimiter) DeleteCar(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockLimiter) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockLimiter) Ping(ctx context.Context) error { return nil }

func (m *mockLimiter) Close() error { return nil }

func TestRateLimit(t *testing.T) {
	limiter := &mockLimiter{}
	mw := RateLimit(limiter, 5, time.Minute)
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	newReq := func() echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.7:5123"
		c, _ := newContext(req)
		c.SetPath("/api/v1/auth/login")
		return c
	}

	limiter.On("IsRateLimited", "/api/v1/auth/login:10.0.0.7", 5, time.Minute).Return(false, nil).Once()
	assert.NoError(t, mw(next)(newReq()))

	limiter.On("IsRateLimited", "/api/v1/auth/login:10.0.0.7", 5, time.Minute).Return(true, nil).Once()
	c := newReq()
	err := mw(next)(c)
	assert.ErrorIs(t, err, common.ErrRateLimited)
	assert.Equal(t, "60", c.Response().Header().Get("Retry-After"))

	limiter.On("IsRateLimited", mock.Anything, 5, time.Minute).Return(false, errors.New("redis down")).Once()
	assert.NoError(t, mw(next)(newReq()))

	limiter.AssertExpectations(t)
}

func TestVersionHeader(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	err := VersionHeader("v1", "1.2.0")(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)

	require.NoError(t, err)
	assert.Equal(t, "v1", rec.Header().Get(HeaderAPIVersion))
	assert.Equal(t, "1.2.0", rec.Header().Get(HeaderAppVersion))
}
