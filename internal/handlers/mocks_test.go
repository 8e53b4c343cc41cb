package handlers

import (
	"context"
	"io"
	"time"

	"carrental/internal/models"
	"carrental/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in *models.RegisterInput) (*models.AuthResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in *models.LoginInput) (*models.AuthResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, raw string) (*models.TokenPair, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) ParseAccessToken(token string) (*services.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

type MockCarService struct {
	mock.Mock
}

func (m *MockCarService) Create(ctx context.Context, in *models.CreateCarInput) (*models.Car, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarService) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarService) List(ctx context.Context) ([]*models.Car, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Car), args.Error(1)
}

func (m *MockCarService) ListAvailable(ctx context.Context) ([]*models.Car, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Car), args.Error(1)
}

func (m *MockCarService) Update(ctx context.Context, id uuid.UUID, in *models.UpdateCarInput) (*models.Car, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCarService) FindNearby(ctx context.Context, q models.NearbyQuery) ([]*models.CarWithDistance, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CarWithDistance), args.Error(1)
}

func (m *MockCarService) UploadImage(ctx context.Context, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.Car, error) {
	args := m.Called(ctx, id, filename, contentType, reader, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarService) GetImageURL(ctx context.Context, id uuid.UUID) (*models.ImageURLResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImageURLResponse), args.Error(1)
}

type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) Create(ctx context.Context, userID uuid.UUID, in *models.CreateRentalInput) (*models.Rental, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rental), args.Error(1)
}

func (m *MockRentalService) GetByID(ctx context.Context, id, actorID uuid.UUID, role models.Role) (*models.Rental, error) {
	args := m.Called(ctx, id, actorID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rental), args.Error(1)
}

func (m *MockRentalService) ListMine(ctx context.Context, userID uuid.UUID) ([]*models.Rental, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Rental), args.Error(1)
}

func (m *MockRentalService) List(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Rental), args.Error(1)
}

func (m *MockRentalService) ListActive(ctx context.Context) ([]*models.Rental, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Rental), args.Error(1)
}

func (m *MockRentalService) Complete(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rental), args.Error(1)
}

func (m *MockRentalService) Cancel(ctx context.Context, id, actorID uuid.UUID, role models.Role) (*models.Rental, error) {
	args := m.Called(ctx, id, actorID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rental), args.Error(1)
}

func (m *MockRentalService) ActivateDue(ctx context.Context, today models.Date) (int, error) {
	args := m.Called(ctx, today)
	return args.Int(0), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserService) Restore(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetCar(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	return nil, nil
}

func (m *MockCacheService) SetCar(ctx context.Context, car *models.Car, ttl time.Duration) error {
	return nil
}

func (m *MockCacheService) DeleteCar(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockCacheService) Close() error { return nil }

// tokenFor registers a bearer token for a principal on the auth mock.
func tokenFor(m *MockAuthService, id uuid.UUID, role models.Role) string {
	token := "token-" + id.String()
	claims := &services.TokenClaims{Email: "someone@example.com", Role: role}
	claims.Subject = id.String()
	m.On("ParseAccessToken", token).Return(claims, nil).Maybe()
	return token
}
