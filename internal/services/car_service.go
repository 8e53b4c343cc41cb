package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"carrental/internal/caching"
	"carrental/internal/common"
	"carrental/internal/logger"
	"carrental/internal/models"
	"carrental/internal/repositories"

	"github.com/google/uuid"
)

const maxPricePerDay = 100000.00

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type CarService interface {
	Create(ctx context.Context, in *models.CreateCarInput) (*models.Car, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error)
	List(ctx context.Context) ([]*models.Car, error)
	ListAvailable(ctx context.Context) ([]*models.Car, error)
	Update(ctx context.Context, id uuid.UUID, in *models.UpdateCarInput) (*models.Car, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindNearby(ctx context.Context, q models.NearbyQuery) ([]*models.CarWithDistance, error)
	UploadImage(ctx context.Context, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.Car, error)
	GetImageURL(ctx context.Context, id uuid.UUID) (*models.ImageURLResponse, error)
}

type CarServiceConfig struct {
	CacheTTL   time.Duration
	PresignTTL time.Duration
}

type carService struct {
	carRepo      repositories.CarRepository
	images       ImageStore
	cacheService caching.CacheService
	cfg          CarServiceConfig
	log          *slog.Logger
}

func NewCarService(carRepo repositories.CarRepository, images ImageStore, cacheService caching.CacheService, cfg CarServiceConfig) CarService {
	return &carService{
		carRepo:      carRepo,
		images:       images,
		cacheService: cacheService,
		cfg:          cfg,
		log:          logger.WithService("cars"),
	}
}

func validatePosition(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return common.Validation("latitude and longitude must be provided together")
	}
	if lat != nil {
		return common.ValidateCoordinates(*lat, *lng)
	}
	return nil
}

func validateCarFields(brand, model string, year int, price float64) error {
	if err := common.ValidateRequiredString(brand, "brand", 100); err != nil {
		return err
	}
	if err := common.ValidateRequiredString(model, "model", 100); err != nil {
		return err
	}
	if err := common.ValidateCarYear(year); err != nil {
		return err
	}
	return common.ValidatePositiveFloat(price, "pricePerDay", maxPricePerDay)
}

func (s *carService) Create(ctx context.Context, in *models.CreateCarInput) (*models.Car, error) {
	if err := validateCarFields(in.Brand, in.Model, in.Year, in.PricePerDay); err != nil {
		return nil, err
	}
	if err := validatePosition(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	car := &models.Car{
		ID:          uuid.New(),
		Brand:       strings.TrimSpace(in.Brand),
		Model:       strings.TrimSpace(in.Model),
		Year:        in.Year,
		PricePerDay: models.FromCents(models.ToCents(in.PricePerDay)),
		IsAvailable: true,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
	if in.IsAvailable != nil {
		car.IsAvailable = *in.IsAvailable
	}

	if err := s.carRepo.Create(ctx, car); err != nil {
		return nil, fmt.Errorf("create car: %w", err)
	}
	s.log.Info("car created", "car_id", car.ID, "brand", car.Brand, "model", car.Model)
	return car, nil
}

func (s *carService) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	if cachedCar, err := s.cacheService.GetCar(ctx, id); cachedCar != nil {
		return cachedCar, nil
	} else if err != nil {
		// cache errors shouldn't fail the read
		logger.ExternalServiceResult(s.log, "redis", "get_car", err, "car_id", id)
	}

	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.SetCar(ctx, car, s.cfg.CacheTTL); cacheErr != nil {
		logger.ExternalServiceResult(s.log, "redis", "set_car", cacheErr, "car_id", id)
	}
	return car, nil
}

func (s *carService) List(ctx context.Context) ([]*models.Car, error) {
	return s.carRepo.List(ctx)
}

func (s *carService) ListAvailable(ctx context.Context) ([]*models.Car, error) {
	return s.carRepo.ListAvailable(ctx)
}

// Update applies a partial update. Setting isAvailable here bypasses the
// rental workflow and can desynchronise the flag from open rentals.
func (s *carService) Update(ctx context.Context, id uuid.UUID, in *models.UpdateCarInput) (*models.Car, error) {
	if err := validatePosition(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Brand != nil {
		car.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.Model != nil {
		car.Model = strings.TrimSpace(*in.Model)
	}
	if in.Year != nil {
		car.Year = *in.Year
	}
	if in.PricePerDay != nil {
		car.PricePerDay = models.FromCents(models.ToCents(*in.PricePerDay))
	}
	if in.IsAvailable != nil {
		car.IsAvailable = *in.IsAvailable
	}
	if in.Description != nil {
		car.Description = in.Description
	}
	if in.ImageURL != nil {
		car.ImageURL = in.ImageURL
	}
	if in.Latitude != nil {
		car.Latitude, car.Longitude = in.Latitude, in.Longitude
	}

	if err := validateCarFields(car.Brand, car.Model, car.Year, car.PricePerDay); err != nil {
		return nil, err
	}

	if err := s.carRepo.Update(ctx, car); err != nil {
		return nil, fmt.Errorf("update car %s: %w", id, err)
	}
	s.invalidate(ctx, id)
	return car, nil
}

func (s *carService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.carRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info("car deleted", "car_id", id)
	return nil
}

// FindNearby validates the query before touching storage.
func (s *carService) FindNearby(ctx context.Context, q models.NearbyQuery) ([]*models.CarWithDistance, error) {
	if err := common.ValidateCoordinates(q.Latitude, q.Longitude); err != nil {
		return nil, err
	}
	if err := common.ValidateRadius(q.RadiusKm); err != nil {
		return nil, err
	}

	s.log.Debug("searching nearby cars", "latitude", q.Latitude, "longitude", q.Longitude, "radius_km", q.RadiusKm)
	cars, err := s.carRepo.FindNearby(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find nearby cars: %w", err)
	}
	return cars, nil
}

func (s *carService) UploadImage(ctx context.Context, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.Car, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, common.Validation("image must be a JPEG, PNG or WebP file")
	}
	if fileExt := strings.ToLower(filepath.Ext(filename)); fileExt != "" {
		ext = fileExt
	}

	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.images.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("cars/%s/%s%s", id.String(), uuid.NewString(), ext)
	if err := s.images.Put(ctx, objectKey, reader, size, contentType); err != nil {
		return nil, err
	}

	if err := s.carRepo.SetImage(ctx, id, objectKey); err != nil {
		return nil, err
	}

	if previous := car.ImageURL; previous != nil && isObjectKey(*previous) {
		if err := s.images.Remove(ctx, *previous); err != nil {
			logger.ExternalServiceResult(s.log, "minio", "delete_image", err, "object", *previous)
		}
	}

	car.ImageURL = &objectKey
	s.invalidate(ctx, id)
	return car, nil
}

// GetImageURL presigns stored objects. External URLs are returned as is.
func (s *carService) GetImageURL(ctx context.Context, id uuid.UUID) (*models.ImageURLResponse, error) {
	car, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if car.ImageURL == nil || *car.ImageURL == "" {
		return nil, common.NotFound("Image for car", id)
	}

	if !isObjectKey(*car.ImageURL) {
		return &models.ImageURLResponse{URL: *car.ImageURL}, nil
	}

	url, err := s.images.PresignGet(ctx, *car.ImageURL, s.cfg.PresignTTL)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.cfg.PresignTTL).UTC()
	return &models.ImageURLResponse{URL: url, ExpiresAt: &expires}, nil
}

func (s *carService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cacheService.DeleteCar(ctx, id); err != nil {
		logger.ExternalServiceResult(s.log, "redis", "delete_car", err, "car_id", id)
	}
}

func isObjectKey(ref string) bool {
	return !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://")
}
