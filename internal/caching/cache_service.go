package caching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carrental/internal/logger"
	"carrental/internal/models"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const keyPrefix = "carrental"

type CacheService interface {
	// Car caching. A miss returns (nil, nil).
	GetCar(ctx context.Context, carID uuid.UUID) (*models.Car, error)
	SetCar(ctx context.Context, car *models.Car, ttl time.Duration) error
	DeleteCar(ctx context.Context, carID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisClient builds a client from an address that may carry a
// redis:// or rediss:// scheme.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", "addr", parsedAddr, "error", pingErr)
	} else {
		logger.Debug("redis connection established", "addr", parsedAddr)
	}
	return client
}

func NewRedisCacheService(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func carKey(carID uuid.UUID) string {
	return fmt.Sprintf("%s:car:%s", keyPrefix, carID.String())
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
}

func (r *redisCacheService) GetCar(ctx context.Context, carID uuid.UUID) (*models.Car, error) {
	data, err := r.client.Get(ctx, carKey(carID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var car models.Car
	if err := json.Unmarshal(data, &car); err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *redisCacheService) SetCar(ctx context.Context, car *models.Car, ttl time.Duration) error {
	data, err := json.Marshal(car)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, carKey(car.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteCar(ctx context.Context, carID uuid.UUID) error {
	return r.client.Del(ctx, carKey(carID)).Err()
}

// IsRateLimited counts a hit against key in a fixed window and reports
// whether the count exceeds limit. INCR and EXPIRE NX run in one MULTI so a
// counter never outlives its window.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := rateLimitKey(key)
	var hits *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hits = pipe.Incr(ctx, cacheKey)
		pipe.ExpireNX(ctx, cacheKey, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return hits.Val() > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}
