package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"carrental/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultImageRegion = "us-east-1"

// ImageStore keeps car images in a single object storage bucket.
type ImageStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
	EnsureBucket(ctx context.Context) error
}

type ImageStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

type minioImageStore struct {
	client *minio.Client
	bucket string
	region string
	ready  atomic.Bool
	log    *slog.Logger
}

// NewImageStore connects lazily; no request is sent until first use. A known
// region keeps presigning offline.
func NewImageStore(cfg ImageStoreConfig) (ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("image bucket is not configured")
	}
	region := cfg.Region
	if region == "" {
		region = defaultImageRegion
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &minioImageStore{
		client: client,
		bucket: cfg.Bucket,
		region: region,
		log:    logger.WithComponent("image_store"),
	}, nil
}

// EnsureBucket creates the bucket if it is missing. Once the bucket is known
// to exist, later calls return without a round trip.
func (s *minioImageStore) EnsureBucket(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}

	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		logger.ExternalServiceResult(s.log, "minio", "bucket_exists", err, "bucket", s.bucket)
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !found {
		err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
		if err != nil && !bucketAlreadyOwned(err) {
			logger.ExternalServiceResult(s.log, "minio", "make_bucket", err, "bucket", s.bucket)
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		s.log.Info("image bucket created", "bucket", s.bucket, "region", s.region)
	}

	s.ready.Store(true)
	return nil
}

func (s *minioImageStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "private, max-age=3600",
	})
	logger.ExternalServiceResult(s.log, "minio", "put_object", err, "object", key, "size", size)
	if err != nil {
		return fmt.Errorf("store image %s: %w", key, err)
	}
	if size >= 0 && info.Size != size {
		return fmt.Errorf("store image %s: wrote %d of %d bytes", key, info.Size, size)
	}
	return nil
}

// PresignGet returns a GET URL that renders the image inline.
func (s *minioImageStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", "inline")
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign image %s: %w", key, err)
	}
	return u.String(), nil
}

// Remove deletes an object. A key that is already gone is not an error.
func (s *minioImageStore) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == minio.NoSuchKey {
		s.log.Debug("image already removed", "object", key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove image %s: %w", key, err)
	}
	return nil
}

func bucketAlreadyOwned(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case minio.BucketAlreadyOwnedByYou, minio.BucketAlreadyExists:
		return true
	}
	return false
}
