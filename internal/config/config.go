package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	JWT       JWTConfig       `toml:"jwt"`
	Redis     RedisConfig     `toml:"redis"`
	MinIO     MinIOConfig     `toml:"minio"`
	AMQP      AMQPConfig      `toml:"amqp"`
	Jobs      JobsConfig      `toml:"jobs"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Log       LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Port                   int      `toml:"port"`
	ReadTimeoutSeconds     int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int      `toml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
	AllowedOrigins         []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL      string `toml:"url"`
	MaxConns int32  `toml:"max_conns"`
}

type JWTConfig struct {
	AccessSecret     string `toml:"access_secret"`
	RefreshSecret    string `toml:"refresh_secret"`
	AccessTTLMinutes int    `toml:"access_ttl_minutes"`
	RefreshTTLHours  int    `toml:"refresh_ttl_hours"`
	BcryptCost       int    `toml:"bcrypt_cost"`
}

type RedisConfig struct {
	Addr            string `toml:"addr"`
	Password        string `toml:"password"`
	DB              int    `toml:"db"`
	CarCacheMinutes int    `toml:"car_cache_minutes"`
}

type MinIOConfig struct {
	Endpoint          string `toml:"endpoint"`
	AccessKey         string `toml:"access_key"`
	SecretKey         string `toml:"secret_key"`
	UseSSL            bool   `toml:"use_ssl"`
	Region            string `toml:"region"`
	Bucket            string `toml:"bucket"`
	PresignTTLMinutes int    `toml:"presign_ttl_minutes"`
	MaxUploadMB       int64  `toml:"max_upload_mb"`
}

// AMQPConfig configures rental event publishing. An empty URL disables it.
type AMQPConfig struct {
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

type JobsConfig struct {
	ActivationEnabled         bool `toml:"activation_enabled"`
	ActivationIntervalMinutes int  `toml:"activation_interval_minutes"`
}

// RateLimitConfig bounds requests per client IP on the auth endpoints.
type RateLimitConfig struct {
	AuthRequests      int `toml:"auth_requests"`
	AuthWindowSeconds int `toml:"auth_window_seconds"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "json" or "text"
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   8080,
			ReadTimeoutSeconds:     15,
			WriteTimeoutSeconds:    15,
			ShutdownTimeoutSeconds: 10,
			AllowedOrigins:         []string{"*"},
		},
		Database: DatabaseConfig{MaxConns: 10},
		JWT: JWTConfig{
			AccessTTLMinutes: 15,
			RefreshTTLHours:  7 * 24,
			BcryptCost:       10,
		},
		Redis: RedisConfig{Addr: "localhost:6379", CarCacheMinutes: 15},
		MinIO: MinIOConfig{
			Endpoint:          "localhost:9000",
			Region:            "us-east-1",
			Bucket:            "car-images",
			PresignTTLMinutes: 60,
			MaxUploadMB:       5,
		},
		AMQP: AMQPConfig{Exchange: "rentals"},
		Jobs: JobsConfig{
			ActivationEnabled:         true,
			ActivationIntervalMinutes: 60,
		},
		RateLimit: RateLimitConfig{AuthRequests: 10, AuthWindowSeconds: 60},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads an optional TOML file on top of the defaults, applies
// environment overrides and validates the result.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		if _, err := toml.DecodeFile(filename, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() error {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setInt := func(key string, dst *int) error {
		if val := os.Getenv(key); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%s must be an integer: %w", key, err)
			}
			*dst = n
		}
		return nil
	}
	setBool := func(key string, dst *bool) error {
		if val := os.Getenv(key); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("%s must be a boolean: %w", key, err)
			}
			*dst = b
		}
		return nil
	}

	setString("DATABASE_URL", &c.Database.URL)
	setString("JWT_SECRET", &c.JWT.AccessSecret)
	setString("JWT_REFRESH_SECRET", &c.JWT.RefreshSecret)
	setString("REDIS_ADDR", &c.Redis.Addr)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	setString("MINIO_ENDPOINT", &c.MinIO.Endpoint)
	setString("MINIO_ACCESS_KEY", &c.MinIO.AccessKey)
	setString("MINIO_SECRET_KEY", &c.MinIO.SecretKey)
	setString("MINIO_BUCKET", &c.MinIO.Bucket)
	setString("MINIO_REGION", &c.MinIO.Region)
	setString("AMQP_URL", &c.AMQP.URL)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	return errors.Join(
		setInt("PORT", &c.Server.Port),
		setInt("REDIS_DB", &c.Redis.DB),
		setBool("MINIO_USE_SSL", &c.MinIO.UseSSL),
		setBool("JOBS_ACTIVATION_ENABLED", &c.Jobs.ActivationEnabled),
		setInt("JOBS_ACTIVATION_INTERVAL_MINUTES", &c.Jobs.ActivationIntervalMinutes),
	)
}

// Validate checks required settings and bounds.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database url is required (DATABASE_URL)"))
	}
	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("jwt access secret is required (JWT_SECRET)"))
	}
	if c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("jwt refresh secret is required (JWT_REFRESH_SECRET)"))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("jwt access and refresh secrets must differ"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.JWT.AccessTTLMinutes <= 0 || c.JWT.RefreshTTLHours <= 0 {
		errs = append(errs, errors.New("jwt token lifetimes must be positive"))
	}
	if c.Jobs.ActivationEnabled && c.Jobs.ActivationIntervalMinutes <= 0 {
		errs = append(errs, errors.New("activation interval must be positive"))
	}
	if c.RateLimit.AuthRequests <= 0 || c.RateLimit.AuthWindowSeconds <= 0 {
		errs = append(errs, errors.New("auth rate limit must be positive"))
	}
	return errors.Join(errs...)
}

func (c ServerConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}

func (c RedisConfig) CarCacheTTL() time.Duration {
	return time.Duration(c.CarCacheMinutes) * time.Minute
}

func (c MinIOConfig) PresignTTL() time.Duration {
	return time.Duration(c.PresignTTLMinutes) * time.Minute
}

func (c JobsConfig) ActivationInterval() time.Duration {
	return time.Duration(c.ActivationIntervalMinutes) * time.Minute
}

func (c RateLimitConfig) AuthWindow() time.Duration {
	return time.Duration(c.AuthWindowSeconds) * time.Second
}
