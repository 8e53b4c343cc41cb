package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carrental/internal/caching"
	"carrental/internal/config"
	"carrental/internal/events"
	"carrental/internal/handlers"
	"carrental/internal/jobs/background"
	"carrental/internal/logger"
	"carrental/internal/repositories"
	"carrental/internal/services"
	"carrental/pkg/database"
)

const version = "1.0.0"

// @title						Car Rental API
// @version					1.0
// @description				Car catalogue, geospatial search and rental booking.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.WithService("carrental")
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	cacheSvc := caching.NewRedisCacheService(redisClient)
	defer cacheSvc.Close()
	if err := cacheSvc.Ping(ctx); err != nil {
		log.Warn("redis not reachable at startup", "addr", cfg.Redis.Addr, "error", err)
	}

	images, err := services.NewImageStore(services.ImageStoreConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		UseSSL:    cfg.MinIO.UseSSL,
		Region:    cfg.MinIO.Region,
		Bucket:    cfg.MinIO.Bucket,
	})
	if err != nil {
		return err
	}
	if err := images.EnsureBucket(ctx); err != nil {
		log.Warn("image bucket not ready", "bucket", cfg.MinIO.Bucket, "error", err)
	}

	publisher := events.NewNoopPublisher()
	if cfg.AMQP.URL != "" {
		publisher, err = events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
	}
	defer publisher.Close()

	userRepo := repositories.NewUserRepo(pool)
	carRepo := repositories.NewCarRepo(pool)
	rentalRepo := repositories.NewRentalRepo(pool)
	txRunner := database.NewTxRunner(pool)

	authSvc := services.NewAuthService(userRepo, services.AuthConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL(),
		RefreshTTL:    cfg.JWT.RefreshTTL(),
		BcryptCost:    cfg.JWT.BcryptCost,
	})
	carSvc := services.NewCarService(carRepo, images, cacheSvc, services.CarServiceConfig{
		CacheTTL:   cfg.Redis.CarCacheTTL(),
		PresignTTL: cfg.MinIO.PresignTTL(),
	})
	rentalSvc := services.NewRentalService(rentalRepo, carRepo, txRunner, cacheSvc, publisher)
	userSvc := services.NewUserService(userRepo)

	scheduler, err := background.NewJobScheduler(rentalSvc, background.SchedulerConfig{
		ActivationEnabled:  cfg.Jobs.ActivationEnabled,
		ActivationInterval: cfg.Jobs.ActivationInterval(),
	})
	if err != nil {
		return err
	}
	scheduler.Start()

	e := handlers.NewEcho(logger.WithComponent("http"), handlers.ServerConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AppVersion:     version,
	})
	handlers.RegisterRoutes(e, handlers.Handlers{
		Auth:    handlers.NewAuthHandlers(authSvc),
		Cars:    handlers.NewCarHandlers(carSvc, cfg.MinIO.MaxUploadMB<<20),
		Rentals: handlers.NewRentalHandlers(rentalSvc),
		Users:   handlers.NewUserHandlers(userSvc),
		Health:  handlers.NewHealthHandlers(pool, cacheSvc, scheduler, version),
	}, handlers.RouteConfig{
		TokenParser:    authSvc,
		RateLimiter:    cacheSvc,
		AuthRateLimit:  cfg.RateLimit.AuthRequests,
		AuthRateWindow: cfg.RateLimit.AuthWindow(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "version", version, "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			_ = scheduler.Stop()
			return err
		}
	}

	if err := scheduler.Stop(); err != nil {
		log.Warn("scheduler shutdown failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if d := cfg.Server.ShutdownTimeout(); d > 0 {
		return d
	}
	return 10 * time.Second
}
