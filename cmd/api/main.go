package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/codershubham350/discover-places-backend/internal/adapters/cache"
	"github.com/codershubham350/discover-places-backend/internal/adapters/database"
	"github.com/codershubham350/discover-places-backend/internal/adapters/providers/geolocation"
	"github.com/codershubham350/discover-places-backend/internal/adapters/storage"
	"github.com/codershubham350/discover-places-backend/internal/api/handlers"
	"github.com/codershubham350/discover-places-backend/internal/api/middleware"
	"github.com/codershubham350/discover-places-backend/internal/api/routes"
	"github.com/codershubham350/discover-places-backend/internal/application/services"
	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	"github.com/codershubham350/discover-places-backend/internal/domain/repositories"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/clients/postgres"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/clients/redis"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/security"
	"github.com/codershubham350/discover-places-backend/pkg/config"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	readiness := map[string]handlers.Pinger{"postgres": pgClient}

	// The place cache is optional; everything works against Postgres alone.
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			readiness["redis"] = redisClient
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("connected to Redis")
		}
	}

	geocoder, err := geolocation.NewProvider(cfg.Geolocation, cacheProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize geocoder")
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Uploads.Dir).Msg("failed to prepare uploads directory")
	}

	tokens, err := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	userAdapter := database.NewUserAdapter(pgClient)

	var placeAdapter repositories.PlaceRepository = database.NewPlaceAdapter(pgClient, metrics)
	if cacheProvider != nil {
		placeAdapter = database.NewCachedPlaceAdapter(placeAdapter, cacheProvider, metrics)
	}

	placeService := services.NewPlaceService(placeAdapter, userAdapter, geocoder, files)
	userService := services.NewUserService(userAdapter, tokens)

	uploader := handlers.NewImageUploader(files, cfg.Uploads.MaxBytes)
	placeHandler := handlers.NewPlaceHandler(placeService, uploader)
	userHandler := handlers.NewUserHandler(userService, uploader)

	router := routes.NewRouter(placeHandler, userHandler, routes.Options{
		Tokens:         tokens,
		UploadsDir:     cfg.Uploads.Dir,
		UploadsPrefix:  cfg.Uploads.URLPrefix,
		AllowedOrigins: middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins),
		Readiness:      readiness,
		Metrics:        metrics,
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
