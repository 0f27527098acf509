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

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/vaccinefinder/backend/internal/adapters/cache"
	"github.com/zatekoja/vaccinefinder/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/vaccinefinder/backend/internal/adapters/providers/publicdata"
	"github.com/zatekoja/vaccinefinder/backend/internal/adapters/providers/translation"
	"github.com/zatekoja/vaccinefinder/backend/internal/api/handlers"
	"github.com/zatekoja/vaccinefinder/backend/internal/api/routes"
	"github.com/zatekoja/vaccinefinder/backend/internal/application/services"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/vaccinefinder/backend/internal/matching"
	"github.com/zatekoja/vaccinefinder/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	tables, err := config.LoadTables(cfg.TablesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TablesPath).Msg("Failed to load alias and region tables")
	}

	// Shared cache: Redis when reachable, in-process LRU otherwise
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "vaccinefinder:")
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis cache initialized successfully")
		}
	}
	if cacheProvider == nil {
		memory, err := cache.NewMemoryAdapter(cfg.Translation.LRUSize)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize in-memory cache")
		}
		cacheProvider = memory
	}

	resolver := newRegionResolver(cfg, cacheProvider)
	places := newPlacesProvider(cfg)
	translator := newTranslator(cfg, cacheProvider, metrics)

	registry := publicdata.NewClient(&cfg.PublicData, &http.Client{Timeout: cfg.PublicData.Timeout})
	fallback := publicdata.NewSampleSource(cfg.Cache.FallbackPath)

	suffixes := cfg.Matching.Suffixes
	if len(suffixes) == 0 {
		suffixes = matching.DefaultSuffixes
	}
	matcher := matching.NewMatcher(matching.NewNormalizer(suffixes), cfg.Matching.MaxDistance)

	// Initialize services
	vaccineCache := services.NewVaccineCacheService(
		resolver,
		registry,
		fallback,
		tables.RegionCodes,
		matcher,
		cfg.Cache.RefreshDistanceKM,
		metrics,
	)
	enrichment := services.NewEnrichmentService(
		matcher,
		matching.AliasTable(tables.Aliases),
		translator,
		services.EnrichmentConfig{
			FallbackMessage: cfg.Matching.FallbackMessage,
			ResultLimit:     cfg.Matching.ResultLimit,
			Concurrency:     cfg.Matching.Concurrency,
		},
		metrics,
	)
	hospitalService := services.NewHospitalService(places, vaccineCache, enrichment)

	vaccineCache.StartPeriodicRefresh(ctx, cfg.Cache.RefreshInterval, entities.Location{
		Latitude:  cfg.Cache.DefaultLatitude,
		Longitude: cfg.Cache.DefaultLongitude,
	})

	// Set up router
	router := routes.NewRouter(
		handlers.NewHospitalHandler(hospitalService),
		handlers.NewVaccineHandler(vaccineCache),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

func newRegionResolver(cfg *config.Config, cacheProvider providers.CacheProvider) providers.RegionResolver {
	httpClient := &http.Client{Timeout: cfg.Geolocation.HTTPTimeout}

	switch cfg.Geolocation.Provider {
	case "google":
		if cfg.Geolocation.APIKey != "" {
			log.Info().Msg("Using Google reverse geocoding for region resolution")
			return geolocation.NewGoogleRegionResolverWithOptions(cfg.Geolocation.APIKey, cacheProvider, cfg.Geolocation.GoogleAPIURL, httpClient, cfg.Geolocation.CacheTTL)
		}
		log.Warn().Msg("GEOLOCATION_API_KEY not set, falling back to mock region resolver")
	case "kakao":
		if cfg.Geolocation.KakaoAPIKey != "" {
			log.Info().Msg("Using Kakao coord2regioncode for region resolution")
			return geolocation.NewKakaoRegionResolver(cfg.Geolocation.KakaoAPIKey, cacheProvider, cfg.Geolocation.KakaoAPIURL, httpClient, cfg.Geolocation.CacheTTL)
		}
		log.Warn().Msg("KAKAO_API_KEY not set, falling back to mock region resolver")
	}
	return geolocation.NewMockRegionResolver()
}

func newPlacesProvider(cfg *config.Config) providers.PlacesProvider {
	if cfg.Places.Provider == "google" && cfg.Places.APIKey != "" {
		log.Info().Msg("Using Google Places for hospital search")
		return geolocation.NewGooglePlacesProvider(
			cfg.Places.APIKey,
			cfg.Places.BaseURL,
			cfg.Places.Radius,
			cfg.Places.Language,
			&http.Client{Timeout: cfg.Geolocation.HTTPTimeout},
		)
	}
	if cfg.Places.Provider == "google" {
		log.Warn().Msg("PLACES_API_KEY not set, falling back to mock places provider")
	}
	return geolocation.NewMockPlacesProvider(float64(cfg.Places.Radius) / 1000)
}

func newTranslator(cfg *config.Config, cacheProvider providers.CacheProvider, metrics *observability.Metrics) providers.Translator {
	if cfg.Translation.Provider != "google" || cfg.Translation.APIKey == "" {
		log.Info().Msg("Translation disabled")
		return translation.Noop{}
	}

	client, err := translation.NewGoogleClient(cfg.Translation.APIKey, cfg.Translation.BaseURL, cfg.Translation.RateLimit, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create translation client, translation disabled")
		return translation.Noop{}
	}
	translator, err := translation.NewTranslator(client, translation.Options{
		MemoSize:     cfg.Translation.LRUSize,
		Cache:        cacheProvider,
		CacheTTL:     cfg.Translation.CacheTTL,
		BatchWait:    cfg.Translation.BatchWait,
		BatchTimeout: cfg.Translation.BatchTimeout,
		Metrics:      metrics,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create translator, translation disabled")
		return translation.Noop{}
	}
	log.Info().Msg("Google translation enabled")
	return translator
}
