package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Geolocation GeolocationConfig
	Places      PlacesConfig
	PublicData  PublicDataConfig
	Translation TranslationConfig
	Matching    MatchingConfig
	Cache       CacheConfig
	TablesPath  string
	OTEL        OTELConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// GeolocationConfig selects the region resolver.
// Provider is one of "google", "kakao" or "mock".
type GeolocationConfig struct {
	Provider     string
	APIKey       string
	KakaoAPIKey  string
	CacheTTL     time.Duration
	HTTPTimeout  time.Duration
	GoogleAPIURL string
	KakaoAPIURL  string
}

// PlacesConfig holds the nearby-facility search configuration
type PlacesConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Radius   int
	Language string
}

// PublicDataConfig holds the vaccination-site registry configuration
type PublicDataConfig struct {
	BaseURL      string
	ServiceKey   string
	NumOfRows    int
	RateLimit    float64
	Timeout      time.Duration
	MaxFailures  int
	BreakerReset time.Duration
}

// TranslationConfig holds translation provider configuration.
// Provider is one of "google" or "none".
type TranslationConfig struct {
	Provider     string
	APIKey       string
	BaseURL      string
	RateLimit    float64
	LRUSize      int
	CacheTTL     time.Duration
	BatchWait    time.Duration
	BatchTimeout time.Duration
}

// MatchingConfig holds name-matching and enrichment settings
type MatchingConfig struct {
	MaxDistance     int
	ResultLimit     int
	Concurrency     int
	FallbackMessage string
	Suffixes        []string
}

// CacheConfig holds vaccine-cache refresh settings
type CacheConfig struct {
	DefaultLatitude   float64
	DefaultLongitude  float64
	RefreshInterval   time.Duration
	RefreshDistanceKM float64
	FallbackPath      string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins:  getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Geolocation: GeolocationConfig{
			Provider:     getEnv("GEOLOCATION_PROVIDER", "mock"),
			APIKey:       getEnv("GEOLOCATION_API_KEY", ""),
			KakaoAPIKey:  getEnv("KAKAO_API_KEY", ""),
			CacheTTL:     getEnvAsDuration("GEOLOCATION_CACHE_TTL", 24*time.Hour),
			HTTPTimeout:  getEnvAsDuration("GEOLOCATION_HTTP_TIMEOUT", 10*time.Second),
			GoogleAPIURL: getEnv("GEOLOCATION_GOOGLE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
			KakaoAPIURL:  getEnv("GEOLOCATION_KAKAO_URL", "https://dapi.kakao.com/v2/local/geo/coord2regioncode.json"),
		},
		Places: PlacesConfig{
			Provider: getEnv("PLACES_PROVIDER", "mock"),
			APIKey:   getEnv("PLACES_API_KEY", getEnv("GEOLOCATION_API_KEY", "")),
			BaseURL:  getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
			Radius:   getEnvAsInt("PLACES_RADIUS", 5000),
			Language: getEnv("PLACES_LANGUAGE", "ko"),
		},
		PublicData: PublicDataConfig{
			BaseURL:      getEnv("PUBLIC_DATA_BASE_URL", "https://apis.data.go.kr/1790387/orglist3/getOrgList3"),
			ServiceKey:   getEnv("PUBLIC_DATA_SERVICE_KEY", ""),
			NumOfRows:    getEnvAsInt("PUBLIC_DATA_NUM_OF_ROWS", 100),
			RateLimit:    getEnvAsFloat("PUBLIC_DATA_RATE_LIMIT", 5),
			Timeout:      getEnvAsDuration("PUBLIC_DATA_TIMEOUT", 10*time.Second),
			MaxFailures:  getEnvAsInt("PUBLIC_DATA_BREAKER_FAILURES", 5),
			BreakerReset: getEnvAsDuration("PUBLIC_DATA_BREAKER_RESET", time.Minute),
		},
		Translation: TranslationConfig{
			Provider:     getEnv("TRANSLATION_PROVIDER", "none"),
			APIKey:       getEnv("TRANSLATION_API_KEY", ""),
			BaseURL:      getEnv("TRANSLATION_BASE_URL", "https://translation.googleapis.com/language/translate/v2"),
			RateLimit:    getEnvAsFloat("TRANSLATION_RATE_LIMIT", 10),
			LRUSize:      getEnvAsInt("TRANSLATION_LRU_SIZE", 4096),
			CacheTTL:     getEnvAsDuration("TRANSLATION_CACHE_TTL", 7*24*time.Hour),
			BatchWait:    getEnvAsDuration("TRANSLATION_BATCH_WAIT", 5*time.Millisecond),
			BatchTimeout: getEnvAsDuration("TRANSLATION_BATCH_TIMEOUT", 10*time.Second),
		},
		Matching: MatchingConfig{
			MaxDistance:     getEnvAsInt("MATCH_MAX_DISTANCE", 3),
			ResultLimit:     getEnvAsInt("ENRICH_RESULT_LIMIT", 10),
			Concurrency:     getEnvAsInt("ENRICH_CONCURRENCY", 4),
			FallbackMessage: getEnv("ENRICH_FALLBACK_MESSAGE", "병원에 문의해주세요"),
			Suffixes:        getEnvAsStringSlice("MATCH_NAME_SUFFIXES", nil),
		},
		Cache: CacheConfig{
			DefaultLatitude:   getEnvAsFloat("CACHE_DEFAULT_LAT", 37.5665),
			DefaultLongitude:  getEnvAsFloat("CACHE_DEFAULT_LNG", 126.9780),
			RefreshInterval:   getEnvAsDuration("CACHE_REFRESH_INTERVAL", 30*time.Minute),
			RefreshDistanceKM: getEnvAsFloat("CACHE_REFRESH_DISTANCE_KM", 1.0),
			FallbackPath:      getEnv("CACHE_FALLBACK_PATH", ""),
		},
		TablesPath: getEnv("TABLES_PATH", ""),
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "vaccine-finder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted sensibly
func (c *Config) Validate() error {
	switch c.Geolocation.Provider {
	case "google", "kakao", "mock":
	default:
		return fmt.Errorf("unsupported GEOLOCATION_PROVIDER %q", c.Geolocation.Provider)
	}
	switch c.Places.Provider {
	case "google", "mock":
	default:
		return fmt.Errorf("unsupported PLACES_PROVIDER %q", c.Places.Provider)
	}
	switch c.Translation.Provider {
	case "google", "none":
	default:
		return fmt.Errorf("unsupported TRANSLATION_PROVIDER %q", c.Translation.Provider)
	}
	if c.Matching.ResultLimit < 0 {
		return fmt.Errorf("ENRICH_RESULT_LIMIT must not be negative")
	}
	if c.Matching.Concurrency < 1 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be at least 1")
	}
	if c.Cache.RefreshDistanceKM < 0 {
		return fmt.Errorf("CACHE_REFRESH_DISTANCE_KM must not be negative")
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsStringSlice splits a comma separated value, dropping blank items
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
