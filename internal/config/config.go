package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/city-distance-service/internal/geodesy"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoding providers accepted by GEOCODER_PROVIDER.
const (
	ProviderGeoapify = "geoapify"
	ProviderMapbox   = "mapbox"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Geocoding provider configuration.
	GeocoderProvider    string
	GeoapifyAPIKey      string
	MapboxToken         string
	GeocoderTimeout     time.Duration
	GeocoderResultLimit int
	GeocoderRateLimit   float64
	GeocoderRateBurst   int

	AutocompleteDebounce time.Duration
	DistanceAlgorithm    geodesy.Algorithm
	DistanceFallback     bool
	SessionCacheSize     int

	// Event publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geocoderTimeout, err := parsePositiveDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	debounce, err := parsePositiveDuration("AUTOCOMPLETE_DEBOUNCE", "300ms")
	if err != nil {
		return nil, err
	}

	resultLimit, err := parsePositiveInt("GEOCODER_RESULT_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	rateBurst, err := parsePositiveInt("GEOCODER_RATE_BURST", 10)
	if err != nil {
		return nil, err
	}
	sessionCacheSize, err := parsePositiveInt("SESSION_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GEOCODER_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid GEOCODER_RATE_LIMIT")
	}

	algorithm, err := geodesy.ParseAlgorithm(sharedcfg.EnvOrDefault("DISTANCE_ALGORITHM", "haversine"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISTANCE_ALGORITHM: %w", err)
	}

	fallback, err := strconv.ParseBool(sharedcfg.EnvOrDefault("DISTANCE_FALLBACK", "true"))
	if err != nil {
		return nil, errors.New("invalid DISTANCE_FALLBACK")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocoderProvider:    strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", ProviderGeoapify)),
		GeoapifyAPIKey:      os.Getenv("GEOAPIFY_API_KEY"),
		MapboxToken:         os.Getenv("MAPBOX_TOKEN"),
		GeocoderTimeout:     geocoderTimeout,
		GeocoderResultLimit: resultLimit,
		GeocoderRateLimit:   rateLimit,
		GeocoderRateBurst:   rateBurst,

		AutocompleteDebounce: debounce,
		DistanceAlgorithm:    algorithm,
		DistanceFallback:     fallback,
		SessionCacheSize:     sessionCacheSize,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "city-distances"),
	}

	switch cfg.GeocoderProvider {
	case ProviderGeoapify:
		if cfg.GeoapifyAPIKey == "" {
			return nil, errors.New("GEOAPIFY_API_KEY is required for the geoapify provider")
		}
	case ProviderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("MAPBOX_TOKEN is required for the mapbox provider")
		}
	default:
		return nil, fmt.Errorf("unsupported GEOCODER_PROVIDER %q", cfg.GeocoderProvider)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether distance events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
