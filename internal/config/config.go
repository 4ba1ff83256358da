package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultFallbackURL is the Visual Crossing timeline endpoint used by the
// secondary weather provider.
const DefaultFallbackURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka sink for scheduled evaluations.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Weather sources.
	PrimaryURL  string
	FallbackURL string
	FallbackKey string

	FetchMaxRetries int
	FetchRetryDelay time.Duration
	FetchTimeout    time.Duration

	CacheTTL  time.Duration
	CacheSize int

	// Policy and scheduling.
	PolicyFile         string
	Locations          []string
	EvaluationInterval time.Duration
	Assessor           string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	retryDelay, err := parseDuration("FETCH_RETRY_DELAY", "1s", true)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "30m", false)
	if err != nil {
		return nil, err
	}
	interval, err := parseDuration("EVALUATION_INTERVAL", "15m", false)
	if err != nil {
		return nil, err
	}
	maxRetries, err := parsePositiveInt("FETCH_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "weather-risk-evaluations"),

		PrimaryURL:  sharedcfg.EnvOrDefault("WEATHER_PRIMARY_URL", "http://localhost:8081/weather"),
		FallbackURL: sharedcfg.EnvOrDefault("WEATHER_FALLBACK_URL", DefaultFallbackURL),
		FallbackKey: os.Getenv("WEATHER_FALLBACK_KEY"),

		FetchMaxRetries: maxRetries,
		FetchRetryDelay: retryDelay,
		FetchTimeout:    fetchTimeout,

		CacheTTL:  cacheTTL,
		CacheSize: cacheSize,

		PolicyFile:         os.Getenv("POLICY_FILE"),
		Locations:          parseList(os.Getenv("LOCATIONS")),
		EvaluationInterval: interval,
		Assessor:           sharedcfg.EnvOrDefault("ASSESSOR", "system"),
	}

	if cfg.PrimaryURL == "" {
		return nil, errors.New("WEATHER_PRIMARY_URL is required")
	}
	// The default endpoint stays idle until a key is supplied; an explicit
	// endpoint without a key is a configuration mistake.
	if os.Getenv("WEATHER_FALLBACK_URL") != "" && cfg.FallbackKey == "" {
		return nil, errors.New("WEATHER_FALLBACK_URL is set but WEATHER_FALLBACK_KEY is not")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// FallbackEnabled reports whether the secondary weather provider can be used.
// It requires an API key.
func (c *Config) FallbackEnabled() bool { return c.FallbackURL != "" && c.FallbackKey != "" }

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
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
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
