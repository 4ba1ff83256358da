package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker   = "localhost:9092"
	testFallbackURL = "https://provider.test/timeline"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "weather-risk-evaluations", cfg.KafkaSinkTopic)
	assert.Equal(t, "http://localhost:8081/weather", cfg.PrimaryURL)
	assert.Equal(t, DefaultFallbackURL, cfg.FallbackURL)
	assert.False(t, cfg.FallbackEnabled())
	assert.Equal(t, 3, cfg.FetchMaxRetries)
	assert.Equal(t, time.Second, cfg.FetchRetryDelay)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Empty(t, cfg.PolicyFile)
	assert.Empty(t, cfg.Locations)
	assert.Equal(t, 15*time.Minute, cfg.EvaluationInterval)
	assert.Equal(t, "system", cfg.Assessor)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("WEATHER_PRIMARY_URL", "http://cache.internal/weather")
	t.Setenv("WEATHER_FALLBACK_URL", testFallbackURL)
	t.Setenv("WEATHER_FALLBACK_KEY", "secret")
	t.Setenv("FETCH_MAX_RETRIES", "5")
	t.Setenv("FETCH_RETRY_DELAY", "250ms")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("CACHE_SIZE", "64")
	t.Setenv("POLICY_FILE", "/etc/weather-risk/policy.yaml")
	t.Setenv("LOCATIONS", "north-orchard, south-field,,depot")
	t.Setenv("EVALUATION_INTERVAL", "5m")
	t.Setenv("ASSESSOR", "safety-bot")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "http://cache.internal/weather", cfg.PrimaryURL)
	assert.True(t, cfg.FallbackEnabled())
	assert.Equal(t, "secret", cfg.FallbackKey)
	assert.Equal(t, 5, cfg.FetchMaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.FetchRetryDelay)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, "/etc/weather-risk/policy.yaml", cfg.PolicyFile)
	assert.Equal(t, []string{"north-orchard", "south-field", "depot"}, cfg.Locations)
	assert.Equal(t, 5*time.Minute, cfg.EvaluationInterval)
	assert.Equal(t, "safety-bot", cfg.Assessor)
}

func TestLoad_ZeroRetryDelayAllowed(t *testing.T) {
	t.Setenv("FETCH_RETRY_DELAY", "0s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.FetchRetryDelay)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"FETCH_RETRY_DELAY", "-1s"},
		{"FETCH_TIMEOUT", "0s"},
		{"FETCH_TIMEOUT", "bad"},
		{"CACHE_TTL", "soon"},
		{"EVALUATION_INTERVAL", "0"},
		{"FETCH_MAX_RETRIES", "0"},
		{"FETCH_MAX_RETRIES", "three"},
		{"CACHE_SIZE", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_FallbackURLWithoutKey(t *testing.T) {
	t.Setenv("WEATHER_FALLBACK_URL", testFallbackURL)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_FALLBACK_KEY")
}

func TestLoad_FallbackKeyEnablesDefaultProvider(t *testing.T) {
	t.Setenv("WEATHER_FALLBACK_KEY", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackURL, cfg.FallbackURL)
	assert.True(t, cfg.FallbackEnabled())
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_EmptyBrokersIgnoredWhenKafkaDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.KafkaBrokers)
}
