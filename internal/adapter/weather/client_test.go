package weather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/observability"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey           = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set(headerContentType, contentTypeJSON)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// --- PrimaryClient ---

func TestPrimaryClient_Fetch_Success(t *testing.T) {
	stamped := time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "north orchard", r.URL.Query().Get("location"))
		switch r.URL.Path {
		case "/weather/current":
			writeJSON(t, w, domain.Reading{Temperature: 31.5, WindSpeed: 12, CachedAt: &stamped})
		case "/weather/forecast":
			writeJSON(t, w, []domain.Reading{{Temperature: 34}, {Temperature: 36}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewPrimaryClient(srv.URL+"/weather/", 5*time.Second, testLogger(), testMetrics())
	cond, err := c.Fetch(context.Background(), "north orchard")
	require.NoError(t, err)

	assert.Equal(t, domain.SourcePrimary, cond.Source)
	assert.InDelta(t, 31.5, cond.Current.Temperature, 0.0001)
	require.NotNil(t, cond.Current.CachedAt)
	assert.Equal(t, stamped, *cond.Current.CachedAt)
	assert.Len(t, cond.Forecast, 2)
}

func TestPrimaryClient_Fetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forecast" {
			http.Error(w, "cache rebuilding", http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, domain.Reading{})
	}))
	defer srv.Close()

	c := NewPrimaryClient(srv.URL, 5*time.Second, testLogger(), testMetrics())
	_, err := c.Fetch(context.Background(), "depot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPrimaryClient_Fetch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewPrimaryClient(srv.URL, 5*time.Second, testLogger(), testMetrics())
	_, err := c.Fetch(context.Background(), "depot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestPrimaryClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewPrimaryClient(srv.URL, 50*time.Millisecond, testLogger(), testMetrics())
	_, err := c.Fetch(context.Background(), "depot")
	assert.Error(t, err)
}

func TestPrimaryClient_Fetch_AcceptsAny2xx(t *testing.T) {
	for _, status := range []int{http.StatusNonAuthoritativeInfo, http.StatusPartialContent} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(headerContentType, contentTypeJSON)
				w.WriteHeader(status)
				if r.URL.Path == "/forecast" {
					_, _ = w.Write([]byte(`[{"temperature":21}]`))
					return
				}
				_, _ = w.Write([]byte(`{"temperature":20}`))
			}))
			defer srv.Close()

			c := NewPrimaryClient(srv.URL, 5*time.Second, testLogger(), testMetrics())
			cond, err := c.Fetch(context.Background(), "depot")
			require.NoError(t, err)
			assert.InDelta(t, 20.0, cond.Current.Temperature, 0.0001)
			assert.Len(t, cond.Forecast, 1)
		})
	}
}

func TestPrimaryClient_Fetch_RedirectStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	c := NewPrimaryClient(srv.URL, 5*time.Second, testLogger(), testMetrics())
	_, err := c.Fetch(context.Background(), "depot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 304")
}

// --- ProviderClient ---

func timelinePayload() timelineResponse {
	return timelineResponse{
		ResolvedAddress: "North Orchard",
		CurrentConditions: &timelinePoint{
			DatetimeEpoch: 1720953000,
			Temp:          29,
			Humidity:      40,
			Precip:        0.2,
			WindSpeed:     18,
			Conditions:    "Partially cloudy",
			UVIndex:       7,
			CloudCover:    35,
		},
		Days: []timelineDay{
			{timelinePoint: timelinePoint{DatetimeEpoch: 1720915200, Temp: 27, Precip: 1}, TempMax: 33},
			{timelinePoint: timelinePoint{DatetimeEpoch: 1721001600, Temp: 28, Precip: 4}, TempMax: 36},
			{timelinePoint: timelinePoint{DatetimeEpoch: 1721088000, Temp: 25}, TempMax: 30},
			{timelinePoint: timelinePoint{DatetimeEpoch: 1721174400, Temp: 22}, TempMax: 26},
		},
	}
}

func TestProviderClient_Fetch_Normalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/north-orchard", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("unitGroup"))
		assert.Equal(t, testKey, r.URL.Query().Get("key"))
		writeJSON(t, w, timelinePayload())
	}))
	defer srv.Close()

	c := NewProviderClient(srv.URL, testKey, 5*time.Second, testLogger(), testMetrics())
	cond, err := c.Fetch(context.Background(), "north-orchard")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceFallback, cond.Source)
	assert.Nil(t, cond.Current.CachedAt)
	assert.InDelta(t, 29.0, cond.Current.Temperature, 0.0001)
	assert.InDelta(t, 18.0, cond.Current.WindSpeed, 0.0001)
	assert.Equal(t, "Partially cloudy", cond.Current.Conditions)
	assert.Equal(t, time.Unix(1720953000, 0).UTC(), cond.Current.Timestamp)

	require.Len(t, cond.Forecast, forecastDays)
	assert.InDelta(t, 33.0, cond.Forecast[0].Temperature, 0.0001, "forecast uses the daily maximum")
	assert.InDelta(t, 4.0, cond.Forecast[1].Precipitation, 0.0001)
	for _, r := range cond.Forecast {
		assert.Nil(t, r.CachedAt)
	}
}

func TestProviderClient_Fetch_AcceptsNon200Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		require.NoError(t, json.NewEncoder(w).Encode(timelinePayload()))
	}))
	defer srv.Close()

	c := NewProviderClient(srv.URL, testKey, 5*time.Second, testLogger(), testMetrics())
	cond, err := c.Fetch(context.Background(), "north-orchard")
	require.NoError(t, err)
	assert.InDelta(t, 29.0, cond.Current.Temperature, 0.0001)
}

func TestProviderClient_Fetch_MissingCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"days": []any{}})
	}))
	defer srv.Close()

	c := NewProviderClient(srv.URL, testKey, 5*time.Second, testLogger(), testMetrics())
	_, err := c.Fetch(context.Background(), "depot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currentConditions")
}

func TestProviderClient_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	breaker := gobreaker.NewCircuitBreaker[domain.Conditions](gobreaker.Settings{
		Name:        "test-open",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})
	c := NewProviderClientWithBreaker(srv.URL, testKey, 5*time.Second, breaker, testLogger(), testMetrics())

	for range 2 {
		_, err := c.Fetch(context.Background(), "depot")
		require.Error(t, err)
	}
	_, err := c.Fetch(context.Background(), "depot")

	require.True(t, errors.Is(err, ErrProviderUnavailable))
	assert.Equal(t, int32(2), calls.Load(), "open circuit must not reach the provider")
}
