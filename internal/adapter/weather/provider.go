package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/observability"
	"github.com/sony/gobreaker/v2"
)

// forecastDays caps how many provider days become forecast readings.
const forecastDays = 3

// ErrProviderUnavailable is returned while the provider circuit is open.
var ErrProviderUnavailable = errors.New("weather provider circuit open")

// ProviderClient reads the external timeline API and normalizes its payload
// into canonical readings. Calls go through a circuit breaker so a failing
// provider is not hammered by every location on every cycle.
type ProviderClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[domain.Conditions]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewProviderClient creates a client for the timeline API rooted at baseURL.
func NewProviderClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *ProviderClient {
	return NewProviderClientWithBreaker(baseURL, apiKey, timeout, gobreaker.NewCircuitBreaker[domain.Conditions](gobreaker.Settings{
		Name:        "weather-provider",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}), logger, metrics)
}

// NewProviderClientWithBreaker creates a client with a caller-provided breaker.
func NewProviderClientWithBreaker(baseURL, apiKey string, timeout time.Duration, breaker *gobreaker.CircuitBreaker[domain.Conditions], logger *slog.Logger, metrics *observability.Metrics) *ProviderClient {
	return &ProviderClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
		breaker:    breaker,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch returns normalized conditions for location. Readings never carry a
// cache timestamp.
func (c *ProviderClient) Fetch(ctx context.Context, location string) (domain.Conditions, error) {
	start := time.Now()
	defer func() {
		c.metrics.ProviderLatency.WithLabelValues(string(domain.SourceFallback)).Observe(time.Since(start).Seconds())
	}()

	cond, err := c.breaker.Execute(func() (domain.Conditions, error) {
		return c.fetch(ctx, location)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.Conditions{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	return cond, err
}

func (c *ProviderClient) fetch(ctx context.Context, location string) (domain.Conditions, error) {
	params := url.Values{
		"unitGroup":   {"metric"},
		"include":     {"current,days"},
		"contentType": {"json"},
		"key":         {c.apiKey},
	}
	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(location), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Conditions{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Conditions{}, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Conditions{}, fmt.Errorf("provider API error: status %d: %s", resp.StatusCode, body)
	}

	var payload timelineResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Conditions{}, fmt.Errorf("decode provider response: %w", err)
	}
	if payload.CurrentConditions == nil {
		return domain.Conditions{}, errors.New("provider response missing currentConditions")
	}

	return normalize(location, payload), nil
}

func normalize(location string, p timelineResponse) domain.Conditions {
	cur := p.CurrentConditions
	c := domain.Conditions{
		Location: location,
		Current: domain.Reading{
			Timestamp:     epoch(cur.DatetimeEpoch),
			Temperature:   cur.Temp,
			Humidity:      cur.Humidity,
			Precipitation: cur.Precip,
			WindSpeed:     cur.WindSpeed,
			Conditions:    cur.Conditions,
			UVIndex:       cur.UVIndex,
			CloudCover:    cur.CloudCover,
		},
		Forecast: make([]domain.Reading, 0, min(len(p.Days), forecastDays)),
		Source:   domain.SourceFallback,
	}
	for _, d := range p.Days[:min(len(p.Days), forecastDays)] {
		c.Forecast = append(c.Forecast, domain.Reading{
			Timestamp:     epoch(d.DatetimeEpoch),
			Temperature:   d.TempMax,
			Humidity:      d.Humidity,
			Precipitation: d.Precip,
			WindSpeed:     d.WindSpeed,
			Conditions:    d.Conditions,
			UVIndex:       d.UVIndex,
			CloudCover:    d.CloudCover,
		})
	}
	return c
}

func epoch(s int64) time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.Unix(s, 0).UTC()
}

// Timeline API response types.

type timelineResponse struct {
	ResolvedAddress   string         `json:"resolvedAddress"`
	CurrentConditions *timelinePoint `json:"currentConditions"`
	Days              []timelineDay  `json:"days"`
}

type timelinePoint struct {
	DatetimeEpoch int64   `json:"datetimeEpoch"`
	Temp          float64 `json:"temp"`
	Humidity      float64 `json:"humidity"`
	Precip        float64 `json:"precip"`
	WindSpeed     float64 `json:"windspeed"`
	Conditions    string  `json:"conditions"`
	UVIndex       float64 `json:"uvindex"`
	CloudCover    float64 `json:"cloudcover"`
}

type timelineDay struct {
	timelinePoint
	TempMax float64 `json:"tempmax"`
}
