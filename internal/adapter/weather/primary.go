// Package weather holds the upstream weather sources: the primary cached
// endpoint, the external fallback provider, and the in-process reading cache.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/observability"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/sync/errgroup"
)

// PrimaryClient reads current conditions and the short forecast from the
// primary cached weather endpoint.
type PrimaryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewPrimaryClient creates a client for the endpoint rooted at baseURL.
func NewPrimaryClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *PrimaryClient {
	return &PrimaryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch loads the current reading and forecast for location concurrently.
// Either request failing fails the whole fetch.
func (c *PrimaryClient) Fetch(ctx context.Context, location string) (domain.Conditions, error) {
	start := time.Now()
	defer func() {
		c.metrics.ProviderLatency.WithLabelValues(string(domain.SourcePrimary)).Observe(time.Since(start).Seconds())
	}()

	params := url.Values{"location": {location}}
	var current domain.Reading
	var forecast []domain.Reading

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, c.baseURL+"/current?"+params.Encode(), &current)
	})
	g.Go(func() error {
		return c.getJSON(gctx, c.baseURL+"/forecast?"+params.Encode(), &forecast)
	})
	if err := g.Wait(); err != nil {
		return domain.Conditions{}, err
	}

	c.logger.Debug("primary weather fetched", "location", location, "forecast_points", len(forecast))
	return domain.Conditions{
		Location: location,
		Current:  current,
		Forecast: forecast,
		Source:   domain.SourcePrimary,
	}, nil
}

func (c *PrimaryClient) getJSON(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("primary weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("primary weather error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode primary response: %w", err)
	}
	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: gzhttp.Transport(http.DefaultTransport),
	}
}
