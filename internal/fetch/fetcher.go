package fetch

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/observability"
)

// Source produces weather conditions for a location.
type Source interface {
	Fetch(ctx context.Context, location string) (domain.Conditions, error)
}

// Fetcher retries the primary source, falls back to the secondary, and
// guarantees the cache-stamp contract on whatever it returns: primary
// readings carry CachedAt, fallback readings never do.
type Fetcher struct {
	primary   Source
	secondary Source
	retry     RetryPolicy
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New builds a Fetcher. secondary may be nil, in which case exhausting the
// primary retries fails with domain.ErrDataUnavailable.
func New(primary, secondary Source, retry RetryPolicy, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	userHook := retry.OnFailure
	retry.OnFailure = func(attempt int, err error) {
		logger.Warn("primary weather fetch failed", "attempt", attempt, "max_retries", retry.MaxRetries, "error", err)
		if userHook != nil {
			userHook(attempt, err)
		}
	}
	return &Fetcher{
		primary:   primary,
		secondary: secondary,
		retry:     retry,
		logger:    logger,
		metrics:   metrics,
	}
}

// Fetch returns conditions for the location from whichever source succeeds.
func (f *Fetcher) Fetch(ctx context.Context, location string) (domain.Conditions, error) {
	primaryAttempt := func(ctx context.Context) (domain.Conditions, error) {
		c, err := f.primary.Fetch(ctx, location)
		if err != nil {
			f.metrics.FetchAttempts.WithLabelValues(string(domain.SourcePrimary), "error").Inc()
			return domain.Conditions{}, err
		}
		f.metrics.FetchAttempts.WithLabelValues(string(domain.SourcePrimary), "success").Inc()
		return stampPrimary(c), nil
	}

	var secondaryAttempt Attempt[domain.Conditions]
	if f.secondary != nil {
		secondaryAttempt = func(ctx context.Context) (domain.Conditions, error) {
			c, err := f.secondary.Fetch(ctx, location)
			if err != nil {
				f.metrics.FetchAttempts.WithLabelValues(string(domain.SourceFallback), "error").Inc()
				return domain.Conditions{}, err
			}
			f.metrics.FetchAttempts.WithLabelValues(string(domain.SourceFallback), "success").Inc()
			return stripFallback(c), nil
		}
	}

	onFallback := func(err error) {
		f.metrics.Fallbacks.Inc()
		f.logger.Warn("falling back to secondary weather provider", "location", location, "error", err)
	}

	c, err := Fallback(Retry(f.retry, primaryAttempt), secondaryAttempt, onFallback)(ctx)
	if err != nil {
		return domain.Conditions{}, err
	}
	c.Location = location
	return c, nil
}

func stampPrimary(c domain.Conditions) domain.Conditions {
	c.Source = domain.SourcePrimary
	if c.Current.CachedAt == nil {
		now := domain.Now()
		c.Current.CachedAt = &now
	}
	return c
}

func stripFallback(c domain.Conditions) domain.Conditions {
	c.Source = domain.SourceFallback
	c.Current.CachedAt = nil
	if len(c.Forecast) > 0 {
		forecast := make([]domain.Reading, len(c.Forecast))
		copy(forecast, c.Forecast)
		for i := range forecast {
			forecast[i].CachedAt = nil
		}
		c.Forecast = forecast
	}
	return c
}
