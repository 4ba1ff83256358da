package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/observability"
	"github.com/couchcryptid/weather-risk-engine/internal/policy"
	"github.com/couchcryptid/weather-risk-engine/internal/risk"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	defaultInterval = 15 * time.Minute
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 30 * time.Second

	// maxConcurrentFetches bounds the per-cycle fan-out across locations.
	maxConcurrentFetches = 8
)

// Source produces weather conditions for a location.
type Source interface {
	Fetch(ctx context.Context, location string) (domain.Conditions, error)
}

// Publisher writes a batch of evaluations to the destination.
type Publisher interface {
	PublishBatch(ctx context.Context, evaluations []domain.Evaluation) error
}

// PolicyProvider returns the active workforce policy.
type PolicyProvider interface {
	Current() *policy.Policy
}

// Options configures the scheduled evaluation loop.
type Options struct {
	Locations []string
	Interval  time.Duration
	Assessor  string
	Clock     clockwork.Clock
}

// Pipeline evaluates locations on demand and on a schedule.
type Pipeline struct {
	source    Source
	policies  PolicyProvider
	freshness *risk.Freshness
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	ready     atomic.Bool
}

// New creates a Pipeline. publisher may be nil, in which case scheduled
// evaluations are computed and logged but not published.
func New(src Source, policies PolicyProvider, freshness *risk.Freshness, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Assessor == "" {
		opts.Assessor = domain.SystemAssessor
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Pipeline{
		source:    src,
		policies:  policies,
		freshness: freshness,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once the first scheduled cycle has completed,
// or immediately when no locations are scheduled.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if len(p.opts.Locations) == 0 || p.ready.Load() {
		return nil
	}
	return errors.New("pipeline has not completed an evaluation cycle yet")
}

// Ready reports whether the first scheduled cycle has completed.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// Run evaluates every configured location each interval until the context is
// cancelled. A failed cycle is retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	if len(p.opts.Locations) == 0 {
		p.logger.Info("no locations scheduled, serving on-demand evaluations only")
		return nil
	}

	p.logger.Info("pipeline started", "locations", len(p.opts.Locations), "interval", p.opts.Interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.opts.Clock.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	backoff := initialBackoff
	for {
		if err := p.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("evaluation cycle failed", "error", err, "retry_in", backoff)
			if !p.sleep(ctx, backoff) {
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce evaluates every configured location concurrently. Locations whose
// data is unavailable are logged and left out of the result, which is sorted
// by location.
func (p *Pipeline) RunOnce(ctx context.Context) ([]domain.Evaluation, error) {
	var (
		mu          sync.Mutex
		evaluations = make([]domain.Evaluation, 0, len(p.opts.Locations))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, location := range p.opts.Locations {
		g.Go(func() error {
			ev, err := p.Evaluate(gctx, location)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.logger.Warn("location skipped", "location", location, "error", err)
				return nil
			}
			mu.Lock()
			evaluations = append(evaluations, ev)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(evaluations, func(a, b domain.Evaluation) int {
		return strings.Compare(a.Location, b.Location)
	})
	return evaluations, nil
}

func (p *Pipeline) runCycle(ctx context.Context) error {
	start := time.Now()
	evaluations, err := p.RunOnce(ctx)
	if err != nil {
		return err
	}

	if p.publisher != nil && len(evaluations) > 0 {
		if err := p.publisher.PublishBatch(ctx, evaluations); err != nil {
			p.metrics.PublishErrors.Inc()
			return err
		}
		p.metrics.EvaluationsPublished.Add(float64(len(evaluations)))
	}

	p.ready.Store(true)
	p.logger.Info("evaluation cycle complete",
		"evaluated", len(evaluations),
		"scheduled", len(p.opts.Locations),
		"duration", time.Since(start),
	)
	return nil
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	timer := p.opts.Clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
