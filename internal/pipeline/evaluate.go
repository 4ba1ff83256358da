package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/policy"
	"github.com/couchcryptid/weather-risk-engine/internal/risk"
)

// Evaluate fetches conditions for location and runs the full classification,
// derivation, and assessment. crew lists the employees a schedule change
// would affect. Fetch failures are returned unchanged in the error chain, so
// callers can test for domain.ErrDataUnavailable.
func (p *Pipeline) Evaluate(ctx context.Context, location string, crew ...string) (domain.Evaluation, error) {
	start := time.Now()

	c, err := p.source.Fetch(ctx, location)
	if err != nil {
		if errors.Is(err, domain.ErrDataUnavailable) {
			p.metrics.DataUnavailable.Inc()
		}
		return domain.Evaluation{}, fmt.Errorf("evaluate %s: %w", location, err)
	}
	if c.Location == "" {
		c.Location = location
	}

	ev := p.EvaluateConditions(c, "", crew)
	p.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	return ev, nil
}

// EvaluateConditions evaluates already-known conditions against the active
// policy. An empty assessor uses the configured one.
func (p *Pipeline) EvaluateConditions(c domain.Conditions, assessor string, crew []string) domain.Evaluation {
	if assessor == "" {
		assessor = p.opts.Assessor
	}
	ev := Assemble(c, p.policies.Current(), p.freshness, assessor, crew)

	p.metrics.Evaluations.WithLabelValues(ev.Risk.Level.String()).Inc()
	for _, a := range ev.Alerts {
		p.metrics.Alerts.WithLabelValues(string(a.Type), string(a.Level)).Inc()
	}
	p.logger.Debug("location evaluated",
		"location", c.Location,
		"source", c.Source,
		"level", ev.Risk.Level.String(),
		"alerts", len(ev.Alerts),
	)
	return ev
}

// Assemble builds an evaluation from a single policy snapshot.
func Assemble(c domain.Conditions, pol *policy.Policy, freshness *risk.Freshness, assessor string, crew []string) domain.Evaluation {
	view := risk.ClassifyConditions(c, pol.Thresholds)
	d := risk.DeriveFromView(c, view, pol, crew)

	return domain.Evaluation{
		Location:            c.Location,
		EvaluatedAt:         domain.Now(),
		Conditions:          c,
		Freshness:           freshness.Evaluate(c.Current),
		Risk:                view,
		ScheduleAdjustments: d.ScheduleAdjustments,
		Equipment:           d.Equipment,
		Training:            d.Training,
		Alerts:              d.Alerts,
		Assessment:          risk.ComposeFromView(c, view, c.Location, assessor),
	}
}
