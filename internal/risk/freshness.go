package risk

import (
	"fmt"
	"time"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultFreshnessWindow is how long a cached reading stays usable.
const DefaultFreshnessWindow = 30 * time.Minute

// Freshness decides whether a cached reading may be reused without refetching.
type Freshness struct {
	clock  clockwork.Clock
	window time.Duration
}

// NewFreshness creates an evaluator. A nil clock uses the domain clock; a
// non-positive window uses DefaultFreshnessWindow.
func NewFreshness(clock clockwork.Clock, window time.Duration) *Freshness {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &Freshness{clock: clock, window: window}
}

// Window returns the validity window.
func (f *Freshness) Window() time.Duration { return f.window }

func (f *Freshness) now() time.Time {
	if f.clock == nil {
		return domain.Now()
	}
	return f.clock.Now()
}

// IsValid reports whether cachedAt is set and younger than the window.
func (f *Freshness) IsValid(cachedAt *time.Time) bool {
	if cachedAt == nil {
		return false
	}
	return f.now().Sub(*cachedAt) < f.window
}

// Age renders how long ago cachedAt was, or false when it is absent.
func (f *Freshness) Age(cachedAt *time.Time) (string, bool) {
	if cachedAt == nil {
		return "", false
	}
	return humanizeAge(f.now().Sub(*cachedAt)), true
}

// Evaluate reports validity and age for a reading.
func (f *Freshness) Evaluate(r domain.Reading) domain.Freshness {
	age, _ := f.Age(r.CachedAt)
	return domain.Freshness{Valid: f.IsValid(r.CachedAt), Age: age}
}

func humanizeAge(d time.Duration) string {
	minutes := int(d / time.Minute)
	switch {
	case minutes < 1:
		return "less than a minute ago"
	case minutes == 1:
		return "1 minute ago"
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	case minutes < 120:
		return "1 hour ago"
	default:
		return fmt.Sprintf("%d hours ago", minutes/60)
	}
}
