package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package-level time source for assessment dates and cache
// stamps. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the active time source.
func Clock() clockwork.Clock { return clock }

// Now returns the current time in UTC from the active clock.
func Now() time.Time { return clock.Now().UTC() }
