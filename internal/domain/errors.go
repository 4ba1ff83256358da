package domain

import "errors"

var (
	// ErrDataUnavailable means neither the primary cache nor the fallback
	// provider produced a reading. Callers must never substitute a default
	// reading for it.
	ErrDataUnavailable = errors.New("weather data unavailable")

	// ErrInvalidTransition is returned when a lifecycle change is not allowed
	// from the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)
