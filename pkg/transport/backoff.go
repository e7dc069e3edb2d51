package transport

import (
	"math"
	"time"
)

// BackoffStrategy computes the delay before a reconnect attempt.
// Implementations must be safe for concurrent use.
type BackoffStrategy interface {
	// NextInterval returns the delay for the given attempt.
	// Attempt starts at 1 for the first reconnect.
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay on every attempt up to a cap.
// Formula: min(InitialInterval * Multiplier^(attempt-1), MaxInterval).
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// NextInterval returns the capped exponential delay for attempt.
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}

	max := e.MaxInterval
	if max == 0 {
		max = 30 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if interval > float64(max) {
		interval = float64(max)
	}

	return time.Duration(interval)
}

// DefaultBackoffStrategy matches the reconnect policy of the push
// endpoint: 1s, 2s, 4s, 8s, 16s, capped at 30s.
func DefaultBackoffStrategy() BackoffStrategy {
	return ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
	}
}
