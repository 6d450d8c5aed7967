// Package resilience provides retry and circuit-breaking for calls to the
// admin REST API.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retries with exponential backoff and jitter.
type Policy struct {
	// Attempts is the total number of tries including the first.
	Attempts int
	// Base is the delay before the first retry.
	Base time.Duration
	// Max caps any single delay.
	Max time.Duration
	// Jitter is the fraction of each delay randomised in both directions.
	Jitter float64
	// Retryable overrides IsTransient.
	Retryable func(error) bool
}

// DefaultPolicy suits interactive admin calls: three tries, short delays.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Base:     250 * time.Millisecond,
		Max:      5 * time.Second,
		Jitter:   0.2,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.Base <= 0 {
		p.Base = d.Base
	}
	if p.Max <= 0 {
		p.Max = d.Max
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Backoff returns the delay after the given zero-based failed attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	d := math.Min(float64(p.Base)*math.Pow(2, float64(attempt)), float64(p.Max))
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	return time.Duration(math.Max(d, 0))
}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted or ctx is done. op names the call in retry logs.
func Retry[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		var v T
		if v, err = fn(ctx); err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt == p.Attempts-1 {
			break
		}

		delay := p.Backoff(attempt)
		zap.L().Warn("resilience: retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
	return zero, err
}
