package notify

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig bounds how often and how slowly a push is retried.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// JitterFraction spreads each delay by up to this share either way.
	JitterFraction float64
}

// DefaultPushRetryConfig is tuned for transient FCM errors.
var DefaultPushRetryConfig = RetryConfig{
	MaxRetries:     2,
	InitialDelay:   500 * time.Millisecond,
	MaxDelay:       5 * time.Second,
	BackoffFactor:  2.0,
	JitterFraction: 0.2,
}

// backoff returns the pause before retry number attempt+1, before jitter.
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt))
	return time.Duration(math.Min(d, float64(c.MaxDelay)))
}

func (c RetryConfig) jitter(d time.Duration) time.Duration {
	if c.JitterFraction <= 0 {
		return d
	}
	spread := float64(d) * c.JitterFraction * (2*rand.Float64() - 1)
	if j := d + time.Duration(spread); j > 0 {
		return j
	}
	return c.InitialDelay
}

// WithRetry calls fn until it succeeds, retryable rejects its error, ctx is
// done, or MaxRetries retries have failed. A nil retryable retries every
// error. The last error from fn is returned.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		switch {
		case err == nil:
			return result, nil
		case retryable != nil && !retryable(err), attempt >= cfg.MaxRetries:
			return zero, err
		}

		timer := time.NewTimer(cfg.jitter(cfg.backoff(attempt)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
