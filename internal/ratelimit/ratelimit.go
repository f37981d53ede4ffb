package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket is a Limiter backed by a token bucket
type TokenBucket struct {
	limiter *rate.Limiter
}

// New creates a new rate limiter
// Example: New(30, time.Minute, 5) -> 30 requests per minute, burst of 5
func New(requests int, per time.Duration, burst int) Limiter {
	if requests <= 0 {
		return &TokenBucket{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(per/time.Duration(requests)), burst),
	}
}

// Wait blocks until a request may be sent or ctx is done
func (l *TokenBucket) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
