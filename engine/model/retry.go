package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Retry wraps a provider and replays failed chat calls with exponential
// backoff and jitter. Routing and retrieval never retry on their own; this
// wrapper is the one place retry happens.
type Retry struct {
	inner      Provider
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	// RetryableError optionally classifies errors. If nil, all errors trigger retry.
	RetryableError func(err error) bool

	// OnRetry is called before each retry with the attempt number (1-based)
	// and the delay about to be applied.
	OnRetry func(attempt int, delay time.Duration)
}

// NewRetry wraps inner with the given retry budget. maxRetries <= 0 defaults
// to 3.
func NewRetry(inner Provider, maxRetries int) *Retry {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Retry{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   30 * time.Second,
	}
}

func (r *Retry) Name() string { return "retry(" + r.inner.Name() + ")" }

func (r *Retry) Model() string { return r.inner.Model() }

func (r *Retry) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoff(attempt)
			if r.OnRetry != nil {
				r.OnRetry(attempt, delay)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("retry: %w", ctx.Err())
			}
		}

		resp, err := r.inner.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if r.RetryableError != nil && !r.RetryableError(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("retry: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("retry: %d attempts failed, last error: %w", r.maxRetries+1, lastErr)
}

func (r *Retry) backoff(attempt int) time.Duration {
	delay := float64(r.baseDelay) * math.Pow(2, float64(attempt-1))
	// ±25% jitter
	jitter := delay * 0.25 * (rand.Float64()*2 - 1)
	delay += jitter
	if maxD := float64(r.maxDelay); delay > maxD {
		delay = maxD
	}
	return time.Duration(delay)
}
