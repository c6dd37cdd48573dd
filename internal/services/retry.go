package services

import (
	"context"
	"time"

	"equityscope/backend-go/internal/config"
)

// RetryPolicy bounds every outbound call: each attempt gets CallTimeout, and
// only transient failures are retried, up to MaxRetries more times.
type RetryPolicy struct {
	MaxRetries     int
	CallTimeout    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

func NewRetryPolicy(cfg config.Config) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     cfg.MaxRetries,
		CallTimeout:    cfg.CallTimeout,
		InitialBackoff: cfg.RetryBackoff,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
	}
}

// Backoff returns the wait before retry number attempt (0-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		d *= mult
	}
	backoff := time.Duration(d)
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}
	return backoff
}

func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		lastErr = p.attempt(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt == p.MaxRetries {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.CallTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.CallTimeout)
	defer cancel()
	return fn(callCtx)
}
