package engine

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig controls caller-side retries. The transport itself never
// retries; callers opt in by wrapping a whole operation in RetryDo.
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig is used by serve mode.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:  2,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     5 * time.Second,
	Multiplier:  2.0,
}

// RetryDo retries fn up to MaxRetries times with exponential backoff.
// Retries only on retryable errors; returns immediately on non-retryable or context cancellation.
func RetryDo[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	if rc.MaxRetries <= 0 {
		return fn()
	}

	bo := backoff.NewExponentialBackOff()
	if rc.InitialWait > 0 {
		bo.InitialInterval = rc.InitialWait
	}
	if rc.MaxWait > 0 {
		bo.MaxInterval = rc.MaxWait
	}
	if rc.Multiplier > 1 {
		bo.Multiplier = rc.Multiplier
	}

	attempt := 0
	operation := func() (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, backoff.Permanent(err)
		}
		attempt++
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return zero, backoff.Permanent(err)
		}
		slog.Debug("retrying", slog.Int("attempt", attempt), slog.Any("error", err))
		return zero, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(rc.MaxRetries+1)),
	)
}

// IsRetryable returns true for transient errors worth retrying.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return IsRetryableStatus(statusErr.StatusCode)
	}

	// Connection errors (dial failures, connection refused, etc.)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// Timeout errors (net.Error includes OpError, so check after OpError)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
