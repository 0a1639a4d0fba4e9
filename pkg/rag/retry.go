package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"strings"
	"time"

	"github.com/graphaura/graphaura/pkg/types"
)

// RetryPolicy holds configuration for retry behavior.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts (default: 3).
	MaxRetries int
	// InitialDelay is the delay before the first retry (default: 1 second).
	InitialDelay time.Duration
	// MaxDelay caps the delay between retries (default: 60 seconds).
	MaxDelay time.Duration
	// BackoffMultiplier is the exponential backoff factor (default: 2.0).
	BackoffMultiplier float64
}

// DefaultRetryPolicy returns the default retry configuration.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          60 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient wraps a Client and retries transient failures with exponential
// backoff. 4xx responses fail immediately; exhausted retries wrap
// types.ErrUpstreamUnavailable.
type RetryClient struct {
	client Client
	policy RetryPolicy
	logger *slog.Logger
}

// NewRetryClient wraps a client with the given policy. Zero-valued policy
// fields fall back to the defaults.
func NewRetryClient(client Client, policy RetryPolicy, logger *slog.Logger) *RetryClient {
	def := DefaultRetryPolicy()
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = def.MaxRetries
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = def.InitialDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = def.MaxDelay
	}
	if policy.BackoffMultiplier <= 0 {
		policy.BackoffMultiplier = def.BackoffMultiplier
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryClient{client: client, policy: policy, logger: logger}
}

func (r *RetryClient) SearchDocuments(ctx context.Context, query string, opts SearchOptions) ([]Document, error) {
	var docs []Document
	err := r.do(ctx, "search", func() error {
		var err error
		docs, err = r.client.SearchDocuments(ctx, query, opts)
		return err
	})
	return docs, err
}

func (r *RetryClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	var completion *Completion
	err := r.do(ctx, "complete", func() error {
		var err error
		completion, err = r.client.Complete(ctx, req)
		return err
	})
	return completion, err
}

func (r *RetryClient) Health(ctx context.Context) error {
	// Health is a probe; retrying would only mask the degradation.
	return r.client.Health(ctx)
}

func (r *RetryClient) Close() error {
	return r.client.Close()
}

func (r *RetryClient) do(ctx context.Context, op string, call func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.delay(attempt)
			r.logger.Debug("retrying upstream call",
				"operation", op, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err())
			}
		}

		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return err
		}
	}

	return fmt.Errorf("%s failed after %d retries: %w: %w",
		op, r.policy.MaxRetries, types.ErrUpstreamUnavailable, lastErr)
}

func (r *RetryClient) delay(attempt int) time.Duration {
	d := float64(r.policy.InitialDelay) * math.Pow(r.policy.BackoffMultiplier, float64(attempt-1))
	if d > float64(r.policy.MaxDelay) {
		d = float64(r.policy.MaxDelay)
	}
	return time.Duration(d)
}

// isTransient reports whether a collaborator error is worth retrying:
// 5xx and 429 responses, timeouts, and connection-level failures.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"no such host",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
