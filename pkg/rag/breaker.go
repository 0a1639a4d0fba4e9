package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/graphaura/graphaura/pkg/types"
)

// BreakerConfig tunes the circuit breaker around the collaborator.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval between counter resets while closed, in seconds.
	Interval int
	// Timeout before probing an open breaker, in seconds.
	Timeout int
	// ReadyToTripRatio is the failure ratio that opens the breaker.
	ReadyToTripRatio float64
}

// CircuitBreakerClient wraps a Client with gobreaker. An open breaker fails
// fast with types.ErrUpstreamUnavailable.
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// NewCircuitBreakerClient wraps a client with circuit breaking.
func NewCircuitBreakerClient(client Client, cfg BreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadyToTripRatio <= 0 {
		cfg.ReadyToTripRatio = 0.6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}

	st := gobreaker.Settings{
		Name:        "rag",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

func (c *CircuitBreakerClient) SearchDocuments(ctx context.Context, query string, opts SearchOptions) ([]Document, error) {
	result, err := c.cb.Execute(func() (any, error) {
		return c.client.SearchDocuments(ctx, query, opts)
	})
	if err != nil {
		return nil, c.mapErr(err)
	}
	return result.([]Document), nil
}

func (c *CircuitBreakerClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	result, err := c.cb.Execute(func() (any, error) {
		return c.client.Complete(ctx, req)
	})
	if err != nil {
		return nil, c.mapErr(err)
	}
	return result.(*Completion), nil
}

func (c *CircuitBreakerClient) Health(ctx context.Context) error {
	if c.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker open: %w", types.ErrUpstreamUnavailable)
	}
	return c.client.Health(ctx)
}

func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}

func (c *CircuitBreakerClient) mapErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker open: %w", types.ErrUpstreamUnavailable)
	}
	return err
}
