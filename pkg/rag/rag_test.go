package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/graphaura/graphaura/pkg/types"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestHTTPClientSearchDocuments(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header %q", auth)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Query != "ada" || req.Limit != 5 || req.SearchType != "hybrid" {
			t.Errorf("unexpected request %+v", req)
		}
		if req.Filters["collection"] != "notes" {
			t.Errorf("expected filters to pass through, got %+v", req.Filters)
		}
		json.NewEncoder(w).Encode(searchResponse{Documents: []Document{
			{ID: "d1", Title: "Notes", Score: 0.9},
		}})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", time.Second)
	docs, err := client.SearchDocuments(context.Background(), "ada", SearchOptions{
		Mode:    ModeHybrid,
		Limit:   5,
		Filters: map[string]any{"collection": "notes"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Errorf("unexpected documents %+v", docs)
	}
}

func TestRetryClientRetriesTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Documents: []Document{{ID: "d1"}}})
	}))
	defer srv.Close()

	client := NewRetryClient(NewHTTPClient(srv.URL, "", time.Second), fastPolicy(), nil)
	docs, err := client.SearchDocuments(context.Background(), "q", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("expected a document after retries, got %+v", docs)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestRetryClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewRetryClient(NewHTTPClient(srv.URL, "", time.Second), fastPolicy(), nil)
	_, err := client.SearchDocuments(context.Background(), "q", SearchOptions{})

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 StatusError, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single call for a 4xx, got %d", got)
	}
}

func TestRetryClientExhaustionWrapsUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	policy := fastPolicy()
	policy.MaxRetries = 2
	client := NewRetryClient(NewHTTPClient(srv.URL, "", time.Second), policy, nil)
	_, err := client.SearchDocuments(context.Background(), "q", SearchOptions{})

	if !errors.Is(err, types.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Errorf("expected wrapped StatusError, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected initial call plus 2 retries, got %d", got)
	}
}

func TestRetryClientRespectsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	policy := fastPolicy()
	policy.InitialDelay = time.Minute
	policy.MaxDelay = time.Minute
	client := NewRetryClient(NewHTTPClient(srv.URL, "", time.Second), policy, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.SearchDocuments(ctx, "q", SearchOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewCircuitBreakerClient(NewHTTPClient(srv.URL, "", time.Second), BreakerConfig{
		ReadyToTripRatio: 0.5,
		Timeout:          60,
	}, nil)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		client.SearchDocuments(ctx, "q", SearchOptions{})
	}

	_, err := client.SearchDocuments(ctx, "q", SearchOptions{})
	if !errors.Is(err, types.ErrUpstreamUnavailable) {
		t.Fatalf("expected fail-fast with ErrUpstreamUnavailable, got %v", err)
	}
	if err := client.Health(ctx); !errors.Is(err, types.ErrUpstreamUnavailable) {
		t.Errorf("expected degraded health while open, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if err := NewHTTPClient(healthy.URL, "", time.Second).Health(context.Background()); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	err := NewHTTPClient(sick.URL, "", time.Second).Health(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Errorf("expected StatusError, got %v", err)
	}
}

func TestRetryClientZeroPolicyUsesDefaults(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Documents: []Document{{ID: "d1"}}})
	}))
	defer srv.Close()

	// Zero MaxRetries falls back to the default budget instead of
	// silently disabling retries.
	policy := RetryPolicy{
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	client := NewRetryClient(NewHTTPClient(srv.URL, "", time.Second), policy, nil)
	docs, err := client.SearchDocuments(context.Background(), "q", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("expected a document after retries, got %+v", docs)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected retries with the default budget, got %d calls", got)
	}
}
