package rag

import (
	"context"
	"fmt"
)

// Document is one hit from the collaborator's document search.
type Document struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Snippet  string         `json:"snippet,omitempty"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Message is one turn of a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest asks the collaborator for a retrieval-augmented answer.
type CompletionRequest struct {
	Messages []Message `json:"messages"`
	// Query overrides the retrieval query; when empty the collaborator
	// derives it from the last message.
	Query string `json:"query,omitempty"`
	// UseGraph asks the collaborator to include graph context.
	UseGraph bool `json:"use_graph,omitempty"`
}

// Completion is the collaborator's answer plus the documents it drew on.
type Completion struct {
	Answer    string     `json:"answer"`
	Documents []Document `json:"documents,omitempty"`
}

// SearchMode selects the collaborator's retrieval strategy.
type SearchMode string

const (
	// ModeHybrid combines lexical and vector retrieval.
	ModeHybrid SearchMode = "hybrid"
	// ModeVector is pure vector retrieval.
	ModeVector SearchMode = "vector"
)

// SearchOptions tune a document search.
type SearchOptions struct {
	// Mode selects the retrieval strategy; empty uses the collaborator's
	// default.
	Mode SearchMode
	// Limit bounds the result count; <= 0 uses the collaborator's default
	// page size.
	Limit int
	// Filters are passed through to the collaborator verbatim.
	Filters map[string]any
}

// Client is the contract for the document retrieval collaborator.
type Client interface {
	// SearchDocuments runs a document search.
	SearchDocuments(ctx context.Context, query string, opts SearchOptions) ([]Document, error)

	// Complete requests a retrieval-augmented completion.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Health probes the collaborator. A non-nil error means degraded.
	Health(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// StatusError reports a non-2xx response from the collaborator.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status indicates a transient condition.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == 429
}
