// Package rag talks to the external document retrieval collaborator: document
// search, retrieval-augmented completion, and health probing over HTTP.
//
// The base client is deliberately thin. Wrap it with NewRetryClient for
// bounded exponential backoff on transient failures and with
// NewCircuitBreakerClient to stop hammering a collaborator that keeps
// failing.
package rag
