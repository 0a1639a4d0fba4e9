// Package embedder turns free text into embedding vectors for semantic
// search. The OpenAI client is the production implementation; the facade only
// depends on the Client interface so tests can substitute a fixed-vector
// embedder.
package embedder
