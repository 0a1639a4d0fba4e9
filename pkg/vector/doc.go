// Package vector defines the EmbeddingStore contract for entity embeddings,
// with a Postgres/pgvector implementation for production and a Badger
// implementation for tests and local mode.
//
// Every store is created with a fixed dimension D. Vectors of any other
// length are rejected with types.DimensionError before any I/O happens.
package vector
