// Package store defines the GraphStore contract for persisting entities and
// relationships, with a Neo4j implementation for production and an in-memory
// implementation for tests and local mode.
//
// All implementations share the same semantics: creates fail with
// types.ErrConflict on duplicate ids, lookups fail with types.ErrNotFound,
// relationship creation validates that both endpoints exist, and entity
// deletion cascades to every attached relationship.
package store
