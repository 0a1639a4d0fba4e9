// Package types defines the core data model for the GraphAura knowledge graph:
// typed entities, weighted confidence-scored relationships, embedding records,
// filters, and the traversal request/result structures shared by the engines.
//
// Entity and relationship types are closed enumerations. Consumers are
// expected to switch exhaustively over them so that adding a variant is a
// compile-time-visible change.
package types
