// Package graphaura is a knowledge-graph retrieval backend: a typed
// entity/relationship store over Neo4j, embedding similarity search over
// pgvector, bounded graph traversal, seed-based clustering, and hybrid
// retrieval that blends graph context with an external document search
// collaborator.
//
// The Service interface is the single entry point; NewClient wires the
// stores, engines, and collaborators behind it.
package graphaura
