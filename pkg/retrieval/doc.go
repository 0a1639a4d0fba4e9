// Package retrieval composes the traversal, similarity, and document search
// engines into the hybrid search surface: hybrid search fans out to every
// source and degrades per source, semantic search enriches vector matches
// with full entity records, and contextual search expands a document query
// with graph neighborhood context around seed entities.
package retrieval
