// Package similarity computes cosine similarity between entity embeddings:
// top-k search against a query vector and pairwise scoring between stored
// entities.
//
// Dimension checks run before any store access. A zero-magnitude vector has
// similarity 0 against everything, including itself.
package similarity
