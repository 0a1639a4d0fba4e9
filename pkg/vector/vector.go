package vector

import (
	"context"

	"github.com/graphaura/graphaura/pkg/types"
)

// EmbeddingStore persists entity embeddings of a fixed dimension.
type EmbeddingStore interface {
	// Put stores or overwrites the embedding for an entity. Vectors whose
	// length differs from Dimensions() fail with types.DimensionError.
	Put(ctx context.Context, record *types.EmbeddingRecord) error

	// Get returns the embedding for an entity, or types.ErrNotFound.
	Get(ctx context.Context, entityID string) (*types.EmbeddingRecord, error)

	// Delete removes the embedding for an entity. Deleting a missing
	// embedding is not an error.
	Delete(ctx context.Context, entityID string) error

	// Scan streams every stored record, optionally restricted to the
	// given entity types. Order is backend-defined.
	Scan(ctx context.Context, entityTypes []types.EntityType) ([]*types.EmbeddingRecord, error)

	// Dimensions returns the fixed vector dimension D.
	Dimensions() int

	// Close releases the underlying resources.
	Close() error
}

// CheckDimension validates a vector's length against the store dimension.
func CheckDimension(want int, vec []float32) error {
	if len(vec) != want {
		return &types.DimensionError{Want: want, Got: len(vec)}
	}
	return nil
}
