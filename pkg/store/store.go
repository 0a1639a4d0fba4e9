package store

import (
	"context"

	"github.com/graphaura/graphaura/pkg/types"
)

// GraphStore is the persistence contract for the knowledge graph.
type GraphStore interface {
	// GetEntity returns the entity with the given id, or types.ErrNotFound.
	GetEntity(ctx context.Context, id string) (*types.Entity, error)

	// FindEntities returns entities matching the filter, newest first,
	// bounded by limit with the given offset. A nil filter matches all.
	FindEntities(ctx context.Context, filter *types.EntityFilter, limit, offset int) ([]*types.Entity, error)

	// CreateEntity stores a new entity. Fails with types.ErrConflict when
	// the id already exists.
	CreateEntity(ctx context.Context, e *types.Entity) error

	// UpdateEntity applies the given field updates to an existing entity
	// and returns the updated record, or types.ErrNotFound.
	UpdateEntity(ctx context.Context, id string, fields map[string]any) (*types.Entity, error)

	// DeleteEntity removes the entity and every relationship attached to
	// it. Returns types.ErrNotFound when the entity does not exist.
	DeleteEntity(ctx context.Context, id string) error

	// GetRelationship returns the relationship with the given id, or
	// types.ErrNotFound.
	GetRelationship(ctx context.Context, id string) (*types.Relationship, error)

	// CreateRelationship stores a new edge. Both endpoints must exist;
	// a missing endpoint is a validation failure, not ErrNotFound.
	CreateRelationship(ctx context.Context, r *types.Relationship) error

	// DeleteRelationship removes a single edge, or types.ErrNotFound.
	DeleteRelationship(ctx context.Context, id string) error

	// RelationshipsOf returns the edges around an entity in a stable
	// order, each tagged with its direction relative to that entity.
	// Returns types.ErrNotFound when the entity does not exist.
	RelationshipsOf(ctx context.Context, id string, dir types.Direction) ([]types.AdjacentRelationship, error)

	// CreateIndices bootstraps any indices or constraints the backend
	// needs. Safe to call repeatedly.
	CreateIndices(ctx context.Context) error

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}
