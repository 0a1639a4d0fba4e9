package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/graphaura/graphaura/pkg/types"
)

// MemoryStore is an in-memory GraphStore. It is safe for concurrent use and
// returns edges in insertion order, which keeps traversal results
// deterministic.
type MemoryStore struct {
	mu       sync.RWMutex
	entities map[string]*types.Entity
	rels     map[string]*types.Relationship
	// relOrder preserves insertion order for stable adjacency listings.
	relOrder []string
	outgoing map[string][]string
	incoming map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entities: make(map[string]*types.Entity),
		rels:     make(map[string]*types.Relationship),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

func (s *MemoryStore) GetEntity(ctx context.Context, id string) (*types.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) FindEntities(ctx context.Context, filter *types.EntityFilter, limit, offset int) ([]*types.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*types.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if offset >= len(matched) {
		return []*types.Entity{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*types.Entity, len(matched))
	for i, e := range matched {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryStore) CreateEntity(ctx context.Context, e *types.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entities[e.ID]; exists {
		return types.ErrConflict
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	cp := *e
	s.entities[e.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateEntity(ctx context.Context, id string, fields map[string]any) (*types.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return nil, types.ErrNotFound
	}

	updated := *e
	for k, v := range fields {
		switch k {
		case "name":
			if name, ok := v.(string); ok {
				updated.Name = name
			}
		case "description":
			if desc, ok := v.(string); ok {
				updated.Description = desc
			}
		case "tags":
			if tags, ok := v.([]string); ok {
				updated.Tags = tags
			}
		case "confidence_score":
			if score, ok := v.(float64); ok {
				updated.ConfidenceScore = score
			}
		case "properties":
			if props, ok := v.(map[string]any); ok {
				updated.Properties = props
			}
		case "source_documents":
			if docs, ok := v.([]string); ok {
				updated.SourceDocuments = docs
			}
		}
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now()

	s.entities[id] = &updated
	cp := updated
	return &cp, nil
}

func (s *MemoryStore) DeleteEntity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[id]; !ok {
		return types.ErrNotFound
	}
	delete(s.entities, id)

	// Cascade: remove every edge touching the entity.
	removed := make(map[string]struct{})
	for _, relID := range s.outgoing[id] {
		removed[relID] = struct{}{}
	}
	for _, relID := range s.incoming[id] {
		removed[relID] = struct{}{}
	}
	for relID := range removed {
		s.removeRelLocked(relID)
	}
	delete(s.outgoing, id)
	delete(s.incoming, id)
	return nil
}

func (s *MemoryStore) GetRelationship(ctx context.Context, id string) (*types.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rels[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) CreateRelationship(ctx context.Context, r *types.Relationship) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rels[r.ID]; exists {
		return types.ErrConflict
	}
	if _, ok := s.entities[r.SourceID]; !ok {
		return types.NewValidationError("source_id", "entity %q does not exist", r.SourceID)
	}
	if _, ok := s.entities[r.TargetID]; !ok {
		return types.NewValidationError("target_id", "entity %q does not exist", r.TargetID)
	}

	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	cp := *r
	s.rels[r.ID] = &cp
	s.relOrder = append(s.relOrder, r.ID)
	s.outgoing[r.SourceID] = append(s.outgoing[r.SourceID], r.ID)
	s.incoming[r.TargetID] = append(s.incoming[r.TargetID], r.ID)
	return nil
}

func (s *MemoryStore) DeleteRelationship(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rels[id]; !ok {
		return types.ErrNotFound
	}
	s.removeRelLocked(id)
	return nil
}

func (s *MemoryStore) RelationshipsOf(ctx context.Context, id string, dir types.Direction) ([]types.AdjacentRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities[id]; !ok {
		return nil, types.ErrNotFound
	}

	want := func(relID string) (types.Direction, bool) {
		r := s.rels[relID]
		switch dir {
		case types.DirectionOut:
			if r.SourceID == id {
				return types.DirectionOut, true
			}
		case types.DirectionIn:
			if r.TargetID == id {
				return types.DirectionIn, true
			}
		case types.DirectionBoth:
			if r.SourceID == id {
				return types.DirectionOut, true
			}
			if r.TargetID == id {
				return types.DirectionIn, true
			}
		}
		return "", false
	}

	seen := make(map[string]struct{})
	var out []types.AdjacentRelationship
	for _, relID := range s.relOrder {
		r, ok := s.rels[relID]
		if !ok {
			continue
		}
		if r.SourceID != id && r.TargetID != id {
			continue
		}
		if _, dup := seen[relID]; dup {
			continue
		}
		d, ok := want(relID)
		if !ok {
			continue
		}
		seen[relID] = struct{}{}
		cp := *r
		out = append(out, types.AdjacentRelationship{Relationship: &cp, Direction: d})
	}
	return out, nil
}

func (s *MemoryStore) CreateIndices(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// removeRelLocked deletes a relationship and its adjacency entries. Caller
// holds the write lock.
func (s *MemoryStore) removeRelLocked(id string) {
	r, ok := s.rels[id]
	if !ok {
		return
	}
	delete(s.rels, id)
	s.outgoing[r.SourceID] = removeID(s.outgoing[r.SourceID], id)
	s.incoming[r.TargetID] = removeID(s.incoming[r.TargetID], id)
	s.relOrder = removeID(s.relOrder, id)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
