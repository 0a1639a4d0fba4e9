package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/graphaura/graphaura/pkg/types"
	"github.com/graphaura/graphaura/pkg/vector"
)

// DefaultThreshold is the similarity cutoff applied when a request does not
// set one.
const DefaultThreshold = 0.7

// Cosine calculates the cosine similarity between two float32 vectors.
// Returns 0 if the vectors have different lengths, are empty, or either has
// zero magnitude. The result is in [-1, 1].
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SearchOptions tune a similarity search.
type SearchOptions struct {
	// Limit bounds the number of matches (default 10).
	Limit int
	// Threshold drops matches below the bound (default 0.7). Set a
	// negative value to disable the cutoff.
	Threshold *float64
	// EntityTypes restricts candidates to the given types.
	EntityTypes []types.EntityType
	// Exclude removes specific entity ids from the candidates.
	Exclude []string
}

// Engine runs similarity computations over an embedding store.
type Engine struct {
	store vector.EmbeddingStore
}

// NewEngine creates a similarity engine backed by the given store.
func NewEngine(store vector.EmbeddingStore) *Engine {
	return &Engine{store: store}
}

// Search returns the entities most similar to the query vector, ordered by
// descending similarity with ascending entity id breaking ties. The query
// dimension is validated before the store is touched.
func (e *Engine) Search(ctx context.Context, query []float32, opts SearchOptions) ([]types.SimilarityMatch, error) {
	if err := vector.CheckDimension(e.store.Dimensions(), query); err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	threshold := DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, id := range opts.Exclude {
		excluded[id] = struct{}{}
	}

	records, err := e.store.Scan(ctx, opts.EntityTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates: %w", err)
	}

	matches := make([]types.SimilarityMatch, 0, len(records))
	for _, r := range records {
		if _, skip := excluded[r.EntityID]; skip {
			continue
		}
		sim := Cosine(query, r.Vector)
		if sim < threshold {
			continue
		}
		matches = append(matches, types.SimilarityMatch{EntityID: r.EntityID, Similarity: sim})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].EntityID < matches[j].EntityID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// SearchByEntity runs Search with the stored embedding of the given entity as
// the query, excluding the entity itself from the results.
func (e *Engine) SearchByEntity(ctx context.Context, entityID string, opts SearchOptions) ([]types.SimilarityMatch, error) {
	record, err := e.store.Get(ctx, entityID)
	if err != nil {
		return nil, err
	}
	opts.Exclude = append(opts.Exclude, entityID)
	return e.Search(ctx, record.Vector, opts)
}

// Pairwise scores each candidate against the seed entity. Candidates without
// a stored embedding are excluded rather than failing the whole call. Results
// keep the input order of the surviving ids.
func (e *Engine) Pairwise(ctx context.Context, seedID string, candidateIDs []string) ([]types.SimilarityMatch, error) {
	seed, err := e.store.Get(ctx, seedID)
	if err != nil {
		return nil, err
	}

	matches := make([]types.SimilarityMatch, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == seedID {
			continue
		}
		record, err := e.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			return nil, err
		}
		matches = append(matches, types.SimilarityMatch{
			EntityID:   id,
			Similarity: Cosine(seed.Vector, record.Vector),
		})
	}
	return matches, nil
}

// PairwiseMatrix computes the symmetric similarity matrix over the given
// entity ids, preserving their order. Ids without a stored embedding (and
// duplicates) are excluded; sims[a][b] holds the cosine similarity between a
// and b.
func (e *Engine) PairwiseMatrix(ctx context.Context, entityIDs []string) (ids []string, sims map[string]map[string]float64, err error) {
	byID := make(map[string][]float32, len(entityIDs))
	for _, id := range entityIDs {
		if _, dup := byID[id]; dup {
			continue
		}
		record, err := e.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		byID[id] = record.Vector
		ids = append(ids, id)
	}
	return ids, matrix(ids, byID), nil
}

// PairwiseAll computes the full similarity matrix over every stored record of
// the given types. The returned ids are sorted ascending; sims[a][b] holds
// the cosine similarity between a and b.
func (e *Engine) PairwiseAll(ctx context.Context, entityTypes []types.EntityType) (ids []string, sims map[string]map[string]float64, err error) {
	records, err := e.store.Scan(ctx, entityTypes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan candidates: %w", err)
	}

	byID := make(map[string][]float32, len(records))
	for _, r := range records {
		byID[r.EntityID] = r.Vector
		ids = append(ids, r.EntityID)
	}
	sort.Strings(ids)
	return ids, matrix(ids, byID), nil
}

func matrix(ids []string, byID map[string][]float32) map[string]map[string]float64 {
	sims := make(map[string]map[string]float64, len(ids))
	for _, a := range ids {
		sims[a] = make(map[string]float64, len(ids))
	}
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			sim := Cosine(byID[a], byID[b])
			sims[a][b] = sim
			sims[b][a] = sim
		}
	}
	return sims
}
