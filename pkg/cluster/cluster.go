package cluster

import (
	"context"
	"fmt"

	"github.com/graphaura/graphaura/pkg/similarity"
	"github.com/graphaura/graphaura/pkg/types"
)

// DefaultMinSize is the smallest cluster kept when no minimum is given.
const DefaultMinSize = 2

// Options tune a clustering run.
type Options struct {
	// Threshold is the seed-similarity cutoff for membership (default
	// similarity.DefaultThreshold).
	Threshold *float64
	// MinSize discards clusters with fewer members (default 2).
	MinSize int
	// EntityTypes restricts candidates to the given types.
	EntityTypes []types.EntityType
}

// Cluster is one group of entity ids. The seed is always Members[0]; the
// remaining members are in ascending id order.
type Cluster struct {
	Seed    string   `json:"seed"`
	Members []string `json:"members"`
}

// Engine clusters entities over a similarity engine.
type Engine struct {
	sim *similarity.Engine
}

// NewEngine creates a clustering engine.
func NewEngine(sim *similarity.Engine) *Engine {
	return &Engine{sim: sim}
}

// Clusters groups every stored entity embedding. Candidates are visited in
// ascending id order, which makes the outcome deterministic.
func (e *Engine) Clusters(ctx context.Context, opts Options) ([]Cluster, error) {
	ids, sims, err := e.sim.PairwiseAll(ctx, opts.EntityTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to compute similarity matrix: %w", err)
	}

	threshold := similarity.DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	minSize := opts.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return Build(ids, sims, threshold, minSize), nil
}

// Build runs the seed-based single pass over a precomputed similarity matrix.
// ids must be in the visiting order; sims[a][b] is the similarity between a
// and b. Clusters smaller than minSize are discarded, but their members stay
// visited and never join a later cluster.
func Build(ids []string, sims map[string]map[string]float64, threshold float64, minSize int) []Cluster {
	visited := make(map[string]struct{}, len(ids))
	var clusters []Cluster

	for i, seed := range ids {
		if _, done := visited[seed]; done {
			continue
		}
		visited[seed] = struct{}{}
		members := []string{seed}

		for _, candidate := range ids[i+1:] {
			if _, done := visited[candidate]; done {
				continue
			}
			if sims[seed][candidate] >= threshold {
				visited[candidate] = struct{}{}
				members = append(members, candidate)
			}
		}

		if len(members) >= minSize {
			clusters = append(clusters, Cluster{Seed: seed, Members: members})
		}
	}
	return clusters
}
