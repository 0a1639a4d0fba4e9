package traversal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/graphaura/graphaura/pkg/store"
	"github.com/graphaura/graphaura/pkg/types"
)

// Engine walks the graph through a GraphStore.
type Engine struct {
	store  store.GraphStore
	logger *slog.Logger
}

// NewEngine creates a traversal engine.
func NewEngine(gs store.GraphStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: gs, logger: logger}
}

// Traverse expands the neighborhood around the start entity breadth-first.
// The start entity is never part of the result nodes. When the request names
// a target, the shortest path under the same edge filters is attached; an
// unreachable target leaves Path nil without failing the traversal.
func (e *Engine) Traverse(ctx context.Context, req types.TraversalRequest) (*types.TraversalResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := e.store.GetEntity(ctx, req.StartID); err != nil {
		return nil, fmt.Errorf("start entity %q: %w", req.StartID, err)
	}

	result := &types.TraversalResult{
		Nodes: []*types.Entity{},
		Edges: []types.TraversalEdge{},
	}

	dir := req.Direction()
	visited := map[string]struct{}{req.StartID: {}}
	edgeSeen := make(map[string]struct{})
	frontier := []string{req.StartID}

	for depth := 0; depth < req.MaxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, nodeID := range frontier {
			adj, err := e.store.RelationshipsOf(ctx, nodeID, dir)
			if err != nil {
				// A frontier node may vanish between discovery and
				// expansion; skip it rather than failing the walk.
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("failed to expand %q: %w", nodeID, err)
			}

			for _, a := range adj {
				rel := a.Relationship
				if !edgePasses(rel, &req) {
					continue
				}

				otherID := a.Other(nodeID)
				if _, done := visited[otherID]; done {
					// Still record the edge between two known nodes.
					e.recordEdge(result, edgeSeen, a)
					continue
				}
				visited[otherID] = struct{}{}

				entity, err := e.store.GetEntity(ctx, otherID)
				if err != nil {
					if errors.Is(err, types.ErrNotFound) {
						e.logger.Debug("skipping dangling edge endpoint",
							"relationship_id", rel.ID, "entity_id", otherID)
						continue
					}
					return nil, fmt.Errorf("failed to fetch %q: %w", otherID, err)
				}

				result.Nodes = append(result.Nodes, entity)
				e.recordEdge(result, edgeSeen, a)
				next = append(next, otherID)

				if len(result.Nodes) >= req.Limit {
					e.attachPath(ctx, &req, result)
					return result, nil
				}
			}
		}
		frontier = next
	}

	e.attachPath(ctx, &req, result)
	return result, nil
}

func (e *Engine) attachPath(ctx context.Context, req *types.TraversalRequest, result *types.TraversalResult) {
	if req.TargetID == "" {
		return
	}
	path, err := e.shortestPath(ctx, req)
	if err != nil {
		e.logger.Warn("shortest path lookup failed",
			"start_id", req.StartID, "target_id", req.TargetID, "error", err)
		return
	}
	result.Path = path
}

// ShortestPath finds the shortest path from start to target under the
// request's edge filters. The search is bounded at MaxDepth hops; a target
// only reachable beyond that returns nil, as does an unreachable one. The
// node limit does not apply.
func (e *Engine) ShortestPath(ctx context.Context, req types.TraversalRequest) (*types.Path, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.TargetID == "" {
		return nil, types.NewValidationError("target_id", "cannot be empty")
	}
	if _, err := e.store.GetEntity(ctx, req.StartID); err != nil {
		return nil, fmt.Errorf("start entity %q: %w", req.StartID, err)
	}
	if _, err := e.store.GetEntity(ctx, req.TargetID); err != nil {
		return nil, fmt.Errorf("target entity %q: %w", req.TargetID, err)
	}
	return e.shortestPath(ctx, &req)
}

type pathStep struct {
	parent string
	rel    *types.Relationship
}

func (e *Engine) shortestPath(ctx context.Context, req *types.TraversalRequest) (*types.Path, error) {
	if req.StartID == req.TargetID {
		return &types.Path{Nodes: []string{req.StartID}}, nil
	}

	dir := req.Direction()
	parents := map[string]pathStep{req.StartID: {}}
	frontier := []string{req.StartID}

	for depth := 0; depth < req.MaxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, nodeID := range frontier {
			adj, err := e.store.RelationshipsOf(ctx, nodeID, dir)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				return nil, err
			}
			for _, a := range adj {
				if !edgePasses(a.Relationship, req) {
					continue
				}
				otherID := a.Other(nodeID)
				if _, done := parents[otherID]; done {
					continue
				}
				parents[otherID] = pathStep{parent: nodeID, rel: a.Relationship}
				if otherID == req.TargetID {
					return assemblePath(req.StartID, req.TargetID, parents), nil
				}
				next = append(next, otherID)
			}
		}
		frontier = next
	}
	return nil, nil
}

func assemblePath(startID, targetID string, parents map[string]pathStep) *types.Path {
	var nodes []string
	var edges []*types.Relationship
	for id := targetID; ; {
		nodes = append([]string{id}, nodes...)
		step := parents[id]
		if step.rel == nil {
			break
		}
		edges = append([]*types.Relationship{step.rel}, edges...)
		id = step.parent
	}
	return &types.Path{Nodes: nodes, Edges: edges}
}

func (e *Engine) recordEdge(result *types.TraversalResult, seen map[string]struct{}, a types.AdjacentRelationship) {
	if _, dup := seen[a.Relationship.ID]; dup {
		return
	}
	seen[a.Relationship.ID] = struct{}{}
	result.Edges = append(result.Edges, types.TraversalEdge{
		Relationship: a.Relationship,
		Direction:    a.Direction,
	})
}

func edgePasses(rel *types.Relationship, req *types.TraversalRequest) bool {
	if rel.ConfidenceScore < *req.MinConfidence {
		return false
	}
	if len(req.RelationshipTypes) == 0 {
		return true
	}
	for _, t := range req.RelationshipTypes {
		if rel.Type == t {
			return true
		}
	}
	return false
}
