package traversal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/graphaura/graphaura/pkg/store"
	"github.com/graphaura/graphaura/pkg/types"
)

func seedEntity(t *testing.T, s *store.MemoryStore, id string) {
	t.Helper()
	err := s.CreateEntity(context.Background(), &types.Entity{
		ID:              id,
		Type:            types.EntityPerson,
		Name:            id,
		ConfidenceScore: 1.0,
	})
	if err != nil {
		t.Fatalf("create entity %s: %v", id, err)
	}
}

func seedRel(t *testing.T, s *store.MemoryStore, id, src, dst string, relType types.RelationType, confidence float64) {
	t.Helper()
	err := s.CreateRelationship(context.Background(), &types.Relationship{
		ID:              id,
		SourceID:        src,
		TargetID:        dst,
		Type:            relType,
		Weight:          0.5,
		ConfidenceScore: confidence,
	})
	if err != nil {
		t.Fatalf("create relationship %s: %v", id, err)
	}
}

func nodeIDs(result *types.TraversalResult) map[string]bool {
	out := make(map[string]bool, len(result.Nodes))
	for _, n := range result.Nodes {
		out[n.ID] = true
	}
	return out
}

func TestTraverseExcludesStart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedEntity(t, s, "a")
	seedEntity(t, s, "b")
	seedRel(t, s, "r1", "a", "b", types.RelKnows, 0.9)

	result, err := NewEngine(s, nil).Traverse(ctx, types.TraversalRequest{StartID: "a"})
	if err != nil {
		t.Fatal(err)
	}
	ids := nodeIDs(result)
	if ids["a"] {
		t.Error("start entity must not appear in result nodes")
	}
	if !ids["b"] {
		t.Error("expected neighbor b in result nodes")
	}
}

func TestTraverseDepthBound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	// Chain: n0 -> n1 -> ... -> n10
	for i := 0; i <= 10; i++ {
		seedEntity(t, s, fmt.Sprintf("n%d", i))
	}
	for i := 0; i < 10; i++ {
		seedRel(t, s, fmt.Sprintf("r%d", i),
			fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i+1), types.RelFollowedBy, 0.9)
	}

	result, err := NewEngine(s, nil).Traverse(ctx, types.TraversalRequest{
		StartID:  "n0",
		MaxDepth: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Nodes) != 2 {
		t.Fatalf("expected exactly 2 nodes at depth 2, got %v", nodeIDs(result))
	}
	ids := nodeIDs(result)
	if !ids["n1"] || !ids["n2"] {
		t.Errorf("expected n1 and n2, got %v", ids)
	}
}

func TestTraverseNodeLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	seedEntity(t, s, "hub")
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("spoke%d", i)
		seedEntity(t, s, id)
		seedRel(t, s, fmt.Sprintf("r%d", i), "hub", id, types.RelKnows, 0.9)
	}

	result, err := NewEngine(s, nil).Traverse(ctx, types.TraversalRequest{
		StartID: "hub",
		Limit:   3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Nodes) != 3 {
		t.Errorf("expected node limit to cap at 3, got %d", len(result.Nodes))
	}
}

func TestTraverseEdgeFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	seedEntity(t, s, "a")
	seedEntity(t, s, "typed")
	seedEntity(t, s, "untyped")
	seedEntity(t, s, "faint")
	seedRel(t, s, "r1", "a", "typed", types.RelKnows, 0.9)
	seedRel(t, s, "r2", "a", "untyped", types.RelLocatedIn, 0.9)
	seedRel(t, s, "r3", "a", "faint", types.RelKnows, 0.2)

	result, err := NewEngine(s, nil).Traverse(ctx, types.TraversalRequest{
		StartID:           "a",
		RelationshipTypes: []types.RelationType{types.RelKnows},
	})
	if err != nil {
		t.Fatal(err)
	}
	ids := nodeIDs(result)
	if !ids["typed"] {
		t.Error("expected allow-listed edge to be followed")
	}
	if ids["untyped"] {
		t.Error("edge type outside the allow-list must be skipped")
	}
	if ids["faint"] {
		t.Error("edge below min confidence must be skipped")
	}
}

func TestTraverseDirectionOutOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	seedEntity(t, s, "a")
	seedEntity(t, s, "downstream")
	seedEntity(t, s, "upstream")
	seedRel(t, s, "r1", "a", "downstream", types.RelKnows, 0.9)
	seedRel(t, s, "r2", "upstream", "a", types.RelKnows, 0.9)

	bidi := false
	result, err := NewEngine(s, nil).Traverse(ctx, types.TraversalRequest{
		StartID:       "a",
		Bidirectional: &bidi,
	})
	if err != nil {
		t.Fatal(err)
	}
	ids := nodeIDs(result)
	if !ids["downstream"] || ids["upstream"] {
		t.Errorf("expected only outgoing expansion, got %v", ids)
	}
}

func TestTraverseMissingStart(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()

	_, err := NewEngine(s, nil).Traverse(context.Background(), types.TraversalRequest{StartID: "ghost"})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTraverseInvalidDepth(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()

	_, err := NewEngine(s, nil).Traverse(context.Background(), types.TraversalRequest{
		StartID:  "a",
		MaxDepth: types.MaxTraversalDepth + 1,
	})
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestShortestPath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	// Two routes from a to d: a-b-d (2 hops) and a-c-e-d (3 hops).
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		seedEntity(t, s, id)
	}
	seedRel(t, s, "r1", "a", "b", types.RelKnows, 0.9)
	seedRel(t, s, "r2", "a", "c", types.RelKnows, 0.9)
	seedRel(t, s, "r3", "b", "d", types.RelKnows, 0.9)
	seedRel(t, s, "r4", "c", "e", types.RelKnows, 0.9)
	seedRel(t, s, "r5", "e", "d", types.RelKnows, 0.9)

	path, err := NewEngine(s, nil).ShortestPath(ctx, types.TraversalRequest{
		StartID:  "a",
		TargetID: "d",
	})
	if err != nil {
		t.Fatal(err)
	}
	if path == nil {
		t.Fatal("expected a path")
	}
	if path.Length() != 2 {
		t.Fatalf("expected 2 hops, got %d (%v)", path.Length(), path.Nodes)
	}
	want := []string{"a", "b", "d"}
	for i, id := range want {
		if path.Nodes[i] != id {
			t.Errorf("node %d: expected %s, got %s", i, id, path.Nodes[i])
		}
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	seedEntity(t, s, "a")
	seedEntity(t, s, "island")

	path, err := NewEngine(s, nil).ShortestPath(ctx, types.TraversalRequest{
		StartID:  "a",
		TargetID: "island",
	})
	if err != nil {
		t.Fatal(err)
	}
	if path != nil {
		t.Errorf("expected nil path for unreachable target, got %+v", path)
	}
}

func TestShortestPathSelf(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedEntity(t, s, "a")

	path, err := NewEngine(s, nil).ShortestPath(ctx, types.TraversalRequest{
		StartID:  "a",
		TargetID: "a",
	})
	if err != nil {
		t.Fatal(err)
	}
	if path == nil || path.Length() != 0 || len(path.Nodes) != 1 {
		t.Errorf("expected zero-hop self path, got %+v", path)
	}
}

func TestTraverseAttachesPath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	for _, id := range []string{"a", "b", "c"} {
		seedEntity(t, s, id)
	}
	seedRel(t, s, "r1", "a", "b", types.RelKnows, 0.9)
	seedRel(t, s, "r2", "b", "c", types.RelKnows, 0.9)

	result, err := NewEngine(s, nil).Traverse(ctx, types.TraversalRequest{
		StartID:  "a",
		TargetID: "c",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Path == nil || result.Path.Length() != 2 {
		t.Fatalf("expected attached 2-hop path, got %+v", result.Path)
	}
}

func TestShortestPathBoundedByDepth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	// Chain a-b-c-d: the target is 3 hops from the start.
	for _, id := range []string{"a", "b", "c", "d"} {
		seedEntity(t, s, id)
	}
	seedRel(t, s, "r1", "a", "b", types.RelKnows, 0.9)
	seedRel(t, s, "r2", "b", "c", types.RelKnows, 0.9)
	seedRel(t, s, "r3", "c", "d", types.RelKnows, 0.9)

	engine := NewEngine(s, nil)

	path, err := engine.ShortestPath(ctx, types.TraversalRequest{
		StartID:  "a",
		TargetID: "d",
		MaxDepth: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if path != nil {
		t.Errorf("expected nil path beyond the depth bound, got %+v", path)
	}

	path, err = engine.ShortestPath(ctx, types.TraversalRequest{
		StartID:  "a",
		TargetID: "d",
		MaxDepth: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if path == nil || path.Length() != 3 {
		t.Fatalf("expected a 3-hop path at depth 3, got %+v", path)
	}
}
