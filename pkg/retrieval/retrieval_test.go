package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphaura/graphaura/pkg/rag"
	"github.com/graphaura/graphaura/pkg/similarity"
	"github.com/graphaura/graphaura/pkg/store"
	"github.com/graphaura/graphaura/pkg/traversal"
	"github.com/graphaura/graphaura/pkg/types"
	"github.com/graphaura/graphaura/pkg/vector"
)

// fakeDocs records queries and serves canned documents.
type fakeDocs struct {
	docs    []rag.Document
	err     error
	queries []string
	modes   []rag.SearchMode
}

func (f *fakeDocs) SearchDocuments(ctx context.Context, query string, opts rag.SearchOptions) ([]rag.Document, error) {
	f.queries = append(f.queries, query)
	f.modes = append(f.modes, opts.Mode)
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func (f *fakeDocs) Complete(ctx context.Context, req rag.CompletionRequest) (*rag.Completion, error) {
	return &rag.Completion{Answer: "ok"}, nil
}

func (f *fakeDocs) Health(ctx context.Context) error { return nil }
func (f *fakeDocs) Close() error                     { return nil }

// fakeEmbedder returns the same vector for every text.
type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vec) }

type fixture struct {
	graph  *store.MemoryStore
	embeds vector.EmbeddingStore
	docs   *fakeDocs
	embed  *fakeEmbedder
	r      *Retriever
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	graph := store.NewMemoryStore()
	embeds, err := vector.NewBadgerStore("", 2)
	require.NoError(t, err)
	t.Cleanup(func() { embeds.Close() })

	sim := similarity.NewEngine(embeds)
	docs := &fakeDocs{docs: []rag.Document{{ID: "d1", Title: "Doc", Score: 0.8}}}
	embed := &fakeEmbedder{vec: []float32{1, 0}}

	return &fixture{
		graph:  graph,
		embeds: embeds,
		docs:   docs,
		embed:  embed,
		r: NewRetriever(graph, sim, traversal.NewEngine(graph, nil),
			docs, embed, nil),
	}
}

func (f *fixture) addEntity(t *testing.T, id, name string, vec []float32) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.graph.CreateEntity(ctx, &types.Entity{
		ID:              id,
		Type:            types.EntityPerson,
		Name:            name,
		ConfidenceScore: 1.0,
	}))
	if vec != nil {
		require.NoError(t, f.embeds.Put(ctx, &types.EmbeddingRecord{
			EntityID:   id,
			EntityType: types.EntityPerson,
			Vector:     vec,
		}))
	}
}

func TestHybridSearchComposesSources(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addEntity(t, "e1", "Ada Lovelace", nil)

	result, err := f.r.HybridSearch(ctx, "lovelace", SearchOptions{})
	require.NoError(t, err)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, SourceDocuments, result.Sources[0].Type)
	assert.Equal(t, 1, result.Sources[0].Count)
	assert.Equal(t, SourceGraph, result.Sources[1].Type)
	require.Equal(t, 1, result.Sources[1].Count)
	assert.Equal(t, "e1", result.Sources[1].Entities[0].ID)
	assert.Equal(t, 2, result.TotalCount)
	// Document backend searched in hybrid mode.
	require.Len(t, f.docs.modes, 1)
	assert.Equal(t, rag.ModeHybrid, f.docs.modes[0])
}

func TestHybridSearchGraphSourceWithoutEmbedder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addEntity(t, "e1", "Ada Lovelace", nil)

	// The graph source is a name/description substring match; it must not
	// need an embedder.
	r := NewRetriever(f.graph, similarity.NewEngine(f.embeds),
		traversal.NewEngine(f.graph, nil), f.docs, nil, nil)

	result, err := r.HybridSearch(ctx, "lovelace", SearchOptions{})
	require.NoError(t, err)

	graph := result.Sources[1]
	require.Equal(t, SourceGraph, graph.Type)
	assert.Empty(t, graph.Error)
	require.Equal(t, 1, graph.Count)
	assert.Equal(t, "Ada Lovelace", graph.Entities[0].Name)
}

func TestHybridSearchDegradesPerSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addEntity(t, "e1", "Ada", nil)
	f.docs.err = errors.New("upstream boom")

	result, err := f.r.HybridSearch(ctx, "ada", SearchOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Sources[0].Error)
	assert.Zero(t, result.Sources[0].Count)
	// Graph source still contributed.
	assert.Equal(t, 1, result.Sources[1].Count)
	assert.Equal(t, 1, result.TotalCount)
}

func TestHybridSearchEmptyQuery(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.r.HybridSearch(context.Background(), "   ", SearchOptions{})
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestSemanticSearchDropsDeletedEntities(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addEntity(t, "alive", "Alive", []float32{1, 0})
	f.addEntity(t, "ghost", "Ghost", []float32{1, 0})

	// Delete the entity but leave its embedding behind.
	require.NoError(t, f.graph.DeleteEntity(ctx, "ghost"))

	hits, err := f.r.SemanticSearch(ctx, []float32{1, 0}, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alive", hits[0].Entity.ID)
}

func TestSemanticSearchTextIncludesDocuments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addEntity(t, "e1", "Ada", []float32{1, 0})

	result, err := f.r.SemanticSearchText(ctx, "ada", SearchOptions{IncludeDocuments: true})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "d1", result.Documents[0].ID)
	// Document lookups ride the vector search mode.
	require.Len(t, f.docs.modes, 1)
	assert.Equal(t, rag.ModeVector, f.docs.modes[0])

	// Without the flag the collaborator is never consulted.
	result, err = f.r.SemanticSearchText(ctx, "ada", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
	assert.Len(t, f.docs.modes, 1)
}

func TestSemanticSearchTextDocumentFailureDegrades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addEntity(t, "e1", "Ada", []float32{1, 0})
	f.docs.err = errors.New("upstream boom")

	result, err := f.r.SemanticSearchText(ctx, "ada", SearchOptions{IncludeDocuments: true})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Empty(t, result.Documents)
}

func TestSemanticSearchDimensionMismatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.r.SemanticSearch(context.Background(), []float32{1, 0, 0}, SearchOptions{})
	var de *types.DimensionError
	require.ErrorAs(t, err, &de)
}

func TestContextualSearchExpandsQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addEntity(t, "seed", "Seed", nil)
	f.addEntity(t, "n1", "Babbage", nil)
	f.addEntity(t, "n2", "Lovelace", nil)
	require.NoError(t, f.graph.CreateRelationship(ctx, &types.Relationship{
		ID: "r1", SourceID: "seed", TargetID: "n1",
		Type: types.RelKnows, ConfidenceScore: 0.9,
	}))
	require.NoError(t, f.graph.CreateRelationship(ctx, &types.Relationship{
		ID: "r2", SourceID: "seed", TargetID: "n2",
		Type: types.RelKnows, ConfidenceScore: 0.9,
	}))

	result, err := f.r.ContextualSearch(ctx, "engines", []string{"seed"}, SearchOptions{})
	require.NoError(t, err)

	assert.Contains(t, result.ExpandedQuery, "engines")
	assert.Contains(t, result.ExpandedQuery, "Babbage")
	assert.Contains(t, result.ExpandedQuery, "Lovelace")
	assert.Len(t, result.Documents, 1)
	assert.Nil(t, result.Failures)
	// The document backend saw the expanded query, not the raw one.
	require.Len(t, f.docs.queries, 1)
	assert.Equal(t, result.ExpandedQuery, f.docs.queries[0])
}

func TestContextualSearchCapsExpandedTerms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addEntity(t, "seed", "Seed", nil)
	for i := 0; i < 15; i++ {
		id := string(rune('a' + i))
		f.addEntity(t, id, "Name"+id, nil)
		require.NoError(t, f.graph.CreateRelationship(ctx, &types.Relationship{
			ID: "r" + id, SourceID: "seed", TargetID: id,
			Type: types.RelKnows, ConfidenceScore: 0.9,
		}))
	}

	result, err := f.r.ContextualSearch(ctx, "q", []string{"seed"}, SearchOptions{Limit: 100})
	require.NoError(t, err)

	terms := strings.Fields(result.ExpandedQuery)
	// Query word plus at most ten appended names.
	assert.LessOrEqual(t, len(terms), 1+10)
	assert.LessOrEqual(t, len(result.GraphContext), 10)
}

func TestContextualSearchRecordsSeedFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addEntity(t, "seed", "Seed", nil)
	f.addEntity(t, "n1", "Babbage", nil)
	require.NoError(t, f.graph.CreateRelationship(ctx, &types.Relationship{
		ID: "r1", SourceID: "seed", TargetID: "n1",
		Type: types.RelKnows, ConfidenceScore: 0.9,
	}))

	result, err := f.r.ContextualSearch(ctx, "q", []string{"seed", "ghost"}, SearchOptions{})
	require.NoError(t, err)

	require.Contains(t, result.Failures, "ghost")
	assert.Contains(t, result.ExpandedQuery, "Babbage")
}

func TestContextualSearchValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	var ve *types.ValidationError
	_, err := f.r.ContextualSearch(ctx, "", []string{"s"}, SearchOptions{})
	require.ErrorAs(t, err, &ve)
	_, err = f.r.ContextualSearch(ctx, "q", nil, SearchOptions{})
	require.ErrorAs(t, err, &ve)
}

func TestSuggestions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addEntity(t, "e1", "Ada Lovelace", nil)
	f.addEntity(t, "e2", "Adam Smith", nil)
	f.addEntity(t, "e3", "Grace Hopper", nil)
	f.addEntity(t, "e4", "Nevada", nil)

	t.Run("prefix before substring", func(t *testing.T) {
		got, err := f.r.Suggestions(ctx, "ada", 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Ada Lovelace", got[0])
		assert.Equal(t, "Adam Smith", got[1])
		assert.Equal(t, "Nevada", got[2])
	})

	t.Run("limit", func(t *testing.T) {
		got, err := f.r.Suggestions(ctx, "a", 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty term", func(t *testing.T) {
		_, err := f.r.Suggestions(ctx, "  ", 10)
		var ve *types.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}
