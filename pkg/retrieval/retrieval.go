package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/graphaura/graphaura/pkg/embedder"
	"github.com/graphaura/graphaura/pkg/rag"
	"github.com/graphaura/graphaura/pkg/similarity"
	"github.com/graphaura/graphaura/pkg/store"
	"github.com/graphaura/graphaura/pkg/traversal"
	"github.com/graphaura/graphaura/pkg/types"
)

const (
	// DefaultLimit is the per-search result bound when none is given.
	DefaultLimit = 10
	// maxQueryTerms caps the entity names appended to an expanded query.
	maxQueryTerms = 10
	// contextPreviewSize caps the graph context names echoed in results.
	contextPreviewSize = 10
)

// Source names used in hybrid results.
const (
	SourceDocuments = "documents"
	SourceGraph     = "graph"
)

// SemanticHit is a similarity match enriched with its full entity record.
type SemanticHit struct {
	Entity     *types.Entity `json:"entity"`
	Similarity float64       `json:"similarity"`
}

// SemanticResult is a semantic text search outcome: entity hits plus, when
// requested, document results from the collaborator.
type SemanticResult struct {
	Hits      []SemanticHit  `json:"hits"`
	Documents []rag.Document `json:"documents,omitempty"`
}

// Source is one contributor to a hybrid result. A failed source carries its
// error message and an empty payload instead of failing the whole search.
type Source struct {
	Type      string          `json:"type"`
	Count     int             `json:"count"`
	Documents []rag.Document  `json:"documents,omitempty"`
	Entities  []*types.Entity `json:"entities,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// HybridResult aggregates every source for one query.
type HybridResult struct {
	Query      string   `json:"query"`
	Sources    []Source `json:"sources"`
	TotalCount int      `json:"total_count"`
}

// ContextualResult is a document search expanded with graph context.
type ContextualResult struct {
	Query         string            `json:"query"`
	ExpandedQuery string            `json:"expanded_query"`
	Documents     []rag.Document    `json:"documents"`
	GraphContext  []string          `json:"graph_context,omitempty"`
	Failures      map[string]string `json:"failures,omitempty"`
}

// SearchOptions tune the retriever's searches.
type SearchOptions struct {
	// Limit bounds results per source (default 10).
	Limit int
	// Threshold overrides the similarity cutoff.
	Threshold *float64
	// EntityTypes restricts semantic candidates.
	EntityTypes []types.EntityType
	// IncludeDocuments additionally queries the document collaborator on
	// semantic text searches. Ignored when no collaborator is configured.
	IncludeDocuments bool
}

// Retriever composes the search engines.
type Retriever struct {
	graph    store.GraphStore
	sim      *similarity.Engine
	traverse *traversal.Engine
	docs     rag.Client
	embed    embedder.Client
	logger   *slog.Logger
}

// NewRetriever wires a retriever. docs and embed may be nil; the dependent
// sources then report themselves unavailable instead of panicking.
func NewRetriever(
	graph store.GraphStore,
	sim *similarity.Engine,
	traverse *traversal.Engine,
	docs rag.Client,
	embed embedder.Client,
	logger *slog.Logger,
) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		graph:    graph,
		sim:      sim,
		traverse: traverse,
		docs:     docs,
		embed:    embed,
		logger:   logger,
	}
}

// HybridSearch fans the query out to document search and a graph substring
// search over entity names and descriptions. Each source fails independently;
// the result always has one Source entry per backend.
func (r *Retriever) HybridSearch(ctx context.Context, query string, opts SearchOptions) (*HybridResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.NewValidationError("query", "cannot be empty")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	result := &HybridResult{Query: query}

	docSource := Source{Type: SourceDocuments}
	if r.docs == nil {
		docSource.Error = "document search not configured"
	} else if docs, err := r.docs.SearchDocuments(ctx, query, rag.SearchOptions{
		Mode:  rag.ModeHybrid,
		Limit: limit,
	}); err != nil {
		r.logger.Warn("document source failed", "query", query, "error", err)
		docSource.Error = err.Error()
	} else {
		docSource.Documents = docs
		docSource.Count = len(docs)
	}
	result.Sources = append(result.Sources, docSource)

	graphSource := Source{Type: SourceGraph}
	if entities, err := r.searchGraph(ctx, query, opts.EntityTypes, limit); err != nil {
		r.logger.Warn("graph source failed", "query", query, "error", err)
		graphSource.Error = err.Error()
	} else {
		graphSource.Entities = entities
		graphSource.Count = len(entities)
	}
	result.Sources = append(result.Sources, graphSource)

	for _, s := range result.Sources {
		result.TotalCount += s.Count
	}
	return result, nil
}

// searchGraph matches the query as a case-insensitive substring of entity
// names and descriptions, newest first. No embeddings are involved.
func (r *Retriever) searchGraph(ctx context.Context, query string, entityTypes []types.EntityType, limit int) ([]*types.Entity, error) {
	var filter *types.EntityFilter
	if len(entityTypes) > 0 {
		filter = &types.EntityFilter{Types: entityTypes}
	}
	entities, err := r.graph.FindEntities(ctx, filter, types.MaxTraversalLimit, 0)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	matched := make([]*types.Entity, 0, limit)
	for _, e := range entities {
		if !strings.Contains(strings.ToLower(e.Name), needle) &&
			!strings.Contains(strings.ToLower(e.Description), needle) {
			continue
		}
		matched = append(matched, e)
		if len(matched) >= limit {
			break
		}
	}
	return matched, nil
}

// SemanticSearchText embeds the query text and runs SemanticSearch. With
// IncludeDocuments set, document results from the collaborator are appended;
// a failing collaborator leaves Documents empty rather than failing the
// entity search.
func (r *Retriever) SemanticSearchText(ctx context.Context, query string, opts SearchOptions) (*SemanticResult, error) {
	if r.embed == nil {
		return nil, errors.New("embedder not configured")
	}
	vec, err := r.embed.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := r.SemanticSearch(ctx, vec, opts)
	if err != nil {
		return nil, err
	}

	result := &SemanticResult{Hits: hits}
	if opts.IncludeDocuments && r.docs != nil {
		limit := opts.Limit
		if limit <= 0 {
			limit = DefaultLimit
		}
		docs, err := r.docs.SearchDocuments(ctx, query, rag.SearchOptions{
			Mode:  rag.ModeVector,
			Limit: limit,
		})
		if err != nil {
			r.logger.Warn("document append failed", "query", query, "error", err)
		} else {
			result.Documents = docs
		}
	}
	return result, nil
}

// SemanticSearch finds entities similar to the query vector and enriches the
// matches with full entity records. Matches whose entity has been deleted
// from the graph are dropped rather than returned as stubs.
func (r *Retriever) SemanticSearch(ctx context.Context, query []float32, opts SearchOptions) ([]SemanticHit, error) {
	matches, err := r.sim.Search(ctx, query, similarity.SearchOptions{
		Limit:       opts.Limit,
		Threshold:   opts.Threshold,
		EntityTypes: opts.EntityTypes,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]SemanticHit, 0, len(matches))
	for _, m := range matches {
		entity, err := r.graph.GetEntity(ctx, m.EntityID)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				r.logger.Debug("dropping stale embedding match", "entity_id", m.EntityID)
				continue
			}
			return nil, fmt.Errorf("failed to enrich match %q: %w", m.EntityID, err)
		}
		hits = append(hits, SemanticHit{Entity: entity, Similarity: m.Similarity})
	}
	return hits, nil
}

// ContextualSearch expands a document query with the names of entities
// around the given seeds, then searches documents with the expanded query.
// Failing seeds are recorded per seed and skipped; the search proceeds with
// whatever context was gathered.
func (r *Retriever) ContextualSearch(ctx context.Context, query string, seedIDs []string, opts SearchOptions) (*ContextualResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.NewValidationError("query", "cannot be empty")
	}
	if len(seedIDs) == 0 {
		return nil, types.NewValidationError("seed_ids", "cannot be empty")
	}
	if r.docs == nil {
		return nil, errors.New("document search not configured")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	// Split the node budget evenly across seeds.
	perSeed := limit / len(seedIDs)
	if perSeed < 1 {
		perSeed = 1
	}

	result := &ContextualResult{Query: query, Failures: map[string]string{}}
	seen := make(map[string]struct{})
	var names []string

	for _, seedID := range seedIDs {
		tr, err := r.traverse.Traverse(ctx, types.TraversalRequest{
			StartID: seedID,
			Limit:   perSeed,
		})
		if err != nil {
			r.logger.Warn("seed expansion failed", "seed_id", seedID, "error", err)
			result.Failures[seedID] = err.Error()
			continue
		}
		for _, node := range tr.Nodes {
			if _, dup := seen[node.Name]; dup {
				continue
			}
			seen[node.Name] = struct{}{}
			names = append(names, node.Name)
		}
	}
	if len(result.Failures) == 0 {
		result.Failures = nil
	}

	expanded := query
	if len(names) > 0 {
		terms := names
		if len(terms) > maxQueryTerms {
			terms = terms[:maxQueryTerms]
		}
		expanded = query + " " + strings.Join(terms, " ")
	}
	result.ExpandedQuery = expanded

	preview := names
	if len(preview) > contextPreviewSize {
		preview = preview[:contextPreviewSize]
	}
	result.GraphContext = preview

	docs, err := r.docs.SearchDocuments(ctx, expanded, rag.SearchOptions{
		Mode:  rag.ModeHybrid,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("document search failed: %w", err)
	}
	result.Documents = docs
	return result, nil
}

// Suggestions returns entity names matching the given prefix or substring,
// case-insensitive, for type-ahead search. Prefix matches sort before
// substring matches; ties sort alphabetically.
func (r *Retriever) Suggestions(ctx context.Context, term string, limit int) ([]string, error) {
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return nil, types.NewValidationError("term", "cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	// Names are matched in memory over a bounded page of entities.
	entities, err := r.graph.FindEntities(ctx, nil, types.MaxTraversalLimit, 0)
	if err != nil {
		return nil, err
	}

	type suggestion struct {
		name   string
		prefix bool
	}
	var matched []suggestion
	seen := make(map[string]struct{})
	for _, e := range entities {
		lower := strings.ToLower(e.Name)
		if !strings.Contains(lower, term) {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		matched = append(matched, suggestion{
			name:   e.Name,
			prefix: strings.HasPrefix(lower, term),
		})
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].prefix != matched[j].prefix {
			return matched[i].prefix
		}
		return matched[i].name < matched[j].name
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	names := make([]string, len(matched))
	for i, m := range matched {
		names[i] = m.name
	}
	return names, nil
}
