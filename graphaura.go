package graphaura

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/graphaura/graphaura/pkg/cluster"
	"github.com/graphaura/graphaura/pkg/embedder"
	"github.com/graphaura/graphaura/pkg/rag"
	"github.com/graphaura/graphaura/pkg/retrieval"
	"github.com/graphaura/graphaura/pkg/similarity"
	"github.com/graphaura/graphaura/pkg/store"
	"github.com/graphaura/graphaura/pkg/traversal"
	"github.com/graphaura/graphaura/pkg/types"
	"github.com/graphaura/graphaura/pkg/vector"
)

// Service is the main interface for interacting with the knowledge graph.
type Service interface {
	// CreateEntity stores a new entity. A missing id is generated. An
	// inline embedding is persisted to the embedding store after the
	// graph write.
	CreateEntity(ctx context.Context, e *types.Entity) (*types.Entity, error)

	// CreateEntities stores a batch of entities. Failures are recorded
	// per item; the batch continues past them.
	CreateEntities(ctx context.Context, entities []*types.Entity) *BatchResult

	// GetEntity retrieves an entity by id.
	GetEntity(ctx context.Context, id string) (*types.Entity, error)

	// FindEntities lists entities matching the filter, newest first.
	FindEntities(ctx context.Context, filter *types.EntityFilter, limit, offset int) ([]*types.Entity, error)

	// UpdateEntity applies partial field updates.
	UpdateEntity(ctx context.Context, id string, fields map[string]any) (*types.Entity, error)

	// DeleteEntity removes an entity, its relationships, and its
	// embedding.
	DeleteEntity(ctx context.Context, id string) error

	// CreateRelationship stores a new edge between existing entities.
	CreateRelationship(ctx context.Context, r *types.Relationship) (*types.Relationship, error)

	// GetRelationship retrieves an edge by id.
	GetRelationship(ctx context.Context, id string) (*types.Relationship, error)

	// DeleteRelationship removes a single edge.
	DeleteRelationship(ctx context.Context, id string) error

	// RelationshipsOf lists the edges around an entity.
	RelationshipsOf(ctx context.Context, id string, dir types.Direction) ([]types.AdjacentRelationship, error)

	// Traverse expands the neighborhood around a start entity.
	Traverse(ctx context.Context, req types.TraversalRequest) (*types.TraversalResult, error)

	// ShortestPath finds the shortest path between two entities, or nil.
	ShortestPath(ctx context.Context, req types.TraversalRequest) (*types.Path, error)

	// SetEmbedding stores or overwrites an entity's embedding.
	SetEmbedding(ctx context.Context, entityID string, vec []float32) error

	// SimilarEntities finds entities similar to a stored entity.
	SimilarEntities(ctx context.Context, entityID string, opts retrieval.SearchOptions) ([]retrieval.SemanticHit, error)

	// SemanticSearch finds entities similar to a query vector.
	SemanticSearch(ctx context.Context, query []float32, opts retrieval.SearchOptions) ([]retrieval.SemanticHit, error)

	// SemanticSearchText embeds free text and runs SemanticSearch,
	// optionally appending document results from the collaborator.
	SemanticSearchText(ctx context.Context, query string, opts retrieval.SearchOptions) (*retrieval.SemanticResult, error)

	// PairwiseSimilarity computes the similarity matrix over the given
	// entities, skipping ids without a stored embedding.
	PairwiseSimilarity(ctx context.Context, entityIDs []string) ([]string, map[string]map[string]float64, error)

	// HybridSearch fans a query out to every search source.
	HybridSearch(ctx context.Context, query string, opts retrieval.SearchOptions) (*retrieval.HybridResult, error)

	// ContextualSearch expands a document query with graph context.
	ContextualSearch(ctx context.Context, query string, seedIDs []string, opts retrieval.SearchOptions) (*retrieval.ContextualResult, error)

	// Suggestions returns entity-name completions for a search term.
	Suggestions(ctx context.Context, term string, limit int) ([]string, error)

	// Clusters groups entities by embedding similarity, each cluster
	// enriched with full entity records.
	Clusters(ctx context.Context, opts cluster.Options) ([]EnrichedCluster, error)

	// EmbeddingStats summarizes the embedding store contents.
	EmbeddingStats(ctx context.Context) (*types.EmbeddingStats, error)

	// SearchDocuments queries the document collaborator directly.
	SearchDocuments(ctx context.Context, query string, opts rag.SearchOptions) ([]rag.Document, error)

	// Complete requests a retrieval-augmented completion.
	Complete(ctx context.Context, req rag.CompletionRequest) (*rag.Completion, error)

	// Health reports per-component health.
	Health(ctx context.Context) *HealthStatus

	// Bootstrap creates graph indices and, where supported, the
	// embedding store schema.
	Bootstrap(ctx context.Context) error

	// Close releases every underlying connection.
	Close(ctx context.Context) error
}

// BatchResult reports the outcome of a batch write.
type BatchResult struct {
	Created  []string          `json:"created"`
	Failures map[string]string `json:"failures,omitempty"`
}

// EnrichedCluster is a similarity cluster with full entity records. Members
// whose entity record has been deleted are dropped; clusters left below two
// members are discarded entirely.
type EnrichedCluster struct {
	Seed     string          `json:"seed"`
	Entities []*types.Entity `json:"entities"`
}

// HealthStatus reports per-component health. Status is "ok" when everything
// responds and "degraded" otherwise.
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// bootstrapper is implemented by embedding stores with server-side schema.
type bootstrapper interface {
	Bootstrap(ctx context.Context) error
}

// Client implements Service.
type Client struct {
	graph     store.GraphStore
	embeds    vector.EmbeddingStore
	sim       *similarity.Engine
	traversal *traversal.Engine
	clusters  *cluster.Engine
	retriever *retrieval.Retriever
	docs      rag.Client
	embed     embedder.Client
	logger    *slog.Logger
}

// NewClient wires a Service from its collaborators. docs and embed may be
// nil; the operations that need them fail with a clear error instead.
func NewClient(
	graph store.GraphStore,
	embeds vector.EmbeddingStore,
	docs rag.Client,
	embed embedder.Client,
	logger *slog.Logger,
) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	sim := similarity.NewEngine(embeds)
	trav := traversal.NewEngine(graph, logger)
	return &Client{
		graph:     graph,
		embeds:    embeds,
		sim:       sim,
		traversal: trav,
		clusters:  cluster.NewEngine(sim),
		retriever: retrieval.NewRetriever(graph, sim, trav, docs, embed, logger),
		docs:      docs,
		embed:     embed,
		logger:    logger,
	}
}

func (c *Client) CreateEntity(ctx context.Context, e *types.Entity) (*types.Entity, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	embedding := e.Embedding
	e.Embedding = nil
	if err := c.graph.CreateEntity(ctx, e); err != nil {
		return nil, err
	}
	c.logger.Info("entity created", "entity_id", e.ID, "type", e.Type)

	if len(embedding) > 0 {
		err := c.embeds.Put(ctx, &types.EmbeddingRecord{
			EntityID:   e.ID,
			EntityType: e.Type,
			Vector:     embedding,
		})
		if err != nil {
			// The graph write stands; report the embedding failure.
			return nil, fmt.Errorf("entity %q created but embedding rejected: %w", e.ID, err)
		}
	}
	return e, nil
}

func (c *Client) CreateEntities(ctx context.Context, entities []*types.Entity) *BatchResult {
	result := &BatchResult{Failures: map[string]string{}}
	for i, e := range entities {
		created, err := c.CreateEntity(ctx, e)
		if err != nil {
			key := e.ID
			if key == "" {
				key = fmt.Sprintf("index %d", i)
			}
			result.Failures[key] = err.Error()
			continue
		}
		result.Created = append(result.Created, created.ID)
	}
	if len(result.Failures) == 0 {
		result.Failures = nil
	}
	return result
}

func (c *Client) GetEntity(ctx context.Context, id string) (*types.Entity, error) {
	return c.graph.GetEntity(ctx, id)
}

func (c *Client) FindEntities(ctx context.Context, filter *types.EntityFilter, limit, offset int) ([]*types.Entity, error) {
	if limit <= 0 {
		limit = retrieval.DefaultLimit
	}
	if limit > types.MaxTraversalLimit {
		return nil, types.NewValidationError("limit", "must be at most %d, got %d", types.MaxTraversalLimit, limit)
	}
	if offset < 0 {
		return nil, types.NewValidationError("offset", "cannot be negative")
	}
	return c.graph.FindEntities(ctx, filter, limit, offset)
}

func (c *Client) UpdateEntity(ctx context.Context, id string, fields map[string]any) (*types.Entity, error) {
	return c.graph.UpdateEntity(ctx, id, fields)
}

func (c *Client) DeleteEntity(ctx context.Context, id string) error {
	if err := c.graph.DeleteEntity(ctx, id); err != nil {
		return err
	}
	// Embedding cleanup after the cascading graph delete.
	if err := c.embeds.Delete(ctx, id); err != nil {
		c.logger.Warn("failed to delete embedding for removed entity",
			"entity_id", id, "error", err)
	}
	c.logger.Info("entity deleted", "entity_id", id)
	return nil
}

func (c *Client) CreateRelationship(ctx context.Context, r *types.Relationship) (*types.Relationship, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if err := c.graph.CreateRelationship(ctx, r); err != nil {
		return nil, err
	}
	c.logger.Info("relationship created",
		"relationship_id", r.ID, "type", r.Type,
		"source_id", r.SourceID, "target_id", r.TargetID)
	return r, nil
}

func (c *Client) GetRelationship(ctx context.Context, id string) (*types.Relationship, error) {
	return c.graph.GetRelationship(ctx, id)
}

func (c *Client) DeleteRelationship(ctx context.Context, id string) error {
	return c.graph.DeleteRelationship(ctx, id)
}

func (c *Client) RelationshipsOf(ctx context.Context, id string, dir types.Direction) ([]types.AdjacentRelationship, error) {
	if dir == "" {
		dir = types.DirectionBoth
	}
	if !dir.Valid() {
		return nil, types.NewValidationError("direction", "unknown direction %q", dir)
	}
	return c.graph.RelationshipsOf(ctx, id, dir)
}

func (c *Client) Traverse(ctx context.Context, req types.TraversalRequest) (*types.TraversalResult, error) {
	return c.traversal.Traverse(ctx, req)
}

func (c *Client) ShortestPath(ctx context.Context, req types.TraversalRequest) (*types.Path, error) {
	return c.traversal.ShortestPath(ctx, req)
}

func (c *Client) SetEmbedding(ctx context.Context, entityID string, vec []float32) error {
	entity, err := c.graph.GetEntity(ctx, entityID)
	if err != nil {
		return err
	}
	return c.embeds.Put(ctx, &types.EmbeddingRecord{
		EntityID:   entityID,
		EntityType: entity.Type,
		Vector:     vec,
	})
}

func (c *Client) SimilarEntities(ctx context.Context, entityID string, opts retrieval.SearchOptions) ([]retrieval.SemanticHit, error) {
	record, err := c.embeds.Get(ctx, entityID)
	if err != nil {
		return nil, err
	}
	hits, err := c.retriever.SemanticSearch(ctx, record.Vector, opts)
	if err != nil {
		return nil, err
	}
	// Drop the entity itself.
	out := hits[:0]
	for _, h := range hits {
		if h.Entity.ID != entityID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (c *Client) SemanticSearch(ctx context.Context, query []float32, opts retrieval.SearchOptions) ([]retrieval.SemanticHit, error) {
	return c.retriever.SemanticSearch(ctx, query, opts)
}

func (c *Client) SemanticSearchText(ctx context.Context, query string, opts retrieval.SearchOptions) (*retrieval.SemanticResult, error) {
	return c.retriever.SemanticSearchText(ctx, query, opts)
}

func (c *Client) PairwiseSimilarity(ctx context.Context, entityIDs []string) ([]string, map[string]map[string]float64, error) {
	return c.sim.PairwiseMatrix(ctx, entityIDs)
}

func (c *Client) HybridSearch(ctx context.Context, query string, opts retrieval.SearchOptions) (*retrieval.HybridResult, error) {
	return c.retriever.HybridSearch(ctx, query, opts)
}

func (c *Client) ContextualSearch(ctx context.Context, query string, seedIDs []string, opts retrieval.SearchOptions) (*retrieval.ContextualResult, error) {
	return c.retriever.ContextualSearch(ctx, query, seedIDs, opts)
}

func (c *Client) Suggestions(ctx context.Context, term string, limit int) ([]string, error) {
	return c.retriever.Suggestions(ctx, term, limit)
}

func (c *Client) Clusters(ctx context.Context, opts cluster.Options) ([]EnrichedCluster, error) {
	raw, err := c.clusters.Clusters(ctx, opts)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedCluster, 0, len(raw))
	for _, cl := range raw {
		entities := make([]*types.Entity, 0, len(cl.Members))
		for _, id := range cl.Members {
			entity, err := c.graph.GetEntity(ctx, id)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("failed to enrich cluster member %q: %w", id, err)
			}
			entities = append(entities, entity)
		}
		// Enrichment can shrink a cluster below a meaningful size.
		if len(entities) < 2 {
			continue
		}
		enriched = append(enriched, EnrichedCluster{Seed: cl.Seed, Entities: entities})
	}
	return enriched, nil
}

func (c *Client) EmbeddingStats(ctx context.Context) (*types.EmbeddingStats, error) {
	records, err := c.embeds.Scan(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats := &types.EmbeddingStats{
		Total:      len(records),
		Dimensions: c.embeds.Dimensions(),
		ByType:     make(map[types.EntityType]int),
	}
	for _, r := range records {
		stats.ByType[r.EntityType]++
	}
	return stats, nil
}

func (c *Client) SearchDocuments(ctx context.Context, query string, opts rag.SearchOptions) ([]rag.Document, error) {
	if c.docs == nil {
		return nil, errors.New("document search not configured")
	}
	return c.docs.SearchDocuments(ctx, query, opts)
}

func (c *Client) Complete(ctx context.Context, req rag.CompletionRequest) (*rag.Completion, error) {
	if c.docs == nil {
		return nil, errors.New("document search not configured")
	}
	if len(req.Messages) == 0 {
		return nil, types.NewValidationError("messages", "cannot be empty")
	}
	return c.docs.Complete(ctx, req)
}

func (c *Client) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{Status: "ok", Components: map[string]string{}}

	if _, err := c.graph.FindEntities(ctx, nil, 1, 0); err != nil {
		status.Components["graph"] = err.Error()
		status.Status = "degraded"
	} else {
		status.Components["graph"] = "ok"
	}

	if _, err := c.embeds.Scan(ctx, []types.EntityType{types.EntityDocument}); err != nil {
		status.Components["vector"] = err.Error()
		status.Status = "degraded"
	} else {
		status.Components["vector"] = "ok"
	}

	if c.docs != nil {
		if err := c.docs.Health(ctx); err != nil {
			status.Components["rag"] = err.Error()
			status.Status = "degraded"
		} else {
			status.Components["rag"] = "ok"
		}
	}
	return status
}

func (c *Client) Bootstrap(ctx context.Context) error {
	if err := c.graph.CreateIndices(ctx); err != nil {
		return fmt.Errorf("failed to create graph indices: %w", err)
	}
	if b, ok := c.embeds.(bootstrapper); ok {
		if err := b.Bootstrap(ctx); err != nil {
			return fmt.Errorf("failed to bootstrap embedding store: %w", err)
		}
	}
	c.logger.Info("storage bootstrapped")
	return nil
}

func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if err := c.graph.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("graph store: %w", err))
	}
	if err := c.embeds.Close(); err != nil {
		errs = append(errs, fmt.Errorf("embedding store: %w", err))
	}
	if c.docs != nil {
		if err := c.docs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("rag client: %w", err))
		}
	}
	return errors.Join(errs...)
}
