package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/graphaura/graphaura"
	"github.com/graphaura/graphaura/pkg/cluster"
	"github.com/graphaura/graphaura/pkg/rag"
	"github.com/graphaura/graphaura/pkg/retrieval"
	"github.com/graphaura/graphaura/pkg/server/dto"
	"github.com/graphaura/graphaura/pkg/types"
)

// SearchHandler serves the retrieval, clustering, and completion endpoints.
type SearchHandler struct {
	service graphaura.Service
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(service graphaura.Service) *SearchHandler {
	return &SearchHandler{service: service}
}

func bindSearch(c *gin.Context) (*dto.SearchRequest, bool) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return nil, false
	}
	return &req, true
}

func searchOptions(limit int, threshold *float64, entityTypes []string) retrieval.SearchOptions {
	opts := retrieval.SearchOptions{Limit: limit, Threshold: threshold}
	for _, t := range entityTypes {
		opts.EntityTypes = append(opts.EntityTypes, types.EntityType(t))
	}
	return opts
}

// Hybrid handles POST /api/v1/search/hybrid.
func (h *SearchHandler) Hybrid(c *gin.Context) {
	req, ok := bindSearch(c)
	if !ok {
		return
	}

	result, err := h.service.HybridSearch(c.Request.Context(), req.Query,
		searchOptions(req.Limit, req.Threshold, req.EntityTypes))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Semantic handles POST /api/v1/search/semantic.
func (h *SearchHandler) Semantic(c *gin.Context) {
	req, ok := bindSearch(c)
	if !ok {
		return
	}

	opts := searchOptions(req.Limit, req.Threshold, req.EntityTypes)
	opts.IncludeDocuments = req.IncludeDocuments
	result, err := h.service.SemanticSearchText(c.Request.Context(), req.Query, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"hits":      result.Hits,
		"documents": result.Documents,
		"count":     len(result.Hits),
	})
}

// Contextual handles POST /api/v1/search/contextual.
func (h *SearchHandler) Contextual(c *gin.Context) {
	req, ok := bindSearch(c)
	if !ok {
		return
	}

	result, err := h.service.ContextualSearch(c.Request.Context(), req.Query, req.SeedIDs,
		searchOptions(req.Limit, req.Threshold, req.EntityTypes))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Similar handles GET /api/v1/entities/:id/similar.
func (h *SearchHandler) Similar(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	var threshold *float64
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, types.NewValidationError("threshold", "not a number: %q", raw))
			return
		}
		threshold = &v
	}

	hits, err := h.service.SimilarEntities(c.Request.Context(), c.Param("id"),
		searchOptions(limit, threshold, c.QueryArray("type")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"hits": hits, "count": len(hits)})
}

// Clusters handles POST /api/v1/search/clusters.
func (h *SearchHandler) Clusters(c *gin.Context) {
	var req dto.ClustersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	opts := cluster.Options{Threshold: req.Threshold, MinSize: req.MinSize}
	for _, t := range req.EntityTypes {
		opts.EntityTypes = append(opts.EntityTypes, types.EntityType(t))
	}

	clusters, err := h.service.Clusters(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"clusters": clusters, "count": len(clusters)})
}

// Suggestions handles GET /api/v1/search/suggestions.
func (h *SearchHandler) Suggestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	names, err := h.service.Suggestions(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"suggestions": names})
}

// Documents handles POST /api/v1/search/documents.
func (h *SearchHandler) Documents(c *gin.Context) {
	req, ok := bindSearch(c)
	if !ok {
		return
	}

	docs, err := h.service.SearchDocuments(c.Request.Context(), req.Query, rag.SearchOptions{
		Mode:    rag.SearchMode(req.SearchType),
		Limit:   req.Limit,
		Filters: req.Filters,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"documents": docs, "count": len(docs)})
}

// Pairwise handles POST /api/v1/search/pairwise.
func (h *SearchHandler) Pairwise(c *gin.Context) {
	var req dto.PairwiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	ids, sims, err := h.service.PairwiseSimilarity(c.Request.Context(), req.EntityIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"entity_ids": ids, "similarities": sims})
}

// Complete handles POST /api/v1/search/rag.
func (h *SearchHandler) Complete(c *gin.Context) {
	var req dto.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	messages := make([]rag.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = rag.Message{Role: m.Role, Content: m.Content}
	}

	completion, err := h.service.Complete(c.Request.Context(), rag.CompletionRequest{
		Messages: messages,
		Query:    req.Query,
		UseGraph: req.UseGraph,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, completion)
}

// EmbeddingStats handles GET /api/v1/embeddings/stats.
func (h *SearchHandler) EmbeddingStats(c *gin.Context) {
	stats, err := h.service.EmbeddingStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// SetEmbedding handles PUT /api/v1/entities/:id/embedding.
func (h *SearchHandler) SetEmbedding(c *gin.Context) {
	var req struct {
		Vector []float32 `json:"vector" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.service.SetEmbedding(c.Request.Context(), c.Param("id"), req.Vector); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"stored": true})
}
