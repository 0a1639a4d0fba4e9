package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/graphaura/graphaura"
	"github.com/graphaura/graphaura/pkg/server/dto"
	"github.com/graphaura/graphaura/pkg/types"
)

// GraphHandler serves entity, relationship, and traversal endpoints.
type GraphHandler struct {
	service graphaura.Service
}

// NewGraphHandler creates a graph handler.
func NewGraphHandler(service graphaura.Service) *GraphHandler {
	return &GraphHandler{service: service}
}

// CreateEntity handles POST /api/v1/entities.
func (h *GraphHandler) CreateEntity(c *gin.Context) {
	var req dto.CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	created, err := h.service.CreateEntity(c.Request.Context(), req.ToEntity())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, created)
}

// CreateEntities handles POST /api/v1/entities/batch.
func (h *GraphHandler) CreateEntities(c *gin.Context) {
	var reqs []dto.CreateEntityRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		respondBadRequest(c, err)
		return
	}

	entities := make([]*types.Entity, len(reqs))
	for i := range reqs {
		entities[i] = reqs[i].ToEntity()
	}
	respondOK(c, h.service.CreateEntities(c.Request.Context(), entities))
}

// GetEntity handles GET /api/v1/entities/:id.
func (h *GraphHandler) GetEntity(c *gin.Context) {
	entity, err := h.service.GetEntity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entity)
}

// FindEntities handles GET /api/v1/entities.
func (h *GraphHandler) FindEntities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := &types.EntityFilter{}
	for _, t := range c.QueryArray("type") {
		filter.Types = append(filter.Types, types.EntityType(t))
	}
	filter.Tags = c.QueryArray("tag")
	if raw := c.Query("min_confidence"); raw != "" {
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, types.NewValidationError("min_confidence", "not a number: %q", raw))
			return
		}
		filter.MinConfidence = &min
	}
	for param, field := range map[string]**time.Time{
		"created_after":  &filter.CreatedAfter,
		"created_before": &filter.CreatedBefore,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, types.NewValidationError(param, "not an RFC3339 timestamp: %q", raw))
			return
		}
		*field = &ts
	}

	entities, err := h.service.FindEntities(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entities)
}

// UpdateEntity handles PATCH /api/v1/entities/:id.
func (h *GraphHandler) UpdateEntity(c *gin.Context) {
	var req dto.UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	updated, err := h.service.UpdateEntity(c.Request.Context(), c.Param("id"), req.Fields())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, updated)
}

// DeleteEntity handles DELETE /api/v1/entities/:id.
func (h *GraphHandler) DeleteEntity(c *gin.Context) {
	if err := h.service.DeleteEntity(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// CreateRelationship handles POST /api/v1/relationships.
func (h *GraphHandler) CreateRelationship(c *gin.Context) {
	var req dto.CreateRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	created, err := h.service.CreateRelationship(c.Request.Context(), req.ToRelationship())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, created)
}

// GetRelationship handles GET /api/v1/relationships/:id.
func (h *GraphHandler) GetRelationship(c *gin.Context) {
	rel, err := h.service.GetRelationship(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rel)
}

// DeleteRelationship handles DELETE /api/v1/relationships/:id.
func (h *GraphHandler) DeleteRelationship(c *gin.Context) {
	if err := h.service.DeleteRelationship(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// RelationshipsOf handles GET /api/v1/entities/:id/relationships.
func (h *GraphHandler) RelationshipsOf(c *gin.Context) {
	dir := types.Direction(c.DefaultQuery("direction", string(types.DirectionBoth)))

	adj, err := h.service.RelationshipsOf(c.Request.Context(), c.Param("id"), dir)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, adj)
}

// Traverse handles POST /api/v1/traverse.
func (h *GraphHandler) Traverse(c *gin.Context) {
	var req dto.TraverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.service.Traverse(c.Request.Context(), req.ToTraversal())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// ShortestPath handles POST /api/v1/traverse/path.
func (h *GraphHandler) ShortestPath(c *gin.Context) {
	var req dto.TraverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	path, err := h.service.ShortestPath(c.Request.Context(), req.ToTraversal())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"path": path, "found": path != nil})
}
