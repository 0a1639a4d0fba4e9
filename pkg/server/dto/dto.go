// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"time"

	"github.com/graphaura/graphaura/pkg/types"
)

// Result is the generic API envelope.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreateEntityRequest is the body of POST /api/v1/entities.
type CreateEntityRequest struct {
	ID              string         `json:"id,omitempty"`
	Type            string         `json:"type" binding:"required"`
	Name            string         `json:"name" binding:"required"`
	Description     string         `json:"description,omitempty"`
	Properties      map[string]any `json:"properties,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Embedding       []float32      `json:"embedding,omitempty"`
	SourceDocuments []string       `json:"source_documents,omitempty"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
}

// ToEntity converts the request into a model entity.
func (r *CreateEntityRequest) ToEntity() *types.Entity {
	e := &types.Entity{
		ID:              r.ID,
		Type:            types.EntityType(r.Type),
		Name:            r.Name,
		Description:     r.Description,
		Properties:      r.Properties,
		Tags:            r.Tags,
		Embedding:       r.Embedding,
		SourceDocuments: r.SourceDocuments,
		// An absent confidence defaults to full; an explicit zero is kept.
		ConfidenceScore: 1.0,
	}
	if r.ConfidenceScore != nil {
		e.ConfidenceScore = *r.ConfidenceScore
	}
	return e
}

// UpdateEntityRequest is the body of PATCH /api/v1/entities/:id. Only the
// present fields are applied.
type UpdateEntityRequest struct {
	Name            *string        `json:"name,omitempty"`
	Description     *string        `json:"description,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Properties      map[string]any `json:"properties,omitempty"`
	SourceDocuments []string       `json:"source_documents,omitempty"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
}

// Fields returns the partial update map for the store.
func (r *UpdateEntityRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Tags != nil {
		fields["tags"] = r.Tags
	}
	if r.Properties != nil {
		fields["properties"] = r.Properties
	}
	if r.SourceDocuments != nil {
		fields["source_documents"] = r.SourceDocuments
	}
	if r.ConfidenceScore != nil {
		fields["confidence_score"] = *r.ConfidenceScore
	}
	return fields
}

// CreateRelationshipRequest is the body of POST /api/v1/relationships.
type CreateRelationshipRequest struct {
	ID              string         `json:"id,omitempty"`
	SourceID        string         `json:"source_id" binding:"required"`
	TargetID        string         `json:"target_id" binding:"required"`
	Type            string         `json:"type" binding:"required"`
	Weight          float64        `json:"weight,omitempty"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	StartDate       *time.Time     `json:"start_date,omitempty"`
	EndDate         *time.Time     `json:"end_date,omitempty"`
	Evidence        []string       `json:"evidence,omitempty"`
	Properties      map[string]any `json:"properties,omitempty"`
}

// ToRelationship converts the request into a model relationship.
func (r *CreateRelationshipRequest) ToRelationship() *types.Relationship {
	rel := &types.Relationship{
		ID:         r.ID,
		SourceID:   r.SourceID,
		TargetID:   r.TargetID,
		Type:       types.RelationType(r.Type),
		Weight:     r.Weight,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Evidence:   r.Evidence,
		Properties: r.Properties,
	}
	// An absent confidence defaults to full; an explicit zero is kept.
	rel.ConfidenceScore = 1.0
	if r.ConfidenceScore != nil {
		rel.ConfidenceScore = *r.ConfidenceScore
	}
	return rel
}

// TraverseRequest is the body of POST /api/v1/traverse.
type TraverseRequest struct {
	StartID           string   `json:"start_id" binding:"required"`
	MaxDepth          int      `json:"max_depth,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	MinConfidence     *float64 `json:"min_confidence,omitempty"`
	Bidirectional     *bool    `json:"bidirectional,omitempty"`
	TargetID          string   `json:"target_id,omitempty"`
}

// ToTraversal converts the request into a model traversal request.
func (r *TraverseRequest) ToTraversal() types.TraversalRequest {
	relTypes := make([]types.RelationType, len(r.RelationshipTypes))
	for i, t := range r.RelationshipTypes {
		relTypes[i] = types.RelationType(t)
	}
	return types.TraversalRequest{
		StartID:           r.StartID,
		MaxDepth:          r.MaxDepth,
		Limit:             r.Limit,
		RelationshipTypes: relTypes,
		MinConfidence:     r.MinConfidence,
		Bidirectional:     r.Bidirectional,
		TargetID:          r.TargetID,
	}
}

// SearchRequest is the body of the search endpoints.
type SearchRequest struct {
	Query       string   `json:"query" binding:"required"`
	Limit       int      `json:"limit,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
	// SeedIDs is used by contextual search only.
	SeedIDs []string `json:"seed_ids,omitempty"`
	// IncludeDocuments appends collaborator documents to semantic search.
	IncludeDocuments bool `json:"include_documents,omitempty"`
	// SearchType selects the document search mode, "hybrid" or "vector".
	SearchType string `json:"search_type,omitempty"`
	// Filters pass through to document search.
	Filters map[string]any `json:"filters,omitempty"`
}

// PairwiseRequest is the body of POST /api/v1/search/pairwise.
type PairwiseRequest struct {
	EntityIDs []string `json:"entity_ids" binding:"required"`
}

// CompletionRequest is the body of POST /api/v1/search/rag.
type CompletionRequest struct {
	Messages []CompletionMessage `json:"messages" binding:"required"`
	Query    string              `json:"query,omitempty"`
	UseGraph bool                `json:"use_graph,omitempty"`
}

// CompletionMessage is one turn of a completion conversation.
type CompletionMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ClustersRequest is the body of POST /api/v1/search/clusters.
type ClustersRequest struct {
	Threshold   *float64 `json:"threshold,omitempty"`
	MinSize     int      `json:"min_size,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
}
