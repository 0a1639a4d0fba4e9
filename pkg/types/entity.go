package types

import (
	"strings"
	"time"
)

// EntityType enumerates the kinds of entities in the knowledge graph.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityEvent        EntityType = "event"
	EntityLocation     EntityType = "location"
	EntityOrganization EntityType = "organization"
	EntityConcept      EntityType = "concept"
	EntityDocument     EntityType = "document"
	EntityArtifact     EntityType = "artifact"
)

// AllEntityTypes returns every valid entity type in declaration order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityPerson,
		EntityEvent,
		EntityLocation,
		EntityOrganization,
		EntityConcept,
		EntityDocument,
		EntityArtifact,
	}
}

// Valid reports whether t is a member of the closed enumeration.
func (t EntityType) Valid() bool {
	switch t {
	case EntityPerson, EntityEvent, EntityLocation, EntityOrganization,
		EntityConcept, EntityDocument, EntityArtifact:
		return true
	}
	return false
}

// Label returns the graph label for the type ("person" -> "Person").
func (t EntityType) Label() string {
	s := string(t)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const (
	maxNameLength        = 500
	maxDescriptionLength = 5000
)

// Entity is a typed, identified node in the knowledge graph.
//
// Known fields are validated strictly; Properties carries open, type-specific
// extension fields that are passed through opaquely.
type Entity struct {
	ID              string         `json:"id"`
	Type            EntityType     `json:"type"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Properties      map[string]any `json:"properties,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Embedding       []float32      `json:"embedding,omitempty"`
	SourceDocuments []string       `json:"source_documents,omitempty"`
	ConfidenceScore float64        `json:"confidence_score"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Validate checks the entity's known fields. Unknown property keys are not
// inspected.
func (e *Entity) Validate() error {
	if !e.Type.Valid() {
		return NewValidationError("type", "unknown entity type %q", e.Type)
	}
	if e.Name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if len(e.Name) > maxNameLength {
		return NewValidationError("name", "exceeds %d characters", maxNameLength)
	}
	if len(e.Description) > maxDescriptionLength {
		return NewValidationError("description", "exceeds %d characters", maxDescriptionLength)
	}
	if e.ConfidenceScore < 0 || e.ConfidenceScore > 1 {
		return NewValidationError("confidence_score", "must be in [0,1], got %v", e.ConfidenceScore)
	}
	return nil
}

// HasTag reports whether the entity carries the given tag.
func (e *Entity) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// EntityFilter constrains entity lookups. Zero-value fields are ignored.
type EntityFilter struct {
	// Types keeps entities whose type is in the set.
	Types []EntityType `json:"types,omitempty"`
	// Tags keeps entities carrying at least one of the given tags.
	Tags []string `json:"tags,omitempty"`
	// MinConfidence keeps entities with confidence_score >= the bound.
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	// CreatedAfter / CreatedBefore bound the creation timestamp.
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}

// Matches reports whether the entity satisfies every set constraint.
func (f *EntityFilter) Matches(e *Entity) bool {
	if f == nil {
		return true
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Tags) > 0 {
		found := false
		for _, tag := range f.Tags {
			if e.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinConfidence != nil && e.ConfidenceScore < *f.MinConfidence {
		return false
	}
	if f.CreatedAfter != nil && e.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && e.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}
