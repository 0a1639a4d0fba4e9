package types

import "time"

// EmbeddingRecord associates an entity with its embedding vector.
type EmbeddingRecord struct {
	EntityID   string         `json:"entity_id"`
	EntityType EntityType     `json:"entity_type"`
	Vector     []float32      `json:"vector"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// EmbeddingStats summarizes the contents of an embedding store.
type EmbeddingStats struct {
	Total      int                `json:"total"`
	Dimensions int                `json:"dimensions"`
	ByType     map[EntityType]int `json:"by_type"`
}

// SimilarityMatch is one hit from a similarity search, ordered by descending
// similarity with ascending entity id as the tie-break.
type SimilarityMatch struct {
	EntityID   string  `json:"entity_id"`
	Similarity float64 `json:"similarity"`
}
