package types

// Traversal bounds. Requests outside these limits are rejected rather than
// clamped.
const (
	DefaultTraversalDepth = 2
	MaxTraversalDepth     = 5
	DefaultTraversalLimit = 100
	MaxTraversalLimit     = 1000
	DefaultMinConfidence  = 0.5
)

// TraversalRequest describes a bounded expansion of the neighborhood around a
// start entity.
type TraversalRequest struct {
	StartID string `json:"start_id"`
	// MaxDepth bounds the number of hops from the start (1..5, default 2).
	MaxDepth int `json:"max_depth,omitempty"`
	// Limit bounds the number of returned nodes (1..1000, default 100).
	Limit int `json:"limit,omitempty"`
	// RelationshipTypes is an allow-list; empty means all types.
	RelationshipTypes []RelationType `json:"relationship_types,omitempty"`
	// MinConfidence drops edges below the bound (default 0.5).
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	// Bidirectional follows edges in both directions when true (the
	// default); when false only outgoing edges are followed.
	Bidirectional *bool `json:"bidirectional,omitempty"`
	// TargetID, when set, additionally requests the shortest path from
	// start to target under the same edge filters.
	TargetID string `json:"target_id,omitempty"`
}

// Normalize fills unset fields with their defaults.
func (r *TraversalRequest) Normalize() {
	if r.MaxDepth == 0 {
		r.MaxDepth = DefaultTraversalDepth
	}
	if r.Limit == 0 {
		r.Limit = DefaultTraversalLimit
	}
	if r.MinConfidence == nil {
		c := DefaultMinConfidence
		r.MinConfidence = &c
	}
	if r.Bidirectional == nil {
		b := true
		r.Bidirectional = &b
	}
}

// Validate checks bounds. Call Normalize first.
func (r *TraversalRequest) Validate() error {
	if r.StartID == "" {
		return NewValidationError("start_id", "cannot be empty")
	}
	if r.MaxDepth < 1 || r.MaxDepth > MaxTraversalDepth {
		return NewValidationError("max_depth", "must be in [1,%d], got %d", MaxTraversalDepth, r.MaxDepth)
	}
	if r.Limit < 1 || r.Limit > MaxTraversalLimit {
		return NewValidationError("limit", "must be in [1,%d], got %d", MaxTraversalLimit, r.Limit)
	}
	if *r.MinConfidence < 0 || *r.MinConfidence > 1 {
		return NewValidationError("min_confidence", "must be in [0,1], got %v", *r.MinConfidence)
	}
	for _, t := range r.RelationshipTypes {
		if !t.Valid() {
			return NewValidationError("relationship_types", "unknown relation type %q", t)
		}
	}
	return nil
}

// Direction returns the edge direction the request follows.
func (r *TraversalRequest) Direction() Direction {
	if r.Bidirectional != nil && !*r.Bidirectional {
		return DirectionOut
	}
	return DirectionBoth
}

// TraversalEdge is an edge in a traversal result, tagged with the direction it
// was crossed relative to the node it was discovered from.
type TraversalEdge struct {
	Relationship *Relationship `json:"relationship"`
	Direction    Direction     `json:"direction"`
}

// Path is an ordered walk through the graph. Nodes has one more element than
// Edges; Nodes[0] is the start.
type Path struct {
	Nodes []string        `json:"nodes"`
	Edges []*Relationship `json:"edges"`
}

// Length returns the number of hops in the path.
func (p *Path) Length() int {
	return len(p.Edges)
}

// TraversalResult holds the nodes and edges discovered by a traversal. The
// start entity itself is never included in Nodes. Path is set only when the
// request named a target and the target was reachable.
type TraversalResult struct {
	Nodes []*Entity       `json:"nodes"`
	Edges []TraversalEdge `json:"edges"`
	Path  *Path           `json:"path,omitempty"`
}
