package types

import "time"

// RelationType enumerates the kinds of edges in the knowledge graph.
type RelationType string

const (
	// Person to person.
	RelKnows       RelationType = "knows"
	RelFamilyOf    RelationType = "family_of"
	RelFriendOf    RelationType = "friend_of"
	RelColleagueOf RelationType = "colleague_of"
	RelMentorOf    RelationType = "mentor_of"
	RelParentOf    RelationType = "parent_of"
	RelChildOf     RelationType = "child_of"

	// Person to organization.
	RelWorksFor         RelationType = "works_for"
	RelEmployedBy       RelationType = "employed_by"
	RelManages          RelationType = "manages"
	RelCollaboratesWith RelationType = "collaborates_with"
	RelFounded          RelationType = "founded"
	RelOwns             RelationType = "owns"

	// Events.
	RelAttended       RelationType = "attended"
	RelOrganized      RelationType = "organized"
	RelParticipatedIn RelationType = "participated_in"
	RelSpokeAt        RelationType = "spoke_at"
	RelHosted         RelationType = "hosted"

	// Locations.
	RelLocatedIn RelationType = "located_in"
	RelLivedIn   RelationType = "lived_in"
	RelVisited   RelationType = "visited"
	RelBornIn    RelationType = "born_in"
	RelDiedIn    RelationType = "died_in"

	// Documents and references.
	RelAuthored    RelationType = "authored"
	RelCited       RelationType = "cited"
	RelMentionedIn RelationType = "mentioned_in"
	RelReferences  RelationType = "references"

	// Structure.
	RelPartOf   RelationType = "part_of"
	RelContains RelationType = "contains"

	// Temporal ordering.
	RelPrecededBy     RelationType = "preceded_by"
	RelFollowedBy     RelationType = "followed_by"
	RelConcurrentWith RelationType = "concurrent_with"

	// Semantic.
	RelRelatedTo  RelationType = "related_to"
	RelSimilarTo  RelationType = "similar_to"
	RelOppositeOf RelationType = "opposite_of"
	RelCausedBy   RelationType = "caused_by"
	RelResultedIn RelationType = "resulted_in"
)

var relationTypes = map[RelationType]struct{}{
	RelKnows: {}, RelFamilyOf: {}, RelFriendOf: {}, RelColleagueOf: {},
	RelMentorOf: {}, RelParentOf: {}, RelChildOf: {},
	RelWorksFor: {}, RelEmployedBy: {}, RelManages: {},
	RelCollaboratesWith: {}, RelFounded: {}, RelOwns: {},
	RelAttended: {}, RelOrganized: {}, RelParticipatedIn: {},
	RelSpokeAt: {}, RelHosted: {},
	RelLocatedIn: {}, RelLivedIn: {}, RelVisited: {}, RelBornIn: {}, RelDiedIn: {},
	RelAuthored: {}, RelCited: {}, RelMentionedIn: {}, RelReferences: {},
	RelPartOf: {}, RelContains: {},
	RelPrecededBy: {}, RelFollowedBy: {}, RelConcurrentWith: {},
	RelRelatedTo: {}, RelSimilarTo: {}, RelOppositeOf: {},
	RelCausedBy: {}, RelResultedIn: {},
}

// Valid reports whether t is a member of the closed enumeration.
func (t RelationType) Valid() bool {
	_, ok := relationTypes[t]
	return ok
}

// Relationship is a typed, directed, weighted edge between two entities.
type Relationship struct {
	ID              string         `json:"id"`
	SourceID        string         `json:"source_id"`
	TargetID        string         `json:"target_id"`
	Type            RelationType   `json:"type"`
	Weight          float64        `json:"weight"`
	ConfidenceScore float64        `json:"confidence_score"`
	StartDate       *time.Time     `json:"start_date,omitempty"`
	EndDate         *time.Time     `json:"end_date,omitempty"`
	Evidence        []string       `json:"evidence,omitempty"`
	Properties      map[string]any `json:"properties,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Validate checks the relationship's fields. Endpoint existence is the store's
// responsibility.
func (r *Relationship) Validate() error {
	if r.SourceID == "" {
		return NewValidationError("source_id", "cannot be empty")
	}
	if r.TargetID == "" {
		return NewValidationError("target_id", "cannot be empty")
	}
	if !r.Type.Valid() {
		return NewValidationError("type", "unknown relation type %q", r.Type)
	}
	if r.Weight < 0 || r.Weight > 1 {
		return NewValidationError("weight", "must be in [0,1], got %v", r.Weight)
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return NewValidationError("confidence_score", "must be in [0,1], got %v", r.ConfidenceScore)
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return NewValidationError("end_date", "precedes start_date")
	}
	return nil
}

// Direction selects which edges around a node are considered.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// Valid reports whether d is a member of the closed enumeration.
func (d Direction) Valid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionBoth:
		return true
	}
	return false
}

// AdjacentRelationship is an edge around a node, tagged with the direction in
// which it was reached from that node.
type AdjacentRelationship struct {
	Relationship *Relationship `json:"relationship"`
	Direction    Direction     `json:"direction"`
}

// Other returns the id of the endpoint opposite to nodeID.
func (a AdjacentRelationship) Other(nodeID string) string {
	if a.Relationship.SourceID == nodeID {
		return a.Relationship.TargetID
	}
	return a.Relationship.SourceID
}
