package types

import (
	"errors"
	"testing"
	"time"
)

func TestEntityValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Entity {
		return &Entity{
			ID:              "e1",
			Type:            EntityPerson,
			Name:            "Ada Lovelace",
			ConfidenceScore: 0.9,
		}
	}

	t.Run("valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		e := valid()
		e.Type = "robot"
		err := e.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if ve.Field != "type" {
			t.Errorf("expected field 'type', got %q", ve.Field)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		e := valid()
		e.Name = ""
		if err := e.Validate(); err == nil {
			t.Fatal("expected error for empty name")
		}
	})

	t.Run("name too long", func(t *testing.T) {
		e := valid()
		e.Name = string(make([]byte, maxNameLength+1))
		if err := e.Validate(); err == nil {
			t.Fatal("expected error for oversized name")
		}
	})

	t.Run("confidence out of range", func(t *testing.T) {
		e := valid()
		e.ConfidenceScore = 1.5
		if err := e.Validate(); err == nil {
			t.Fatal("expected error for confidence > 1")
		}
	})
}

func TestEntityTypeLabel(t *testing.T) {
	t.Parallel()
	if got := EntityPerson.Label(); got != "Person" {
		t.Errorf("expected 'Person', got %q", got)
	}
	if got := EntityOrganization.Label(); got != "Organization" {
		t.Errorf("expected 'Organization', got %q", got)
	}
}

func TestRelationshipValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Relationship {
		return &Relationship{
			ID:              "r1",
			SourceID:        "e1",
			TargetID:        "e2",
			Type:            RelKnows,
			Weight:          0.5,
			ConfidenceScore: 0.8,
		}
	}

	t.Run("valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		r := valid()
		r.Type = "frenemy_of"
		if err := r.Validate(); err == nil {
			t.Fatal("expected error for unknown relation type")
		}
	})

	t.Run("end before start", func(t *testing.T) {
		r := valid()
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(-time.Hour)
		r.StartDate = &start
		r.EndDate = &end
		if err := r.Validate(); err == nil {
			t.Fatal("expected error for end_date before start_date")
		}
	})
}

func TestEntityFilterMatches(t *testing.T) {
	t.Parallel()

	now := time.Now()
	e := &Entity{
		ID:              "e1",
		Type:            EntityPerson,
		Name:            "Ada",
		Tags:            []string{"mathematician", "pioneer"},
		ConfidenceScore: 0.7,
		CreatedAt:       now,
	}

	t.Run("nil filter matches everything", func(t *testing.T) {
		var f *EntityFilter
		if !f.Matches(e) {
			t.Error("nil filter should match")
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		f := &EntityFilter{Types: []EntityType{EntityEvent}}
		if f.Matches(e) {
			t.Error("should not match wrong type")
		}
	})

	t.Run("tag intersection", func(t *testing.T) {
		f := &EntityFilter{Tags: []string{"pioneer", "unrelated"}}
		if !f.Matches(e) {
			t.Error("should match on tag intersection")
		}
	})

	t.Run("min confidence", func(t *testing.T) {
		min := 0.8
		f := &EntityFilter{MinConfidence: &min}
		if f.Matches(e) {
			t.Error("should not match below min confidence")
		}
	})

	t.Run("created window", func(t *testing.T) {
		after := now.Add(time.Hour)
		f := &EntityFilter{CreatedAfter: &after}
		if f.Matches(e) {
			t.Error("should not match entity created before the bound")
		}
	})
}

func TestTraversalRequestNormalizeValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		r := &TraversalRequest{StartID: "e1"}
		r.Normalize()
		if r.MaxDepth != DefaultTraversalDepth {
			t.Errorf("expected depth %d, got %d", DefaultTraversalDepth, r.MaxDepth)
		}
		if r.Limit != DefaultTraversalLimit {
			t.Errorf("expected limit %d, got %d", DefaultTraversalLimit, r.Limit)
		}
		if *r.MinConfidence != DefaultMinConfidence {
			t.Errorf("expected min confidence %v, got %v", DefaultMinConfidence, *r.MinConfidence)
		}
		if r.Direction() != DirectionBoth {
			t.Errorf("expected bidirectional default, got %s", r.Direction())
		}
		if err := r.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("depth over max", func(t *testing.T) {
		r := &TraversalRequest{StartID: "e1", MaxDepth: MaxTraversalDepth + 1}
		r.Normalize()
		if err := r.Validate(); err == nil {
			t.Fatal("expected error for depth over the maximum")
		}
	})

	t.Run("limit over max", func(t *testing.T) {
		r := &TraversalRequest{StartID: "e1", Limit: MaxTraversalLimit + 1}
		r.Normalize()
		if err := r.Validate(); err == nil {
			t.Fatal("expected error for limit over the maximum")
		}
	})

	t.Run("outgoing only", func(t *testing.T) {
		b := false
		r := &TraversalRequest{StartID: "e1", Bidirectional: &b}
		r.Normalize()
		if r.Direction() != DirectionOut {
			t.Errorf("expected out, got %s", r.Direction())
		}
	})
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", NewValidationError("name", "empty"), false},
		{"dimension", &DimensionError{Want: 512, Got: 3}, false},
		{"not found", ErrNotFound, false},
		{"conflict", ErrConflict, false},
		{"upstream", ErrUpstreamUnavailable, true},
		{"generic", errors.New("connection reset"), true},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
