package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/graphaura/graphaura/pkg/types"
)

// Neo4jStore implements GraphStore against a Neo4j database. Every operation
// opens its own session.
//
// Entities carry the :Entity label plus a subtype label derived from their
// type (:Person, :Event, ...). Relationships are stored as :RELATES edges with
// the semantic type in a property, so the closed relation enumeration never
// leaks into the schema.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects to Neo4j with basic auth.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jStore{client: driver, database: database}, nil
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

func (s *Neo4jStore) GetEntity(ctx context.Context, id string) (*types.Entity, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Entity {id: $id})
			RETURN e
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, types.ErrNotFound
		}
		return records[0], nil
	})
	if err != nil {
		return nil, err
	}

	node, err := nodeFromRecord(result.(*db.Record), "e")
	if err != nil {
		return nil, err
	}
	return entityFromNode(node)
}

func (s *Neo4jStore) FindEntities(ctx context.Context, filter *types.EntityFilter, limit, offset int) ([]*types.Entity, error) {
	var conditions []string
	params := map[string]any{
		"limit":  limit,
		"offset": offset,
	}
	if limit <= 0 {
		params["limit"] = types.DefaultTraversalLimit
	}
	if offset < 0 {
		params["offset"] = 0
	}

	if filter != nil {
		if len(filter.Types) > 0 {
			typeStrings := make([]string, len(filter.Types))
			for i, t := range filter.Types {
				typeStrings[i] = string(t)
			}
			conditions = append(conditions, "e.type IN $types")
			params["types"] = typeStrings
		}
		if len(filter.Tags) > 0 {
			conditions = append(conditions, "any(tag IN $tags WHERE tag IN e.tags)")
			params["tags"] = filter.Tags
		}
		if filter.MinConfidence != nil {
			conditions = append(conditions, "e.confidence_score >= $min_confidence")
			params["min_confidence"] = *filter.MinConfidence
		}
		if filter.CreatedAfter != nil {
			conditions = append(conditions, "e.created_at >= $created_after")
			params["created_after"] = filter.CreatedAfter.UTC().Format(time.RFC3339Nano)
		}
		if filter.CreatedBefore != nil {
			conditions = append(conditions, "e.created_at <= $created_before")
			params["created_before"] = filter.CreatedBefore.UTC().Format(time.RFC3339Nano)
		}
	}

	query := "MATCH (e:Entity)"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += `
		RETURN e
		ORDER BY e.created_at DESC
		SKIP $offset LIMIT $limit
	`

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records := result.([]*db.Record)
	entities := make([]*types.Entity, 0, len(records))
	for _, record := range records {
		node, err := nodeFromRecord(record, "e")
		if err != nil {
			return nil, err
		}
		e, err := entityFromNode(node)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (s *Neo4jStore) CreateEntity(ctx context.Context, e *types.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	props, err := entityToProperties(e)
	if err != nil {
		return err
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (existing:Entity {id: $id})
			RETURN existing.id
			LIMIT 1
		`, map[string]any{"id": e.ID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			return nil, types.ErrConflict
		}

		// The subtype label comes from a closed enum, so the string
		// interpolation cannot inject.
		query := fmt.Sprintf(`
			CREATE (e:Entity {id: $id})
			SET e:%s
			SET e += $properties
		`, e.Type.Label())
		_, err = tx.Run(ctx, query, map[string]any{
			"id":         e.ID,
			"properties": props,
		})
		return nil, err
	})
	return err
}

func (s *Neo4jStore) UpdateEntity(ctx context.Context, id string, fields map[string]any) (*types.Entity, error) {
	current, err := s.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	for k, v := range fields {
		switch k {
		case "name":
			if name, ok := v.(string); ok {
				updated.Name = name
			}
		case "description":
			if desc, ok := v.(string); ok {
				updated.Description = desc
			}
		case "tags":
			if tags, ok := v.([]string); ok {
				updated.Tags = tags
			}
		case "confidence_score":
			if score, ok := v.(float64); ok {
				updated.ConfidenceScore = score
			}
		case "properties":
			if props, ok := v.(map[string]any); ok {
				updated.Properties = props
			}
		case "source_documents":
			if docs, ok := v.([]string); ok {
				updated.SourceDocuments = docs
			}
		}
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now()

	props, err := entityToProperties(&updated)
	if err != nil {
		return nil, err
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (e:Entity {id: $id})
			SET e += $properties
		`, map[string]any{
			"id":         id,
			"properties": props,
		})
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Neo4jStore) DeleteEntity(ctx context.Context, id string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Entity {id: $id})
			DETACH DELETE e
			RETURN count(e) AS deleted
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		deleted, _ := record.Get("deleted")
		return deleted, nil
	})
	if err != nil {
		return err
	}
	if count, ok := result.(int64); ok && count == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *Neo4jStore) GetRelationship(ctx context.Context, id string) (*types.Relationship, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (:Entity)-[r:RELATES {id: $id}]->(:Entity)
			RETURN r
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, types.ErrNotFound
		}
		return records[0], nil
	})
	if err != nil {
		return nil, err
	}

	relValue, found := result.(*db.Record).Get("r")
	if !found {
		return nil, types.ErrNotFound
	}
	rel, ok := relValue.(dbtype.Relationship)
	if !ok {
		return nil, fmt.Errorf("unexpected type for relationship: got %T", relValue)
	}
	return relationshipFromProps(rel.Props)
}

func (s *Neo4jStore) CreateRelationship(ctx context.Context, r *types.Relationship) error {
	if err := r.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	props, err := relationshipToProperties(r)
	if err != nil {
		return err
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (:Entity)-[existing:RELATES {id: $id}]->(:Entity)
			RETURN existing.id
			LIMIT 1
		`, map[string]any{"id": r.ID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			return nil, types.ErrConflict
		}

		res, err = tx.Run(ctx, `
			MATCH (src:Entity {id: $source_id})
			MATCH (dst:Entity {id: $target_id})
			CREATE (src)-[r:RELATES {id: $id}]->(dst)
			SET r += $properties
			RETURN r.id
		`, map[string]any{
			"id":         r.ID,
			"source_id":  r.SourceID,
			"target_id":  r.TargetID,
			"properties": props,
		})
		if err != nil {
			return nil, err
		}
		created, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(created) == 0 {
			return nil, types.NewValidationError("source_id", "endpoint %q or %q does not exist", r.SourceID, r.TargetID)
		}
		return nil, nil
	})
	return err
}

func (s *Neo4jStore) DeleteRelationship(ctx context.Context, id string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (:Entity)-[r:RELATES {id: $id}]->(:Entity)
			DELETE r
			RETURN count(r) AS deleted
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		deleted, _ := record.Get("deleted")
		return deleted, nil
	})
	if err != nil {
		return err
	}
	if count, ok := result.(int64); ok && count == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *Neo4jStore) RelationshipsOf(ctx context.Context, id string, dir types.Direction) ([]types.AdjacentRelationship, error) {
	if _, err := s.GetEntity(ctx, id); err != nil {
		return nil, err
	}

	var pattern string
	switch dir {
	case types.DirectionOut:
		pattern = "MATCH (e:Entity {id: $id})-[r:RELATES]->(:Entity)"
	case types.DirectionIn:
		pattern = "MATCH (e:Entity {id: $id})<-[r:RELATES]-(:Entity)"
	default:
		pattern = "MATCH (e:Entity {id: $id})-[r:RELATES]-(:Entity)"
	}
	query := pattern + `
		RETURN r, startNode(r).id AS src
		ORDER BY r.created_at, r.id
	`

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records := result.([]*db.Record)
	out := make([]types.AdjacentRelationship, 0, len(records))
	for _, record := range records {
		relValue, found := record.Get("r")
		if !found {
			continue
		}
		rel, ok := relValue.(dbtype.Relationship)
		if !ok {
			return nil, fmt.Errorf("unexpected type for relationship: got %T", relValue)
		}
		r, err := relationshipFromProps(rel.Props)
		if err != nil {
			return nil, err
		}
		d := types.DirectionIn
		if r.SourceID == id {
			d = types.DirectionOut
		}
		out = append(out, types.AdjacentRelationship{Relationship: r, Direction: d})
	}
	return out, nil
}

func (s *Neo4jStore) CreateIndices(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (e:Entity) REQUIRE e.id IS UNIQUE",
		"CREATE INDEX entity_type IF NOT EXISTS FOR (e:Entity) ON (e.type)",
		"CREATE INDEX entity_name IF NOT EXISTS FOR (e:Entity) ON (e.name)",
		"CREATE INDEX entity_created_at IF NOT EXISTS FOR (e:Entity) ON (e.created_at)",
		"CREATE INDEX relates_id IF NOT EXISTS FOR ()-[r:RELATES]-() ON (r.id)",
	}
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func nodeFromRecord(record *db.Record, key string) (dbtype.Node, error) {
	value, found := record.Get(key)
	if !found {
		return dbtype.Node{}, types.ErrNotFound
	}
	node, ok := value.(dbtype.Node)
	if !ok {
		return dbtype.Node{}, fmt.Errorf("unexpected type for node: got %T, expected dbtype.Node", value)
	}
	return node, nil
}

func entityToProperties(e *types.Entity) (map[string]any, error) {
	props := map[string]any{
		"type":             string(e.Type),
		"name":             e.Name,
		"description":      e.Description,
		"tags":             e.Tags,
		"source_documents": e.SourceDocuments,
		"confidence_score": e.ConfidenceScore,
		"created_at":       e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":       e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(e.Properties) > 0 {
		raw, err := json.Marshal(e.Properties)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entity properties: %w", err)
		}
		props["properties_json"] = string(raw)
	}
	return props, nil
}

func entityFromNode(node dbtype.Node) (*types.Entity, error) {
	p := node.Props
	e := &types.Entity{
		ID:              stringProp(p, "id"),
		Type:            types.EntityType(stringProp(p, "type")),
		Name:            stringProp(p, "name"),
		Description:     stringProp(p, "description"),
		Tags:            stringSliceProp(p, "tags"),
		SourceDocuments: stringSliceProp(p, "source_documents"),
		ConfidenceScore: floatProp(p, "confidence_score"),
		CreatedAt:       timeProp(p, "created_at"),
		UpdatedAt:       timeProp(p, "updated_at"),
	}
	if raw := stringProp(p, "properties_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &e.Properties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entity properties: %w", err)
		}
	}
	return e, nil
}

func relationshipToProperties(r *types.Relationship) (map[string]any, error) {
	props := map[string]any{
		"source_id":        r.SourceID,
		"target_id":        r.TargetID,
		"type":             string(r.Type),
		"weight":           r.Weight,
		"confidence_score": r.ConfidenceScore,
		"evidence":         r.Evidence,
		"created_at":       r.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":       r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.StartDate != nil {
		props["start_date"] = r.StartDate.UTC().Format(time.RFC3339Nano)
	}
	if r.EndDate != nil {
		props["end_date"] = r.EndDate.UTC().Format(time.RFC3339Nano)
	}
	if len(r.Properties) > 0 {
		raw, err := json.Marshal(r.Properties)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal relationship properties: %w", err)
		}
		props["properties_json"] = string(raw)
	}
	return props, nil
}

func relationshipFromProps(p map[string]any) (*types.Relationship, error) {
	r := &types.Relationship{
		ID:              stringProp(p, "id"),
		SourceID:        stringProp(p, "source_id"),
		TargetID:        stringProp(p, "target_id"),
		Type:            types.RelationType(stringProp(p, "type")),
		Weight:          floatProp(p, "weight"),
		ConfidenceScore: floatProp(p, "confidence_score"),
		Evidence:        stringSliceProp(p, "evidence"),
		CreatedAt:       timeProp(p, "created_at"),
		UpdatedAt:       timeProp(p, "updated_at"),
	}
	if t := timeProp(p, "start_date"); !t.IsZero() {
		r.StartDate = &t
	}
	if t := timeProp(p, "end_date"); !t.IsZero() {
		r.EndDate = &t
	}
	if raw := stringProp(p, "properties_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &r.Properties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal relationship properties: %w", err)
		}
	}
	return r, nil
}

func stringProp(p map[string]any, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func floatProp(p map[string]any, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func stringSliceProp(p map[string]any, key string) []string {
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func timeProp(p map[string]any, key string) time.Time {
	s, ok := p[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
