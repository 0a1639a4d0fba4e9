package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/graphaura/graphaura/pkg/types"
)

// PostgresStore implements EmbeddingStore on Postgres with the pgvector
// extension.
type PostgresStore struct {
	db         *sql.DB
	dimensions int
}

// NewPostgresStore opens a connection pool against the given DSN. The schema
// is not touched; call Bootstrap once at startup.
func NewPostgresStore(dsn string, dimensions int) (*PostgresStore, error) {
	if dimensions <= 0 {
		return nil, types.NewValidationError("dimensions", "must be positive, got %d", dimensions)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &PostgresStore{db: db, dimensions: dimensions}, nil
}

// Bootstrap creates the pgvector extension, the embeddings table, and the
// cosine-distance index. Safe to call repeatedly.
func (s *PostgresStore) Bootstrap(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS entity_embeddings (
				entity_id   TEXT PRIMARY KEY,
				entity_type TEXT NOT NULL,
				embedding   vector(%d) NOT NULL,
				metadata    JSONB,
				created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS entity_embeddings_type_idx ON entity_embeddings (entity_type)`,
		`CREATE INDEX IF NOT EXISTS entity_embeddings_cosine_idx
			ON entity_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to bootstrap embeddings schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, record *types.EmbeddingRecord) error {
	if record.EntityID == "" {
		return types.NewValidationError("entity_id", "cannot be empty")
	}
	if err := CheckDimension(s.dimensions, record.Vector); err != nil {
		return err
	}

	var metadata any
	if record.Metadata != nil {
		raw, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding metadata: %w", err)
		}
		metadata = raw
	}

	query := `
		INSERT INTO entity_embeddings (entity_id, entity_type, embedding, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (entity_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_at = now()
	`
	_, err := s.db.ExecContext(ctx, query,
		record.EntityID, string(record.EntityType), pgvector.NewVector(record.Vector), metadata)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, entityID string) (*types.EmbeddingRecord, error) {
	query := `
		SELECT entity_type, embedding, metadata, created_at, updated_at
		FROM entity_embeddings
		WHERE entity_id = $1
	`
	var (
		entityType string
		vec        pgvector.Vector
		metadata   []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := s.db.QueryRowContext(ctx, query, entityID).Scan(&entityType, &vec, &metadata, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	record := &types.EmbeddingRecord{
		EntityID:   entityID,
		EntityType: types.EntityType(entityType),
		Vector:     vec.Slice(),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding metadata: %w", err)
		}
	}
	return record, nil
}

func (s *PostgresStore) Delete(ctx context.Context, entityID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entity_embeddings WHERE entity_id = $1`, entityID)
	if err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

func (s *PostgresStore) Scan(ctx context.Context, entityTypes []types.EntityType) ([]*types.EmbeddingRecord, error) {
	query := `
		SELECT entity_id, entity_type, embedding, metadata, created_at, updated_at
		FROM entity_embeddings
	`
	var args []any
	if len(entityTypes) > 0 {
		placeholders := make([]string, len(entityTypes))
		for i, t := range entityTypes {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, string(t))
		}
		query += " WHERE entity_type IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY entity_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan embeddings: %w", err)
	}
	defer rows.Close()

	var records []*types.EmbeddingRecord
	for rows.Next() {
		var (
			r          types.EmbeddingRecord
			entityType string
			vec        pgvector.Vector
			metadata   []byte
		)
		if err := rows.Scan(&r.EntityID, &entityType, &vec, &metadata, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		r.EntityType = types.EntityType(entityType)
		r.Vector = vec.Slice()
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal embedding metadata: %w", err)
			}
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan embeddings: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Dimensions() int {
	return s.dimensions
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
