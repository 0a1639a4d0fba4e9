package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/graphaura/graphaura/pkg/types"
)

const badgerKeyPrefix = "emb:"

// BadgerStore implements EmbeddingStore on an embedded Badger database.
// Records are stored as JSON values under an "emb:" key prefix. Used for
// local mode and as the test substrate.
type BadgerStore struct {
	db         *badger.DB
	dimensions int
}

// NewBadgerStore opens a Badger database at the given path. An empty path
// opens an in-memory database.
func NewBadgerStore(path string, dimensions int) (*BadgerStore, error) {
	if dimensions <= 0 {
		return nil, types.NewValidationError("dimensions", "must be positive, got %d", dimensions)
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db, dimensions: dimensions}, nil
}

func badgerKey(entityID string) []byte {
	return []byte(badgerKeyPrefix + entityID)
}

func (s *BadgerStore) Put(ctx context.Context, record *types.EmbeddingRecord) error {
	if record.EntityID == "" {
		return types.NewValidationError("entity_id", "cannot be empty")
	}
	if err := CheckDimension(s.dimensions, record.Vector); err != nil {
		return err
	}

	stored := *record
	now := time.Now()
	if existing, err := s.Get(ctx, record.EntityID); err == nil {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	value, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(record.EntityID), value)
	})
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

func (s *BadgerStore) Get(ctx context.Context, entityID string) (*types.EmbeddingRecord, error) {
	var record types.EmbeddingRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(entityID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	return &record, nil
}

func (s *BadgerStore) Delete(ctx context.Context, entityID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(entityID))
	})
	if err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

func (s *BadgerStore) Scan(ctx context.Context, entityTypes []types.EntityType) ([]*types.EmbeddingRecord, error) {
	wanted := make(map[types.EntityType]struct{}, len(entityTypes))
	for _, t := range entityTypes {
		wanted[t] = struct{}{}
	}

	var records []*types.EmbeddingRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record types.EmbeddingRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if len(wanted) > 0 {
				if _, ok := wanted[record.EntityType]; !ok {
					continue
				}
			}
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan embeddings: %w", err)
	}
	return records, nil
}

func (s *BadgerStore) Dimensions() int {
	return s.dimensions
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
