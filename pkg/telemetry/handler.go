// Package telemetry persists error-level log records to Parquet files so
// failures survive process restarts and can be analyzed offline.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/graphaura/graphaura/pkg/types"
)

// LogRecord is a single log entry in Parquet storage. The graph identifiers
// most useful when querying failures offline get their own columns; anything
// else lands in the attributes JSON.
type LogRecord struct {
	ID             string    `parquet:"id"`
	Timestamp      time.Time `parquet:"timestamp"`
	Level          string    `parquet:"level"`
	Message        string    `parquet:"message"`
	EntityID       string    `parquet:"entity_id"`
	RelationshipID string    `parquet:"relationship_id"`
	Query          string    `parquet:"query"`
	UserID         string    `parquet:"user_id"`
	SessionID      string    `parquet:"session_id"`
	RequestSource  string    `parquet:"request_source"`
	SourceFile     string    `parquet:"source_file"`
	LineNumber     int       `parquet:"line_number"`
	Attributes     string    `parquet:"attributes"` // JSON string
}

// ParquetHandler is a slog.Handler that forwards every record to the next
// handler and additionally buffers error-level records into Parquet files.
type ParquetHandler struct {
	next      slog.Handler
	outputDir string
	mu        sync.Mutex
	buffer    []LogRecord
	batchSize int
}

// NewParquetHandler creates a handler writing batches into outputDir.
func NewParquetHandler(next slog.Handler, outputDir string) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &ParquetHandler{
		next:      next,
		outputDir: outputDir,
		batchSize: 100,
		buffer:    make([]LogRecord, 0, 100),
	}, nil
}

func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < slog.LevelError {
		return nil
	}

	var userID, sessionID, requestSource string
	if v, ok := ctx.Value(types.ContextKeyUserID).(string); ok {
		userID = v
	}
	if v, ok := ctx.Value(types.ContextKeySessionID).(string); ok {
		sessionID = v
	}
	if v, ok := ctx.Value(types.ContextKeyRequestSource).(string); ok {
		requestSource = v
	}

	var entityID, relationshipID, query string
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "entity_id":
			entityID = a.Value.String()
		case "relationship_id":
			relationshipID = a.Value.String()
		case "query":
			query = a.Value.String()
		default:
			attrs[a.Key] = a.Value.Any()
		}
		return true
	})
	var attrsJSON []byte
	if len(attrs) > 0 {
		attrsJSON, _ = json.Marshal(attrs)
	}

	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()

	record := LogRecord{
		ID:             uuid.New().String(),
		Timestamp:      r.Time.UTC(),
		Level:          r.Level.String(),
		Message:        r.Message,
		EntityID:       entityID,
		RelationshipID: relationshipID,
		Query:          query,
		UserID:         userID,
		SessionID:      sessionID,
		RequestSource:  requestSource,
		SourceFile:     f.File,
		LineNumber:     f.Line,
		Attributes:     string(attrsJSON),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.buffer = append(h.buffer, record)
	if len(h.buffer) >= h.batchSize {
		return h.flush()
	}
	return nil
}

// Flush writes any buffered records. Call on shutdown.
func (h *ParquetHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flush()
}

// flush writes the current buffer to a new Parquet file. Caller holds the
// lock.
func (h *ParquetHandler) flush() error {
	if len(h.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("errors_%s_%d.parquet",
		time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(h.outputDir, filename)

	if err := parquet.WriteFile(path, h.buffer); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write telemetry parquet file: %v\n", err)
		return err
	}
	h.buffer = h.buffer[:0]
	return nil
}

func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Child handlers batch independently.
	return &ParquetHandler{
		next:      h.next.WithAttrs(attrs),
		outputDir: h.outputDir,
		batchSize: h.batchSize,
		buffer:    make([]LogRecord, 0, h.batchSize),
	}
}

func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	return &ParquetHandler{
		next:      h.next.WithGroup(name),
		outputDir: h.outputDir,
		batchSize: h.batchSize,
		buffer:    make([]LogRecord, 0, h.batchSize),
	}
}
