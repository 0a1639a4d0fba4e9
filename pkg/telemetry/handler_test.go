package telemetry

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/graphaura/graphaura/pkg/types"
)

func newTestHandler(t *testing.T) (*ParquetHandler, string) {
	t.Helper()
	dir := t.TempDir()
	h, err := NewParquetHandler(slog.NewTextHandler(io.Discard, nil), dir)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return h, dir
}

func readRecords(t *testing.T, dir string) []LogRecord {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	var records []LogRecord
	for _, f := range files {
		rows, err := parquet.ReadFile[LogRecord](f)
		if err != nil {
			t.Fatalf("failed to read %s: %v", f, err)
		}
		records = append(records, rows...)
	}
	return records
}

func TestHandlerPersistsGraphColumns(t *testing.T) {
	t.Parallel()
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	ctx := context.WithValue(context.Background(), types.ContextKeyUserID, "u1")
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

	logger.ErrorContext(ctx, "traversal failed",
		"entity_id", "e42",
		"query", "lovelace",
		"depth", 3)

	if err := h.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	records := readRecords(t, dir)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Message != "traversal failed" || r.Level != "ERROR" {
		t.Errorf("unexpected record %+v", r)
	}
	if r.EntityID != "e42" || r.Query != "lovelace" {
		t.Errorf("expected graph columns populated, got entity_id=%q query=%q", r.EntityID, r.Query)
	}
	if r.UserID != "u1" || r.RequestSource != "server" {
		t.Errorf("expected request context captured, got user=%q source=%q", r.UserID, r.RequestSource)
	}
	// Remaining attrs land in the JSON column.
	if r.Attributes == "" {
		t.Error("expected leftover attributes JSON")
	}
}

func TestHandlerIgnoresBelowError(t *testing.T) {
	t.Parallel()
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	logger.Info("all good", "entity_id", "e1")
	logger.Warn("still fine")

	if err := h.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if records := readRecords(t, dir); len(records) != 0 {
		t.Errorf("expected no records below error level, got %d", len(records))
	}
}
