package graphaura

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/graphaura/graphaura"
	"github.com/graphaura/graphaura/pkg/config"
	"github.com/graphaura/graphaura/pkg/embedder"
	gLogger "github.com/graphaura/graphaura/pkg/logger"
	"github.com/graphaura/graphaura/pkg/rag"
	"github.com/graphaura/graphaura/pkg/store"
	"github.com/graphaura/graphaura/pkg/telemetry"
	"github.com/graphaura/graphaura/pkg/vector"
)

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildLogger assembles the color handler, optionally chained through the
// parquet error telemetry handler.
func buildLogger(cfg *config.Config) (*slog.Logger, *telemetry.ParquetHandler) {
	var handler slog.Handler = gLogger.NewColorHandler(os.Stderr, parseLevel(cfg.Log.Level))

	trackingPath := cfg.Telemetry.ParquetPath
	if trackingPath == "" {
		return slog.New(handler), nil
	}
	if err := os.MkdirAll(trackingPath, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create telemetry directory: %v\n", err)
		return slog.New(handler), nil
	}

	parquetHandler, err := telemetry.NewParquetHandler(handler, trackingPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize error tracking: %v\n", err)
		return slog.New(handler), nil
	}
	return slog.New(parquetHandler), parquetHandler
}

// buildService wires a graphaura client from the configuration.
func buildService(cfg *config.Config, logger *slog.Logger) (*graphaura.Client, error) {
	var graphStore store.GraphStore
	var err error
	switch cfg.Graph.Driver {
	case "neo4j":
		graphStore, err = store.NewNeo4jStore(cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create neo4j store: %w", err)
		}
	case "memory":
		graphStore = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported graph driver: %s", cfg.Graph.Driver)
	}

	var embeds vector.EmbeddingStore
	switch cfg.Vector.Driver {
	case "postgres":
		embeds, err = vector.NewPostgresStore(cfg.Vector.DSN, cfg.Vector.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres embedding store: %w", err)
		}
	case "badger":
		embeds, err = vector.NewBadgerStore(cfg.Vector.Path, cfg.Vector.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger embedding store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported vector driver: %s", cfg.Vector.Driver)
	}

	var docs rag.Client
	if cfg.RAG.BaseURL != "" {
		docs = rag.NewHTTPClient(cfg.RAG.BaseURL, cfg.RAG.APIKey,
			time.Duration(cfg.RAG.TimeoutSeconds)*time.Second)
		docs = rag.NewRetryClient(docs, rag.RetryPolicy{MaxRetries: cfg.RAG.MaxRetries}, logger)
		if cfg.CircuitBreaker.Enabled {
			docs = rag.NewCircuitBreakerClient(docs, rag.BreakerConfig{
				MaxRequests:      cfg.CircuitBreaker.MaxRequests,
				Interval:         cfg.CircuitBreaker.Interval,
				Timeout:          cfg.CircuitBreaker.Timeout,
				ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
			}, logger)
		}
	}

	var embed embedder.Client
	if cfg.Embedding.APIKey != "" {
		switch cfg.Embedding.Provider {
		case "openai":
			embed = embedder.NewOpenAIClient(embedder.Config{
				APIKey:     cfg.Embedding.APIKey,
				BaseURL:    cfg.Embedding.BaseURL,
				Model:      cfg.Embedding.Model,
				Dimensions: cfg.Vector.Dimensions,
			})
		default:
			return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
		}
	}

	return graphaura.NewClient(graphStore, embeds, docs, embed, logger), nil
}
