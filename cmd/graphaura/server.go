package graphaura

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphaura/graphaura/pkg/config"
	"github.com/graphaura/graphaura/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the graphaura HTTP server",
	Long: `Start the graphaura HTTP server to provide REST API access to the
knowledge graph.

The server provides endpoints for:
- Entity and relationship CRUD
- Bounded graph traversal and shortest paths
- Semantic, hybrid, and contextual search
- Embedding similarity and clustering
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Graph store flags
	serverCmd.Flags().String("graph-driver", "", "Graph driver (neo4j, memory)")
	serverCmd.Flags().String("graph-uri", "", "Graph database URI")
	serverCmd.Flags().String("graph-username", "", "Graph database username")
	serverCmd.Flags().String("graph-password", "", "Graph database password")
	serverCmd.Flags().String("graph-database", "", "Graph database name")

	// Vector store flags
	serverCmd.Flags().String("vector-driver", "", "Vector driver (postgres, badger)")
	serverCmd.Flags().String("vector-dsn", "", "Postgres DSN for the embedding store")
	serverCmd.Flags().String("vector-path", "", "Badger path (empty runs in-memory)")
	serverCmd.Flags().Int("vector-dimensions", 0, "Embedding dimensionality")

	// RAG collaborator flags
	serverCmd.Flags().String("rag-base-url", "", "Document retrieval service base URL")
	serverCmd.Flags().String("rag-api-key", "", "Document retrieval service API key")

	// Embedding flags
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, parquetHandler := buildLogger(cfg)

	service, err := buildService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize graphaura: %w", err)
	}

	srv := server.New(cfg, service, logger)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.Info("received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if err := service.Close(shutdownCtx); err != nil {
			logger.Warn("failed to close service cleanly", "error", err)
		}
		if parquetHandler != nil {
			if err := parquetHandler.Flush(); err != nil {
				logger.Warn("failed to flush telemetry", "error", err)
			}
		}

		logger.Info("server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	if cmd.Flags().Changed("graph-driver") {
		cfg.Graph.Driver, _ = cmd.Flags().GetString("graph-driver")
	}
	if cmd.Flags().Changed("graph-uri") {
		cfg.Graph.URI, _ = cmd.Flags().GetString("graph-uri")
	}
	if cmd.Flags().Changed("graph-username") {
		cfg.Graph.Username, _ = cmd.Flags().GetString("graph-username")
	}
	if cmd.Flags().Changed("graph-password") {
		cfg.Graph.Password, _ = cmd.Flags().GetString("graph-password")
	}
	if cmd.Flags().Changed("graph-database") {
		cfg.Graph.Database, _ = cmd.Flags().GetString("graph-database")
	}

	if cmd.Flags().Changed("vector-driver") {
		cfg.Vector.Driver, _ = cmd.Flags().GetString("vector-driver")
	}
	if cmd.Flags().Changed("vector-dsn") {
		cfg.Vector.DSN, _ = cmd.Flags().GetString("vector-dsn")
	}
	if cmd.Flags().Changed("vector-path") {
		cfg.Vector.Path, _ = cmd.Flags().GetString("vector-path")
	}
	if cmd.Flags().Changed("vector-dimensions") {
		cfg.Vector.Dimensions, _ = cmd.Flags().GetInt("vector-dimensions")
	}

	if cmd.Flags().Changed("rag-base-url") {
		cfg.RAG.BaseURL, _ = cmd.Flags().GetString("rag-base-url")
	}
	if cmd.Flags().Changed("rag-api-key") {
		cfg.RAG.APIKey, _ = cmd.Flags().GetString("rag-api-key")
	}

	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Graph.Driver == "neo4j" && cfg.Graph.URI == "" {
		return fmt.Errorf("graph URI is required for the neo4j driver")
	}
	if cfg.Vector.Driver == "postgres" && cfg.Vector.DSN == "" {
		return fmt.Errorf("vector DSN is required for the postgres driver")
	}
	if cfg.Vector.Dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", cfg.Vector.Dimensions)
	}
	return nil
}
