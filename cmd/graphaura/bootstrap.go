package graphaura

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphaura/graphaura/pkg/config"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create graph indices and the embedding store schema",
	Long: `Create the graph constraints and indices, and for embedding stores
with server-side schema (postgres) the extension, table, and indices.

Safe to run repeatedly; everything is created with IF NOT EXISTS.`,
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, _ := buildLogger(cfg)
	service, err := buildService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize graphaura: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := service.Bootstrap(ctx); err != nil {
		return err
	}
	return service.Close(ctx)
}
