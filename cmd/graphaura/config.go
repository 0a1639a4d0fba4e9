package graphaura

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/graphaura/graphaura/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration as resolved from defaults, the config file,
and environment variables. Secrets are redacted.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	redacted := *cfg
	if redacted.Graph.Password != "" {
		redacted.Graph.Password = "***"
	}
	if redacted.RAG.APIKey != "" {
		redacted.RAG.APIKey = "***"
	}
	if redacted.Embedding.APIKey != "" {
		redacted.Embedding.APIKey = "***"
	}
	if redacted.Vector.DSN != "" {
		redacted.Vector.DSN = "***"
	}

	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
