// Package cmd provides the CLI commands for unisearch.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openarchive/unisearch/internal/config"
	"github.com/openarchive/unisearch/internal/logging"
	"github.com/openarchive/unisearch/pkg/version"
)

// Persistent flags shared by all commands.
var (
	rootDir    string
	configPath string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the unisearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unisearch",
		Short: "Unified search over a document archive",
		Long: `Unisearch provides unified search over a document archive: entities,
documents and news articles matched with boolean queries and
edit-distance similarity scoring.

Run 'unisearch' in an archive directory to start the MCP server,
or 'unisearch search <query>' for a one-shot search.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runServe(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("unisearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Archive root directory")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default <root>/.unisearch.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = startDebugLogging
	cmd.PersistentPostRunE = stopDebugLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newAnalyticsCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startDebugLogging enables file-based debug logging when --debug is set.
func startDebugLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version))
	return nil
}

func stopDebugLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads configuration for the selected archive root.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromRoot(rootDir)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
