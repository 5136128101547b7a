package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openarchive/unisearch/internal/config"
	"github.com/openarchive/unisearch/internal/store"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an archive directory",
		Long: `Create a default .unisearch.yaml and an empty archive database in
the current (or --root) directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	cfgPath := filepath.Join(rootDir, config.ConfigFileName)
	if fileExists(cfgPath) && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", cfgPath)
	}

	cfg := config.NewConfig()
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}

	archive, err := store.OpenArchive(archivePath(cfg))
	if err != nil {
		return err
	}
	defer archive.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", cfgPath)
	fmt.Fprintf(out, "Created archive database at %s\n", archive.Path())
	fmt.Fprintln(out, "Load records into the archive, then run 'unisearch' to serve.")
	return nil
}
