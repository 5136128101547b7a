package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openarchive/unisearch/internal/ui"
)

func newSuggestCmd() *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Autocomplete a query prefix",
		Long: `Suggest completions for a query prefix from entity names, aliases
and popular past queries. Prefixes shorter than two characters return
nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			suggestions, err := a.svc.Suggest(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(suggestions)
			}

			ui.NewRenderer(cmd.OutOrStdout()).RenderSuggestions(suggestions)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of suggestions")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}
