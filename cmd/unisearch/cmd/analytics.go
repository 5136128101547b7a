package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openarchive/unisearch/internal/ui"
)

func newAnalyticsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show search analytics",
		Long: `Show the search analytics snapshot: total searches, popular queries
and recent searches.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state := a.svc.AnalyticsSnapshot()

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}

			ui.NewRenderer(cmd.OutOrStdout()).RenderAnalytics(state)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	cmd.AddCommand(newAnalyticsClearCmd())

	return cmd
}

func newAnalyticsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset all analytics counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.svc.AnalyticsClear()
			fmt.Fprintln(cmd.OutOrStdout(), "Analytics cleared.")
			return nil
		},
	}
}
