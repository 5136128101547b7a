package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openarchive/unisearch/internal/service"
	"github.com/openarchive/unisearch/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	fields    string
	docType   string
	source    string
	dateStart string
	dateEnd   string
	limit     int
	offset    int
	exact     bool
	format    string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the archive",
		Long: `Search the archive across entities, documents and news.

Queries support AND, OR, NOT and "quoted phrases". Without a query
on an interactive terminal, an interactive search screen opens.

Examples:
  unisearch search "ghislaine maxwell"
  unisearch search "epstein NOT virginia" --fields documents
  unisearch search deposition --doc-type pdf --from 1995-01-01
  unisearch search maxwell --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runInteractiveSearch(cmd.Context())
			}
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.fields, "fields", "", "Sources to search: all, entities, documents, news (comma separated)")
	cmd.Flags().StringVar(&opts.docType, "doc-type", "", "Filter documents by type (e.g. pdf, transcript)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Filter by originating source or publication")
	cmd.Flags().StringVar(&opts.dateStart, "from", "", "Earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.dateEnd, "to", "", "Latest date, YYYY-MM-DD")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Result offset for paging")
	cmd.Flags().BoolVar(&opts.exact, "exact", false, "Disable fuzzy matching")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	req := service.SearchRequest{
		Query:     query,
		Fields:    opts.fields,
		DocType:   opts.docType,
		Source:    opts.source,
		DateStart: opts.dateStart,
		DateEnd:   opts.dateEnd,
		Limit:     opts.limit,
		Offset:    opts.offset,
	}
	if opts.exact {
		fuzzy := false
		req.Fuzzy = &fuzzy
	}

	resp, err := a.svc.Search(ctx, req)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	ui.NewRenderer(cmd.OutOrStdout()).RenderSearch(resp)
	return nil
}

func runInteractiveSearch(ctx context.Context) error {
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("no query given and stdout is not a terminal")
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return ui.RunInteractive(a.svc)
}
