package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/openarchive/unisearch/internal/analytics"
	"github.com/openarchive/unisearch/internal/search"
	"github.com/openarchive/unisearch/internal/service"
)

// Renderer writes search output to a terminal or pipe.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer, picking styles for the writer.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out, styles: StylesFor(out)}
}

// RenderSearch writes a search response.
func (r *Renderer) RenderSearch(resp *service.SearchResponse) {
	if resp.TotalResults == 0 {
		fmt.Fprintln(r.out, r.styles.Dim.Render("No results."))
		return
	}

	header := fmt.Sprintf("%d result(s) in %dms", resp.TotalResults, resp.SearchTimeMS)
	fmt.Fprintln(r.out, r.styles.Header.Render(header))
	fmt.Fprintln(r.out)

	for i, item := range resp.Results {
		line := fmt.Sprintf("%2d. %s", i+1, r.styles.Title.Render(item.Title))
		fmt.Fprintln(r.out, line)

		meta := []string{
			r.styles.Source.Render(item.SourceType),
			r.styles.Score.Render(fmt.Sprintf("score %.2f", item.Score)),
		}
		if item.Date != "" {
			meta = append(meta, r.styles.Label.Render(item.Date))
		}
		for _, key := range sortedAttrKeys(item.Attributes) {
			meta = append(meta, r.styles.Label.Render(key+"="+item.Attributes[key]))
		}
		fmt.Fprintln(r.out, "    "+strings.Join(meta, "  "))
	}

	r.renderFacets(resp.Facets)

	if len(resp.Suggestions) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, r.styles.Label.Render("Related: ")+strings.Join(resp.Suggestions, ", "))
	}
}

func (r *Renderer) renderFacets(facets search.Facets) {
	keys := make([]string, 0, len(facets))
	for key, counts := range facets {
		if len(counts) > 0 {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)

	fmt.Fprintln(r.out)
	for _, key := range keys {
		counts := facets[key]
		values := make([]string, 0, len(counts))
		for value := range counts {
			values = append(values, value)
		}
		sort.Strings(values)

		parts := make([]string, 0, len(values))
		for _, value := range values {
			parts = append(parts, fmt.Sprintf("%s(%d)", value, counts[value]))
		}
		fmt.Fprintln(r.out, r.styles.Label.Render(key+": ")+strings.Join(parts, " "))
	}
}

// RenderSuggestions writes autocomplete suggestions.
func (r *Renderer) RenderSuggestions(suggestions []search.Suggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintln(r.out, r.styles.Dim.Render("No suggestions."))
		return
	}

	for _, s := range suggestions {
		fmt.Fprintf(r.out, "%s  %s\n",
			r.styles.Title.Render(s.Text),
			r.styles.Label.Render(fmt.Sprintf("%s %.2f", s.Kind, s.Score)))
	}
}

// RenderAnalytics writes the analytics snapshot.
func (r *Renderer) RenderAnalytics(state analytics.State) {
	fmt.Fprintln(r.out, r.styles.Header.Render(
		fmt.Sprintf("Total searches: %d (since %s)",
			state.TotalSearches, state.Since.Format("2006-01-02 15:04"))))

	if len(state.PopularQueries) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, r.styles.Title.Render("Popular queries"))
		for _, qc := range sortedQueries(state.PopularQueries) {
			fmt.Fprintf(r.out, "  %4d  %s\n", qc.count, qc.query)
		}
	}

	if len(state.RecentSearches) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, r.styles.Title.Render("Recent searches"))
		for _, e := range state.RecentSearches {
			fmt.Fprintf(r.out, "  %s  %-10s %s\n",
				r.styles.Dim.Render(e.Timestamp.Format("2006-01-02 15:04")),
				r.styles.Source.Render(e.Fields),
				e.Query)
		}
	}
}

type queryCount struct {
	query string
	count int64
}

// sortedQueries orders the popularity map count descending then text.
func sortedQueries(popular map[string]int64) []queryCount {
	out := make([]queryCount, 0, len(popular))
	for query, count := range popular {
		out = append(out, queryCount{query: query, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].query < out[j].query
	})
	return out
}

func sortedAttrKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
