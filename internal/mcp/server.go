package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openarchive/unisearch/internal/service"
	"github.com/openarchive/unisearch/pkg/version"
)

// serverName identifies the server to MCP clients.
const serverName = "unisearch"

// Server exposes the search service over MCP.
type Server struct {
	svc    *service.Service
	mcp    *mcp.Server
	logger *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(svc *service.Service) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("search service is required")
	}

	s := &Server{
		svc:    svc,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_archive",
		Description: "Search the archive's entities, documents and news articles with one query. Supports AND/OR/NOT operators, quoted phrases, fuzzy matching, attribute and date filters. Returns ranked results with facet counts.",
	}, s.searchArchiveHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "suggest",
		Description: "Autocomplete a search prefix from entity names, known aliases and popular past queries. Needs at least 2 characters.",
	}, s.suggestHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_analytics",
		Description: "Report search analytics: total searches, popular queries and the recent search log.",
	}, s.searchAnalyticsHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "clear_analytics",
		Description: "Reset all search analytics counters and logs.",
	}, s.clearAnalyticsHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Check whether the record index is built and report per-source record counts.",
	}, s.indexStatusHandler)

	s.logger.Debug("mcp tools registered", slog.Int("count", 5))
}

func (s *Server) searchArchiveHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchArchiveInput) (
	*mcp.CallToolResult,
	SearchArchiveOutput,
	error,
) {
	resp, err := s.svc.Search(ctx, service.SearchRequest{
		Query:         input.Query,
		Fields:        input.Fields,
		Fuzzy:         input.Fuzzy,
		MinSimilarity: input.MinSimilarity,
		DocType:       input.DocType,
		Source:        input.Source,
		DateStart:     input.DateStart,
		DateEnd:       input.DateEnd,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return nil, SearchArchiveOutput{}, MapError(err)
	}

	return nil, SearchArchiveOutput{
		Results:      resp.Results,
		TotalResults: resp.TotalResults,
		Facets:       resp.Facets,
		Suggestions:  resp.Suggestions,
		SearchTimeMS: resp.SearchTimeMS,
	}, nil
}

func (s *Server) suggestHandler(ctx context.Context, _ *mcp.CallToolRequest, input SuggestInput) (
	*mcp.CallToolResult,
	SuggestOutput,
	error,
) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	suggestions, err := s.svc.Suggest(ctx, input.Query, limit)
	if err != nil {
		return nil, SuggestOutput{}, MapError(err)
	}

	out := SuggestOutput{Suggestions: make([]SuggestionOutput, 0, len(suggestions))}
	for _, sug := range suggestions {
		out.Suggestions = append(out.Suggestions, SuggestionOutput{
			Text:  sug.Text,
			Type:  sug.Kind,
			Score: sug.Score,
		})
	}
	return nil, out, nil
}

func (s *Server) searchAnalyticsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ SearchAnalyticsInput) (
	*mcp.CallToolResult,
	SearchAnalyticsOutput,
	error,
) {
	state := s.svc.AnalyticsSnapshot()

	return nil, SearchAnalyticsOutput{
		TotalSearches:  state.TotalSearches,
		PopularQueries: state.PopularQueries,
		RecentSearches: state.RecentSearches,
		Since:          state.Since.Format(time.RFC3339),
	}, nil
}

func (s *Server) clearAnalyticsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ClearAnalyticsInput) (
	*mcp.CallToolResult,
	ClearAnalyticsOutput,
	error,
) {
	s.svc.AnalyticsClear()
	s.logger.Info("analytics cleared")

	return nil, ClearAnalyticsOutput{Cleared: true}, nil
}

func (s *Server) indexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	stats, err := s.svc.IndexStats()
	if err != nil {
		// Not built yet: report unready instead of failing.
		return nil, IndexStatusOutput{Ready: false}, nil
	}

	bySource := make(map[string]int, len(stats.BySource))
	for src, count := range stats.BySource {
		bySource[string(src)] = count
	}

	return nil, IndexStatusOutput{
		Ready:        true,
		Generation:   stats.Generation,
		BuiltAt:      stats.BuiltAt.Format(time.RFC3339),
		TotalRecords: stats.Total,
		BySource:     bySource,
	}, nil
}

// Serve runs the server until the context is canceled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server",
		slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
