// Package mcpadapter exposes hybrid search as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
	"github.com/kirillkom/hybrid-search/internal/core/usecase"
)

const serverName = "hybrid-search"

type Server struct {
	search ports.SearchService
	server *server.MCPServer
	logger *slog.Logger
}

func NewServer(search ports.SearchService, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		search: search,
		server: server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
		logger: logger,
	}
	s.registerTools()
	return s
}

// Serve speaks MCP over the given streams until ctx is canceled or in is
// closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.server).Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Hybrid keyword and semantic search over the news corpus. Short ticker-like queries lean on keyword matching, longer queries on semantic similarity."),
		mcp.WithString("query", mcp.Required(), mcp.Description("search query")),
		mcp.WithNumber("top_k", mcp.Description("number of results, 1-50 (default 10)")),
		mcp.WithString("date_from", mcp.Description("only documents on or after this date, YYYY-MM-DD")),
		mcp.WithString("date_to", mcp.Description("only documents on or before this date, YYYY-MM-DD")),
		mcp.WithString("symbol", mcp.Description("only documents tagged with this symbol")),
	), s.handleSearch)

	s.server.AddTool(mcp.NewTool("search_health",
		mcp.WithDescription("Report corpus size and which retrieval strategies are available."),
	), s.handleHealth)
}

type searchOutput struct {
	Query        string                       `json:"query"`
	Strategy     string                       `json:"strategy"`
	TotalResults int                          `json:"total_results"`
	Results      []domain.RankedResult        `json:"results"`
	Diagnostics  *domain.NoResultsDiagnostics `json:"diagnostics,omitempty"`
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter, err := usecase.ParseFilter(
		request.GetString("date_from", ""),
		request.GetString("date_to", ""),
		request.GetString("symbol", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := s.search.Search(ctx, domain.SearchRequest{
		Query:  query,
		TopK:   request.GetInt("top_k", 0),
		Filter: filter,
	})
	if err != nil {
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			s.logger.Error("mcp_search_failed", "error", err)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := outcome.Results
	if results == nil {
		results = []domain.RankedResult{}
	}
	return jsonResult(searchOutput{
		Query:        outcome.Query,
		Strategy:     outcome.Strategy,
		TotalResults: len(results),
		Results:      results,
		Diagnostics:  outcome.Diagnostics,
	})
}

func (s *Server) handleHealth(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.search.Health())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(payload)), nil
}
