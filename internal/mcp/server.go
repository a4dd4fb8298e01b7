// Package mcp exposes the recommendation engine as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/internal/engine"
	"github.com/kamatealif/shelf-sage/pkg/models"
)

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Server wraps the MCP server around the recommendation engine.
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
}

// NewServer creates an MCP server with book recommendation tools.
func NewServer(config Config, eng *engine.Engine) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}

	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    eng,
	}

	resolveTool := mcp.NewTool("resolve_book",
		mcp.WithDescription("Resolve a slug, title, or title fragment to exactly one catalog book."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Slug, title, or fragment to resolve"),
		),
	)
	mcpServer.AddTool(resolveTool, s.resolveHandler)

	recommendTool := mcp.NewTool("recommend_books",
		mcp.WithDescription("Recommend books related to a seed book, by shared category or by content similarity."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Slug, title, or fragment identifying the seed book"),
		),
		mcp.WithString("strategy",
			mcp.Description("Ranking strategy: 'category' (default) or 'content'"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Maximum number of recommendations (default: 5)"),
		),
	)
	mcpServer.AddTool(recommendTool, s.recommendHandler)

	searchTool := mcp.NewTool("search_books",
		mcp.WithDescription("Case-insensitive substring search across book titles and categories."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10)"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	return s, nil
}

// resolveHandler handles the resolve_book tool call.
func (s *Server) resolveHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	book, err := s.engine.Snapshot().Resolve(query)
	if err != nil {
		return notFoundResult(err), nil
	}

	result, err := json.Marshal(book)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal book: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// recommendHandler handles the recommend_books tool call.
func (s *Server) recommendHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	strategy := engine.Strategy(req.GetString("strategy", string(engine.StrategyCategory)))
	if strategy != engine.StrategyCategory && strategy != engine.StrategyContent {
		return mcp.NewToolResultError("strategy must be 'category' or 'content'"), nil
	}
	topN := req.GetInt("top_n", 5)
	if topN < 1 {
		return mcp.NewToolResultError("top_n must be >= 1"), nil
	}

	books, err := s.handleRecommend(query, strategy, topN)
	if err != nil {
		return notFoundResult(err), nil
	}

	result, err := json.Marshal(books)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// searchHandler handles the search_books tool call.
func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	limit := req.GetInt("limit", 10)

	books := s.handleSearch(query, limit)

	result, err := json.Marshal(books)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// handleRecommend resolves the seed and ranks recommendations.
func (s *Server) handleRecommend(query string, strategy engine.Strategy, topN int) ([]models.Summary, error) {
	snap := s.engine.Snapshot()

	seed, err := snap.Resolve(query)
	if err != nil {
		return nil, err
	}
	books, err := snap.Recommend(strategy, seed.Title, topN)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.Summary, len(books))
	for i, b := range books {
		summaries[i] = b.Summarize()
	}
	return summaries, nil
}

// handleSearch searches titles and categories.
func (s *Server) handleSearch(query string, limit int) []models.Summary {
	books := s.engine.Snapshot().Catalog().Search(query, limit)
	summaries := make([]models.Summary, 0, len(books))
	for _, b := range books {
		summaries = append(summaries, b.Summarize())
	}
	return summaries
}

func notFoundResult(err error) *mcp.CallToolResult {
	var nf *catalog.NotFoundError
	if errors.As(err, &nf) {
		return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", nf.Error(), nf.Hint()))
	}
	return mcp.NewToolResultError(err.Error())
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
