// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes LiSearch tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lisearch/internal/apperr"
	"github.com/starford/lisearch/internal/importer"
	"github.com/starford/lisearch/internal/lucky"
	"github.com/starford/lisearch/internal/models"
	"github.com/starford/lisearch/internal/queryservice"
	"github.com/starford/lisearch/internal/store"
)

// Server wraps the MCP server with LiSearch tools.
type Server struct {
	mcp      *server.MCPServer
	store    *store.Store
	query    *queryservice.Service
	selector *lucky.Selector
	importer *importer.Importer
	logger   *slog.Logger
}

// New creates a new MCP server with all LiSearch tools registered.
func New(st *store.Store, query *queryservice.Service, selector *lucky.Selector, imp *importer.Importer, logger *slog.Logger) *Server {
	s := &Server{store: st, query: query, selector: selector, importer: imp, logger: logger}

	s.mcp = server.NewMCPServer(
		"LiSearch",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Paginated, searchable view of one collection "+
			"(connections, companies, or positions)."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("One of: connections, companies, positions")),
		mcp.WithNumber("page", mcp.Description("1-indexed page number (default 1)")),
		mcp.WithNumber("pageSize", mcp.Description("Items per page (default 10)")),
		mcp.WithString("query", mcp.Description("Optional search terms; all words must match")),
		mcp.WithString("sortBy", mcp.Description("Optional sort field, e.g. fullName or company")),
		mcp.WithString("sortOrder", mcp.Description("asc or desc")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("search_connections",
		mcp.WithDescription("Search connections by name, company, or position."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchConnections)

	s.mcp.AddTool(mcp.NewTool("import_csv",
		mcp.WithDescription("Replace all collections from a raw CSV export. "+
			"The first row must be a header; the six leading columns are "+
			"First Name, Last Name, Email Address, Company, Position, Connected On."),
		mcp.WithString("csv", mcp.Required(), mcp.Description("Raw CSV payload")),
	), s.importCSV)

	s.mcp.AddTool(mcp.NewTool("feel_lucky",
		mcp.WithDescription("Pick a random batch of not-yet-visited records from a "+
			"collection and mark them visited."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("One of: connections, companies, positions")),
	), s.feelLucky)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page := req.GetInt("page", 1)
	pageSize := req.GetInt("pageSize", 10)
	sort := models.SortOptions{
		SortBy:    req.GetString("sortBy", ""),
		SortOrder: req.GetString("sortOrder", ""),
	}

	result, err := s.query.GetPage(ctx, collection, page, pageSize, req.GetString("query", ""), sort)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.query.GetPage(ctx, models.CollectionConnections, 1, 20, query, models.SortOptions{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result.Items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) importCSV(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := req.RequireString("csv")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sum, err := s.importer.ImportCSV(ctx, []byte(payload))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"imported %d connections, %d companies, %d positions",
		sum.Connections, sum.Companies, sum.Positions)), nil
}

func (s *Server) feelLucky(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.luckyItems(ctx, collection)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	picks, err := s.selector.Pick(ctx, collection, items)
	if errors.Is(err, apperr.ErrLuckyExhausted) {
		return mcp.NewToolResultText("all items in this collection have been visited"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(picks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) luckyItems(ctx context.Context, collection string) ([]lucky.Item, error) {
	switch collection {
	case models.CollectionConnections:
		contacts, err := s.store.Contacts(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]lucky.Item, 0, len(contacts))
		for _, c := range contacts {
			items = append(items, lucky.Item{ID: c.ID, Label: c.FullName})
		}
		return items, nil
	case models.CollectionCompanies:
		employers, err := s.store.Employers(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]lucky.Item, 0, len(employers))
		for _, e := range employers {
			items = append(items, lucky.Item{ID: e.ID, Label: e.Company})
		}
		return items, nil
	case models.CollectionPositions:
		positions, err := s.store.Positions(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]lucky.Item, 0, len(positions))
		for _, p := range positions {
			items = append(items, lucky.Item{ID: p.ID, Label: p.Title})
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
}
