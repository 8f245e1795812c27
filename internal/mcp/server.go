package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docupilot/docupilot/internal/store"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Vectors *vectorstore.Store
	DB      *store.Store
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "docupilot-docs-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_docs",
		Description: "Search stored technical documentation semantically. Returns metadata for matching documents. Use fetch_doc to get full content.",
	}, makeSearchHandler(cfg.Vectors, cfg.DB))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_doc",
		Description: "Retrieve a specific document by ID. Returns full markdown content.",
	}, makeFetchHandler(cfg.DB))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_docs",
		Description: "List all stored documents with their IDs, titles, and types.",
	}, makeListHandler(cfg.DB))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
