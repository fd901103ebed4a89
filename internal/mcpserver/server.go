// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes vaultid tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/noteservice"
)

const contractURI = "vaultid://id-contract"

// Server wraps the MCP server with vaultid tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all vaultid tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"vaultid",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_schemes",
		mcp.WithDescription("List the identifier schemes and which one is active."),
	), s.listSchemes)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Count eligible notes and how many carry an id for each scheme."),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("assign_id",
		mcp.WithDescription("Add an id of the active scheme to one note. "+
			"An existing id is kept unless force is true."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
		mcp.WithBoolean("force", mcp.Description("Replace an existing id")),
	), s.assignID)

	s.mcp.AddTool(mcp.NewTool("bulk_ids",
		mcp.WithDescription("Add or remove one scheme's ids across every eligible note."),
		mcp.WithString("operation", mcp.Required(), mcp.Enum("add", "remove"), mcp.Description("add or remove")),
		mcp.WithString("scheme", mcp.Description("Scheme tag (defaults to the active scheme)")),
	), s.bulkIDs)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Identifier Contract",
			mcp.WithResourceDescription("How note identifiers are stored and when they change."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listSchemes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Schemes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) assignID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	force := req.GetBool("force", false)

	res, err := s.svc.AssignNote(ctx, path, force)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) bulkIDs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	operation := models.Operation(op)
	if !operation.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown operation %q", op)), nil
	}
	tag := req.GetString("scheme", "")

	res, err := s.svc.Bulk(ctx, tag, operation, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     IDContract,
		},
	}, nil
}
