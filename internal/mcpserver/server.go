// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes linkmend tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/linkmend/internal/fixer"
	"github.com/starford/linkmend/internal/linkservice"
	"github.com/starford/linkmend/internal/report"
)

const formatURI = "linkmend://fix-table-format"

// Server wraps the MCP server with linkmend tools.
type Server struct {
	mcp *server.MCPServer
	svc *linkservice.Service
}

// New creates a new MCP server with all linkmend tools registered.
func New(svc *linkservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"linkmend",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("scan_images",
		mcp.WithDescription("Scan every Markdown document for image links whose path contains a space. "+
			"Returns a JSON report with one issue per flagged link, ranked critical, warning or info."),
		mcp.WithString("severity",
			mcp.Description("Only return issues of this severity"),
			mcp.Enum("critical", "warning", "info")),
	), s.scanImages)

	s.mcp.AddTool(mcp.NewTool("list_image_refs",
		mcp.WithDescription("List image references. Give a document path to get all of its references, "+
			"or a query to search reference paths and alt text across the docs tree."),
		mcp.WithString("path", mcp.Description("Document path relative to the docs root (e.g. guide/intro.md)")),
		mcp.WithString("query", mcp.Description("Substring to search for in reference paths and alt text")),
	), s.listImageRefs)

	s.mcp.AddTool(mcp.NewTool("suggest_fixes",
		mcp.WithDescription("Build a YAML fix table for every critical issue: a link to a missing file "+
			"whose whitespace-free name exists on disk. See the "+formatURI+" resource for the format."),
	), s.suggestFixes)

	s.mcp.AddTool(mcp.NewTool("apply_fixes",
		mcp.WithDescription("Apply a YAML fix table to the documents. Every occurrence of each original "+
			"text is replaced; files are written only when their content changes."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Fix table in YAML (or JSON)")),
		mcp.WithBoolean("dry_run", mcp.Description("Report what would change without writing")),
	), s.applyFixes)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Fix Table Format",
			mcp.WithResourceDescription("Format of the fix tables used by suggest_fixes and apply_fixes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

func (s *Server) scanImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Report(ctx, req.GetString("severity", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) listImageRefs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	query := req.GetString("query", "")

	switch {
	case path != "":
		doc, err := s.svc.References(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, err)), nil
		}
		return jsonResult(doc)
	case query != "":
		refs, err := s.svc.SearchReferences(ctx, query, 0)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(refs)
	default:
		return mcp.NewToolResultError("one of path or query is required"), nil
	}
}

func (s *Server) suggestFixes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := s.svc.SuggestedFixes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(table.Fixes) == 0 {
		return mcp.NewToolResultText("no fixable issues found"), nil
	}
	out, err := fixer.MarshalTable(table)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applyFixes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("table")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	table, err := fixer.ParseTable([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ApplyFixes(ctx, table, req.GetBool("dry_run", false))
	if err != nil && res == nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf strings.Builder
	if err := report.FixSummary(&buf, res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FixTableFormat,
		},
	}, nil
}
