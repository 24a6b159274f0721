// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes taglog queries for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/taglog/internal/apperr"
	"github.com/starford/taglog/internal/tagservice"
)

// LogFormatURI is the resource URI of the event-log format description.
const LogFormatURI = "taglog://log-format"

// Server wraps the MCP server with taglog tools.
type Server struct {
	mcp *server.MCPServer
	svc *tagservice.Service
}

// New creates a new MCP server with all taglog tools registered.
func New(svc *tagservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"taglog",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("latest_tags",
		mcp.WithDescription("Return the last known tags of a journal file as recorded in the event log."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Journal file base name (e.g. 16-10-2026.md)")),
	), s.latestTags)

	s.mcp.AddTool(mcp.NewTool("files_with_tag",
		mcp.WithDescription("List journal files whose last known tags include the given tag."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to look up")),
	), s.filesWithTag)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every known tag with the number of files carrying it."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("file_history",
		mcp.WithDescription("Return the event-log records of a journal file, newest first. "+
			"Read the taglog://log-format resource to interpret events and reasons."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Journal file base name")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records (default 50)")),
	), s.fileHistory)

	s.mcp.AddResource(
		mcp.NewResource(LogFormatURI, "Event Log Format",
			mcp.WithResourceDescription("Line format, events and skip reasons of the taglog event log."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLogFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) latestTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ft, err := s.svc.FileTags(ctx, file)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no tags recorded for %s", file)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ft), nil
}

func (s *Server) filesWithTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.svc.Files(ctx, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no files found"), nil
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.File)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.Tags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags), nil
}

func (s *Server) fileHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.History(ctx, file, req.GetInt("limit", tagservice.DefaultHistoryLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) readLogFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LogFormatURI,
			MIMEType: "text/markdown",
			Text:     LogFormatContract,
		},
	}, nil
}
