// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the planner's calendar tools over stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/planner"
)

// ContractURI is the resource holding the tool argument contract.
const ContractURI = "planner://tool-contract"

// Server wraps the MCP server with the calendar tools.
type Server struct {
	mcp *server.MCPServer
	svc *planner.Service
}

// New creates a new MCP server with all calendar tools registered.
func New(svc *planner.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"OptiPlan",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool(assistant.AddEventToolName,
		mcp.WithDescription("Add a new event to the calendar. Use this when the user accepts a suggestion "+
			"or asks to schedule something. Read the contract via the "+ContractURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the event")),
		mcp.WithString("startIso", mcp.Required(), mcp.Description("Start time in ISO 8601 format")),
		mcp.WithString("endIso", mcp.Required(), mcp.Description("End time in ISO 8601 format")),
		mcp.WithString("description", mcp.Description("Description")),
		mcp.WithString("type", mcp.Description("Type of event"), mcp.Enum("work", "personal", "meeting")),
	), s.addEvent)

	s.mcp.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List calendar events, optionally only those starting on one day."),
		mcp.WithString("date", mcp.Description("Optional day as YYYY-MM-DD")),
	), s.listEvents)

	s.mcp.AddTool(mcp.NewTool("sync_external_calendar",
		mcp.WithDescription("Replace all external events with a fresh copy of the user's external calendar."),
	), s.syncExternal)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Tool Call Contract",
			mcp.WithResourceDescription("Argument formats and validation rules of add_calendar_event."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContract,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns the streamable HTTP transport for mounting at /mcp.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
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

func (s *Server) addEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	call := assistant.ToolCall{Name: assistant.AddEventToolName, Args: req.GetArguments()}
	res, err := s.svc.ApplyToolCalls(ctx, []assistant.ToolCall{call})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := res.Outcomes[0]
	if out.Err != nil {
		return mcp.NewToolResultError(out.Err.Error()), nil
	}
	return jsonResult(out.Event)
}

func (s *Server) listEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	if date == "" {
		events, err := s.svc.Events(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(events)
	}
	day, err := dateutil.ParseDate(date, s.svc.Location())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	events, err := s.svc.EventsOn(ctx, day)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(events)
}

func (s *Server) syncExternal(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Sync(ctx)
	if errors.Is(err, apperr.ErrBusy) {
		return mcp.NewToolResultError("a sync is already running"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("synced %d external events (revision %d)", res.Count, res.Revision)), nil
}

func (s *Server) readContract(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     ToolContract,
		},
	}, nil
}
