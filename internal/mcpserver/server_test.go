package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/calsync"
	"github.com/tomokana225/schedule-planning/internal/eventstore"
	"github.com/tomokana225/schedule-planning/internal/models"
	"github.com/tomokana225/schedule-planning/internal/planner"
)

var jst = time.FixedZone("JST", 9*3600)

func testServer(t *testing.T) (*Server, eventstore.Store) {
	t.Helper()

	now := time.Date(2026, 10, 16, 8, 0, 0, 0, jst)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := eventstore.NewMemory()
	fetcher := calsync.New(calsync.Session{SimulatedLatency: time.Millisecond, Location: jst},
		calsync.WithClock(func() time.Time { return now }),
		calsync.WithLogger(logger))
	svc := planner.New(store, assistant.NewBridge(nil), fetcher,
		planner.WithLocation(jst),
		planner.WithClock(func() time.Time { return now }),
		planner.WithLogger(logger))

	return New(svc, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case assistant.AddEventToolName:
		result, err = srv.addEvent(ctx, req)
	case "list_events":
		result, err = srv.listEvents(ctx, req)
	case "sync_external_calendar":
		result, err = srv.syncExternal(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAddEventTool(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, assistant.AddEventToolName, map[string]any{
		"title":    "Focus block",
		"startIso": "2026-10-16T13:00:00",
		"endIso":   "2026-10-16T15:00:00",
		"type":     "work",
	})
	if r.IsError {
		t.Fatalf("add failed: %s", resultText(r))
	}
	var ev models.Event
	if err := json.Unmarshal([]byte(resultText(r)), &ev); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if ev.Title != "Focus block" || ev.Type != models.TypeWork || ev.Source != models.SourceLocal {
		t.Errorf("event = %+v", ev)
	}

	events, _ := store.List(context.Background())
	if len(events) != 1 {
		t.Errorf("store has %d events", len(events))
	}
}

func TestAddEventToolRejectsReversedRange(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, assistant.AddEventToolName, map[string]any{
		"title":    "Backwards",
		"startIso": "2026-10-16T15:00:00",
		"endIso":   "2026-10-16T13:00:00",
	})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(r), "end must be after start") {
		t.Errorf("message = %q", resultText(r))
	}
	if events, _ := store.List(context.Background()); len(events) != 0 {
		t.Errorf("store = %+v", events)
	}
}

func TestListEventsByDate(t *testing.T) {
	srv, _ := testServer(t)
	for i, day := range []string{"16", "16", "17"} {
		r := callTool(t, srv, assistant.AddEventToolName, map[string]any{
			"title":    fmt.Sprintf("e%d", i),
			"startIso": "2026-10-" + day + "T10:00",
			"endIso":   "2026-10-" + day + "T11:00",
		})
		if r.IsError {
			t.Fatal(resultText(r))
		}
	}

	var all, day []models.Event
	_ = json.Unmarshal([]byte(resultText(callTool(t, srv, "list_events", map[string]any{}))), &all)
	_ = json.Unmarshal([]byte(resultText(callTool(t, srv, "list_events", map[string]any{"date": "2026-10-17"}))), &day)
	if len(all) != 3 || len(day) != 1 || day[0].Title != "e2" {
		t.Errorf("all = %d, day = %+v", len(all), day)
	}

	if r := callTool(t, srv, "list_events", map[string]any{"date": "17/10"}); !r.IsError {
		t.Error("expected error for malformed date")
	}
}

func TestSyncTool(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, "sync_external_calendar", nil)
	if r.IsError || !strings.HasPrefix(resultText(r), "synced 3 external events") {
		t.Fatalf("result = %q", resultText(r))
	}
	events, _ := store.List(context.Background())
	if len(events) != 3 {
		t.Errorf("events = %d", len(events))
	}
}

func TestContractResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readContract(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, "startIso") {
		t.Errorf("contract missing argument table")
	}
}
