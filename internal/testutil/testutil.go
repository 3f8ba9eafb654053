// Package testutil provides shared test fakes and fixtures.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// JST is the display zone used by fixtures.
var JST = time.FixedZone("JST", 9*3600)

// Clock is the fixed "now" of fixtures: Friday 2026-10-16 08:30 JST.
var Clock = time.Date(2026, 10, 16, 8, 30, 0, 0, JST)

// Now returns Clock.
func Now() time.Time { return Clock }

// Quiet returns a logger that discards everything.
func Quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// AskFunc adapts a function to assistant.Asker.
type AskFunc func(ctx context.Context, turn assistant.Turn) (assistant.Reply, error)

// Ask implements assistant.Asker.
func (f AskFunc) Ask(ctx context.Context, turn assistant.Turn) (assistant.Reply, error) {
	return f(ctx, turn)
}

// Replying returns an Asker that always answers with text and calls.
func Replying(text string, calls ...assistant.ToolCall) AskFunc {
	if calls == nil {
		calls = []assistant.ToolCall{}
	}
	return func(context.Context, assistant.Turn) (assistant.Reply, error) {
		return assistant.Reply{Text: text, ToolCalls: calls}, nil
	}
}

// FetchFunc adapts a function to calsync.Fetcher.
type FetchFunc func(ctx context.Context) ([]models.Event, error)

// Fetch implements calsync.Fetcher.
func (f FetchFunc) Fetch(ctx context.Context) ([]models.Event, error) {
	return f(ctx)
}

// SeqIDs returns a generator of "id-1", "id-2", ... safe for concurrent use.
func SeqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// TempDSN returns the path of a fresh sqlite file removed after the test.
func TempDSN(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planner-test.db")
	t.Cleanup(func() { os.Remove(path) })
	return path
}
