package eventstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/models"
	"github.com/tomokana225/schedule-planning/internal/testutil"
)

var base = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func event(id string, src models.Source, offsetHours int) models.Event {
	typ := models.TypeWork
	if src == models.SourceExternal {
		typ = models.TypeExternal
	}
	start := base.Add(time.Duration(offsetHours) * time.Hour)
	return models.Event{
		ID:     id,
		Title:  "event " + id,
		Start:  start,
		End:    start.Add(30 * time.Minute),
		Type:   typ,
		Source: src,
	}
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(":memory:", time.UTC)
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func ids(t *testing.T, s Store) []string {
	t.Helper()
	events, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestAppendPreservesOrder(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Append(ctx, event("a", models.SourceLocal, 0), event("b", models.SourceLocal, 1)); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := s.Append(ctx, event("c", models.SourceLocal, -1)); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if got := fmt.Sprint(ids(t, s)); got != "[a b c]" {
			t.Errorf("order = %s, want [a b c]", got)
		}
	})
}

func TestAppendIsAllOrNothing(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		bad := event("bad", models.SourceLocal, 0)
		bad.End = bad.Start

		err := s.Append(ctx, event("ok", models.SourceLocal, 0), bad)
		if !errors.Is(err, apperr.ErrInvalidTimeRange) {
			t.Fatalf("err = %v, want ErrInvalidTimeRange", err)
		}
		if n := len(ids(t, s)); n != 0 {
			t.Errorf("store has %d events after rejected batch", n)
		}
	})
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Append(ctx, event("a", models.SourceLocal, 0)); err != nil {
			t.Fatal(err)
		}
		if err := s.Append(ctx, event("a", models.SourceLocal, 1)); !errors.Is(err, apperr.ErrAlreadyExists) {
			t.Errorf("existing id: err = %v", err)
		}
		if err := s.Append(ctx, event("x", models.SourceLocal, 0), event("x", models.SourceLocal, 1)); !errors.Is(err, apperr.ErrAlreadyExists) {
			t.Errorf("duplicate in batch: err = %v", err)
		}
	})
}

func TestAppendValidatesFields(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		noTitle := event("t", models.SourceLocal, 0)
		noTitle.Title = "  "
		badType := event("y", models.SourceLocal, 0)
		badType.Type = "holiday"

		for _, e := range []models.Event{noTitle, badType} {
			if err := s.Append(ctx, e); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("%s: err = %v, want ErrValidation", e.ID, err)
			}
		}
	})
}

func TestReplaceExternal(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Append(ctx, event("l1", models.SourceLocal, 0)); err != nil {
			t.Fatal(err)
		}
		first := []models.Event{event("e1", models.SourceExternal, 1), event("e2", models.SourceExternal, 2)}
		if err := s.ReplaceExternal(ctx, first); err != nil {
			t.Fatalf("first sync: %v", err)
		}
		if err := s.Append(ctx, event("l2", models.SourceLocal, 3)); err != nil {
			t.Fatal(err)
		}

		second := []models.Event{event("e3", models.SourceExternal, 4)}
		if err := s.ReplaceExternal(ctx, second); err != nil {
			t.Fatalf("second sync: %v", err)
		}
		if got := fmt.Sprint(ids(t, s)); got != "[l1 l2 e3]" {
			t.Errorf("after resync = %s, want [l1 l2 e3]", got)
		}
	})
}

func TestReplaceExternalRejectedBatchLeavesStore(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.ReplaceExternal(ctx, []models.Event{event("e1", models.SourceExternal, 0)}); err != nil {
			t.Fatal(err)
		}

		local := event("l1", models.SourceLocal, 1)
		if err := s.ReplaceExternal(ctx, []models.Event{local}); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("local in batch: err = %v", err)
		}
		bad := event("e2", models.SourceExternal, 1)
		bad.End = bad.Start.Add(-time.Minute)
		if err := s.ReplaceExternal(ctx, []models.Event{event("e3", models.SourceExternal, 2), bad}); err == nil {
			t.Error("expected invalid batch to fail")
		}
		if got := fmt.Sprint(ids(t, s)); got != "[e1]" {
			t.Errorf("store changed by failed sync: %s", got)
		}
	})
}

func TestReplaceExternalMayReuseExternalIDs(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		batch := []models.Event{event("g1", models.SourceExternal, 0)}
		if err := s.ReplaceExternal(ctx, batch); err != nil {
			t.Fatal(err)
		}
		if err := s.ReplaceExternal(ctx, batch); err != nil {
			t.Fatalf("same ids on resync: %v", err)
		}
		if n := len(ids(t, s)); n != 1 {
			t.Errorf("events = %d, want 1", n)
		}
	})
}

func TestSQLiteRoundTripKeepsLocation(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	s, err := OpenSQLite(":memory:", loc)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	e := event("a", models.SourceLocal, 0)
	e.Description = "notes"
	e.Location = "room 1"
	if err := s.Append(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	got, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].Start.Equal(e.Start) || got[0].Start.Location() != loc {
		t.Errorf("start = %v", got[0].Start)
	}
	if got[0].Description != "notes" || got[0].Location != "room 1" {
		t.Errorf("fields lost: %+v", got[0])
	}
}

func TestMemoryListReturnsCopy(t *testing.T) {
	m := NewMemory()
	_ = m.Append(context.Background(), event("a", models.SourceLocal, 0))
	list, _ := m.List(context.Background())
	list[0].Title = "mutated"
	again, _ := m.List(context.Background())
	if again[0].Title == "mutated" {
		t.Error("List must not expose internal storage")
	}
}

func TestSQLiteReopenKeepsEvents(t *testing.T) {
	ctx := context.Background()
	dsn := testutil.TempDSN(t)

	s, err := OpenSQLite(dsn, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, event("l1", models.SourceLocal, 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceExternal(ctx, []models.Event{event("e1", models.SourceExternal, 1)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenSQLite(dsn, time.UTC)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "l1" || got[1].ID != "e1" {
		t.Errorf("after reopen = %+v", got)
	}
}

func TestSQLiteDefaultDSNStaysInMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	t.Chdir(dir)

	s, err := OpenSQLite("", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, event("l1", models.SourceLocal, 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("default dsn wrote %d files, first %q", len(entries), entries[0].Name())
	}

	s, err = OpenSQLite("", time.UTC)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("events survived close: %+v", got)
	}
}
