package repl

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/calsync"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/eventstore"
	"github.com/tomokana225/schedule-planning/internal/planner"
	"github.com/tomokana225/schedule-planning/internal/testutil"
)

var jst = testutil.JST

type askFunc = testutil.AskFunc

func newService(t *testing.T, asker assistant.Asker) *planner.Service {
	t.Helper()
	fetcher := calsync.New(calsync.Session{SimulatedLatency: time.Millisecond, Location: jst},
		calsync.WithClock(testutil.Now),
		calsync.WithLogger(testutil.Quiet()))
	svc := planner.New(eventstore.NewMemory(), asker, fetcher,
		planner.WithLocation(jst),
		planner.WithLocale(dateutil.LocaleEnglish),
		planner.WithClock(testutil.Now),
		planner.WithLogger(testutil.Quiet()))
	if err := svc.Seed(context.Background(), planner.SeedConfig{Mock: true}); err != nil {
		t.Fatal(err)
	}
	return svc
}

func run(t *testing.T, svc *planner.Service, input string) string {
	t.Helper()
	var out bytes.Buffer
	if err := New(svc, strings.NewReader(input), &out).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestDayAndNavigation(t *testing.T) {
	out := run(t, newService(t, nil), "/day\n/next\n/exit\n/day\n")

	for _, want := range []string{"10:00 - 11:00  週次ミーティング [work]", "18:00 - 19:30  ジム [personal]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "> ") != 3 {
		t.Errorf("commands after /exit were read:\n%s", out)
	}
}

func TestSyncAndStatus(t *testing.T) {
	out := run(t, newService(t, nil), "/sync\n/status\n")

	if !strings.Contains(out, "synced 3 external events") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "provider=simulated connected=true") || !strings.Contains(out, "events=7") {
		t.Errorf("status output:\n%s", out)
	}
}

func TestChatUsesSelectedDay(t *testing.T) {
	var ref time.Time
	asker := askFunc(func(_ context.Context, turn assistant.Turn) (assistant.Reply, error) {
		ref = turn.ReferenceDate
		return assistant.Reply{Text: "Free after lunch."}, nil
	})
	out := run(t, newService(t, asker), "/day 2026-10-20\nam I free?\n")

	if !strings.Contains(out, "Free after lunch.") {
		t.Errorf("output:\n%s", out)
	}
	if want := time.Date(2026, 10, 20, 0, 0, 0, 0, jst); !ref.Equal(want) {
		t.Errorf("reference = %v, want %v", ref, want)
	}
}

func TestChatFailurePrintsApology(t *testing.T) {
	asker := askFunc(func(context.Context, assistant.Turn) (assistant.Reply, error) {
		return assistant.Reply{}, fmt.Errorf("%w: offline", apperr.ErrBridgeUnavailable)
	})
	out := run(t, newService(t, asker), "hello\n")

	if !strings.Contains(out, "Sorry, something went wrong") || strings.Contains(out, "error:") {
		t.Errorf("output:\n%s", out)
	}
}

func TestBadInputReportsError(t *testing.T) {
	out := run(t, newService(t, nil), "/day tomorrow\n/month 2026-13\n")

	if strings.Count(out, "error:") != 2 {
		t.Errorf("output:\n%s", out)
	}
}

func TestMonthSummary(t *testing.T) {
	out := run(t, newService(t, nil), "/month\n")

	if !strings.Contains(out, "16  週次ミーティング, プロジェクトA レビュー") {
		t.Errorf("output:\n%s", out)
	}
}
