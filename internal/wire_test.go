package internal

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/eventstore"
	"github.com/tomokana225/schedule-planning/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	cfg := NewDefaultConfig()
	cfg.Provider.SimulatedLatency = 1
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestAssembleWithoutModelCredentials(t *testing.T) {
	app, err := newApplication([]Option{WithConfig(testConfig(t)), WithLogOutput(&bytes.Buffer{})})
	if err != nil {
		t.Fatal(err)
	}
	c, err := app.assemble(context.Background())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	defer c.close()

	events, err := c.store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 4 {
		t.Errorf("seeded %d events, want the 4 mock events", len(events))
	}

	st, err := c.planner.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.AssistantConfigured || st.Provider != "simulated" {
		t.Errorf("status = %+v", st)
	}

	_, err = c.planner.Chat(context.Background(), "hello", c.planner.Today())
	if !errors.Is(err, apperr.ErrBridgeUnavailable) {
		t.Errorf("chat err = %v, want bridge unavailable", err)
	}
}

func TestAssembleUsesInjectedAsker(t *testing.T) {
	app, err := newApplication([]Option{
		WithConfig(testConfig(t)),
		WithLogOutput(&bytes.Buffer{}),
		WithAsker(testutil.Replying("remote says hi")),
	})
	if err != nil {
		t.Fatal(err)
	}
	c, err := app.assemble(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer c.close()

	res, err := c.planner.Chat(context.Background(), "hello", c.planner.Today())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply.Text != "remote says hi" {
		t.Errorf("reply = %q", res.Reply.Text)
	}
}

func TestAssembleSQLiteSeedsOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = StoreConfig{Driver: StoreDriverSQLite, DSN: testutil.TempDSN(t)}

	for i := range 2 {
		app, err := newApplication([]Option{WithConfig(cfg), WithLogOutput(&bytes.Buffer{})})
		if err != nil {
			t.Fatal(err)
		}
		c, err := app.assemble(context.Background())
		if err != nil {
			t.Fatalf("assemble %d: %v", i, err)
		}
		if _, ok := c.store.(*eventstore.SQLite); !ok {
			t.Fatalf("store = %T", c.store)
		}
		events, err := c.store.List(context.Background())
		c.close()
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 4 {
			t.Errorf("run %d: %d events, want 4", i, len(events))
		}
	}
}

func TestNewApplicationRequiresConfig(t *testing.T) {
	if _, err := newApplication(nil); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	if _, err := openStore(StoreConfig{Driver: "postgres"}, nil); err == nil {
		t.Fatal("expected error")
	}
}
