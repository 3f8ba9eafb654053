package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/calsync"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/eventstore"
	"github.com/tomokana225/schedule-planning/internal/llm"
	"github.com/tomokana225/schedule-planning/internal/planner"
	"github.com/tomokana225/schedule-planning/internal/sse"
)

// components is the assembled planner runtime shared by every command.
type components struct {
	cfg     *Config
	logger  *slog.Logger
	loc     *time.Location
	store   eventstore.Store
	asker   assistant.Asker
	adapter *calsync.Adapter
	broker  *sse.Broker
	planner *planner.Service
	version string
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// assemble builds the store, assistant, adapter and planner from the config
// and seeds the store. The caller must call close.
func (app *application) assemble(ctx context.Context) (*components, error) {
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("timezone", loc.String()),
		slog.String("locale", cfg.App.Locale),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("assistant_provider", cfg.Assistant.Provider),
		slog.Bool("provider_configured", cfg.Provider.ClientID != ""),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := openStore(cfg.Store, loc)
	if err != nil {
		return nil, err
	}

	c := &components{
		cfg:     cfg,
		logger:  logger,
		loc:     loc,
		store:   store,
		version: app.version,
	}

	c.asker = app.asker
	if c.asker == nil {
		gen, err := llm.New(ctx, cfg.Assistant.LLMOptions())
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			logger.Warn("assistant model not configured, chat will report unavailable",
				slog.String("provider", cfg.Assistant.Provider))
			gen = nil
		case err != nil:
			store.Close()
			return nil, fmt.Errorf("init language model: %w", err)
		}
		opts := append(cfg.Assistant.BridgeOptions(), assistant.WithLogger(logger))
		c.asker = assistant.NewBridge(gen, opts...)
	}

	session := cfg.Provider.Session(loc)
	c.adapter = calsync.New(session, calsync.WithLogger(logger))

	c.broker = sse.NewBroker(time.Minute)

	c.planner = planner.New(store, c.asker, c.adapter,
		planner.WithNotifier(c.broker),
		planner.WithLocation(loc),
		planner.WithLocale(dateutil.Locale(cfg.App.Locale)),
		planner.WithLogger(logger),
		planner.WithRealSync(session.Real()))

	if err := c.planner.Seed(ctx, cfg.Seed.Planner()); err != nil {
		c.close()
		return nil, fmt.Errorf("seed events: %w", err)
	}
	return c, nil
}

func (c *components) close() {
	c.broker.Close()
	if err := c.store.Close(); err != nil {
		c.logger.Error("close store", slog.String("error", err.Error()))
	}
}

func openStore(cfg StoreConfig, loc *time.Location) (eventstore.Store, error) {
	switch cfg.Driver {
	case StoreDriverSQLite:
		store, err := eventstore.OpenSQLite(cfg.DSN, loc)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return store, nil
	case StoreDriverMemory, "":
		return eventstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
