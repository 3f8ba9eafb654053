// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/tomokana225/schedule-planning/internal/api"
	"github.com/tomokana225/schedule-planning/internal/calsync"
	"github.com/tomokana225/schedule-planning/internal/mcpserver"
	"github.com/tomokana225/schedule-planning/internal/repl"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.assemble(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	cfg := c.cfg
	logger := c.logger

	public := api.ConfigResponse{
		ProviderClientID: cfg.Provider.ClientID,
		ProviderAPIKey:   cfg.Provider.APIKey,
	}
	apiRouter := api.NewRouter(c.planner, c.asker, public, cfg.Auth.AuthEnabled(), cfg.Auth.Token, c.broker)
	tools := mcpserver.New(c.planner, c.version)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.store.List(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"store unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	// Tool server over streamable HTTP, behind the same auth as the API.
	r.With(api.AuthMiddleware(cfg.Auth.AuthEnabled(), cfg.Auth.Token)).Handle("/mcp", tools.HTTPHandler())

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Sync whenever a fresh provider token is saved by the login command.
	if session := c.adapter.Session(); session.Real() {
		g.Go(func() error {
			err := calsync.WatchToken(gCtx, session, logger, func() {
				if _, err := c.planner.Sync(gCtx); err != nil {
					logger.Warn("sync after token change failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Warn("token watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the planner tools over stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	c, err := app.assemble(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	c.logger.Info("Serving tools over stdio", slog.String("version", c.version))
	if err := mcpserver.New(c.planner, c.version).ServeStdio(); err != nil {
		return fmt.Errorf("stdio tool server: %w", err)
	}
	return nil
}

// RunChat runs the terminal assistant against a local planner.
func RunChat(ctx context.Context, in io.Reader, out io.Writer, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(io.Discard)}, opts...))
	if err != nil {
		return err
	}
	c, err := app.assemble(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	return repl.New(c.planner, in, out).Run(ctx)
}

// Login runs the provider authorization handshake and stores the token.
func Login(ctx context.Context, out io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	loc, err := app.config.App.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}
	session := app.config.Provider.Session(loc)
	err = calsync.Login(ctx, session, func(url string) {
		fmt.Fprintf(out, "Open this URL in your browser to authorize calendar access:\n\n%s\n\n", url)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", session.TokenFile)
	return nil
}
