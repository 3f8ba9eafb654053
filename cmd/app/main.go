package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/tomokana225/schedule-planning/internal"
	"github.com/tomokana225/schedule-planning/internal/assistant"
	pkgconfig "github.com/tomokana225/schedule-planning/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	found, err := pkgconfig.LoadOptional(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", path))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func chat(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{internal.WithConfig(cfg), internal.WithVersion(version)}
	if endpoint := cmd.String("endpoint"); endpoint != "" {
		client := &http.Client{Timeout: cmd.Duration("timeout")}
		opts = append(opts, internal.WithAsker(assistant.NewHTTPBridge(endpoint, cmd.String("token"), client)))
	}
	return internal.RunChat(ctx, os.Stdin, os.Stdout, opts...)
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func login(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Login(ctx, os.Stdout, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:    "planner",
		Usage:   "Calendar planner with an assistant that books events and external calendar sync",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and tool server",
				Action: serve,
			},
			{
				Name:   "chat",
				Usage:  "Plan from the terminal",
				Action: chat,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "endpoint",
						Usage: "Ask a remote /api/chat instead of the configured model",
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "Bearer token for --endpoint",
						Sources: cli.EnvVars("PLANNER_API_TOKEN"),
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "HTTP timeout for --endpoint",
						Value: 90 * time.Second,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the planner tools over stdio",
				Action: mcp,
			},
			{
				Name:   "login",
				Usage:  "Authorize access to the external calendar and store the token",
				Action: login,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
