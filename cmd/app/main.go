package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lisearch/internal"
	"github.com/starford/lisearch/internal/importer"
	"github.com/starford/lisearch/internal/lucky"
	"github.com/starford/lisearch/internal/mcpserver"
	"github.com/starford/lisearch/internal/queryservice"
	"github.com/starford/lisearch/internal/store"
	pkgconfig "github.com/starford/lisearch/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// logNotifier routes notifications into the log; the MCP mode has no
// connected UI clients to broadcast to.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Notify(kind, title, detail string) {
	n.logger.Info("notification",
		slog.String("kind", kind), slog.String("title", title), slog.String("detail", detail))
}

func (n logNotifier) Open(query string) {
	n.logger.Info("open item", slog.String("query", query))
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Stdout carries the MCP transport, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	if quiet := cmd.Bool("quiet"); quiet {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	notifier := logNotifier{logger: logger}
	query := queryservice.NewService(st, logger, queryservice.Options{
		MaxAge:        cfg.Cache.MaxAge(),
		MaxIdle:       cfg.Cache.MaxIdle(),
		SweepInterval: cfg.Cache.SweepInterval(),
		CacheBudget:   cfg.Cache.Budget(),
	})
	selector := lucky.NewSelector(st, notifier, notifier, logger)
	imp := importer.New(st, notifier, logger)

	srv := mcpserver.New(st, query, selector, imp, logger)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "lisearch",
		Usage:  "Local contact search over CSV exports: import, query, and feel-lucky discovery",
		Action: run,
		Flags:  []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tool interface on stdio",
				Action: runMCP,
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Suppress log output",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
