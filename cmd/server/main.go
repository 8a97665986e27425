// Package main implements the entry point for the Smart Goal Breaker API
// server, which breaks user goals into five AI-generated steps and stores
// them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// flags holds the parsed command line.
type flags struct {
	configPath string
	migrate    string
	verbose    bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("goalbreaker-api", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to a config.yaml file")
	fs.StringVar(&f.migrate, "migrate", "", "run a migration command and exit: up, down, status or version")
	fs.BoolVar(&f.verbose, "verbose", false, "verbose migration output")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "goalbreaker-api: %v\n", err)
		}
		os.Exit(1)
	}
}

// run wires the process: flags, configuration, logging, then either a
// one-shot migration or the server until SIGINT/SIGTERM.
func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.String("version", version),
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("metrics_enabled", cfg.Observability.MetricsEnabled),
		slog.Bool("tracing_enabled", cfg.Observability.TracingEnabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if f.migrate != "" {
		return runMigrations(ctx, cfg.Database, l, f.migrate, f.verbose)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}

// loadConfig loads configuration from path, or from the default locations
// when path is empty.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
