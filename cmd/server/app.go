package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/goalbreaker/goalbreaker-api/internal/observability"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/database"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/gemini"
	"github.com/goalbreaker/goalbreaker-api/internal/service"
	"go.opentelemetry.io/otel/metric"
)

// telemetryShutdownTimeout bounds the final flush of spans and metrics.
const telemetryShutdownTimeout = 5 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	telemetry       *observability.Provider
	governorMetrics metric.Registration

	db      *sql.DB
	dialect database.Dialect

	governor    *generation.Governor
	catalog     *generation.Catalog
	goalService service.GoalService
}

// newApplication creates the application with the Gemini client as the
// upstream model.
func newApplication(ctx context.Context, cfg *config.Config, l *slog.Logger) (*application, error) {
	client, err := gemini.NewClient(ctx, l.With(slog.String("component", "gemini_client")), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	return buildApplication(ctx, cfg, l, client)
}

// buildApplication wires every dependency around completer. On error the
// resources created so far are released.
func buildApplication(
	ctx context.Context,
	cfg *config.Config,
	l *slog.Logger,
	completer generation.Completer,
) (_ *application, err error) {
	app := &application{config: cfg, logger: l}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	app.telemetry, err = observability.Setup(ctx, cfg.Observability, version)
	if err != nil {
		return nil, fmt.Errorf("failed to set up observability: %w", err)
	}

	app.db, app.dialect, err = database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	l.Info("database connection established", slog.String("dialect", string(app.dialect)))

	if cfg.Database.AutoMigrate {
		m, err := database.NewMigrator(app.db, app.dialect, l, false)
		if err != nil {
			return nil, err
		}
		if _, err := m.Up(ctx); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app.governor, err = generation.NewGovernor(generation.GovernorConfig{
		MaxPerMinute: cfg.RateLimit.PerMinute,
		MaxPerDay:    cfg.RateLimit.PerDay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	app.governorMetrics, err = observability.RegisterGovernorMetrics(app.telemetry, app.governor)
	if err != nil {
		return nil, fmt.Errorf("failed to register rate limiter metrics: %w", err)
	}

	app.catalog, err = generation.NewCatalogFromConfig(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create model catalog: %w", err)
	}

	prompts, err := generation.NewPromptBuilder(cfg.LLM.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt template: %w", err)
	}

	instrumentedCompleter, err := observability.NewInstrumentedCompleter(completer, app.telemetry)
	if err != nil {
		return nil, err
	}
	invoker, err := generation.NewInvoker(
		instrumentedCompleter,
		app.governor,
		app.catalog,
		generation.InvokerConfig{
			MaxAttempts: cfg.LLM.MaxAttempts,
			BackoffUnit: cfg.LLM.BackoffUnit,
		},
		l,
		generation.WithPromptBuilder(prompts),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoker: %w", err)
	}
	generator, err := observability.NewInstrumentedGenerator(invoker, app.catalog, app.telemetry)
	if err != nil {
		return nil, err
	}

	goals, err := observability.NewInstrumentedGoalStore(
		database.NewGoalStore(app.db, app.dialect, l), app.telemetry)
	if err != nil {
		return nil, err
	}

	app.goalService, err = service.NewGoalService(goals, generator, app.catalog, app.governor, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal service: %w", err)
	}

	l.Info("application initialized successfully",
		slog.String("default_model", app.catalog.Default()),
		slog.Int("max_attempts", cfg.LLM.MaxAttempts),
		slog.Int("rate_limit_per_minute", cfg.RateLimit.PerMinute),
		slog.Int("rate_limit_per_day", cfg.RateLimit.PerDay))
	return app, nil
}

// cleanup releases resources in reverse order of creation. It is safe to
// call on a partially built application.
func (app *application) cleanup() {
	if app.governorMetrics != nil {
		if err := app.governorMetrics.Unregister(); err != nil {
			app.logger.Warn("error unregistering rate limiter metrics", slog.String("error", err.Error()))
		}
		app.governorMetrics = nil
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
		app.db = nil
	}

	if app.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Error("error shutting down telemetry", slog.String("error", err.Error()))
		}
		app.telemetry = nil
	}

	app.logger.Info("application shutdown completed")
}
