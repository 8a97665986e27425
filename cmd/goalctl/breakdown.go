package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/gemini"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// newCompleter builds the upstream model client. Tests replace it.
var newCompleter = func(ctx context.Context, cfg config.LLMConfig, l *slog.Logger) (generation.Completer, error) {
	return gemini.NewClient(ctx, l.With(slog.String("component", "gemini_client")), cfg)
}

func newBreakdownCmd(opts *rootOptions) *cobra.Command {
	var (
		model    string
		attempts int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "breakdown <goal>",
		Short: "Break a goal into five steps and score its complexity",
		Long: `Sends the goal to the configured model and prints its complexity score
and five ordered steps. Nothing is stored.`,
		Example: `  goalctl breakdown "Learn Go in a month"
  goalctl breakdown --model gemini-1.5-pro --attempts 5 "Run a marathon"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := opts.load(cmd)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("attempts") {
				attempts = cfg.LLM.MaxAttempts
			}
			if attempts < 1 {
				return fmt.Errorf("--attempts must be at least 1, got %d", attempts)
			}

			inv, err := newCLIInvoker(cmd.Context(), cfg, l)
			if err != nil {
				return err
			}

			goal := strings.Join(args, " ")
			b, err := inv.Invoke(cmd.Context(), goal, model, attempts)
			if err != nil {
				return fmt.Errorf("breakdown failed: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			return renderBreakdown(cmd.OutOrStdout(), strings.TrimSpace(goal), b)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model ID from the allow-list (default: configured default)")
	cmd.Flags().IntVarP(&attempts, "attempts", "a", generation.DefaultMaxAttempts, "attempt budget for this request")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw breakdown as JSON")

	return cmd
}

// newCLIInvoker wires a single-process invoker with its own governor.
func newCLIInvoker(ctx context.Context, cfg *config.Config, l *slog.Logger) (*generation.Invoker, error) {
	completer, err := newCompleter(ctx, cfg.LLM, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	governor, err := generation.NewGovernor(generation.GovernorConfig{
		MaxPerMinute: cfg.RateLimit.PerMinute,
		MaxPerDay:    cfg.RateLimit.PerDay,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := generation.NewCatalogFromConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}

	prompts, err := generation.NewPromptBuilder(cfg.LLM.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	return generation.NewInvoker(
		completer,
		governor,
		catalog,
		generation.InvokerConfig{
			MaxAttempts: cfg.LLM.MaxAttempts,
			BackoffUnit: cfg.LLM.BackoffUnit,
		},
		l,
		generation.WithPromptBuilder(prompts),
	)
}

func renderBreakdown(w io.Writer, goal string, b *generation.Breakdown) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(goal)
	t.AppendHeader(table.Row{"Step", "Task"})
	for i, task := range b.Tasks {
		t.AppendRow(table.Row{i + 1, task})
	}
	t.AppendFooter(table.Row{
		"Complexity",
		fmt.Sprintf("%d/10 (%s)", b.ComplexityScore, domain.ComplexityLevel(b.ComplexityScore)),
	})
	t.Render()
	return nil
}
