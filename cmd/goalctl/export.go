package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/export"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/database"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored goals",
		Long: `Writes every stored goal, newest first, in the chosen format.
Use --out - to write to stdout; a directory writes the dated default filename.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, l, err := opts.load(cmd)
			if err != nil {
				return err
			}

			db, dialect, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			goals, err := database.NewGoalStore(db, dialect, l).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list goals: %w", err)
			}

			path := exportPath(strings.TrimSpace(out), f, time.Now())
			if path == "" {
				return export.Write(cmd.OutOrStdout(), f, goals)
			}

			if err := writeFile(path, func(w io.Writer) error { return export.Write(w, f, goals) }); err != nil {
				return err
			}
			l.Info("goals exported", slog.String("path", path), slog.Int("count", len(goals)))
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d goals to %s\n", len(goals), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSON), "export format: json, csv, yaml or markdown")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file or directory")

	return cmd
}

// exportPath resolves --out. An empty result means stdout.
func exportPath(out string, f export.Format, now time.Time) string {
	if out == "" || out == "-" {
		return ""
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, export.Filename(f, now))
	}
	return out
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return write(file)
}
