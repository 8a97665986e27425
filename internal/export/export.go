package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ErrUnsupportedFormat is returned for an unknown format name.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats lists the supported formats in display order.
var Formats = []Format{FormatJSON, FormatCSV, FormatYAML, FormatMarkdown}

// ParseFormat resolves a case-insensitive format name. An empty name means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatYAML:
		return "yaml"
	case FormatMarkdown:
		return "md"
	default:
		return "json"
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json"
	}
}

// Filename returns goals-export-YYYY-MM-DD.<ext> for the given day.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("goals-export-%s.%s", now.Format(time.DateOnly), f.Extension())
}

// Header is the column set of the tabular formats.
var Header = []string{
	"Goal", "Complexity Score", "Complexity Level", "Created At",
	"Step 1", "Step 2", "Step 3", "Step 4", "Step 5",
}

// Rows flattens goals into one row per goal, matching Header. Steps are
// ordered by step number and padded with empty cells.
func Rows(goals []*domain.Goal) [][]string {
	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		if g == nil {
			continue
		}
		row := []string{
			g.Title,
			strconv.Itoa(g.ComplexityScore),
			domain.ComplexityLevel(g.ComplexityScore),
			g.CreatedAt.Format(time.DateOnly),
		}
		steps := g.Steps()
		for s := 0; s < domain.RequiredStepCount; s++ {
			if s < len(steps) {
				row = append(row, steps[s])
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Write renders goals to w in format f.
func Write(w io.Writer, f Format, goals []*domain.Goal) error {
	if goals == nil {
		goals = []*domain.Goal{}
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(goals); err != nil {
			return fmt.Errorf("failed to encode JSON export: %w", err)
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlGoals(goals)); err != nil {
			return fmt.Errorf("failed to encode YAML export: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode YAML export: %w", err)
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("failed to write CSV export: %w", err)
		}
		if err := cw.WriteAll(Rows(goals)); err != nil {
			return fmt.Errorf("failed to write CSV export: %w", err)
		}
		return nil

	case FormatMarkdown:
		if _, err := io.WriteString(w, newTable(goals).RenderMarkdown()+"\n"); err != nil {
			return fmt.Errorf("failed to write Markdown export: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

func newTable(goals []*domain.Goal) table.Writer {
	t := table.NewWriter()

	header := make(table.Row, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range Rows(goals) {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}
	return t
}

type yamlTask struct {
	StepNumber  int    `yaml:"step_number"`
	Description string `yaml:"description"`
}

type yamlGoal struct {
	ID              int64      `yaml:"id"`
	Title           string     `yaml:"title"`
	ComplexityScore int        `yaml:"complexity_score"`
	ComplexityLevel string     `yaml:"complexity_level"`
	CreatedAt       string     `yaml:"created_at"`
	Tasks           []yamlTask `yaml:"tasks"`
}

func yamlGoals(goals []*domain.Goal) []yamlGoal {
	out := make([]yamlGoal, 0, len(goals))
	for _, g := range goals {
		if g == nil {
			continue
		}
		steps := g.Steps()
		tasks := make([]yamlTask, len(steps))
		for i, s := range steps {
			tasks[i] = yamlTask{StepNumber: i + 1, Description: s}
		}
		out = append(out, yamlGoal{
			ID:              g.ID,
			Title:           g.Title,
			ComplexityScore: g.ComplexityScore,
			ComplexityLevel: domain.ComplexityLevel(g.ComplexityScore),
			CreatedAt:       g.CreatedAt.UTC().Format(time.RFC3339),
			Tasks:           tasks,
		})
	}
	return out
}
