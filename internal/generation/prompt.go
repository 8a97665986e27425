package generation

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"
)

//go:embed templates/breakdown.tmpl
var defaultPromptTemplate string

// promptData is the data passed to the prompt template.
type promptData struct {
	Goal      string
	TaskCount int
	MinScore  int
	MaxScore  int
}

// PromptBuilder renders the instruction prompt sent to the model.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses the embedded template, or the file at path when
// path is not empty.
func NewPromptBuilder(path string) (*PromptBuilder, error) {
	text := defaultPromptTemplate
	name := "breakdown"

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template %s: %v", ErrInvalidConfig, path, err)
		}
		text = string(raw)
		name = path
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build renders the prompt for goal. The output is deterministic.
func (p *PromptBuilder) Build(goal string) (string, error) {
	var buf bytes.Buffer
	err := p.tmpl.Execute(&buf, promptData{
		Goal:      goal,
		TaskCount: RequiredTaskCount,
		MinScore:  MinComplexity,
		MaxScore:  MaxComplexity,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
