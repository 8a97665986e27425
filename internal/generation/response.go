package generation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinComplexity     = 1
	MaxComplexity     = 10
	RequiredTaskCount = 5
)

var (
	fencedBlock  = regexp.MustCompile("(?s)^```[A-Za-z]*[ \t]*\r?\n?(.*?)\\s*```$")
	openingFence = regexp.MustCompile("^```[A-Za-z]*[ \t]*\r?\n?")
)

// rawBreakdown keeps the score raw so numbers and numeric strings are both
// accepted; the tasks pointer tells an absent key from an empty list.
type rawBreakdown struct {
	ComplexityScore json.RawMessage `json:"complexity_score"`
	Tasks           *[]string       `json:"tasks"`
}

// ParseBreakdown validates a raw model response. Surrounding whitespace and
// a code fence are removed first. Every failure wraps ErrInvalidResponse.
func ParseBreakdown(text string) (*Breakdown, error) {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	var raw rawBreakdown
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if len(raw.ComplexityScore) == 0 || string(raw.ComplexityScore) == "null" || raw.Tasks == nil {
		return nil, fmt.Errorf("%w: missing complexity_score or tasks", ErrInvalidResponse)
	}

	score, err := parseScore(raw.ComplexityScore)
	if err != nil {
		return nil, err
	}

	tasks := *raw.Tasks
	if len(tasks) != RequiredTaskCount {
		return nil, fmt.Errorf("%w: expected %d tasks, got %d", ErrInvalidResponse, RequiredTaskCount, len(tasks))
	}

	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = strings.TrimSpace(t)
		if out[i] == "" {
			return nil, fmt.Errorf("%w: task %d is empty", ErrInvalidResponse, i+1)
		}
	}

	return &Breakdown{
		ComplexityScore: clampScore(score),
		Tasks:           out,
	}, nil
}

// parseScore accepts a JSON number or a string holding an integer such as "7".
func parseScore(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: complexity_score is not a number", ErrInvalidResponse)
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: complexity_score %q is not an integer", ErrInvalidResponse, s)
	}
	return float64(v), nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Unterminated fence.
	return strings.TrimSpace(openingFence.ReplaceAllString(s, ""))
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return MinComplexity
	}
	v = math.Max(MinComplexity, math.Min(MaxComplexity, v))
	return int(v)
}
