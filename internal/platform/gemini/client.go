package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/logger"
	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used by Client.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client implements generation.Completer using the Gemini API.
type Client struct {
	models  contentGenerator
	logger  *slog.Logger
	timeout time.Duration
}

var _ generation.Completer = (*Client)(nil)

// NewClient creates a Gemini client from the LLM configuration.
func NewClient(ctx context.Context, l *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if l == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	l.InfoContext(ctx, "gemini client initialized",
		slog.String("default_model", cfg.DefaultModel),
		slog.Duration("request_timeout", cfg.RequestTimeout))

	return newClient(client.Models, l, cfg.RequestTimeout), nil
}

func newClient(models contentGenerator, l *slog.Logger, timeout time.Duration) *Client {
	return &Client{
		models:  models,
		logger:  l.With(slog.String("component", "gemini")),
		timeout: timeout,
	}
}

// Complete sends prompt to model and returns the response text.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	log := logger.FromContextOrDefault(ctx, c.logger)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, contents, cfg)
	elapsed := time.Since(start)
	if err != nil {
		log.DebugContext(ctx, "gemini call failed",
			slog.String("model", model),
			slog.Duration("elapsed", elapsed))
		return "", err
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	log.DebugContext(ctx, "gemini call succeeded",
		slog.String("model", model),
		slog.Duration("elapsed", elapsed),
		slog.Int("response_length", len(text)))

	return text, nil
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: no candidates generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		b.WriteString(part.Text)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("%w: response has no text", generation.ErrInvalidResponse)
	}
	return b.String(), nil
}
