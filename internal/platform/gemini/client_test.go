package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// mockModels is a function-field mock for contentGenerator.
type mockModels struct {
	GenerateContentFn func(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)

	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
	calls        int
}

func (m *mockModels) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.lastModel = model
	m.lastContents = contents
	m.lastConfig = config
	return m.GenerateContentFn(ctx, model, contents, config)
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content, FinishReason: genai.FinishReasonStop}},
	}
}

func newTestClient(t *testing.T, m *mockModels, timeout time.Duration) *Client {
	t.Helper()
	l, _ := logger.GetTestLogger(t)
	return newClient(m, l, timeout)
}

func TestClient_Complete(t *testing.T) {
	m := &mockModels{
		GenerateContentFn: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"complexity_score": 3,`, ` "tasks": []}`), nil
		},
	}
	c := newTestClient(t, m, 0)

	text, err := c.Complete(context.Background(), "gemini-2.0-flash", "break this down")
	require.NoError(t, err)

	assert.Equal(t, `{"complexity_score": 3, "tasks": []}`, text)
	assert.Equal(t, 1, m.calls)
	assert.Equal(t, "gemini-2.0-flash", m.lastModel)
	require.Len(t, m.lastContents, 1)
	assert.Equal(t, "user", m.lastContents[0].Role)
	require.Len(t, m.lastContents[0].Parts, 1)
	assert.Equal(t, "break this down", m.lastContents[0].Parts[0].Text)
	require.NotNil(t, m.lastConfig)
	assert.Equal(t, "application/json", m.lastConfig.ResponseMIMEType)
}

func TestClient_CompletePassesUpstreamErrorThrough(t *testing.T) {
	upstream := errors.New("Error 429, Message: Resource has been exhausted (e.g. check quota)., Status: RESOURCE_EXHAUSTED")
	m := &mockModels{
		GenerateContentFn: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, upstream
		},
	}
	c := newTestClient(t, m, 0)

	_, err := c.Complete(context.Background(), "gemini-2.0-flash", "prompt")
	assert.Same(t, upstream, err, "errors are returned unwrapped for classification")

	classified := generation.Classify(err.Error())
	assert.Equal(t, generation.KindRateLimited, classified.Kind)
}

func TestClient_CompleteResponseProblems(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		wantErr error
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name: "nil content",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{}},
			},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "empty text",
			resp:    textResponse(""),
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name: "safety block",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			wantErr: ErrContentBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockModels{
				GenerateContentFn: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return tt.resp, nil
				},
			}
			c := newTestClient(t, m, 0)

			text, err := c.Complete(context.Background(), "m", "prompt")
			assert.Empty(t, text)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_CompleteEmptyPrompt(t *testing.T) {
	m := &mockModels{}
	c := newTestClient(t, m, 0)

	_, err := c.Complete(context.Background(), "m", "  ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Equal(t, 0, m.calls)
}

func TestClient_CompleteAppliesTimeout(t *testing.T) {
	m := &mockModels{
		GenerateContentFn: func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok, "request context carries a deadline")
			assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
			return textResponse("ok"), nil
		},
	}
	c := newTestClient(t, m, time.Minute)

	_, err := c.Complete(context.Background(), "m", "prompt")
	require.NoError(t, err)
}

func TestNewClient_Validation(t *testing.T) {
	l, _ := logger.GetTestLogger(t)

	_, err := NewClient(context.Background(), nil, config.LLMConfig{GeminiAPIKey: "k"})
	assert.Error(t, err)

	_, err = NewClient(context.Background(), l, config.LLMConfig{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
