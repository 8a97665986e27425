package generation_test

import (
	"testing"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_Defaults(t *testing.T) {
	c, err := generation.NewCatalog(nil, "")
	require.NoError(t, err)

	assert.Equal(t, generation.DefaultModelID, c.Default())
	assert.Equal(t, generation.DefaultModels, c.Models())
}

func TestCatalog_Resolve(t *testing.T) {
	c, err := generation.NewCatalog(nil, "gemini-2.0-flash")
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"gemini-1.5-pro", "gemini-1.5-pro"},
		{"gemini-2.0-flash-lite", "gemini-2.0-flash-lite"},
		{"", "gemini-2.0-flash"},
		{"foo-bar", "gemini-2.0-flash"},
		{"GEMINI-1.5-PRO", "gemini-2.0-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Resolve(tt.in))
		})
	}
}

func TestCatalog_ModelsReturnsCopy(t *testing.T) {
	c, err := generation.NewCatalog(nil, "")
	require.NoError(t, err)

	models := c.Models()
	models[0].ID = "mutated"

	assert.Equal(t, generation.DefaultModelID, c.Models()[0].ID)
	assert.Equal(t, "gemini-2.0-flash", generation.DefaultModels[0].ID)
}

func TestNewCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		models    []generation.Model
		defaultID string
	}{
		{
			name:      "default not listed",
			models:    []generation.Model{{ID: "a", Name: "A"}},
			defaultID: "b",
		},
		{
			name:      "duplicate id",
			models:    []generation.Model{{ID: "a", Name: "A"}, {ID: "a", Name: "A2"}},
			defaultID: "a",
		},
		{
			name:      "empty id",
			models:    []generation.Model{{ID: "", Name: "blank"}},
			defaultID: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := generation.NewCatalog(tt.models, tt.defaultID)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)
		})
	}
}

func TestNewCatalogFromConfig(t *testing.T) {
	c, err := generation.NewCatalogFromConfig(config.LLMConfig{DefaultModel: "gemini-1.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", c.Default())
	assert.Equal(t, generation.DefaultModels, c.Models())

	c, err = generation.NewCatalogFromConfig(config.LLMConfig{
		DefaultModel: "custom-b",
		Models: []config.ModelConfig{
			{ID: "custom-a", Name: "A"},
			{ID: "custom-b", Name: "B", Description: "second"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []generation.Model{
		{ID: "custom-a", Name: "A"},
		{ID: "custom-b", Name: "B", Description: "second"},
	}, c.Models())
	assert.Equal(t, "custom-a", c.Resolve("custom-a"))
	assert.Equal(t, "custom-b", c.Resolve("gemini-2.0-flash"))

	_, err = generation.NewCatalogFromConfig(config.LLMConfig{
		DefaultModel: "missing",
		Models:       []config.ModelConfig{{ID: "custom-a", Name: "A"}},
	})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
