package generation

import (
	"fmt"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
)

// DefaultModelID is used when no model is configured or requested.
const DefaultModelID = "gemini-2.0-flash"

// Model describes one selectable upstream model.
type Model struct {
	ID          string `json:"id"          yaml:"id"`
	Name        string `json:"name"        yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// DefaultModels is the built-in allow-list.
var DefaultModels = []Model{
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Description: "Fast and capable, the recommended default"},
	{ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash Lite", Description: "Lightweight and cost efficient"},
	{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Description: "Previous generation fast model"},
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Description: "Previous generation high quality model"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Latest fast model with improved reasoning"},
}

// Catalog is an immutable allow-list of model identifiers with a default.
type Catalog struct {
	models    []Model
	index     map[string]struct{}
	defaultID string
}

// NewCatalog builds a catalog. An empty models list uses DefaultModels and an
// empty defaultID uses DefaultModelID. The default must be in the list.
func NewCatalog(models []Model, defaultID string) (*Catalog, error) {
	if len(models) == 0 {
		models = DefaultModels
	}
	if defaultID == "" {
		defaultID = DefaultModelID
	}

	c := &Catalog{
		models:    make([]Model, len(models)),
		index:     make(map[string]struct{}, len(models)),
		defaultID: defaultID,
	}
	copy(c.models, models)

	for _, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("%w: model id cannot be empty", ErrInvalidConfig)
		}
		if _, dup := c.index[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate model id %q", ErrInvalidConfig, m.ID)
		}
		c.index[m.ID] = struct{}{}
	}

	if _, ok := c.index[defaultID]; !ok {
		return nil, fmt.Errorf("%w: default model %q is not in the model list", ErrInvalidConfig, defaultID)
	}

	return c, nil
}

// NewCatalogFromConfig builds a catalog from the configured allow-list and
// default model.
func NewCatalogFromConfig(cfg config.LLMConfig) (*Catalog, error) {
	var models []Model
	for _, m := range cfg.Models {
		models = append(models, Model{ID: m.ID, Name: m.Name, Description: m.Description})
	}
	return NewCatalog(models, cfg.DefaultModel)
}

// Resolve returns id when it is allowed and the default otherwise.
// An unknown id is never an error.
func (c *Catalog) Resolve(id string) string {
	if _, ok := c.index[id]; ok {
		return id
	}
	return c.defaultID
}

// Models returns a copy of the allow-list in configured order.
func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Default returns the default model identifier.
func (c *Catalog) Default() string {
	return c.defaultID
}
