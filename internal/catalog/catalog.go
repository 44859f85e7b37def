package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotFound    = errors.New("model not found")
	ErrToolNotFound     = errors.New("tool not found")
	ErrDuplicateModel   = errors.New("duplicate model id")
	ErrDuplicateTool    = errors.New("duplicate tool name")
	ErrDuplicateDefault = errors.New("duplicate default model for type+tier")
)

type defaultKey struct {
	Type ModelType
	Tier ModelTier
}

// Catalog is the immutable registry of models and tools. It is built once at
// startup and injected into the credit service; construction fails fast on
// configuration mistakes instead of surfacing them at request time.
type Catalog struct {
	models   map[string]ModelConfig
	defaults map[defaultKey]string
	tools    map[string]ToolConfig
}

// New builds a catalog, computing each model's credit cost and indexing
// defaults. Duplicate ids or duplicate (type, tier) defaults are configuration
// errors.
func New(models []ModelConfig, tools []ToolConfig) (*Catalog, error) {
	c := &Catalog{
		models:   make(map[string]ModelConfig, len(models)),
		defaults: make(map[defaultKey]string),
		tools:    make(map[string]ToolConfig, len(tools)),
	}

	for _, m := range models {
		if _, exists := c.models[m.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, m.ID)
		}
		m.CreditCost = CalculateCreditCost(m, DefaultMarginPct, DefaultAvgTokens)
		c.models[m.ID] = m

		if m.IsDefault {
			key := defaultKey{Type: m.Type, Tier: m.Tier}
			if prev, exists := c.defaults[key]; exists {
				return nil, fmt.Errorf("%w: %s/%s has %s and %s",
					ErrDuplicateDefault, m.Type, m.Tier, prev, m.ID)
			}
			c.defaults[key] = m.ID
		}
	}

	for _, t := range tools {
		if _, exists := c.tools[t.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		if t.DefaultModelID != "" {
			if _, exists := c.models[t.DefaultModelID]; !exists {
				return nil, fmt.Errorf("tool %s: %w: %s", t.Name, ErrModelNotFound, t.DefaultModelID)
			}
		}
		c.tools[t.Name] = t
	}

	return c, nil
}

// Model returns a model by id.
func (c *Catalog) Model(id string) (ModelConfig, error) {
	m, ok := c.models[id]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	return m, nil
}

// DefaultModel returns the default model for a type and tier.
func (c *Catalog) DefaultModel(modelType ModelType, tier ModelTier) (ModelConfig, error) {
	id, ok := c.defaults[defaultKey{Type: modelType, Tier: tier}]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: no default for %s/%s", ErrModelNotFound, modelType, tier)
	}
	return c.models[id], nil
}

// Tool returns a tool by name.
func (c *Catalog) Tool(name string) (ToolConfig, error) {
	t, ok := c.tools[name]
	if !ok {
		return ToolConfig{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Tools returns all registered tools.
func (c *Catalog) Tools() []ToolConfig {
	out := make([]ToolConfig, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t)
	}
	return out
}
