// Package presets holds the static catalog of output languages and prompt
// options offered in settings.
package presets

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/goccy/go-yaml"
)

// CustomPromptID selects the user's own prompt text.
const CustomPromptID = "custom"

// PromptOption is a selectable preset prompt.
type PromptOption struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Text  string `yaml:"text" json:"text"`
}

// Catalog is the set of languages and prompts.
type Catalog struct {
	DefaultPromptID string         `yaml:"default_prompt_id"`
	Languages       []string       `yaml:"languages"`
	Prompts         []PromptOption `yaml:"prompts"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var (
	defaultCatalog *Catalog
	loadOnce       sync.Once
	loadErr        error
)

// Default returns the embedded catalog. It panics if the embedded file is
// invalid, which is a build defect.
func Default() *Catalog {
	loadOnce.Do(func() {
		defaultCatalog, loadErr = Parse(catalogYAML)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return defaultCatalog
}

// Parse decodes and validates a catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse preset catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks prompt ids are unique and the default id exists.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Prompts))
	for _, p := range c.Prompts {
		if p.ID == "" {
			return fmt.Errorf("preset prompt %q has no id", p.Label)
		}
		if p.ID == CustomPromptID {
			return fmt.Errorf("preset prompt id %q is reserved", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate preset prompt id %q", p.ID)
		}
		seen[p.ID] = true
	}
	if !seen[c.DefaultPromptID] {
		return fmt.Errorf("default prompt id %q not in catalog", c.DefaultPromptID)
	}
	return nil
}

// HasLanguage reports whether lang is offered.
func (c *Catalog) HasLanguage(lang string) bool {
	return slices.Contains(c.Languages, lang)
}

// Prompt looks up a prompt by id.
func (c *Catalog) Prompt(id string) (PromptOption, bool) {
	for _, p := range c.Prompts {
		if p.ID == id {
			return p, true
		}
	}
	return PromptOption{}, false
}

// PromptOptions returns a copy of the preset prompts.
func (c *Catalog) PromptOptions() []PromptOption {
	return slices.Clone(c.Prompts)
}
