package settings

import (
	"slices"
	"strings"

	"github.com/GriffinCanCode/pagebrief/internal/gemini"
	"github.com/GriffinCanCode/pagebrief/internal/presets"
)

// Theme is the popup color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Popup size bounds in CSS pixels.
const (
	MinPopupWidth      = 320
	MaxPopupWidth      = 900
	MinPopupHeight     = 240
	MaxPopupHeight     = 900
	DefaultPopupWidth  = 400
	DefaultPopupHeight = 560
)

// LanguageAuto keeps the source language.
const LanguageAuto = gemini.LanguageAuto

// Configuration is the persisted popup configuration.
type Configuration struct {
	APIKey           string                 `json:"apiKey"`
	Models           []string               `json:"models"`
	SelectedModel    string                 `json:"selectedModel"`
	Language         string                 `json:"language"`
	PromptOptions    []presets.PromptOption `json:"promptOptions"`
	SelectedPromptID string                 `json:"selectedPromptId"`
	CustomPrompt     string                 `json:"customPrompt"`
	Theme            Theme                  `json:"theme"`
	PopupWidth       int                    `json:"popupWidth"`
	PopupHeight      int                    `json:"popupHeight"`
}

// EffectivePrompt is the prompt text the selected option stands for. An
// empty result makes the summarizer use its default prompt.
func (c Configuration) EffectivePrompt() string {
	if c.SelectedPromptID == presets.CustomPromptID {
		return c.CustomPrompt
	}
	for _, p := range c.PromptOptions {
		if p.ID == c.SelectedPromptID {
			return p.Text
		}
	}
	return ""
}

// HasKey reports whether an API key is configured.
func (c Configuration) HasKey() bool {
	return c.APIKey != ""
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	c.Models = slices.Clone(c.Models)
	c.PromptOptions = slices.Clone(c.PromptOptions)
	return c
}

// PickModel returns selected when it is one of models, else the first model.
// With no models it keeps selected, falling back to the default model.
func PickModel(models []string, selected string) string {
	if len(models) == 0 {
		if selected != "" {
			return selected
		}
		return gemini.DefaultModel
	}
	if selected != "" && slices.Contains(models, selected) {
		return selected
	}
	return models[0]
}

// Coerce applies the configuration invariants against catalog.
func Coerce(c Configuration, catalog *presets.Catalog) Configuration {
	c = c.Clone()
	c.APIKey = strings.TrimSpace(c.APIKey)

	c.SelectedModel = PickModel(c.Models, c.SelectedModel)

	c.PromptOptions = uniquePrompts(c.PromptOptions)
	if len(c.PromptOptions) == 0 {
		c.PromptOptions = catalog.PromptOptions()
	}
	// The catalog default applies even when the stored options lack it;
	// EffectivePrompt then yields "" and the summarizer's default prompt.
	if c.SelectedPromptID != presets.CustomPromptID && !hasPrompt(c.PromptOptions, c.SelectedPromptID) {
		c.SelectedPromptID = catalog.DefaultPromptID
	}

	if c.Language != LanguageAuto && !catalog.HasLanguage(c.Language) {
		c.Language = LanguageAuto
	}

	if c.Theme != ThemeDark {
		c.Theme = ThemeLight
	}

	c.PopupWidth = clampSize(c.PopupWidth, MinPopupWidth, MaxPopupWidth, DefaultPopupWidth)
	c.PopupHeight = clampSize(c.PopupHeight, MinPopupHeight, MaxPopupHeight, DefaultPopupHeight)

	return c
}

// uniquePrompts keeps the first option per id and drops options with an
// empty or reserved id.
func uniquePrompts(opts []presets.PromptOption) []presets.PromptOption {
	seen := make(map[string]bool, len(opts))
	kept := opts[:0]
	for _, p := range opts {
		if p.ID == "" || p.ID == presets.CustomPromptID || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		kept = append(kept, p)
	}
	return kept
}

func hasPrompt(opts []presets.PromptOption, id string) bool {
	for _, p := range opts {
		if p.ID == id {
			return true
		}
	}
	return false
}

// clampSize bounds v; zero means unset.
func clampSize(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	return min(max(v, lo), hi)
}
