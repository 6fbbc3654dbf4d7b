package settings

import (
	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/pagebrief/internal/presets"
)

// Storage keys.
const (
	KeyAPIKey           = "geminiApiKey"
	KeyModels           = "geminiModels"
	KeySelectedModel    = "geminiSelectedModel"
	KeyTheme            = "geminiTheme"
	KeyLanguage         = "geminiLanguage"
	KeyPrompt           = "geminiPrompt"
	KeyPromptOptions    = "geminiPromptOptions"
	KeySelectedPromptID = "geminiSelectedPromptId"
	KeyPopupWidth       = "geminiPopupWidth"
	KeyPopupHeight      = "geminiPopupHeight"
)

// AllKeys lists every persisted key.
var AllKeys = []string{
	KeyAPIKey,
	KeyModels,
	KeySelectedModel,
	KeyTheme,
	KeyLanguage,
	KeyPrompt,
	KeyPromptOptions,
	KeySelectedPromptID,
	KeyPopupWidth,
	KeyPopupHeight,
}

// fromItems reads a configuration out of storage items. Values of the wrong
// shape are treated as absent.
func fromItems(items map[string]any) Configuration {
	var c Configuration
	c.APIKey = str(items[KeyAPIKey])
	decode(items[KeyModels], &c.Models)
	c.SelectedModel = str(items[KeySelectedModel])
	c.Theme = Theme(str(items[KeyTheme]))
	c.Language = str(items[KeyLanguage])
	c.CustomPrompt = str(items[KeyPrompt])
	decode(items[KeyPromptOptions], &c.PromptOptions)
	c.SelectedPromptID = str(items[KeySelectedPromptID])
	decode(items[KeyPopupWidth], &c.PopupWidth)
	decode(items[KeyPopupHeight], &c.PopupHeight)
	return c
}

// toItems is the inverse of fromItems.
func toItems(c Configuration) map[string]any {
	return map[string]any{
		KeyAPIKey:           c.APIKey,
		KeyModels:           append([]string{}, c.Models...),
		KeySelectedModel:    c.SelectedModel,
		KeyTheme:            string(c.Theme),
		KeyLanguage:         c.Language,
		KeyPrompt:           c.CustomPrompt,
		KeyPromptOptions:    append([]presets.PromptOption{}, c.PromptOptions...),
		KeySelectedPromptID: c.SelectedPromptID,
		KeyPopupWidth:       c.PopupWidth,
		KeyPopupHeight:      c.PopupHeight,
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// decode converts a stored value of any shape (typed, or generic after a
// JSON round trip) into out. out is left untouched on mismatch.
func decode[T any](v any, out *T) {
	if v == nil {
		return
	}
	if typed, ok := v.(T); ok {
		*out = typed
		return
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	var tmp T
	if err := sonic.Unmarshal(raw, &tmp); err != nil {
		return
	}
	*out = tmp
}
