package settings

import (
	"strings"

	"github.com/GriffinCanCode/pagebrief/internal/presets"
)

// State is the lifecycle stage of the popup configuration.
type State int

const (
	Uninitialized State = iota
	SetupPending
	Ready
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case SetupPending:
		return "setup-pending"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Event drives Transition.
type Event interface {
	Name() string
	event()
}

// Loaded carries the configuration read from storage.
type Loaded struct {
	Config Configuration
}

// SetupCompleted carries a validated first API key and its models.
type SetupCompleted struct {
	APIKey string
	Models []string
}

// SettingsSaved carries the full configuration being committed.
type SettingsSaved struct {
	Config Configuration
}

// ModelsRefreshed carries a fresh model list.
type ModelsRefreshed struct {
	Models []string
}

// ThemeToggled flips light and dark.
type ThemeToggled struct{}

// PopupResized carries a requested popup size.
type PopupResized struct {
	Width  int
	Height int
}

func (Loaded) Name() string          { return "loaded" }
func (SetupCompleted) Name() string  { return "setup-completed" }
func (SettingsSaved) Name() string   { return "settings-saved" }
func (ModelsRefreshed) Name() string { return "models-refreshed" }
func (ThemeToggled) Name() string    { return "theme-toggled" }
func (PopupResized) Name() string    { return "popup-resized" }

func (Loaded) event()          {}
func (SetupCompleted) event()  {}
func (SettingsSaved) event()   {}
func (ModelsRefreshed) event() {}
func (ThemeToggled) event()    {}
func (PopupResized) event()    {}

// Transition computes the next state and configuration using the embedded
// preset catalog.
func Transition(s State, c Configuration, ev Event) (State, Configuration, error) {
	return transition(presets.Default(), s, c, ev)
}

func transition(catalog *presets.Catalog, s State, c Configuration, ev Event) (State, Configuration, error) {
	switch e := ev.(type) {
	case Loaded:
		if s != Uninitialized {
			return s, c, invalidTransition(s, ev)
		}
		next := Coerce(e.Config, catalog)
		if !next.HasKey() {
			return SetupPending, next, nil
		}
		return Ready, next, nil

	case SetupCompleted:
		if s != SetupPending {
			return s, c, invalidTransition(s, ev)
		}
		key := strings.TrimSpace(e.APIKey)
		if key == "" {
			return s, c, errEmptyKey
		}
		if len(e.Models) == 0 {
			return s, c, errNoModels
		}
		next := c.Clone()
		next.APIKey = key
		next.Models = append([]string(nil), e.Models...)
		next.SelectedModel = e.Models[0]
		return Ready, Coerce(next, catalog), nil

	case SettingsSaved:
		if s != Ready {
			return s, c, invalidTransition(s, ev)
		}
		next := Coerce(e.Config, catalog)
		if !next.HasKey() {
			return s, c, &ValidationError{Field: "apiKey", Message: "API Key cannot be empty."}
		}
		return Ready, next, nil

	case ModelsRefreshed:
		if s != Ready {
			return s, c, invalidTransition(s, ev)
		}
		next := c.Clone()
		next.Models = append([]string(nil), e.Models...)
		next.SelectedModel = PickModel(next.Models, c.SelectedModel)
		return s, Coerce(next, catalog), nil

	case ThemeToggled:
		if s == Uninitialized {
			return s, c, invalidTransition(s, ev)
		}
		next := c.Clone()
		if c.Theme == ThemeDark {
			next.Theme = ThemeLight
		} else {
			next.Theme = ThemeDark
		}
		return s, next, nil

	case PopupResized:
		if s == Uninitialized {
			return s, c, invalidTransition(s, ev)
		}
		next := c.Clone()
		next.PopupWidth = e.Width
		next.PopupHeight = e.Height
		return s, Coerce(next, catalog), nil

	default:
		return s, c, invalidTransition(s, ev)
	}
}
