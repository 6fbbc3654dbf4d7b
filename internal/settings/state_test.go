package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionLoaded(t *testing.T) {
	s, cfg, err := Transition(Uninitialized, Configuration{}, Loaded{})
	require.NoError(t, err)
	assert.Equal(t, SetupPending, s)
	assert.False(t, cfg.HasKey())

	s, cfg, err = Transition(Uninitialized, Configuration{}, Loaded{Config: Configuration{
		APIKey: "k", Models: []string{"a", "b"}, SelectedModel: "z",
	}})
	require.NoError(t, err)
	assert.Equal(t, Ready, s)
	assert.Equal(t, "a", cfg.SelectedModel)
}

func TestTransitionSetupCompleted(t *testing.T) {
	s, cfg, err := Transition(SetupPending, Configuration{}, SetupCompleted{APIKey: " k ", Models: []string{"m1", "m2"}})
	require.NoError(t, err)
	assert.Equal(t, Ready, s)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, []string{"m1", "m2"}, cfg.Models)
	assert.Equal(t, "m1", cfg.SelectedModel)
}

func TestTransitionSetupValidation(t *testing.T) {
	s, _, err := Transition(SetupPending, Configuration{}, SetupCompleted{APIKey: "k"})
	assert.Equal(t, SetupPending, s)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "No compatible models found. Check permissions or key.", err.Error())

	_, _, err = Transition(SetupPending, Configuration{}, SetupCompleted{APIKey: "  ", Models: []string{"a"}})
	assert.True(t, IsValidationError(err))
}

func TestTransitionSettingsSaved(t *testing.T) {
	cur := Configuration{APIKey: "k", Models: []string{"a", "b"}, SelectedModel: "a"}
	next := cur.Clone()
	next.SelectedModel = "b"
	next.Language = "German"

	s, cfg, err := Transition(Ready, cur, SettingsSaved{Config: next})
	require.NoError(t, err)
	assert.Equal(t, Ready, s)
	assert.Equal(t, "b", cfg.SelectedModel)
	assert.Equal(t, "German", cfg.Language)

	next.APIKey = ""
	_, _, err = Transition(Ready, cur, SettingsSaved{Config: next})
	assert.True(t, IsValidationError(err))
}

func TestTransitionModelsRefreshed(t *testing.T) {
	cur := Configuration{APIKey: "k", Models: []string{"a", "b"}, SelectedModel: "b"}

	_, cfg, err := Transition(Ready, cur, ModelsRefreshed{Models: []string{"b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.SelectedModel)

	_, cfg, err = Transition(Ready, cur, ModelsRefreshed{Models: []string{"c", "d"}})
	require.NoError(t, err)
	assert.Equal(t, "c", cfg.SelectedModel)
}

func TestTransitionThemeAndResize(t *testing.T) {
	s, cfg, err := Transition(SetupPending, Configuration{Theme: ThemeLight}, ThemeToggled{})
	require.NoError(t, err)
	assert.Equal(t, SetupPending, s)
	assert.Equal(t, ThemeDark, cfg.Theme)

	_, cfg, err = Transition(Ready, cfg, ThemeToggled{})
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, cfg.Theme)

	_, cfg, err = Transition(Ready, cfg, PopupResized{Width: 2000, Height: 300})
	require.NoError(t, err)
	assert.Equal(t, MaxPopupWidth, cfg.PopupWidth)
	assert.Equal(t, 300, cfg.PopupHeight)
}

func TestTransitionInvalid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{"load twice", Ready, Loaded{}},
		{"setup when ready", Ready, SetupCompleted{APIKey: "k", Models: []string{"a"}}},
		{"save before setup", SetupPending, SettingsSaved{Config: Configuration{APIKey: "k"}}},
		{"save before load", Uninitialized, SettingsSaved{Config: Configuration{APIKey: "k"}}},
		{"refresh before setup", SetupPending, ModelsRefreshed{Models: []string{"a"}}},
		{"theme before load", Uninitialized, ThemeToggled{}},
		{"resize before load", Uninitialized, PopupResized{Width: 400, Height: 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := Configuration{APIKey: "k"}
			s, cfg, err := Transition(tt.state, cur, tt.event)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.state, s)
			assert.Equal(t, cur, cfg)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "setup-pending", SetupPending.String())
	assert.Equal(t, "ready", Ready.String())
}
