package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/bridge"
	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/presets"
)

// Storage is the slice of host capabilities the machine persists through.
type Storage interface {
	StorageGet(ctx context.Context, keys []string) (map[string]any, error)
	StorageSet(ctx context.Context, items map[string]any) error
}

// ModelLister validates API keys.
type ModelLister interface {
	ListModels(ctx context.Context, apiKey string) bridge.Result[[]string]
}

// SaveInput is a settings form submission. An empty APIKey keeps the
// current key.
type SaveInput struct {
	APIKey        string
	Model         string
	Language      string
	PromptID      string
	CustomPrompt  string
	PromptOptions []presets.PromptOption
}

// Machine applies settings events with their side effects.
type Machine struct {
	storage Storage
	models  ModelLister
	catalog *presets.Catalog
	logger  *logging.Logger

	mu    sync.Mutex
	state State
	cfg   Configuration
}

// NewMachine creates a machine in the Uninitialized state.
func NewMachine(storage Storage, models ModelLister, catalog *presets.Catalog, logger *logging.Logger) *Machine {
	if catalog == nil {
		catalog = presets.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Machine{
		storage: storage,
		models:  models,
		catalog: catalog,
		logger:  logger.Named("settings"),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Config returns a copy of the current configuration.
func (m *Machine) Config() Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Clone()
}

// Catalog returns the preset catalog in use.
func (m *Machine) Catalog() *presets.Catalog {
	return m.catalog
}

// Load reads the stored configuration. A missing extension context reads as
// an empty configuration.
func (m *Machine) Load(ctx context.Context) (State, error) {
	items, err := m.storage.StorageGet(ctx, AllKeys)
	switch {
	case errors.Is(err, host.ErrCapabilityUnavailable):
		m.logger.Warn("Storage unavailable, starting with empty configuration")
		items = map[string]any{}
	case err != nil:
		return m.State(), fmt.Errorf("read settings: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next, cfg, err := transition(m.catalog, m.state, m.cfg, Loaded{Config: fromItems(items)})
	if err != nil {
		return m.state, err
	}
	m.state, m.cfg = next, cfg

	m.logger.Debug("Settings loaded",
		zap.Stringer("state", next),
		zap.Int("models", len(cfg.Models)),
		zap.String("model", cfg.SelectedModel),
	)
	return next, nil
}

// CompleteSetup validates a first API key and commits it with its models,
// selecting the first.
func (m *Machine) CompleteSetup(ctx context.Context, apiKey string) error {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return errEmptyKey
	}

	models, err := m.models.ListModels(ctx, key).Unwrap()
	if err != nil {
		return err
	}

	return m.apply(ctx, SetupCompleted{APIKey: key, Models: models},
		KeyAPIKey, KeyModels, KeySelectedModel)
}

// Save commits a settings form. A changed key is validated with a fresh
// model list before anything is written; if that fails nothing changes.
func (m *Machine) Save(ctx context.Context, in SaveInput) error {
	cur := m.Config()

	key := strings.TrimSpace(in.APIKey)
	if key == "" {
		key = cur.APIKey
	}
	if key == "" {
		return &ValidationError{Field: "apiKey", Message: "API Key cannot be empty."}
	}

	models := cur.Models
	if key != cur.APIKey {
		fresh, err := m.models.ListModels(ctx, key).Unwrap()
		if err != nil {
			return fmt.Errorf("validate key: %w", err)
		}
		if len(fresh) == 0 {
			return errNoModels
		}
		models = fresh
	}

	next := cur.Clone()
	next.APIKey = key
	next.Models = models
	next.SelectedModel = PickModel(models, in.Model)
	next.Language = in.Language
	next.SelectedPromptID = in.PromptID
	next.CustomPrompt = in.CustomPrompt
	if in.PromptOptions != nil {
		next.PromptOptions = in.PromptOptions
	}

	return m.apply(ctx, SettingsSaved{Config: next},
		KeyAPIKey, KeyModels, KeySelectedModel, KeyLanguage, KeyPrompt,
		KeyPromptOptions, KeySelectedPromptID)
}

// RefreshModels re-fetches the model list for apiKey (or the current key
// when empty), keeping the selection when it is still offered.
func (m *Machine) RefreshModels(ctx context.Context, apiKey string) ([]string, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = m.Config().APIKey
	}
	if key == "" {
		return nil, errEmptyKey
	}

	models, err := m.models.ListModels(ctx, key).Unwrap()
	if err != nil {
		return nil, err
	}

	if err := m.apply(ctx, ModelsRefreshed{Models: models}, KeyModels, KeySelectedModel); err != nil {
		return nil, err
	}
	return models, nil
}

// ToggleTheme flips the theme and persists it.
func (m *Machine) ToggleTheme(ctx context.Context) (Theme, error) {
	if err := m.apply(ctx, ThemeToggled{}, KeyTheme); err != nil {
		return "", err
	}
	return m.Config().Theme, nil
}

// Resize stores a popup size, clamped to the allowed bounds.
func (m *Machine) Resize(ctx context.Context, width, height int) (int, int, error) {
	if err := m.apply(ctx, PopupResized{Width: width, Height: height}, KeyPopupWidth, KeyPopupHeight); err != nil {
		return 0, 0, err
	}
	cfg := m.Config()
	return cfg.PopupWidth, cfg.PopupHeight, nil
}

// apply runs ev through Transition, writes the listed keys and then commits.
// The state lock is not held across the storage write; concurrent writers
// race and the last write wins.
func (m *Machine) apply(ctx context.Context, ev Event, keys ...string) error {
	m.mu.Lock()
	state, cfg := m.state, m.cfg.Clone()
	m.mu.Unlock()

	nextState, nextCfg, err := transition(m.catalog, state, cfg, ev)
	if err != nil {
		return err
	}

	all := toItems(nextCfg)
	items := make(map[string]any, len(keys))
	for _, k := range keys {
		items[k] = all[k]
	}

	if err := m.storage.StorageSet(ctx, items); err != nil {
		if !errors.Is(err, host.ErrCapabilityUnavailable) {
			return fmt.Errorf("write settings: %w", err)
		}
		m.logger.Warn("Storage unavailable, change kept in memory only", zap.String("event", ev.Name()))
	}

	m.mu.Lock()
	m.state, m.cfg = nextState, nextCfg
	m.mu.Unlock()

	m.logger.Debug("Settings committed", zap.String("event", ev.Name()), zap.Stringer("state", nextState))
	return nil
}
