package popup

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/bridge"
	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/presets"
	"github.com/GriffinCanCode/pagebrief/internal/render"
	"github.com/GriffinCanCode/pagebrief/internal/settings"
)

// ExtractFunc is injected into the active tab to read its visible text.
const ExtractFunc = "() => document.body.innerText"

// Status lines shown on the settings view.
const (
	StatusModelsRefreshed = "Models refreshed."
	statusRefreshFailed   = "Error fetching models."
	statusSaveFailed      = "Invalid Key or Network Error."
)

// View is the popup screen currently shown.
type View int

const (
	ViewSetup View = iota
	ViewSettings
	ViewMain
)

// String returns the view name.
func (v View) String() string {
	switch v {
	case ViewSetup:
		return "setup"
	case ViewSettings:
		return "settings"
	case ViewMain:
		return "main"
	default:
		return "unknown"
	}
}

// Summary is a rendered summarize result.
type Summary struct {
	Model    string
	Markdown string
	Markup   render.Markup
}

// Controller is one popup instance.
type Controller struct {
	caps     host.Capabilities
	bridge   *bridge.Client
	machine  *settings.Machine
	renderer *render.Renderer
	logger   *logging.Logger

	busy atomic.Bool

	mu   sync.Mutex
	view View
}

// New creates a controller over caps. A nil catalog uses the embedded one
// and a nil renderer the default policy.
func New(caps host.Capabilities, catalog *presets.Catalog, renderer *render.Renderer, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	if renderer == nil {
		renderer = render.NewRenderer(render.PolicyDenylist)
	}

	client := bridge.NewClient(caps, logger)
	return &Controller{
		caps:     caps,
		bridge:   client,
		machine:  settings.NewMachine(caps, client, catalog, logger),
		renderer: renderer,
		logger:   logger.Named("popup"),
	}
}

// Open loads the stored configuration and picks the first view.
func (c *Controller) Open(ctx context.Context) (View, error) {
	state, err := c.machine.Load(ctx)
	if err != nil {
		return c.View(), err
	}

	view := ViewSetup
	if state == settings.Ready {
		view = ViewMain
	}
	c.setView(view)

	c.logger.Debug("Popup opened", zap.Stringer("view", view), zap.Stringer("state", state))
	return view, nil
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) setView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

// Config returns the current configuration.
func (c *Controller) Config() settings.Configuration {
	return c.machine.Config()
}

// Catalog returns the languages and prompt presets offered.
func (c *Controller) Catalog() *presets.Catalog {
	return c.machine.Catalog()
}

// State returns the settings state.
func (c *Controller) State() settings.State {
	return c.machine.State()
}

// Setup validates a first API key. On success the main view is shown.
func (c *Controller) Setup(ctx context.Context, apiKey string) error {
	if err := c.machine.CompleteSetup(ctx, apiKey); err != nil {
		return err
	}
	c.setView(ViewMain)
	return nil
}

// OpenSettings shows the settings view.
func (c *Controller) OpenSettings() {
	c.setView(ViewSettings)
}

// CancelSettings leaves the settings view without saving.
func (c *Controller) CancelSettings() View {
	view := ViewSetup
	if c.machine.Config().HasKey() {
		view = ViewMain
	}
	c.setView(view)
	return view
}

// SaveSettings commits the settings form and returns to the main view.
// Validation messages are kept; any other failure reads as an invalid key.
func (c *Controller) SaveSettings(ctx context.Context, in settings.SaveInput) error {
	err := c.machine.Save(ctx, in)
	switch {
	case err == nil:
		c.setView(ViewMain)
		return nil
	case settings.IsValidationError(err):
		return err
	default:
		c.logger.Warn("Settings save failed", zap.Error(err))
		return &statusError{msg: statusSaveFailed, err: err}
	}
}

// RefreshModels re-fetches models for apiKey, or the stored key when empty.
func (c *Controller) RefreshModels(ctx context.Context, apiKey string) ([]string, error) {
	models, err := c.machine.RefreshModels(ctx, apiKey)
	if err != nil {
		if settings.IsValidationError(err) {
			return nil, err
		}
		c.logger.Warn("Model refresh failed", zap.Error(err))
		return nil, &statusError{msg: statusRefreshFailed, err: err}
	}
	return models, nil
}

// ToggleTheme flips and persists the theme.
func (c *Controller) ToggleTheme(ctx context.Context) (settings.Theme, error) {
	return c.machine.ToggleTheme(ctx)
}

// Resize persists a popup size and returns the clamped one.
func (c *Controller) Resize(ctx context.Context, width, height int) (int, int, error) {
	return c.machine.Resize(ctx, width, height)
}

// Busy reports whether a summarize call is outstanding.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Summarize extracts the active tab's text, has it summarized with the
// current settings and renders the result. Only one call may be
// outstanding; others fail with ErrBusy.
func (c *Controller) Summarize(ctx context.Context) (Summary, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return Summary{}, ErrBusy
	}
	defer c.busy.Store(false)

	cfg := c.machine.Config()
	if c.machine.State() != settings.Ready || !cfg.HasKey() {
		return Summary{}, ErrNotConfigured
	}

	text, err := c.extract(ctx)
	if err != nil {
		return Summary{}, err
	}

	markdown, err := c.bridge.Summarize(ctx, bridge.SummarizeRequest{
		Text:     text,
		APIKey:   cfg.APIKey,
		Model:    cfg.SelectedModel,
		Language: cfg.Language,
		Prompt:   cfg.EffectivePrompt(),
	}).Unwrap()
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Model:    cfg.SelectedModel,
		Markdown: markdown,
		Markup:   c.renderer.Render(markdown),
	}, nil
}

func (c *Controller) extract(ctx context.Context) (string, error) {
	found, err := c.caps.QueryTabs(ctx, host.TabQuery{Active: true, CurrentWindow: true})
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", errNoTab
	}

	results, err := c.caps.ExecuteScript(ctx, host.ScriptInjection{
		Target: host.ScriptTarget{TabID: found[0].ID},
		Func:   ExtractFunc,
	})
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", errNoContent
	}
	text, ok := results[0].Result.(string)
	if !ok || text == "" {
		return "", errNoContent
	}
	return text, nil
}
