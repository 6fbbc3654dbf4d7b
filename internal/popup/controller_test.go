package popup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/pagebrief/internal/bridge"
	"github.com/GriffinCanCode/pagebrief/internal/extension"
	"github.com/GriffinCanCode/pagebrief/internal/gemini"
	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/settings"
	"github.com/GriffinCanCode/pagebrief/internal/storage"
	"github.com/GriffinCanCode/pagebrief/internal/tabs"
	"github.com/GriffinCanCode/pagebrief/internal/tabs/sandbox"
)

type fakeBackend struct {
	mu      sync.Mutex
	models  map[string][]string
	summary string
	err     error
	inputs  []gemini.Input

	started chan struct{}
	release chan struct{}
}

func (f *fakeBackend) Summarize(_ context.Context, in gemini.Input) (string, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func (f *fakeBackend) ListModels(_ context.Context, apiKey string) ([]string, error) {
	models, ok := f.models[apiKey]
	if !ok {
		return nil, &gemini.APIError{Status: 400, Message: "API key not valid. Please pass a valid API key."}
	}
	return models, nil
}

type fixture struct {
	backend *fakeBackend
	tabs    *tabs.Registry
	store   storage.Store
	caps    host.Capabilities
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 1)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	backend := &fakeBackend{
		models:  map[string][]string{"good": {"gemini-pro", "gemini-flash"}, "other": {"gemini-flash"}, "empty": {}},
		summary: "# Headline\n\n**bold** <script>alert(1)</script> [x](javascript:alert(1))",
	}
	registry := tabs.NewRegistry(nil, pool, nil)
	store := storage.NewMemory()

	h := extension.New(extension.Options{
		Flavor:  extension.FlavorChrome,
		Runtime: extension.NewLocalRuntime(bridge.NewListener(backend, nil, nil)),
		Store:   store,
		Tabs:    registry,
	})
	t.Cleanup(h.Shutdown)

	return &fixture{backend: backend, tabs: registry, store: store, caps: host.NewAdapted(h, nil)}
}

func (f *fixture) ready(t *testing.T) *Controller {
	t.Helper()
	c := New(f.caps, nil, nil, nil)
	view, err := c.Open(context.Background())
	require.NoError(t, err)
	require.Equal(t, ViewSetup, view)
	require.NoError(t, c.Setup(context.Background(), " good "))
	return c
}

func TestOpenWithoutKeyShowsSetup(t *testing.T) {
	f := newFixture(t)
	c := New(f.caps, nil, nil, nil)

	view, err := c.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ViewSetup, view)
	assert.Equal(t, settings.SetupPending, c.State())
}

func TestOpenWithoutHost(t *testing.T) {
	c := New(host.NewAdapted(nil, nil), nil, nil, nil)

	view, err := c.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ViewSetup, view)

	_, err = c.Summarize(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSetup(t *testing.T) {
	f := newFixture(t)
	c := New(f.caps, nil, nil, nil)
	_, err := c.Open(context.Background())
	require.NoError(t, err)

	err = c.Setup(context.Background(), "  ")
	assert.EqualError(t, err, "Please enter an API Key.")

	err = c.Setup(context.Background(), "empty")
	assert.EqualError(t, err, "No compatible models found. Check permissions or key.")

	err = c.Setup(context.Background(), "bad")
	assert.EqualError(t, err, "API key not valid. Please pass a valid API key.")
	assert.Equal(t, ViewSetup, c.View())

	require.NoError(t, c.Setup(context.Background(), "good"))
	assert.Equal(t, ViewMain, c.View())
	assert.Equal(t, "gemini-pro", c.Config().SelectedModel)

	// A second popup sees the stored configuration.
	again := New(f.caps, nil, nil, nil)
	view, err := again.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ViewMain, view)
	assert.Equal(t, []string{"gemini-pro", "gemini-flash"}, again.Config().Models)
}

func TestSaveSettings(t *testing.T) {
	f := newFixture(t)
	c := f.ready(t)
	ctx := context.Background()

	c.OpenSettings()
	assert.Equal(t, ViewSettings, c.View())

	err := c.SaveSettings(ctx, settings.SaveInput{APIKey: "bad", Model: "gemini-pro"})
	assert.EqualError(t, err, "Invalid Key or Network Error.")
	var apiErr *bridge.ResponseError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ViewSettings, c.View())
	assert.Equal(t, "good", c.Config().APIKey)

	require.NoError(t, c.SaveSettings(ctx, settings.SaveInput{APIKey: "other", Model: "gemini-pro", Language: "French", PromptID: "custom", CustomPrompt: "Bullet points only."}))
	assert.Equal(t, ViewMain, c.View())

	cfg := c.Config()
	assert.Equal(t, "other", cfg.APIKey)
	assert.Equal(t, "gemini-flash", cfg.SelectedModel)
	assert.Equal(t, "Bullet points only.", cfg.EffectivePrompt())
}

func TestCancelSettings(t *testing.T) {
	f := newFixture(t)

	c := New(f.caps, nil, nil, nil)
	_, err := c.Open(context.Background())
	require.NoError(t, err)
	c.OpenSettings()
	assert.Equal(t, ViewSetup, c.CancelSettings())

	c = f.ready(t)
	c.OpenSettings()
	assert.Equal(t, ViewMain, c.CancelSettings())
}

func TestRefreshModels(t *testing.T) {
	f := newFixture(t)
	c := f.ready(t)

	models, err := c.RefreshModels(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-pro", "gemini-flash"}, models)

	_, err = c.RefreshModels(context.Background(), "bad")
	assert.EqualError(t, err, "Error fetching models.")
}

func TestThemeAndResize(t *testing.T) {
	f := newFixture(t)
	c := f.ready(t)
	ctx := context.Background()

	theme, err := c.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeDark, theme)

	w, h, err := c.Resize(ctx, 5000, 100)
	require.NoError(t, err)
	assert.Equal(t, settings.MaxPopupWidth, w)
	assert.Equal(t, settings.MinPopupHeight, h)

	stored, err := f.store.Get(ctx, []string{"geminiTheme", "geminiPopupWidth"})
	require.NoError(t, err)
	assert.Equal(t, "dark", stored["geminiTheme"])
	assert.Equal(t, float64(settings.MaxPopupWidth), stored["geminiPopupWidth"])
}

func TestSummarize(t *testing.T) {
	f := newFixture(t)
	c := f.ready(t)

	_, err := f.tabs.OpenHTML("https://news.example/a", "<title>A</title><body><article>Markets rallied.</article></body>")
	require.NoError(t, err)

	got, err := c.Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gemini-pro", got.Model)
	assert.Contains(t, got.Markup.String(), "<strong>bold</strong>")
	assert.Contains(t, got.Markup.String(), "<h1>Headline</h1>")
	assert.NotContains(t, got.Markup.String(), "<script")
	assert.NotContains(t, got.Markup.String(), "javascript:")

	require.Len(t, f.backend.inputs, 1)
	in := f.backend.inputs[0]
	assert.Equal(t, "Markets rallied.", in.Text)
	assert.Equal(t, "good", in.APIKey)
	assert.Equal(t, "gemini-pro", in.Model)
	assert.False(t, c.Busy())
}

func TestSummarizeExtractionFailures(t *testing.T) {
	f := newFixture(t)
	c := f.ready(t)
	ctx := context.Background()

	_, err := c.Summarize(ctx)
	assert.EqualError(t, err, "No active tab.")
	assert.True(t, IsExtractionError(err))

	_, err = f.tabs.OpenHTML("https://blank.example", "<body></body>")
	require.NoError(t, err)
	_, err = c.Summarize(ctx)
	assert.EqualError(t, err, "Could not extract content.")

	_, err = f.tabs.Open(ctx, "chrome://settings")
	require.NoError(t, err)
	_, err = c.Summarize(ctx)
	assert.EqualError(t, err, "Cannot access contents of the page.")
	assert.True(t, host.IsFailure(err))

	assert.Empty(t, f.backend.inputs)
}

func TestSummarizeRemoteError(t *testing.T) {
	f := newFixture(t)
	f.backend.err = errors.New("rate limited")
	c := f.ready(t)

	_, err := f.tabs.OpenHTML("https://news.example/a", "<body>text</body>")
	require.NoError(t, err)

	_, err = c.Summarize(context.Background())
	assert.Equal(t, "rate limited", InlineMessage(err))
	assert.False(t, c.Busy())
}

func TestSummarizeSingleInFlight(t *testing.T) {
	f := newFixture(t)
	c := f.ready(t)
	f.backend.started = make(chan struct{})
	f.backend.release = make(chan struct{})

	_, err := f.tabs.OpenHTML("https://news.example/a", "<body>text</body>")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Summarize(context.Background())
		done <- err
	}()

	<-f.backend.started
	assert.True(t, c.Busy())
	_, err = c.Summarize(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(f.backend.release)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
}

func TestInlineMessage(t *testing.T) {
	assert.Equal(t, "", InlineMessage(nil))
	assert.Equal(t, "Unknown error.", InlineMessage(errors.New("")))
	assert.Equal(t, "No active tab.", InlineMessage(errNoTab))
	assert.Equal(t, "Invalid Key or Network Error.", InlineMessage(&statusError{msg: statusSaveFailed, err: errors.New("x")}))
}
