package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/popup"
	"github.com/GriffinCanCode/pagebrief/internal/presets"
	"github.com/GriffinCanCode/pagebrief/internal/settings"
)

// CLI is the popup command line. Flags override the environment.
type CLI struct {
	Background string `help:"Background service URL. Empty runs the background in process." env:"BACKGROUND_URL"`
	Flavor     string `help:"Host calling convention (chrome or firefox)." env:"HOST_FLAVOR"`
	Storage    string `help:"Storage driver (sqlite, memory or redis)." env:"STORAGE_DRIVER"`
	Path       string `help:"SQLite storage path." env:"STORAGE_PATH" type:"path"`
	Presets    string `help:"YAML file replacing the built-in languages and prompts." type:"existingfile"`
	Dev        bool   `help:"Development logging."`

	Setup     SetupCmd     `cmd:"" help:"Validate and store a first API key."`
	Settings  SettingsCmd  `cmd:"" help:"Save settings."`
	Models    ModelsCmd    `cmd:"" help:"Refresh the model list."`
	Theme     ThemeCmd     `cmd:"" help:"Toggle the popup theme."`
	Resize    ResizeCmd    `cmd:"" help:"Store the popup size."`
	Summarize SummarizeCmd `cmd:"" help:"Summarize a page."`
	Status    StatusCmd    `cmd:"" help:"Show the stored configuration."`
}

// SetupCmd completes first-run setup.
type SetupCmd struct {
	Key string `arg:"" help:"Gemini API key."`
}

func (c *SetupCmd) Run(ctx context.Context, a *App) error {
	if err := a.Controller.Setup(ctx, c.Key); err != nil {
		return err
	}
	fmt.Printf("Ready. Using %s.\n", a.Controller.Config().SelectedModel)
	return nil
}

// SettingsCmd submits the settings form. Omitted fields keep their value.
type SettingsCmd struct {
	Key      string  `help:"New API key."`
	Model    string  `help:"Model to use."`
	Language string  `help:"Summary language, or auto."`
	Prompt   string  `help:"Prompt preset id."`
	Custom   *string `help:"Custom prompt text."`
}

func (c *SettingsCmd) Run(ctx context.Context, a *App) error {
	cur := a.Controller.Config()
	in := settings.SaveInput{
		APIKey:       c.Key,
		Model:        orDefault(c.Model, cur.SelectedModel),
		Language:     orDefault(c.Language, cur.Language),
		PromptID:     orDefault(c.Prompt, cur.SelectedPromptID),
		CustomPrompt: cur.CustomPrompt,
	}
	if c.Custom != nil {
		in.CustomPrompt = *c.Custom
	}

	a.Controller.OpenSettings()
	if err := a.Controller.SaveSettings(ctx, in); err != nil {
		a.Controller.CancelSettings()
		return err
	}
	fmt.Println("Settings saved.")
	return nil
}

// ModelsCmd refreshes the model list.
type ModelsCmd struct {
	Key string `help:"Key to list models for. Defaults to the stored key."`
}

func (c *ModelsCmd) Run(ctx context.Context, a *App) error {
	models, err := a.Controller.RefreshModels(ctx, c.Key)
	if err != nil {
		return err
	}
	fmt.Println(popup.StatusModelsRefreshed)
	selected := a.Controller.Config().SelectedModel
	for _, m := range models {
		marker := " "
		if m == selected {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, m)
	}
	return nil
}

// ThemeCmd toggles the theme.
type ThemeCmd struct{}

func (c *ThemeCmd) Run(ctx context.Context, a *App) error {
	theme, err := a.Controller.ToggleTheme(ctx)
	if err != nil {
		return err
	}
	fmt.Println(theme)
	return nil
}

// ResizeCmd stores a popup size.
type ResizeCmd struct {
	Width  int `arg:""`
	Height int `arg:""`
}

func (c *ResizeCmd) Run(ctx context.Context, a *App) error {
	w, h, err := a.Controller.Resize(ctx, c.Width, c.Height)
	if err != nil {
		return err
	}
	fmt.Printf("%dx%d\n", w, h)
	return nil
}

// SummarizeCmd opens url as the active tab and summarizes it.
type SummarizeCmd struct {
	URL  string `arg:"" help:"Page to summarize."`
	HTML bool   `help:"Print sanitized HTML instead of markdown."`
}

func (c *SummarizeCmd) Run(ctx context.Context, a *App) error {
	if _, err := a.Tabs.Open(ctx, c.URL); err != nil {
		return err
	}
	summary, err := a.Controller.Summarize(ctx)
	if err != nil {
		return err
	}
	if c.HTML {
		fmt.Println(summary.Markup.String())
	} else {
		fmt.Println(summary.Markdown)
	}
	return nil
}

// StatusCmd prints the configuration with the key masked.
type StatusCmd struct{}

type status struct {
	State    string   `yaml:"state"`
	View     string   `yaml:"view"`
	APIKey   string   `yaml:"apiKey"`
	Models   []string `yaml:"models"`
	Model    string   `yaml:"selectedModel"`
	Language string   `yaml:"language"`
	Prompt   string   `yaml:"selectedPromptId"`
	Theme    string   `yaml:"theme"`
	Size     string   `yaml:"popupSize"`
}

func (c *StatusCmd) Run(a *App) error {
	cfg := a.Controller.Config()
	out, err := yaml.Marshal(status{
		State:    a.Controller.State().String(),
		View:     a.Controller.View().String(),
		APIKey:   mask(cfg.APIKey),
		Models:   cfg.Models,
		Model:    cfg.SelectedModel,
		Language: cfg.Language,
		Prompt:   cfg.SelectedPromptID,
		Theme:    string(cfg.Theme),
		Size:     fmt.Sprintf("%dx%d", cfg.PopupWidth, cfg.PopupHeight),
	})
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("popup"),
		kong.Description("Summarize web pages with Gemini."),
		kong.UsageOnError(),
	)

	cfg := config.LoadOrDefault()
	applyFlags(cfg, &cli)

	logger := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)
	defer func() { _ = logger.Sync() }()

	catalog := presets.Default()
	if cli.Presets != "" {
		data, err := os.ReadFile(cli.Presets)
		kctx.FatalIfErrorf(err)
		catalog, err = presets.Parse(data)
		kctx.FatalIfErrorf(err)
	}

	app, err := newApp(cfg, catalog, logger)
	kctx.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if _, err := app.Controller.Open(ctx); err != nil {
		fail(app, stop, err)
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(app); err != nil {
		fail(app, stop, err)
	}

	stop()
	_ = app.Close()
}

func applyFlags(cfg *config.Config, cli *CLI) {
	if cli.Background != "" {
		cfg.Popup.BackgroundURL = cli.Background
	}
	if cli.Flavor != "" {
		cfg.Popup.HostFlavor = cli.Flavor
	}
	if cli.Storage != "" {
		cfg.Storage.Driver = cli.Storage
	}
	if cli.Path != "" {
		cfg.Storage.Path = cli.Path
	}
	if cli.Dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	} else if cfg.Logging.Level == "info" {
		cfg.Logging.Level = "warn"
	}
}

// fail prints the message the popup would show inline and exits.
func fail(app *App, stop context.CancelFunc, err error) {
	fmt.Fprintln(os.Stderr, popup.InlineMessage(err))
	stop()
	_ = app.Close()
	os.Exit(1)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
