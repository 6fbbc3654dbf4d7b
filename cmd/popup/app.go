package main

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/bridge"
	"github.com/GriffinCanCode/pagebrief/internal/extension"
	"github.com/GriffinCanCode/pagebrief/internal/gemini"
	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagebrief/internal/popup"
	"github.com/GriffinCanCode/pagebrief/internal/presets"
	"github.com/GriffinCanCode/pagebrief/internal/render"
	"github.com/GriffinCanCode/pagebrief/internal/storage"
	"github.com/GriffinCanCode/pagebrief/internal/tabs"
	"github.com/GriffinCanCode/pagebrief/internal/tabs/sandbox"
)

// App is one popup session: a host with its storage and tabs, and the
// controller driving it.
type App struct {
	Controller *popup.Controller
	Tabs       *tabs.Registry

	host     *extension.Host
	store    storage.Store
	pool     *sandbox.Pool
	listener *bridge.Listener
	logger   *logging.Logger
}

func newApp(cfg *config.Config, catalog *presets.Catalog, logger *logging.Logger) (*App, error) {
	flavor, err := extension.ParseFlavor(cfg.Popup.HostFlavor)
	if err != nil {
		return nil, err
	}
	policy, err := render.ParsePolicy(cfg.Render.Policy)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.NewMetrics(nil)

	store, err := storage.Open(cfg.Storage, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 2)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	registry := tabs.NewRegistry(tabs.NewLoader(30*time.Second, logger), pool, logger)

	a := &App{
		Tabs:   registry,
		store:  store,
		pool:   pool,
		logger: logger,
	}

	var runtime extension.Runtime
	if cfg.Popup.BackgroundURL != "" {
		runtime = extension.NewRemoteRuntime(cfg.Popup.BackgroundURL, cfg.Gemini.Timeout+5*time.Second)
		logger.Debug("Using remote background", zap.String("url", cfg.Popup.BackgroundURL))
	} else {
		a.listener = bridge.NewListener(gemini.FromConfig(cfg.Gemini, logger, metrics), logger, metrics)
		runtime = extension.NewLocalRuntime(a.listener)
	}

	a.host = extension.New(extension.Options{
		Flavor:  flavor,
		Runtime: runtime,
		Store:   store,
		Tabs:    registry,
		Origin:  "popup.html",
		Logger:  logger,
	})

	caps := host.NewAdapted(a.host, logger)
	a.Controller = popup.New(caps, catalog, render.NewRenderer(policy), logger)
	return a, nil
}

// Close releases the host, drains local messages and closes storage.
func (a *App) Close() error {
	a.host.Shutdown()
	if a.listener != nil {
		a.listener.Wait()
	}
	return errors.Join(a.pool.Close(), a.store.Close())
}

