package server

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/pagebrief/internal/api/http"
	"github.com/GriffinCanCode/pagebrief/internal/bridge"
	"github.com/GriffinCanCode/pagebrief/internal/gemini"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/tracing"
)

// Server owns the background context: the remote client, the message
// listener and the HTTP surface in front of it.
type Server struct {
	http     *apihttp.Server
	listener *bridge.Listener
	gemini   *gemini.Client
	registry *prometheus.Registry
	tracer   *tracing.Tracer
	logger   *logging.Logger
}

// New wires a background server from cfg.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	client := gemini.FromConfig(cfg.Gemini, logger, metrics)
	listener := bridge.NewListener(client, logger, metrics)

	handlers := apihttp.NewHandlers(listener, metrics, registry, func() string {
		return client.BreakerState().String()
	}, logger)

	tracer := tracing.New("background", logger)

	srv, err := apihttp.NewServer(apihttp.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		RateLimit: cfg.RateLimit,
		Tracer:    tracer,
	}, handlers, metrics, logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	logger.Info("Background service configured",
		zap.String("gemini", cfg.Gemini.BaseURL),
		zap.Duration("gemini_timeout", cfg.Gemini.Timeout),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	return &Server{
		http:     srv,
		listener: listener,
		gemini:   client,
		registry: registry,
		tracer:   tracer,
		logger:   logger,
	}, nil
}

// HTTP returns the HTTP surface.
func (s *Server) HTTP() *apihttp.Server {
	return s.http
}

// Listener returns the runtime message listener.
func (s *Server) Listener() *bridge.Listener {
	return s.listener
}

// Run serves until Close.
func (s *Server) Run() error {
	return s.http.Run()
}

// Close stops accepting messages and waits for claimed ones to be answered.
func (s *Server) Close(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.listener.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Listener still busy at shutdown")
		if err == nil {
			err = ctx.Err()
		}
	}
	s.tracer.Close()
	return err
}
