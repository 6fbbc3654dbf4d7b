package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/api/middleware"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/tracing"
)

// Config contains server configuration
type Config struct {
	Host      string
	Port      string
	RateLimit config.RateLimitConfig
	CORS      middleware.CORSConfig
	// Tracer is optional.
	Tracer    *tracing.Tracer
}

// Server wraps the HTTP server and its router
type Server struct {
	router  *gin.Engine
	handler http.Handler
	srv     *http.Server
	logger  *logging.Logger
}

// NewServer builds the router around handlers.
func NewServer(cfg Config, handlers *Handlers, metrics *monitoring.Metrics, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.CORS.AllowOrigins == nil && !cfg.CORS.ExtensionsOnly {
		cfg.CORS = middleware.DefaultCORSConfig()
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger), middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.CORS))
	if cfg.Tracer != nil {
		router.Use(tracing.HTTPMiddleware(cfg.Tracer))
	}
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", handlers.Metrics())

	runtime := router.Group("/runtime")
	if cfg.RateLimit.Enabled {
		runtime.Use(middleware.RateLimit(middleware.RateLimitFromConfig(cfg.RateLimit)))
	}
	runtime.POST("/message", handlers.RuntimeMessage)

	gz, err := gzhttp.NewWrapper(gzhttp.MinSize(512))
	if err != nil {
		return nil, err
	}
	handler := gz(router)

	return &Server{
		router:  router,
		handler: handler,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.Named("server"),
	}, nil
}

// Handler returns the compressed router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Run() error {
	s.logger.Info("Starting background service", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
