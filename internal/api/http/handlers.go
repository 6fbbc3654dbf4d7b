package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/bridge"
	"github.com/GriffinCanCode/pagebrief/internal/extension"
	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagebrief/internal/shared/id"
)

// Version is reported by the root route.
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	listener     extension.Listener
	metrics      *monitoring.Metrics
	gatherer     prometheus.Gatherer
	breakerState func() string
	logger       *logging.Logger
}

// NewHandlers creates a new handler set. breakerState may be nil.
func NewHandlers(
	listener extension.Listener,
	metrics *monitoring.Metrics,
	gatherer prometheus.Gatherer,
	breakerState func() string,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handlers{
		listener:     listener,
		metrics:      metrics,
		gatherer:     gatherer,
		breakerState: breakerState,
		logger:       logger.Named("api"),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "pagebrief background",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	if h.breakerState != nil {
		body["gemini_breaker"] = h.breakerState()
	}
	if h.metrics != nil {
		body["totals"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// Metrics serves the prometheus registry.
func (h *Handlers) Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}

// RuntimeMessage delivers the request body to the listener and waits for
// its answer. A client that goes away does not cancel the work.
func (h *Handlers) RuntimeMessage(c *gin.Context) {
	senderID := c.GetHeader(extension.SenderHeader)
	if !id.ValidSender(senderID) {
		c.JSON(http.StatusBadRequest, bridge.Fail(errInvalidSender))
		return
	}

	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, bridge.Fail(errInvalidMessage))
		return
	}

	sender := host.Sender{ID: senderID, URL: c.GetHeader("Origin")}
	replies := make(chan bridge.Response, 1)

	claimed := h.listener.Handle(c.Request.Context(), sender, raw, func(resp bridge.Response) {
		replies <- resp
	})
	if !claimed {
		c.Status(http.StatusNoContent)
		return
	}

	select {
	case resp := <-replies:
		c.JSON(http.StatusOK, resp)
	case <-c.Request.Context().Done():
		h.logger.Debug("Sender went away before the reply", zap.String("sender", senderID))
		c.Abort()
	}
}
