package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
)

// Client sends requests from the UI context.
type Client struct {
	caps   host.Capabilities
	logger *logging.Logger
}

// NewClient creates a client sending through caps.
func NewClient(caps host.Capabilities, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{caps: caps, logger: logger.Named("bridge")}
}

// Send delivers req and waits for its Response. Transport failures come back
// as a failed Response rather than an error.
func (c *Client) Send(ctx context.Context, req Request) Response {
	raw, err := c.caps.SendMessage(ctx, Encode(req))
	if err != nil {
		return c.transportFailure(req, err)
	}
	resp, err := AsResponse(raw)
	if err != nil {
		return c.transportFailure(req, err)
	}
	return resp
}

// Summarize sends a SummarizeRequest and decodes the summary.
func (c *Client) Summarize(ctx context.Context, req SummarizeRequest) Result[string] {
	return resultOf(c.Send(ctx, req), asString)
}

// ListModels sends a ListModelsRequest and decodes the model ids.
func (c *Client) ListModels(ctx context.Context, apiKey string) Result[[]string] {
	return resultOf(c.Send(ctx, ListModelsRequest{APIKey: apiKey}), asStrings)
}

func (c *Client) transportFailure(req Request, err error) Response {
	c.logger.Warn("Message delivery failed",
		zap.String("action", string(req.Action())),
		zap.Error(err),
	)
	return Fail(&TransportError{Err: err})
}
