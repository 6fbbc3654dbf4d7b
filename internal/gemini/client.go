package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/resilience"
)

// DefaultBaseURL is the public endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const generateMethod = "generateContent"

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is requests per second; zero or less means unlimited.
	RateLimit float64
	// FailureThreshold is the number of consecutive transport failures that
	// opens the breaker.
	FailureThreshold uint32
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
	Logger         *logging.Logger
	Metrics        *monitoring.Metrics
}

// Client talks to the generative language API.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewClient creates a client with retries disabled.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	logger := opts.Logger.Named("gemini")

	// Pooled transport only; retryablehttp's own retry loop is not used.
	pooled := retryablehttp.NewClient()
	pooled.RetryMax = 0
	pooled.Logger = nil

	r := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTransport(pooled.HTTPClient.Transport).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "PageBrief/1.0").
		SetLogger(logger.Sugar())
	r.JSONMarshal = sonic.Marshal
	r.JSONUnmarshal = sonic.Unmarshal

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit)))
	}

	threshold := opts.FailureThreshold
	metrics := opts.Metrics
	breaker := resilience.New("gemini", resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsAPIError(err) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if metrics != nil {
				metrics.SetBreakerState(name, int(to))
			}
		},
	})

	return &Client{
		resty:   r,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
		metrics: metrics,
	}
}

// FromConfig builds a client from the Gemini config section.
func FromConfig(cfg config.GeminiConfig, logger *logging.Logger, metrics *monitoring.Metrics) *Client {
	return NewClient(Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
		Metrics:   metrics,
	})
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// ListModels returns the ids of models that support content generation, with
// the "models/" prefix removed, in catalog order.
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	body, err := c.call(ctx, "models", func(fallback int) string {
		return "Failed to fetch models: " + strconv.Itoa(fallback)
	}, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("key", apiKey).Get("/models")
	})
	if err != nil {
		return nil, err
	}

	var list ModelList
	if len(bytes.TrimSpace(body)) > 0 {
		if err := sonic.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decode model list: %w", err)
		}
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		if !supports(m, generateMethod) {
			continue
		}
		ids = append(ids, strings.Replace(m.Name, "models/", "", 1))
	}

	c.logger.Debug("Listed models", zap.Int("total", len(list.Models)), zap.Int("usable", len(ids)))
	return ids, nil
}

// Summarize asks the model for a summary of in.Text and returns its markdown.
func (c *Client) Summarize(ctx context.Context, in Input) (string, error) {
	model := in.Model
	if model == "" {
		model = DefaultModel
	}

	req := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: BuildInstruction(in)}}}},
	}

	body, err := c.call(ctx, generateMethod, func(status int) string {
		return "API Error: " + strconv.Itoa(status)
	}, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetPathParam("model", model).
			SetQueryParam("key", in.APIKey).
			SetBody(req).
			Post("/models/{model}:generateContent")
	})
	if err != nil {
		return "", err
	}

	var out GenerateResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}

	text := firstText(out)
	if text == "" {
		return "", ErrEmptyResult
	}

	c.logger.Debug("Summary generated",
		zap.String("model", model),
		zap.Int("input_chars", len([]rune(in.Text))),
		zap.Int("output_bytes", len(text)),
	)
	return text, nil
}

// call runs one request through the limiter and breaker and returns the
// success body. Non-success statuses become *APIError.
func (c *Client) call(ctx context.Context, op string, generic func(status int) string, send func(*resty.Request) (*resty.Response, error)) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	timer := monitoring.NewTimer(c.metrics, op)

	body, err := resilience.Execute(c.breaker, func() ([]byte, error) {
		resp, err := send(c.resty.R().SetContext(ctx))
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			msg := readErrorMessage(resp.Body())
			if msg == "" {
				msg = generic(resp.StatusCode())
			}
			return nil, &APIError{Status: resp.StatusCode(), Message: msg}
		}
		return resp.Body(), nil
	})

	var apiErr *APIError
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		timer.Stop("breaker_open")
		return nil, fmt.Errorf("external service unavailable: %w", resilience.ErrCircuitOpen)
	case errors.As(err, &apiErr):
		timer.Stop(strconv.Itoa(apiErr.Status))
		c.logger.Warn("Remote call failed",
			zap.String("operation", op),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		)
		return nil, err
	case err != nil:
		timer.Stop("transport_error")
		c.logger.Warn("Remote call failed", zap.String("operation", op), zap.Error(err))
		return nil, err
	}

	timer.Stop("ok")
	return body, nil
}

// readErrorMessage prefers error.message, then the body itself.
func readErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var payload errorBody
	if err := sonic.Unmarshal(trimmed, &payload); err == nil && payload.Error != nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return string(trimmed)
}

func supports(m Model, method string) bool {
	for _, s := range m.SupportedGenerationMethods {
		if s == method {
			return true
		}
	}
	return false
}

func firstText(out GenerateResponse) string {
	if len(out.Candidates) == 0 {
		return ""
	}
	parts := out.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}
