package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL})
}

func TestListModelsFiltersAndStripsPrefix(t *testing.T) {
	var gotKey, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"models":[
			{"name":"models/gemini-1.5-flash","supportedGenerationMethods":["generateContent","countTokens"]},
			{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]},
			{"name":"models/gemini-1.5-pro","supportedGenerationMethods":["generateContent"]},
			{"name":"models/aqa"}
		]}`)
	})

	models, err := client.ListModels(context.Background(), "k-123")
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-1.5-flash", "gemini-1.5-pro"}, models)
	assert.Equal(t, "k-123", gotKey)
	assert.Equal(t, "/models", gotPath)
}

func TestListModelsWithoutCatalog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	models, err := client.ListModels(context.Background(), "k")
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestListModelsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "error message field",
			status:  http.StatusBadRequest,
			body:    `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`,
			message: "API key not valid. Please pass a valid API key.",
		},
		{
			name:    "json without message",
			status:  http.StatusForbidden,
			body:    `{"status":"denied"}`,
			message: `{"status":"denied"}`,
		},
		{
			name:    "plain text body",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable\n",
			message: "upstream unavailable",
		},
		{
			name:    "empty body",
			status:  http.StatusInternalServerError,
			body:    "",
			message: "Failed to fetch models: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ListModels(context.Background(), "k")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Error())
		})
	}
}

func TestSummarizeRequestShape(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotReq  GenerateRequest
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(body, &gotReq)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"## Summary\n- point"}]}}]}`)
	})

	text := strings.Repeat("a", MaxInputChars) + "TAIL"
	summary, err := client.Summarize(context.Background(), Input{
		Text:     text,
		APIKey:   "secret",
		Language: "French",
	})
	require.NoError(t, err)
	assert.Equal(t, "## Summary\n- point", summary)

	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 1)

	sent := gotReq.Contents[0].Parts[0].Text
	prefix := DefaultPrompt + " Write the summary in French.\n\n"
	assert.True(t, strings.HasPrefix(sent, prefix))
	assert.Equal(t, MaxInputChars, len(sent)-len(prefix), "page text is cut at the limit")
	assert.NotContains(t, sent, "TAIL")
}

func TestSummarizeUsesGivenModel(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})

	_, err := client.Summarize(context.Background(), Input{Text: "t", APIKey: "k", Model: "gemini-1.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "/models/gemini-1.5-pro:generateContent", gotPath)
}

func TestSummarizeRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	})

	_, err := client.Summarize(context.Background(), Input{Text: "t", APIKey: "k"})
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, "rate limited", err.Error())
}

func TestSummarizeGenericStatusMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Summarize(context.Background(), Input{Text: "t", APIKey: "k"})
	require.Error(t, err)
	assert.Equal(t, "API Error: 503", err.Error())
}

func TestSummarizeEmptyResult(t *testing.T) {
	bodies := []string{
		`{"candidates":[]}`,
		`{}`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})

			_, err := client.Summarize(context.Background(), Input{Text: "t", APIKey: "k"})
			assert.ErrorIs(t, err, ErrEmptyResult)
		})
	}
}

func TestBreakerTripsOnTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Options{BaseURL: url, FailureThreshold: 2})

	for i := 0; i < 2; i++ {
		_, err := client.ListModels(context.Background(), "k")
		require.Error(t, err)
		assert.False(t, IsAPIError(err))
	}
	assert.Equal(t, resilience.StateOpen, client.BreakerState())

	_, err := client.ListModels(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, "external service unavailable: circuit breaker open", err.Error())
}

func TestBreakerIgnoresAPIErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Options{BaseURL: srv.URL, FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		_, err := client.Summarize(context.Background(), Input{Text: "t", APIKey: "k"})
		assert.True(t, IsAPIError(err))
	}
	assert.Equal(t, resilience.StateClosed, client.BreakerState())
	assert.Equal(t, int32(3), hits.Load(), "no retries")
}
