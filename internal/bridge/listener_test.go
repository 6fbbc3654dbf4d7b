package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/pagebrief/internal/gemini"
	"github.com/GriffinCanCode/pagebrief/internal/host"
)

type fakeSummarizer struct {
	summary   string
	models    []string
	err       error
	gotInput  gemini.Input
	gotAPIKey string
	block     chan struct{}
	panicMsg  string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, in gemini.Input) (string, error) {
	if f.block != nil {
		<-f.block
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.gotInput = in
	return f.summary, f.err
}

func (f *fakeSummarizer) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	f.gotAPIKey = apiKey
	return f.models, f.err
}

// collect runs Handle and waits for the single response.
func collect(t *testing.T, l *Listener, ctx context.Context, msg any) (bool, []Response) {
	t.Helper()
	var got []Response
	claimed := l.Handle(ctx, host.Sender{ID: "ctx_test"}, msg, func(r Response) {
		got = append(got, r)
	})
	l.Wait()
	return claimed, got
}

func TestListenerSummarize(t *testing.T) {
	backend := &fakeSummarizer{summary: "# Title\n- point"}
	l := NewListener(backend, nil, nil)

	claimed, got := collect(t, l, context.Background(), Message{
		Action: ActionSummarize, Text: "page", APIKey: "k", Model: "gemini-1.5-pro", Language: "auto", Prompt: "p",
	})

	require.True(t, claimed)
	require.Len(t, got, 1)
	assert.Equal(t, OK("# Title\n- point"), got[0])
	assert.Equal(t, gemini.Input{Text: "page", APIKey: "k", Model: "gemini-1.5-pro", Language: "auto", Prompt: "p"}, backend.gotInput)
}

func TestListenerListModels(t *testing.T) {
	backend := &fakeSummarizer{models: []string{"a", "b"}}
	l := NewListener(backend, nil, nil)

	claimed, got := collect(t, l, context.Background(), map[string]any{"action": "getModels", "apiKey": "k"})

	require.True(t, claimed)
	require.Len(t, got, 1)
	assert.Equal(t, OK([]string{"a", "b"}), got[0])
	assert.Equal(t, "k", backend.gotAPIKey)
}

func TestListenerEmptyModelListIsNotNil(t *testing.T) {
	l := NewListener(&fakeSummarizer{}, nil, nil)

	_, got := collect(t, l, context.Background(), Message{Action: ActionListModels})
	require.Len(t, got, 1)
	assert.Equal(t, []string{}, got[0].Data)
}

func TestListenerBackendError(t *testing.T) {
	l := NewListener(&fakeSummarizer{err: &gemini.APIError{Status: 429, Message: "rate limited"}}, nil, nil)

	_, got := collect(t, l, context.Background(), Message{Action: ActionSummarize, Text: "t"})
	require.Len(t, got, 1)
	assert.Equal(t, Response{Success: false, Error: "rate limited"}, got[0])
}

func TestListenerIgnoresUnknownActions(t *testing.T) {
	l := NewListener(&fakeSummarizer{}, nil, nil)

	for _, msg := range []any{
		Message{Action: "openOptions"},
		map[string]any{"greeting": "hi"},
		12,
	} {
		claimed, got := collect(t, l, context.Background(), msg)
		assert.False(t, claimed)
		assert.Empty(t, got)
	}
}

func TestListenerSurvivesCallerCancellation(t *testing.T) {
	backend := &fakeSummarizer{summary: "done", block: make(chan struct{})}
	l := NewListener(backend, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Response, 1)
	claimed := l.Handle(ctx, host.Sender{}, Message{Action: ActionSummarize}, func(r Response) { done <- r })
	require.True(t, claimed)

	cancel()
	close(backend.block)

	select {
	case r := <-done:
		assert.Equal(t, OK("done"), r)
	case <-time.After(2 * time.Second):
		t.Fatal("no response")
	}
}

func TestListenerRecoversPanics(t *testing.T) {
	l := NewListener(&fakeSummarizer{panicMsg: "boom"}, nil, nil)

	_, got := collect(t, l, context.Background(), Message{Action: ActionSummarize})
	require.Len(t, got, 1)
	assert.False(t, got[0].Success)
	assert.Equal(t, "internal error: boom", got[0].Error)
}

func TestFail(t *testing.T) {
	assert.Equal(t, Response{Error: "unknown error"}, Fail(nil))
	assert.Equal(t, Response{Error: "x"}, Fail(errors.New("x")))
}
