package extension

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/pagebrief/internal/bridge"
	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/pagebrief/internal/shared/id"
)

// SenderHeader carries the sending context's id on the HTTP transport.
const SenderHeader = "X-Sender-ID"

// Runtime delivers runtime messages. A nil reply with a nil error means no
// listener answered.
type Runtime interface {
	Deliver(ctx context.Context, sender host.Sender, msg any) (any, error)
}

// Listener receives runtime messages. See bridge.Listener.
type Listener interface {
	Handle(ctx context.Context, sender host.Sender, msg any, respond bridge.Respond) bool
}

// LocalRuntime delivers to listeners registered in this process. Messages
// and replies are passed through JSON, as between real extension contexts.
type LocalRuntime struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewLocalRuntime creates a runtime with the given listeners.
func NewLocalRuntime(listeners ...Listener) *LocalRuntime {
	return &LocalRuntime{listeners: listeners}
}

// AddListener registers l.
func (r *LocalRuntime) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Deliver implements Runtime. Every listener sees the message; the first
// response wins.
func (r *LocalRuntime) Deliver(ctx context.Context, sender host.Sender, msg any) (any, error) {
	cloned, err := clone(msg)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.RUnlock()

	replies := make(chan bridge.Response, 1)
	var once sync.Once
	respond := func(resp bridge.Response) {
		once.Do(func() { replies <- resp })
	}

	claimed := false
	for _, l := range listeners {
		if l.Handle(ctx, sender, cloned, respond) {
			claimed = true
		}
	}

	if !claimed {
		select {
		case resp := <-replies:
			return clone(resp)
		default:
			return nil, nil
		}
	}

	select {
	case resp := <-replies:
		return clone(resp)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func clone(v any) (any, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("Could not serialize message: %w", err)
	}
	var out any
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("Could not serialize message: %w", err)
	}
	return out, nil
}

// RemoteRuntime posts messages to a background service.
type RemoteRuntime struct {
	client *resty.Client
}

// NewRemoteRuntime targets the background service at baseURL.
func NewRemoteRuntime(baseURL string, timeout time.Duration) *RemoteRuntime {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	client.JSONMarshal = sonic.Marshal
	client.JSONUnmarshal = sonic.Unmarshal

	return &RemoteRuntime{client: client}
}

// Deliver implements Runtime. 204 No Content means no listener claimed the
// message.
func (r *RemoteRuntime) Deliver(ctx context.Context, sender host.Sender, msg any) (any, error) {
	if tracing.GetTraceID(ctx) == "" {
		ctx = tracing.WithTrace(ctx, tracing.TraceID(id.NewRequestID()))
	}
	headers := http.Header{}
	tracing.InjectTraceContext(ctx, headers)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader(SenderHeader, sender.ID).
		SetHeaderMultiValues(headers).
		SetBody(msg).
		Post("/runtime/message")
	if err != nil {
		return nil, fmt.Errorf("Could not establish connection. Receiving end does not exist. (%w)", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		var reply any
		if err := sonic.Unmarshal(resp.Body(), &reply); err != nil {
			return nil, fmt.Errorf("malformed reply: %w", err)
		}
		return reply, nil
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("runtime transport: HTTP %d", resp.StatusCode())
	}
}
