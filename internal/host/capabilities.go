package host

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
)

// Capabilities is the uniform asynchronous surface over a host, one method per
// facility.
type Capabilities interface {
	SendMessage(ctx context.Context, msg any) (any, error)
	StorageGet(ctx context.Context, keys []string) (map[string]any, error)
	StorageSet(ctx context.Context, items map[string]any) error
	QueryTabs(ctx context.Context, q TabQuery) ([]Tab, error)
	ExecuteScript(ctx context.Context, inj ScriptInjection) ([]InjectionResult, error)
}

// Adapted implements Capabilities through an Adapter.
type Adapted struct {
	adapter *Adapter
}

// NewAdapted wraps h.
func NewAdapted(h Host, logger *logging.Logger) *Adapted {
	return &Adapted{adapter: NewAdapter(h, logger)}
}

// SendMessage delivers msg to the runtime and returns the raw reply.
func (a *Adapted) SendMessage(ctx context.Context, msg any) (any, error) {
	return a.adapter.Call(ctx, CapSendMessage, msg)
}

// StorageGet reads keys from local storage. Missing keys are absent from the
// returned map.
func (a *Adapted) StorageGet(ctx context.Context, keys []string) (map[string]any, error) {
	res, err := a.adapter.Call(ctx, CapStorageGet, keys)
	if err != nil {
		return nil, err
	}
	switch v := res.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, unexpected(CapStorageGet, res)
	}
}

// StorageSet writes items to local storage.
func (a *Adapted) StorageSet(ctx context.Context, items map[string]any) error {
	_, err := a.adapter.Call(ctx, CapStorageSet, items)
	return err
}

// QueryTabs returns the tabs matching q.
func (a *Adapted) QueryTabs(ctx context.Context, q TabQuery) ([]Tab, error) {
	res, err := a.adapter.Call(ctx, CapTabsQuery, q)
	if err != nil {
		return nil, err
	}
	switch v := res.(type) {
	case nil:
		return nil, nil
	case []Tab:
		return v, nil
	default:
		return nil, unexpected(CapTabsQuery, res)
	}
}

// ExecuteScript injects a function into a tab and returns per-frame results.
func (a *Adapted) ExecuteScript(ctx context.Context, inj ScriptInjection) ([]InjectionResult, error) {
	res, err := a.adapter.Call(ctx, CapExecuteScript, inj)
	if err != nil {
		return nil, err
	}
	switch v := res.(type) {
	case nil:
		return nil, nil
	case []InjectionResult:
		return v, nil
	default:
		return nil, unexpected(CapExecuteScript, res)
	}
}

func unexpected(c Capability, res any) error {
	return &Failure{Capability: c, Message: fmt.Sprintf("unexpected result type %T", res)}
}
