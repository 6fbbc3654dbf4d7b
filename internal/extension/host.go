package extension

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/shared/id"
	"github.com/GriffinCanCode/pagebrief/internal/storage"
	"github.com/GriffinCanCode/pagebrief/internal/tabs"
)

// Flavor selects the facility calling convention.
type Flavor string

const (
	FlavorChrome  Flavor = "chrome"
	FlavorFirefox Flavor = "firefox"
)

// ParseFlavor maps a configured name to a Flavor.
func ParseFlavor(s string) (Flavor, error) {
	switch Flavor(strings.ToLower(strings.TrimSpace(s))) {
	case FlavorChrome, "":
		return FlavorChrome, nil
	case FlavorFirefox:
		return FlavorFirefox, nil
	default:
		return "", fmt.Errorf("unknown host flavor %q", s)
	}
}

// Options configures a Host. Facilities whose backing is nil are not
// provided.
type Options struct {
	Flavor  Flavor
	Runtime Runtime
	Store   storage.Store
	Tabs    *tabs.Registry
	// Origin is reported as the sender URL of runtime messages.
	Origin string
	Logger *logging.Logger
}

// Host implements host.Host.
type Host struct {
	flavor  Flavor
	runtime Runtime
	store   storage.Store
	tabs    *tabs.Registry
	sender  host.Sender
	logger  *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool

	// Callbacks are delivered one at a time so LastError refers to the
	// running one.
	cbMu    sync.Mutex
	errMu   sync.RWMutex
	lastErr error
}

// New creates an initialized host.
func New(opts Options) *Host {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Flavor == "" {
		opts.Flavor = FlavorChrome
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		flavor:  opts.Flavor,
		runtime: opts.Runtime,
		store:   opts.Store,
		tabs:    opts.Tabs,
		sender:  host.Sender{ID: id.NewSenderID().String(), URL: opts.Origin},
		logger:  opts.Logger.Named("extension"),
		ctx:     ctx,
		cancel:  cancel,
	}
	h.ready.Store(true)
	return h
}

// Sender returns the identity this host sends runtime messages as.
func (h *Host) Sender() host.Sender {
	return h.sender
}

// Flavor returns the calling convention.
func (h *Host) Flavor() Flavor {
	return h.flavor
}

// Shutdown invalidates the context. Pending calls are cancelled and the host
// reports itself unavailable.
func (h *Host) Shutdown() {
	h.ready.Store(false)
	h.cancel()
}

// Available implements host.Host.
func (h *Host) Available() bool {
	return h.ready.Load()
}

// LastError implements host.Host.
func (h *Host) LastError() error {
	h.errMu.RLock()
	defer h.errMu.RUnlock()
	return h.lastErr
}

func (h *Host) setLastError(err error) {
	h.errMu.Lock()
	h.lastErr = err
	h.errMu.Unlock()
}

// Facility implements host.Host.
func (h *Host) Facility(ctx context.Context, c host.Capability) host.Operation {
	switch c {
	case host.CapSendMessage:
		if h.runtime == nil {
			return nil
		}
		return h.operation(ctx, c, h.sendMessage)
	case host.CapStorageGet:
		if h.store == nil {
			return nil
		}
		return h.operation(ctx, c, h.storageGet)
	case host.CapStorageSet:
		if h.store == nil {
			return nil
		}
		return h.operation(ctx, c, h.storageSet)
	case host.CapTabsQuery:
		if h.tabs == nil {
			return nil
		}
		return h.operation(ctx, c, h.tabsQuery)
	case host.CapExecuteScript:
		if h.tabs == nil {
			return nil
		}
		return h.operation(ctx, c, h.executeScript)
	default:
		return nil
	}
}

type call func(ctx context.Context, args any) (any, error)

// operation wraps fn in the host's calling convention. fn runs
// asynchronously, after the operation has returned, with the caller's
// context values. It is canceled only by Shutdown.
func (h *Host) operation(caller context.Context, c host.Capability, fn call) host.Operation {
	return func(args any, cb host.Callback) host.Handle {
		if cb != nil && h.flavor == FlavorFirefox {
			panic(fmt.Sprintf("Incorrect argument types for %s.", c))
		}

		var future *host.Future
		if cb == nil {
			future = host.NewFuture()
		}

		go func() {
			ctx, cancel := context.WithCancel(context.WithoutCancel(caller))
			stop := context.AfterFunc(h.ctx, cancel)
			defer func() {
				stop()
				cancel()
			}()

			v, err := fn(ctx, args)
			if err != nil {
				h.logger.Debug("Facility failed", zap.String("capability", string(c)), zap.Error(err))
			}

			if future != nil {
				if err != nil {
					future.Reject(err)
				} else {
					future.Resolve(v)
				}
				return
			}

			h.cbMu.Lock()
			defer h.cbMu.Unlock()
			h.setLastError(err)
			if err != nil {
				v = nil
			}
			cb(v)
			h.setLastError(nil)
		}()

		if future == nil {
			return nil
		}
		return future
	}
}

func (h *Host) sendMessage(ctx context.Context, args any) (any, error) {
	return h.runtime.Deliver(ctx, h.sender, args)
}

func (h *Host) storageGet(ctx context.Context, args any) (any, error) {
	var keys []string
	switch v := args.(type) {
	case nil:
	case string:
		keys = []string{v}
	case []string:
		keys = v
	default:
		return nil, invalidArgs(host.CapStorageGet, args)
	}
	return h.store.Get(ctx, keys)
}

func (h *Host) storageSet(ctx context.Context, args any) (any, error) {
	items, ok := args.(map[string]any)
	if !ok {
		return nil, invalidArgs(host.CapStorageSet, args)
	}
	return nil, h.store.Set(ctx, items)
}

func (h *Host) tabsQuery(_ context.Context, args any) (any, error) {
	q, ok := args.(host.TabQuery)
	if !ok {
		return nil, invalidArgs(host.CapTabsQuery, args)
	}
	return h.tabs.Query(q), nil
}

func (h *Host) executeScript(ctx context.Context, args any) (any, error) {
	inj, ok := args.(host.ScriptInjection)
	if !ok {
		return nil, invalidArgs(host.CapExecuteScript, args)
	}
	return h.tabs.Execute(ctx, inj)
}

func invalidArgs(c host.Capability, args any) error {
	return fmt.Errorf("Invalid arguments for %s: %T", c, args)
}
