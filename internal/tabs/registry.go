package tabs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/tabs/sandbox"
)

// ErrCannotAccess is returned when injecting into a page without a document,
// such as a browser-internal page.
var ErrCannotAccess = errors.New("Cannot access contents of the page.")

type entry struct {
	tab host.Tab
	doc *sandbox.Document
}

// Registry holds tabs grouped in windows. One window is current.
type Registry struct {
	mu            sync.RWMutex
	tabs          map[int]*entry
	nextTab       int
	nextWindow    int
	currentWindow int

	loader *Loader
	pool   *sandbox.Pool
	logger *logging.Logger
}

// NewRegistry creates a registry with one empty current window.
func NewRegistry(loader *Loader, pool *sandbox.Pool, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		tabs:          make(map[int]*entry),
		nextTab:       1,
		nextWindow:    2,
		currentWindow: 1,
		loader:        loader,
		pool:          pool,
		logger:        logger.Named("tabs"),
	}
}

// NewWindow opens a window and makes it current.
func (r *Registry) NewWindow() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextWindow
	r.nextWindow++
	r.currentWindow = id
	return id
}

// Open creates an active tab in the current window. http and https pages
// are loaded; other schemes open without an accessible document.
func (r *Registry) Open(ctx context.Context, rawURL string) (host.Tab, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return host.Tab{}, fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return r.add(rawURL, "", nil), nil
	}
	if r.loader == nil {
		return host.Tab{}, errors.New("no page loader configured")
	}

	page, err := r.loader.Load(ctx, rawURL)
	if err != nil {
		return host.Tab{}, err
	}
	return r.add(page.URL, page.Title, page.Doc), nil
}

// OpenHTML creates an active tab showing markup as if loaded from rawURL.
func (r *Registry) OpenHTML(rawURL, markup string) (host.Tab, error) {
	doc, err := sandbox.ParseHTML(markup)
	if err != nil {
		return host.Tab{}, err
	}
	return r.add(rawURL, doc.Title(), doc), nil
}

func (r *Registry) add(rawURL, title string, doc *sandbox.Document) host.Tab {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.tabs {
		if e.tab.WindowID == r.currentWindow {
			e.tab.Active = false
		}
	}

	tab := host.Tab{
		ID:       r.nextTab,
		WindowID: r.currentWindow,
		URL:      rawURL,
		Title:    title,
		Active:   true,
	}
	r.nextTab++
	r.tabs[tab.ID] = &entry{tab: tab, doc: doc}

	r.logger.Debug("Tab opened", zap.Int("tab", tab.ID), zap.String("url", rawURL))
	return tab
}

// Activate makes a tab the active one of its window, and that window current.
func (r *Registry) Activate(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.tabs[id]
	if !ok {
		return noTab(id)
	}
	for _, e := range r.tabs {
		if e.tab.WindowID == target.tab.WindowID {
			e.tab.Active = e == target
		}
	}
	r.currentWindow = target.tab.WindowID
	return nil
}

// Close removes a tab.
func (r *Registry) Close(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tabs[id]; !ok {
		return noTab(id)
	}
	delete(r.tabs, id)
	return nil
}

// Query returns matching tabs ordered by id.
func (r *Registry) Query(q host.TabQuery) []host.Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]host.Tab, 0, len(r.tabs))
	for _, e := range r.tabs {
		if q.Active && !e.tab.Active {
			continue
		}
		if q.CurrentWindow && e.tab.WindowID != r.currentWindow {
			continue
		}
		out = append(out, e.tab)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Execute runs inj.Func against the target tab's document. The result holds
// the main frame only.
func (r *Registry) Execute(ctx context.Context, inj host.ScriptInjection) ([]host.InjectionResult, error) {
	r.mu.RLock()
	e, ok := r.tabs[inj.Target.TabID]
	r.mu.RUnlock()

	if !ok {
		return nil, noTab(inj.Target.TabID)
	}
	if e.doc == nil {
		return nil, ErrCannotAccess
	}
	if r.pool == nil {
		return nil, errors.New("no script sandbox configured")
	}

	res, err := r.pool.Call(ctx, inj.Func, e.doc)
	if err != nil {
		return nil, err
	}
	return []host.InjectionResult{{FrameID: 0, Result: res.Value}}, nil
}

func noTab(id int) error {
	return fmt.Errorf("No tab with id: %d.", id)
}
