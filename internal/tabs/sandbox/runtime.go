package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
)

// Runtime wraps goja VM with security controls
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

// Call evaluates the source of a zero-argument function and returns what it
// returns. Promises are not awaited.
func (r *Runtime) Call(ctx context.Context, fn string, doc *Document) (*Result, error) {
	fn = strings.TrimSpace(fn)
	if fn == "" {
		return nil, fmt.Errorf("empty function")
	}
	return r.Execute(ctx, "("+fn+")()", doc)
}

// Execute runs a script with timeout and returns its completion value.
func (r *Runtime) Execute(ctx context.Context, script string, doc *Document) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, fmt.Errorf("runtime closed")
	}

	start := time.Now()

	timeout := r.config.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	done := make(chan struct{})
	var watcher sync.WaitGroup
	watcher.Add(1)
	vm := r.vm
	go func() {
		defer watcher.Done()
		select {
		case <-timer.C:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	r.consoleMu.Lock()
	r.console = nil
	r.consoleMu.Unlock()

	if doc != nil {
		r.injectDOM(doc)
	} else {
		r.vm.Set("document", goja.Undefined())
	}

	val, err := r.vm.RunString(script)
	close(done)
	watcher.Wait()
	r.vm.ClearInterrupt()
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}

	r.consoleMu.Lock()
	console := append([]LogEntry(nil), r.console...)
	r.consoleMu.Unlock()

	return &Result{
		Value:    exportValue(val),
		Console:  console,
		Duration: time.Since(start),
	}, nil
}

// setupGlobals removes host escape hatches and installs console.
func (r *Runtime) setupGlobals() {
	r.vm.Set("require", goja.Undefined())
	r.vm.Set("process", goja.Undefined())
	r.vm.Set("module", goja.Undefined())
	r.vm.Set("exports", goja.Undefined())

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info"} {
			console.Set(level, r.makeConsoleFunc(level))
		}
		r.vm.Set("console", console)
	}

	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	r.vm.Set("setTimeout", noop)
	r.vm.Set("setInterval", noop)
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// injectDOM exposes a read-only document proxy.
func (r *Runtime) injectDOM(doc *Document) {
	document := r.vm.NewObject()
	document.Set("title", doc.Title())

	body := doc.Query("body").First()
	if body.Length() > 0 {
		document.Set("body", r.elementProxy(body))
	} else {
		document.Set("body", goja.Null())
	}

	document.Set("querySelector", func(selector string) goja.Value {
		sel := doc.Query(selector).First()
		if sel.Length() == 0 {
			return goja.Null()
		}
		return r.vm.ToValue(r.elementProxy(sel))
	})
	document.Set("querySelectorAll", func(selector string) []map[string]any {
		out := []map[string]any{}
		doc.Query(selector).Each(func(_ int, s *goquery.Selection) {
			out = append(out, r.elementProxy(s))
		})
		return out
	})
	document.Set("getElementById", func(id string) goja.Value {
		sel := doc.Query("[id='" + strings.ReplaceAll(id, "'", "\\'") + "']").First()
		if sel.Length() == 0 {
			return goja.Null()
		}
		return r.vm.ToValue(r.elementProxy(sel))
	})

	r.vm.Set("document", document)
}

func (r *Runtime) elementProxy(sel *goquery.Selection) map[string]any {
	id, _ := sel.Attr("id")
	class, _ := sel.Attr("class")
	return map[string]any{
		"tagName":     strings.ToUpper(goquery.NodeName(sel)),
		"id":          id,
		"className":   class,
		"textContent": sel.Text(),
		"innerText":   innerText(sel),
		"getAttribute": func(name string) goja.Value {
			v, ok := sel.Attr(name)
			if !ok {
				return goja.Null()
			}
			return r.vm.ToValue(v)
		},
	}
}

func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset clears the runtime state
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reset()
}

func (r *Runtime) reset() error {
	r.vm = goja.New()
	if r.config.MaxCallStackSize > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}
	r.console = nil
	r.setupGlobals()
	return nil
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	return nil
}
