package host

import "context"

// Capability names a host facility.
type Capability string

const (
	CapSendMessage   Capability = "runtime.sendMessage"
	CapStorageGet    Capability = "storage.local.get"
	CapStorageSet    Capability = "storage.local.set"
	CapTabsQuery     Capability = "tabs.query"
	CapExecuteScript Capability = "scripting.executeScript"
)

// Callback receives a facility result in callback style. The host's
// last-error slot is only meaningful while the callback runs.
type Callback func(result any)

// Operation invokes a host facility. With a non-nil callback the facility
// reports through it and may return nil; with a nil callback it must return a
// Handle. A panic is treated as a synchronous throw.
type Operation func(args any, cb Callback) Handle

// Host is an extension execution context.
type Host interface {
	// Available reports whether the extension context is initialized.
	Available() bool
	// Facility returns the operation for a capability, or nil if the host
	// does not provide it. Work the operation starts may carry ctx's values
	// but is not canceled with it.
	Facility(ctx context.Context, c Capability) Operation
	// LastError returns the error slot set for the callback currently running.
	LastError() error
}

// Sender identifies the context a runtime message came from.
type Sender struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// Tab describes a browser tab.
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Active   bool   `json:"active"`
}

// TabQuery filters tabs.query results.
type TabQuery struct {
	Active        bool `json:"active"`
	CurrentWindow bool `json:"currentWindow"`
}

// ScriptTarget selects the tab a script is injected into.
type ScriptTarget struct {
	TabID int `json:"tabId"`
}

// ScriptInjection is the argument of scripting.executeScript. Func holds the
// source of a zero-argument function.
type ScriptInjection struct {
	Target ScriptTarget `json:"target"`
	Func   string       `json:"func"`
}

// InjectionResult is one frame's result of an injected function.
type InjectionResult struct {
	FrameID int `json:"frameId"`
	Result  any `json:"result"`
}
