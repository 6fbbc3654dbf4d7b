package sandbox

import (
	"errors"
	"time"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Execution timeout
	AcquireTimeout   time.Duration // Wait for a free runtime
	MaxCallStackSize int
	EnableConsole    bool
}

// Result holds execution result
type Result struct {
	Value    any
	Console  []LogEntry
	Duration time.Duration
}

// LogEntry represents console output
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
}

// DefaultConfig returns the limits used for injected page functions.
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		AcquireTimeout:   5 * time.Second,
		MaxCallStackSize: 1024,
		EnableConsole:    true,
	}
}
