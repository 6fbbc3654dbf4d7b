// Package id generates identifiers used across the extension host.
//
// Request ids are prefixed ULIDs so log lines sort by time. Sender ids name a
// popup instance and are random UUIDs, matching how extension runtimes
// identify a messaging context.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RequestID identifies one runtime message round trip.
type RequestID string

// SenderID identifies the context a runtime message was sent from.
type SenderID string

const (
	RequestPrefix = "req"
	SenderPrefix  = "ctx"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewSenderID generates a new sender ID.
func NewSenderID() SenderID {
	return SenderID(SenderPrefix + "_" + uuid.NewString())
}

func (id RequestID) String() string { return string(id) }
func (id SenderID) String() string  { return string(id) }

// Timestamp extracts the creation time of a request id.
func (id RequestID) Timestamp() (time.Time, error) {
	raw := strings.TrimPrefix(string(id), RequestPrefix+"_")
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// ParseRequestID accepts a prefixed or bare ULID string.
func ParseRequestID(s string) (RequestID, error) {
	raw := strings.TrimPrefix(s, RequestPrefix+"_")
	if _, err := ulid.Parse(raw); err != nil {
		return "", fmt.Errorf("invalid request id %q: %w", s, err)
	}
	return RequestID(RequestPrefix + "_" + raw), nil
}

// ValidSender reports whether s looks like a sender id.
func ValidSender(s string) bool {
	raw, ok := strings.CutPrefix(s, SenderPrefix+"_")
	if !ok {
		return false
	}
	_, err := uuid.Parse(raw)
	return err == nil
}
