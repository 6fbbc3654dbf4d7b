package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Policy selects the sanitization applied after markdown conversion.
type Policy string

const (
	// PolicyDenylist removes known-dangerous constructs only.
	PolicyDenylist Policy = "denylist"
	// PolicyUGC additionally applies the bluemonday UGC allowlist.
	PolicyUGC Policy = "ugc"
)

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyDenylist:
		return PolicyDenylist, nil
	case PolicyUGC:
		return PolicyUGC, nil
	default:
		return "", fmt.Errorf("unknown render policy %q", s)
	}
}

// Renderer converts model markdown to sanitized markup.
type Renderer struct {
	md  goldmark.Markdown
	ugc *bluemonday.Policy
}

// NewRenderer creates a renderer for policy.
func NewRenderer(policy Policy) *Renderer {
	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Raw HTML reaches Sanitize instead of being replaced by a comment.
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
	if policy == PolicyUGC {
		r.ugc = bluemonday.UGCPolicy()
	}
	return r
}

// Render converts markdown and sanitizes the result. If conversion fails the
// markdown is sanitized as-is.
func (r *Renderer) Render(markdown string) Markup {
	if markdown == "" {
		return ""
	}

	var buf bytes.Buffer
	out := markdown
	if err := r.md.Convert([]byte(markdown), &buf); err == nil {
		out = buf.String()
	}

	clean := Sanitize(out)
	if r.ugc != nil {
		clean = Markup(r.ugc.Sanitize(string(clean)))
	}
	return clean
}
