package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Origin schemes browsers give extension pages. The host part is the
// extension id, which differs per install.
var extensionSchemes = []string{"chrome-extension://", "moz-extension://"}

// CORSConfig controls which pages may post runtime messages.
type CORSConfig struct {
	// AllowOrigins lists origins verbatim; "*" allows any.
	AllowOrigins []string
	// ExtensionsOnly replaces AllowOrigins with a check for extension
	// origins.
	ExtensionsOnly bool
	MaxAge         time.Duration
}

// DefaultCORSConfig allows any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		MaxAge:       12 * time.Hour,
	}
}

// IsExtensionOrigin reports whether origin belongs to a browser extension.
func IsExtensionOrigin(origin string) bool {
	for _, scheme := range extensionSchemes {
		if rest, ok := strings.CutPrefix(origin, scheme); ok && rest != "" {
			return true
		}
	}
	return false
}

// CORS builds the cross-origin middleware for the runtime routes. Trace
// headers are exposed so a page can correlate its request with the
// background logs.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			"Content-Type", "Accept", "Accept-Encoding", "Origin",
			"X-Sender-ID", "X-Trace-ID", "X-Span-ID",
		},
		ExposeHeaders: []string{"X-Trace-ID", "X-Span-ID"},
		MaxAge:        cfg.MaxAge,
	}
	if cfg.ExtensionsOnly {
		c.AllowOriginFunc = IsExtensionOrigin
	} else {
		c.AllowOrigins = cfg.AllowOrigins
	}
	return cors.New(c)
}
