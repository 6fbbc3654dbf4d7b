package tabs

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/tabs/sandbox"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// Page is a fetched and parsed document.
type Page struct {
	URL   string
	Title string
	Doc   *sandbox.Document
}

// Loader fetches pages over HTTP.
type Loader struct {
	client *resty.Client
	logger *logging.Logger
}

// NewLoader creates a loader whose requests time out after timeout.
func NewLoader(timeout time.Duration, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &Loader{client: client, logger: logger.Named("loader")}
}

// Load fetches rawURL and parses it.
func (l *Loader) Load(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := l.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s (url: %s)", status, resp.Status(), rawURL)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body from %s", rawURL)
	}

	doc, err := Parse(body, resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rawURL, err)
	}

	l.logger.Debug("Page loaded",
		zap.String("url", rawURL),
		zap.Int("status", status),
		zap.Int("bytes", len(body)),
	)
	return &Page{URL: rawURL, Title: doc.Title(), Doc: doc}, nil
}

// Parse decodes body into a document. The declared Content-Type charset is
// used when present; otherwise the charset is detected. Plain text is wrapped
// so that it becomes the body's text.
func Parse(body []byte, contentType string) (*sandbox.Document, error) {
	detected := mimetype.Detect(body)

	mediaType, params, _ := mime.ParseMediaType(contentType)
	if mediaType == "" {
		mediaType, params, _ = mime.ParseMediaType(detected.String())
	}

	label := params["charset"]
	if label == "" {
		label = detectCharset(body)
	}

	text, err := decode(body, label)
	if err != nil {
		return nil, err
	}

	switch {
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return sandbox.ParseHTML(text)
	case mediaType == "text/plain", detected.Is("text/plain"):
		return sandbox.ParseHTML("<html><body><pre>" + html.EscapeString(text) + "</pre></body></html>")
	default:
		return nil, fmt.Errorf("unsupported content type %s", mediaType)
	}
}

func detectCharset(data []byte) string {
	result, err := chardet.NewHtmlDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func decode(body []byte, label string) (string, error) {
	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		// Unknown label: assume UTF-8.
		return string(body), nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", label, err)
	}
	return string(out), nil
}
