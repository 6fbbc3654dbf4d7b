package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markup is sanitized HTML.
type Markup string

// String returns the markup as a string.
func (m Markup) String() string { return string(m) }

var blockedElements = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"link":   true,
	"meta":   true,
	"base":   true,

	// Raw-text elements serialize their content unescaped.
	"noscript":  true,
	"noembed":   true,
	"noframes":  true,
	"xmp":       true,
	"plaintext": true,
}

// maxPasses bounds the re-sanitizing done until the output parses back to
// itself.
const maxPasses = 4

var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"xlink:href": true,
}

// Sanitize parses raw as the content of a detached template element and
// returns it with blocked elements, on* attributes and javascript: URLs
// removed. It never fails; input that cannot be parsed comes back escaped.
//
// Serialized HTML does not always parse back into the tree it came from, so
// the result is sanitized again until it is stable.
func Sanitize(raw string) Markup {
	out := sanitizeOnce(raw)
	for range maxPasses - 1 {
		next := sanitizeOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return Markup(out)
}

func sanitizeOnce(raw string) string {
	nodes, err := html.ParseFragment(strings.NewReader(raw), templateContext())
	if err != nil {
		return html.EscapeString(raw)
	}

	var sb strings.Builder
	for _, n := range nodes {
		if blocked(n) {
			continue
		}
		clean(n, false)
		if err := html.Render(&sb, n); err != nil {
			return html.EscapeString(raw)
		}
	}
	return sb.String()
}

func templateContext() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "template",
		DataAtom: atom.Template,
	}
}

// clean strips n's subtree in place. A form inside another form is
// replaced by its children: the parser never produces one from markup, so
// rendering it would reparse differently.
func clean(n *html.Node, inForm bool) {
	if n.Type == html.ElementNode {
		n.Attr = cleanAttributes(n.Attr)
	}
	inForm = inForm || isForm(n)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case blocked(c):
			n.RemoveChild(c)
		case inForm && isForm(c):
			next = unwrap(c)
		default:
			clean(c, inForm)
		}
		c = next
	}
}

// unwrap moves c's children in front of c, removes c and returns the node
// to visit next.
func unwrap(c *html.Node) *html.Node {
	parent := c.Parent
	first := c.FirstChild
	for gc := c.FirstChild; gc != nil; gc = c.FirstChild {
		c.RemoveChild(gc)
		parent.InsertBefore(gc, c)
	}
	next := c.NextSibling
	parent.RemoveChild(c)
	if first != nil {
		return first
	}
	return next
}

func isForm(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Namespace == "" && strings.EqualFold(n.Data, "form")
}

func blocked(n *html.Node) bool {
	return n.Type == html.ElementNode && blockedElements[strings.ToLower(n.Data)]
}

func cleanAttributes(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		name := strings.ToLower(a.Key)
		if a.Namespace != "" {
			name = strings.ToLower(a.Namespace) + ":" + name
		}

		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if urlAttributes[name] && scriptURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func scriptURL(v string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "javascript:")
}
