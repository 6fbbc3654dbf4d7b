// Package render turns model output into markup that is safe to insert into
// the popup.
//
// Sanitize is a denylist pass over a parsed fragment: it removes active
// elements, inline event handlers and script-protocol links. Renderer adds
// markdown conversion in front of it and, optionally, a bluemonday allowlist
// pass behind it.
package render
