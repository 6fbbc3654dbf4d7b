// Package popup drives the UI context: view selection, setup and settings
// forms, theme and size, and the summarize flow from tab extraction to
// sanitized markup. Every failure ends up as an inline message; see
// InlineMessage.
package popup
