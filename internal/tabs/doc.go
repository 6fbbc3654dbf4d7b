// Package tabs keeps the headless host's tabs and windows and runs injected
// functions against their loaded documents.
package tabs
