// Package sandbox evaluates injected page functions against a parsed document.
//
// A Runtime is a goja VM with a minimal browser surface: a read-only
// document (title, body.innerText, querySelector/querySelectorAll) and a
// console whose output is captured. Module loaders and timers are removed.
//
// Runtimes are not safe for concurrent use; a Pool hands them out one at a
// time and resets each on release.
//
//	pool, _ := sandbox.NewPool(sandbox.DefaultConfig(), 4)
//	defer pool.Close()
//	res, err := pool.Call(ctx, "() => document.body.innerText", doc)
package sandbox
