// Package host normalizes extension host facilities behind one asynchronous
// contract.
//
// A host exposes named facilities (runtime messaging, local storage, tab query,
// script injection). Depending on the host flavor a facility may report through
// a callback plus a last-error slot, through a returned Handle, or by panicking
// when called with an argument shape it does not accept. Adapter.Call hides all
// three: it tries callback style, retries once handle style after a synchronous
// throw, and settles exactly once with either the result or a *Failure.
//
// Capabilities is the typed surface the rest of the module uses; Adapted
// implements it on top of an Adapter so callers never branch on calling
// convention.
package host
