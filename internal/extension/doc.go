// Package extension is a headless extension host.
//
// A Host exposes runtime messaging, storage.local, tabs.query and
// scripting.executeScript as host.Operation values in one of two calling
// conventions:
//
//	chrome   callback first; failures are reported through LastError while
//	         the callback runs. Called without a callback it returns a Handle.
//	firefox  handle only; passing a callback throws.
//
// Runtime messages go either to in-process listeners (LocalRuntime) or to a
// background service over HTTP (RemoteRuntime).
package extension
