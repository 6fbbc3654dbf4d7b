/*
Package bridge carries summarization requests between the popup and the
privileged background context.

Requests form a closed set (SummarizeRequest, ListModelsRequest) that travels
as a flat wire message keyed by "action". On the privileged side a Listener
claims the actions it knows, answers "will respond" synchronously and later
delivers exactly one Response. On the calling side a Client sends through the
host's runtime.sendMessage capability and folds every delivery failure into a
failed Response, so callers see one shape whether the remote handler or the
transport failed.
*/
package bridge
