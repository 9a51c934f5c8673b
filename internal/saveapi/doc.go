// Package saveapi is the client for the remote save endpoint.
//
// The endpoint is an external collaborator: one authenticated POST per
// bookmark, judged successful only when the transport succeeds and the
// response body says so. Every failure mode (transport error, timeout,
// non-2xx, success=false, malformed body) is recoverable from the queue's
// point of view; the worker schedules a retry rather than giving up.
package saveapi
