// Package relay fans delivery events out to interested listeners.
//
// The sync worker publishes one event per finished delivery attempt; the
// daemon's watch surface and the push notifier subscribe. Delivery is best
// effort: a slow subscriber drops events rather than stalling the worker,
// and a short replay ring lets late subscribers catch recent history.
package relay
