// Package syncer drains the queue toward the save endpoint.
//
// A Worker pass scans eligible items (queued, retry-due, or stale-leased),
// takes the sending lease on each, and attempts delivery. The Dispatcher
// serializes passes: whatever mix of poll ticks, connectivity triggers, and
// manual requests arrives, at most one pass runs at a time and requests made
// while one is running are skipped, not queued. Failures reschedule the item
// with a fixed backoff ladder; nothing is ever given up on.
package syncer
