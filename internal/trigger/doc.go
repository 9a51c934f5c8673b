// Package trigger decides when the queue is worth draining.
//
// Two sources feed the dispatcher: a connectivity monitor that probes a
// well-known endpoint and fires on the offline-to-online edge, and a udev
// netlink listener that turns network interface events into immediate
// probe requests so a reconnect is noticed faster than the probe interval.
package trigger
