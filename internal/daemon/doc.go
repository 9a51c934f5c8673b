// Package daemon wires the queue store, sync worker, trigger sources, and
// notification relay into one long-running background process.
//
// A file lock enforces single-instance execution. The daemon exposes its
// operations to the CLI over the IPC socket and, when configured, a small
// authenticated HTTP API with Prometheus metrics.
package daemon
