// Package api defines the transport-facing representations shared by the
// daemon's HTTP surface, the IPC socket, and the CLI. Conversions from
// internal queue records live here so every surface renders items the same
// way.
package api
