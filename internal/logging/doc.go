// Package logging configures slog for the daemon and CLI.
//
// Two output formats are supported: a human-oriented console format and JSON
// for machine consumption. Attribute helpers keep structured field names
// consistent across components; use the Field* constants rather than ad hoc
// keys so log queries stay stable.
package logging
