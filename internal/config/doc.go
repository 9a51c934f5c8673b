// Package config loads and validates the linkq TOML configuration.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/linkq/config.toml, then a linkq.toml in the working directory.
// Missing files fall back to defaults so the daemon can run with nothing but
// an endpoint URL supplied. All path fields are tilde-expanded and made
// absolute during Load.
package config
