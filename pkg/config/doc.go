// Package config loads stager's configuration. Values come from the
// embedded defaults, then the user's config.toml, then STAGER_ environment
// variables, then explicit overrides such as command-line flags.
package config
