// Package registry provides a generic, type-safe registry that remembers
// registration order. The unpack package uses it to hold extraction strategies,
// where registration order is probe priority.
package registry
