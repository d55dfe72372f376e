// Package hcl loads configuration from .hcl files: it resolves the given
// paths to files, decodes them into the block structures of
// internal/schema, merges them, and translates the result into the
// format-agnostic model of internal/config.
package hcl
