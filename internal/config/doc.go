// Package config defines the format-agnostic configuration model: which
// completion strategies are enabled, the attribute schemas, and the
// process and pipeline definitions the builder instantiates. Loading from
// a concrete format (HCL) lives behind the Loader interface.
package config
