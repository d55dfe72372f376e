// Package registry provides the name-keyed lookup that selects completion
// strategy implementations at runtime.
//
// Implementations are stored per category ("schema", "process_completion",
// "path_completion") under the name the configuration refers to them by.
// A lookup miss is reported as a *NotFoundError; callers treat it as "use
// the default implementation", never as fatal. Registering the same
// (category, name) pair twice is a programmer error and panics during
// startup.
package registry
