// Package resolver hosts the path-resolution strategies that turn an
// attribute set into a concrete parameter value.
//
// A Resolver is a pure function of (process, parameter, attributes): it
// holds no state and must never mutate the attribute set. Returning
// cty.NilVal with a nil error means "this parameter is not
// attribute-derived"; the completion engine leaves such parameters
// untouched.
package resolver
