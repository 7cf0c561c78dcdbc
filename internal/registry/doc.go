// Package registry fetches the published versions of a package from an
// npm-compatible registry.
//
// Client performs a single GET per call, validates the payload against an
// embedded JSON Schema, drops pre-release versions and returns the rest in
// ascending order. Failures surface as NetworkError or ParseError without
// retries.
package registry
