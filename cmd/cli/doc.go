// Package cli constructs the pinmirror command-line interface, wiring the
// Cobra command hierarchy, layered configuration, and structured logging
// around the mirror commands.
package cli
