// Package manifest edits the version fields of a JSON package manifest.
//
// Documents keep their key order and number literals across a decode and
// encode cycle so rewriting a single field produces a minimal diff.
package manifest
