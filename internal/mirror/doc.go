// Package mirror turns registry releases newer than a repository's pinned
// version into one commit and one tag per release.
//
// Service resolves the candidates, Applier rewrites the manifest and the
// companion document for each one, and the commit driver records the result
// through git. Dry runs route writes into an in-memory overlay and hand the
// changes to a DiffPreviewer instead. CommandBuilder exposes the sync and
// candidates Cobra commands.
package mirror
