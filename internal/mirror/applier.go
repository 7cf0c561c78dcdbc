package mirror

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"

	"github.com/temirov/pinmirror/internal/document"
	"github.com/temirov/pinmirror/internal/manifest"
	"github.com/temirov/pinmirror/internal/versions"
)

const (
	dependencyFieldSetErrorTemplateConstant = "unable to set %s in %s: %w"
	pinnedVersionInvalidTemplateConstant    = "pinned version in %s: %w"
)

// FileChange records the content of one file before and after a rewrite.
type FileChange struct {
	Path   string
	Before []byte
	After  []byte
}

// Changed reports whether the rewrite altered the file.
func (change FileChange) Changed() bool {
	return !bytes.Equal(change.Before, change.After)
}

// ApplyResult lists the files touched for a version, manifest first.
type ApplyResult struct {
	Version versions.Version
	Changes []FileChange
}

// Paths returns the touched paths relative to the repository root.
func (result ApplyResult) Paths() []string {
	paths := make([]string, 0, len(result.Changes))
	for _, change := range result.Changes {
		paths = append(paths, change.Path)
	}
	return paths
}

// Changed reports whether any touched file differs from its previous content.
func (result ApplyResult) Changed() bool {
	for _, change := range result.Changes {
		if change.Changed() {
			return true
		}
	}
	return false
}

// Applier rewrites the manifest and companion document for a target version.
type Applier struct {
	manifestStore    *manifest.Store
	documentRewriter *document.Rewriter
	dependencyField  string
	pinField         string
	pinValue         func(versions.Version) string
}

// NewApplier binds an applier to files of fileSystem, whose root is the repository root.
func NewApplier(fileSystem afero.Fs, options Options) *Applier {
	return &Applier{
		manifestStore:    manifest.NewStore(fileSystem, options.ManifestPath),
		documentRewriter: document.NewRewriter(fileSystem, options.DocumentPath),
		dependencyField:  options.DependencyField,
		pinField:         options.PinField,
		pinValue:         options.PinValue,
	}
}

// PinnedVersion reads and parses the version currently held by the dependency field.
func (applier *Applier) PinnedVersion() (versions.Version, error) {
	pinnedText, readError := applier.manifestStore.ReadString(applier.dependencyField)
	if readError != nil {
		return versions.Version{}, readError
	}
	pinnedVersion, parseError := versions.Parse(pinnedText)
	if parseError != nil {
		return versions.Version{}, fmt.Errorf(pinnedVersionInvalidTemplateConstant, applier.manifestStore.Path(), parseError)
	}
	return pinnedVersion, nil
}

// Apply sets the dependency and pin fields, then substitutes `rev:` references in the document.
// Applying the same version twice leaves both files byte-identical.
func (applier *Applier) Apply(version versions.Version) (ApplyResult, error) {
	manifestDocument, originalManifest, loadError := applier.manifestStore.Load()
	if loadError != nil {
		return ApplyResult{}, loadError
	}
	if _, fieldError := manifestDocument.String(applier.dependencyField); fieldError != nil {
		return ApplyResult{}, manifest.ParseError{Path: applier.manifestStore.Path(), Cause: fieldError}
	}

	if setError := manifestDocument.SetString(applier.dependencyField, version.String()); setError != nil {
		return ApplyResult{}, fmt.Errorf(dependencyFieldSetErrorTemplateConstant, applier.dependencyField, applier.manifestStore.Path(), setError)
	}
	if len(applier.pinField) > 0 {
		if setError := manifestDocument.SetString(applier.pinField, applier.pinValue(version)); setError != nil {
			return ApplyResult{}, fmt.Errorf(dependencyFieldSetErrorTemplateConstant, applier.pinField, applier.manifestStore.Path(), setError)
		}
	}

	updatedManifest, saveError := applier.manifestStore.Save(manifestDocument)
	if saveError != nil {
		return ApplyResult{}, saveError
	}

	documentResult, rewriteError := applier.documentRewriter.Apply(version.String())
	if rewriteError != nil {
		return ApplyResult{}, rewriteError
	}

	return ApplyResult{
		Version: version,
		Changes: []FileChange{
			{Path: applier.manifestStore.Path(), Before: originalManifest, After: updatedManifest},
			{Path: documentResult.Path, Before: documentResult.OriginalContent, After: documentResult.UpdatedContent},
		},
	}, nil
}
