package document

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/afero"
)

const (
	revisionReferencePatternConstant   = `rev: v\d+\.\d+\.\d+`
	revisionReferenceTemplateConstant  = "rev: v%s"
	documentReadErrorTemplateConstant  = "unable to read document %s: %w"
	documentWriteErrorTemplateConstant = "unable to write document %s: %w"
	defaultFilePermissionsConstant     = os.FileMode(0o644)
)

var revisionReferencePattern = regexp.MustCompile(revisionReferencePatternConstant)

// Rewrite replaces every `rev: v<major>.<minor>.<patch>` reference with the target version.
// The returned count reports how many references matched.
func Rewrite(content []byte, version string) ([]byte, int) {
	matchCount := len(revisionReferencePattern.FindAllIndex(content, -1))
	if matchCount == 0 {
		return content, 0
	}
	replacement := []byte(fmt.Sprintf(revisionReferenceTemplateConstant, version))
	return revisionReferencePattern.ReplaceAllLiteral(content, replacement), matchCount
}

// FileResult captures a document rewrite.
type FileResult struct {
	Path            string
	OriginalContent []byte
	UpdatedContent  []byte
	ReferenceCount  int
}

// Rewriter applies Rewrite to a file on an afero filesystem.
type Rewriter struct {
	fileSystem afero.Fs
	path       string
}

// NewRewriter binds a rewriter to the document path on the filesystem.
func NewRewriter(fileSystem afero.Fs, path string) *Rewriter {
	return &Rewriter{fileSystem: fileSystem, path: path}
}

// Path returns the document path relative to the filesystem root.
func (rewriter *Rewriter) Path() string {
	return rewriter.path
}

// Apply rewrites the document in place for the version.
func (rewriter *Rewriter) Apply(version string) (FileResult, error) {
	originalContent, readError := afero.ReadFile(rewriter.fileSystem, rewriter.path)
	if readError != nil {
		return FileResult{}, fmt.Errorf(documentReadErrorTemplateConstant, rewriter.path, readError)
	}

	updatedContent, referenceCount := Rewrite(originalContent, version)

	permissions := defaultFilePermissionsConstant
	if fileInfo, statError := rewriter.fileSystem.Stat(rewriter.path); statError == nil {
		permissions = fileInfo.Mode().Perm()
	}
	if writeError := afero.WriteFile(rewriter.fileSystem, rewriter.path, updatedContent, permissions); writeError != nil {
		return FileResult{}, fmt.Errorf(documentWriteErrorTemplateConstant, rewriter.path, writeError)
	}

	return FileResult{
		Path:            rewriter.path,
		OriginalContent: originalContent,
		UpdatedContent:  updatedContent,
		ReferenceCount:  referenceCount,
	}, nil
}
