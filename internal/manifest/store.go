package manifest

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

const (
	manifestReadErrorTemplateConstant  = "unable to read manifest %s: %w"
	manifestWriteErrorTemplateConstant = "unable to write manifest %s: %w"
	parseErrorTemplateConstant         = "manifest %s is malformed: %v"
	defaultFilePermissionsConstant     = os.FileMode(0o644)
)

// ParseError reports manifest content that is not a JSON object or lacks a required field.
type ParseError struct {
	Path  string
	Cause error
}

// Error describes the malformed manifest.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Path, parseError.Cause)
}

// Unwrap exposes the decoding failure.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}

// Store reads and writes a manifest file on an afero filesystem.
type Store struct {
	fileSystem afero.Fs
	path       string
}

// NewStore binds a store to the manifest path on the filesystem.
func NewStore(fileSystem afero.Fs, path string) *Store {
	return &Store{fileSystem: fileSystem, path: path}
}

// Path returns the manifest path relative to the filesystem root.
func (store *Store) Path() string {
	return store.path
}

// Load reads and decodes the manifest, returning the raw bytes alongside the document.
func (store *Store) Load() (*Document, []byte, error) {
	content, readError := afero.ReadFile(store.fileSystem, store.path)
	if readError != nil {
		return nil, nil, fmt.Errorf(manifestReadErrorTemplateConstant, store.path, readError)
	}

	document, decodeError := Decode(content)
	if decodeError != nil {
		return nil, nil, ParseError{Path: store.path, Cause: decodeError}
	}

	return document, content, nil
}

// ReadString loads the manifest and reads the string at the field path.
func (store *Store) ReadString(fieldPath string) (string, error) {
	document, _, loadError := store.Load()
	if loadError != nil {
		return "", loadError
	}

	value, fieldError := document.String(fieldPath)
	if fieldError != nil {
		return "", ParseError{Path: store.path, Cause: fieldError}
	}

	return value, nil
}

// Save encodes the document and overwrites the manifest, returning the written bytes.
func (store *Store) Save(document *Document) ([]byte, error) {
	content, encodeError := document.Encode()
	if encodeError != nil {
		return nil, fmt.Errorf(manifestWriteErrorTemplateConstant, store.path, encodeError)
	}

	if writeError := afero.WriteFile(store.fileSystem, store.path, content, store.permissions()); writeError != nil {
		return nil, fmt.Errorf(manifestWriteErrorTemplateConstant, store.path, writeError)
	}

	return content, nil
}

func (store *Store) permissions() os.FileMode {
	fileInfo, statError := store.fileSystem.Stat(store.path)
	if statError != nil {
		return defaultFilePermissionsConstant
	}
	return fileInfo.Mode().Perm()
}
