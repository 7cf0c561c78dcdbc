package mirror_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/pinmirror/internal/mirror"
	"github.com/temirov/pinmirror/internal/versions"
)

const (
	testRepositoryPathConstant = "/workspace/mirror"
	testManifestPathConstant   = "package.json"
	testDocumentPathConstant   = "README.md"
	testManifestTemplate       = `{
  "name": "pnpm-mirror",
  "private": true,
  "dependencies": {
    "pnpm": "%s"
  },
  "packageManager": "pnpm@%s"
}
`
	testDocumentTemplate = "# pnpm mirror\n\n```yaml\n- repo: https://github.com/example/pnpm-mirror\n  rev: v%s\n  hooks:\n    - id: pnpm\n```\n"
)

func manifestContent(version string) string {
	return strings.ReplaceAll(testManifestTemplate, "%s", version)
}

func documentContent(version string) string {
	return strings.ReplaceAll(testDocumentTemplate, "%s", version)
}

func newRepositoryFileSystem(testInstance *testing.T, pinnedVersion string) afero.Fs {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testRepositoryPathConstant+"/"+testManifestPathConstant, []byte(manifestContent(pinnedVersion)), 0o644))
	require.NoError(testInstance, afero.WriteFile(fileSystem, testRepositoryPathConstant+"/"+testDocumentPathConstant, []byte(documentContent(pinnedVersion)), 0o644))
	return fileSystem
}

func readRepositoryFile(testInstance *testing.T, fileSystem afero.Fs, path string) string {
	testInstance.Helper()
	content, readError := afero.ReadFile(fileSystem, testRepositoryPathConstant+"/"+path)
	require.NoError(testInstance, readError)
	return string(content)
}

func testConfiguration() mirror.Configuration {
	configuration := mirror.DefaultConfiguration()
	configuration.RepositoryPath = testRepositoryPathConstant
	return configuration
}

func testOptions(testInstance *testing.T, mutate func(*mirror.Configuration)) mirror.Options {
	testInstance.Helper()
	configuration := testConfiguration()
	if mutate != nil {
		mutate(&configuration)
	}
	options, optionsError := configuration.Options()
	require.NoError(testInstance, optionsError)
	return options
}

type recordingFetcher struct {
	published         []string
	failure           error
	requestedPackages []string
}

func (fetcher *recordingFetcher) FetchVersions(_ context.Context, packageName string) ([]versions.Version, error) {
	fetcher.requestedPackages = append(fetcher.requestedPackages, packageName)
	if fetcher.failure != nil {
		return nil, fetcher.failure
	}
	parsed := make([]versions.Version, 0, len(fetcher.published))
	for _, versionText := range fetcher.published {
		parsed = append(parsed, versions.MustParse(versionText))
	}
	versions.Sort(parsed)
	return parsed, nil
}

type recordingRepositoryManager struct {
	unchanged        bool
	failingOperation string
	failure          error
	calls            []string
}

func (manager *recordingRepositoryManager) HasChanges(_ context.Context, repositoryPath string, paths []string) (bool, error) {
	if callError := manager.record("status", repositoryPath, strings.Join(paths, " ")); callError != nil {
		return false, callError
	}
	return !manager.unchanged, nil
}

func (manager *recordingRepositoryManager) StagePaths(_ context.Context, repositoryPath string, paths []string) error {
	return manager.record("add", repositoryPath, strings.Join(paths, " "))
}

func (manager *recordingRepositoryManager) Commit(_ context.Context, repositoryPath string, message string) error {
	return manager.record("commit", repositoryPath, message)
}

func (manager *recordingRepositoryManager) CreateTag(_ context.Context, repositoryPath string, tagName string) error {
	return manager.record("tag", repositoryPath, tagName)
}

func (manager *recordingRepositoryManager) record(operation string, repositoryPath string, argument string) error {
	if repositoryPath != testRepositoryPathConstant {
		return errors.New("unexpected repository path " + repositoryPath)
	}
	manager.calls = append(manager.calls, operation+" "+argument)
	if operation == manager.failingOperation {
		return manager.failure
	}
	return nil
}

type renderedFile struct {
	path   string
	before string
	after  string
}

type recordingPreviewer struct {
	renderedVersions []string
	renderedFiles    []renderedFile
}

func (previewer *recordingPreviewer) RenderVersion(version string) error {
	previewer.renderedVersions = append(previewer.renderedVersions, version)
	return nil
}

func (previewer *recordingPreviewer) RenderFile(path string, before []byte, after []byte) error {
	previewer.renderedFiles = append(previewer.renderedFiles, renderedFile{path: path, before: string(before), after: string(after)})
	return nil
}
