package manifest_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/pinmirror/internal/manifest"
)

const (
	testManifestPathConstant    = "package.json"
	testManifestContentConstant = `{
  "name": "@pnpm/mirror",
  "version": "1.0.0",
  "private": true,
  "scripts": {
    "test": "node test.js && echo <ok>"
  },
  "dependencies": {
    "pnpm": "8.0.0"
  },
  "files": [],
  "engines": {},
  "weight": 1.50
}
`
)

func TestDecodeEncodeRoundTripPreservesContent(testInstance *testing.T) {
	document, decodeError := manifest.Decode([]byte(testManifestContentConstant))
	require.NoError(testInstance, decodeError)

	encoded, encodeError := document.Encode()
	require.NoError(testInstance, encodeError)
	require.Equal(testInstance, testManifestContentConstant, string(encoded))
	require.Equal(testInstance, []string{"name", "version", "private", "scripts", "dependencies", "files", "engines", "weight"}, document.Root().Keys())
}

func TestSetStringUpdatesNestedFieldInPlace(testInstance *testing.T) {
	document, decodeError := manifest.Decode([]byte(testManifestContentConstant))
	require.NoError(testInstance, decodeError)

	require.NoError(testInstance, document.SetString("dependencies.pnpm", "8.1.0"))
	require.NoError(testInstance, document.SetString("packageManager", "pnpm@8.1.0"))

	pinnedVersion, readError := document.String("dependencies.pnpm")
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "8.1.0", pinnedVersion)

	encoded, encodeError := document.Encode()
	require.NoError(testInstance, encodeError)
	require.Contains(testInstance, string(encoded), "  \"dependencies\": {\n    \"pnpm\": \"8.1.0\"\n  },")
	require.Contains(testInstance, string(encoded), "  \"weight\": 1.50,\n  \"packageManager\": \"pnpm@8.1.0\"\n}\n")
}

func TestSetStringCreatesIntermediateObjects(testInstance *testing.T) {
	document, decodeError := manifest.Decode([]byte(`{}`))
	require.NoError(testInstance, decodeError)

	require.NoError(testInstance, document.SetString("dependencies.pnpm", "9.0.0"))

	encoded, encodeError := document.Encode()
	require.NoError(testInstance, encodeError)
	require.Equal(testInstance, "{\n  \"dependencies\": {\n    \"pnpm\": \"9.0.0\"\n  }\n}\n", string(encoded))
}

func TestFieldAccessErrors(testInstance *testing.T) {
	document, decodeError := manifest.Decode([]byte(testManifestContentConstant))
	require.NoError(testInstance, decodeError)

	testCases := []struct {
		name      string
		fieldPath string
	}{
		{name: "missing_field", fieldPath: "devDependencies.pnpm"},
		{name: "not_a_string", fieldPath: "private"},
		{name: "through_scalar", fieldPath: "version.major"},
		{name: "empty_path", fieldPath: ""},
		{name: "empty_segment", fieldPath: "dependencies..pnpm"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, readError := document.String(testCase.fieldPath)
			require.Error(testInstance, readError)
		})
	}

	require.Error(testInstance, document.SetString("version.major", "1"))
}

func TestDecodeRejectsNonObjects(testInstance *testing.T) {
	for _, content := range []string{`[]`, `"text"`, `{"a":1} {"b":2}`, `{"a":`} {
		testInstance.Run(content, func(testInstance *testing.T) {
			_, decodeError := manifest.Decode([]byte(content))
			require.Error(testInstance, decodeError)
		})
	}
}

func TestStoreLoadAndSave(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testManifestPathConstant, []byte(testManifestContentConstant), 0o644))

	store := manifest.NewStore(fileSystem, testManifestPathConstant)

	pinnedVersion, readError := store.ReadString("dependencies.pnpm")
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "8.0.0", pinnedVersion)

	document, originalContent, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, testManifestContentConstant, string(originalContent))

	writtenContent, saveError := store.Save(document)
	require.NoError(testInstance, saveError)
	require.Equal(testInstance, testManifestContentConstant, string(writtenContent))

	_, missingFieldError := store.ReadString("dependencies.npm")
	require.IsType(testInstance, manifest.ParseError{}, missingFieldError)
}

func TestStoreReportsMalformedManifest(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testManifestPathConstant, []byte(`{"dependencies":`), 0o644))

	_, _, loadError := manifest.NewStore(fileSystem, testManifestPathConstant).Load()
	require.Error(testInstance, loadError)
	require.IsType(testInstance, manifest.ParseError{}, loadError)
}
