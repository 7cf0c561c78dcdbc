package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/pinmirror/internal/mirror"
	"github.com/temirov/pinmirror/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	readmeSnippetTemporaryPattern    = "readme-config-*.yaml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	defaultTempDirectoryRootConstant = ""
)

type readmeApplicationConfiguration struct {
	Common map[string]string `yaml:"common"`
	Tools  struct {
		Mirror map[string]any `yaml:"mirror"`
	} `yaml:"tools"`
}

type loadedApplicationConfiguration struct {
	Tools struct {
		Mirror mirror.Configuration `mapstructure:"mirror"`
	} `mapstructure:"tools"`
}

func readmeConfigurationSnippet(testInstance *testing.T) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}

func TestReadmeConfigurationParses(testInstance *testing.T) {
	snippetContent := readmeConfigurationSnippet(testInstance)

	var parsed readmeApplicationConfiguration
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &parsed))
	require.Contains(testInstance, utils.SupportedLogLevels(), parsed.Common["log_level"])
	require.Contains(testInstance, utils.SupportedLogFormats(), parsed.Common["log_format"])

	defaults := mirror.DefaultConfigurationValues("")
	for topLevelKey := range parsed.Tools.Mirror {
		matched := false
		for defaultKey := range defaults {
			if defaultKey == topLevelKey || strings.HasPrefix(defaultKey, topLevelKey+".") {
				matched = true
				break
			}
		}
		require.True(testInstance, matched, topLevelKey)
	}
}

func TestReadmeConfigurationLoadsIntoValidMirrorConfiguration(testInstance *testing.T) {
	snippetContent := readmeConfigurationSnippet(testInstance)

	temporaryFile, createError := os.CreateTemp(defaultTempDirectoryRootConstant, readmeSnippetTemporaryPattern)
	require.NoError(testInstance, createError)
	testInstance.Cleanup(func() {
		_ = os.Remove(temporaryFile.Name())
	})
	_, writeError := temporaryFile.WriteString(snippetContent)
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, temporaryFile.Close())

	loader := utils.NewConfigurationLoader("config", "yaml", "PINMIRROR_README_TEST", nil)
	var configuration loadedApplicationConfiguration
	_, loadError := loader.LoadConfiguration(temporaryFile.Name(), mirror.DefaultConfigurationValues("tools.mirror"), &configuration)
	require.NoError(testInstance, loadError)

	mirrorConfiguration := configuration.Tools.Mirror.Sanitize()
	require.NoError(testInstance, mirrorConfiguration.Validate())
	require.Equal(testInstance, "pnpm", mirrorConfiguration.PackageName)
	require.Equal(testInstance, "major >= 8", mirrorConfiguration.Constraint)
	require.Equal(testInstance, "30s", mirrorConfiguration.Registry.Timeout.String())
}
