package mirror

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/temirov/pinmirror/internal/registry"
	pathutils "github.com/temirov/pinmirror/internal/utils/path"
	"github.com/temirov/pinmirror/internal/versions"
)

var mirrorConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	defaultRepositoryPathConstant        = "."
	defaultPackageNameConstant           = "pnpm"
	defaultManifestPathConstant          = "package.json"
	defaultDependencyFieldConstant       = "dependencies.pnpm"
	defaultPinFieldConstant              = "packageManager"
	defaultDocumentPathConstant          = "README.md"
	defaultCommitMessageTemplateConstant = "Mirror: %s"
	defaultTagPrefixConstant             = "v"
	versionPlaceholderConstant           = "%s"
	configurationKeySeparatorConstant    = "."
	parentDirectoryConstant              = ".."

	repositoryKeyConstant              = "repository"
	packageKeyConstant                 = "package"
	registryBaseURLKeyConstant         = "registry.base_url"
	registryTimeoutKeyConstant         = "registry.timeout"
	manifestPathKeyConstant            = "manifest.path"
	manifestDependencyFieldKeyConstant = "manifest.dependency_field"
	manifestPinFieldKeyConstant        = "manifest.pin_field"
	documentPathKeyConstant            = "document.path"
	commitMessageKeyConstant           = "commit_message"
	tagPrefixKeyConstant               = "tag_prefix"
	constraintKeyConstant              = "constraint"
	dryRunKeyConstant                  = "dry_run"

	packageNameMissingMessageConstant      = "package must be provided"
	registryBaseURLInvalidTemplateConstant = "registry.base_url %q is not an absolute URL"
	registryTimeoutInvalidTemplateConstant = "registry.timeout must not be negative, got %s"
	fieldMissingTemplateConstant           = "%s must be provided"
	relativePathRequiredTemplateConstant   = "%s %q must be relative to the repository and stay inside it"
	constraintInvalidTemplateConstant      = "constraint is invalid: %w"
	configurationInvalidTemplateConstant   = "invalid mirror configuration: %w"
	repositoryResolveErrorTemplateConstant = "unable to resolve repository path %q: %w"
)

// Configuration describes a mirror run as read from configuration files and flags.
type Configuration struct {
	RepositoryPath        string                `mapstructure:"repository"`
	PackageName           string                `mapstructure:"package"`
	Registry              RegistryConfiguration `mapstructure:"registry"`
	Manifest              ManifestConfiguration `mapstructure:"manifest"`
	Document              DocumentConfiguration `mapstructure:"document"`
	CommitMessageTemplate string                `mapstructure:"commit_message"`
	TagPrefix             string                `mapstructure:"tag_prefix"`
	Constraint            string                `mapstructure:"constraint"`
	DryRun                bool                  `mapstructure:"dry_run"`
}

// RegistryConfiguration locates the package registry.
type RegistryConfiguration struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ManifestConfiguration names the manifest file and the fields rewritten in it.
type ManifestConfiguration struct {
	Path            string `mapstructure:"path"`
	DependencyField string `mapstructure:"dependency_field"`
	PinField        string `mapstructure:"pin_field"`
}

// DocumentConfiguration names the companion document carrying `rev:` references.
type DocumentConfiguration struct {
	Path string `mapstructure:"path"`
}

// DefaultConfiguration mirrors pnpm into package.json and README.md of the current directory.
func DefaultConfiguration() Configuration {
	return Configuration{
		RepositoryPath: defaultRepositoryPathConstant,
		PackageName:    defaultPackageNameConstant,
		Registry: RegistryConfiguration{
			BaseURL: registry.DefaultBaseURLConstant,
			Timeout: registry.DefaultTimeoutConstant,
		},
		Manifest: ManifestConfiguration{
			Path:            defaultManifestPathConstant,
			DependencyField: defaultDependencyFieldConstant,
			PinField:        defaultPinFieldConstant,
		},
		Document:              DocumentConfiguration{Path: defaultDocumentPathConstant},
		CommitMessageTemplate: defaultCommitMessageTemplateConstant,
		TagPrefix:             defaultTagPrefixConstant,
	}
}

// DefaultConfigurationValues flattens DefaultConfiguration into Viper keys under the prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	values := map[string]any{
		repositoryKeyConstant:              defaults.RepositoryPath,
		packageKeyConstant:                 defaults.PackageName,
		registryBaseURLKeyConstant:         defaults.Registry.BaseURL,
		registryTimeoutKeyConstant:         defaults.Registry.Timeout.String(),
		manifestPathKeyConstant:            defaults.Manifest.Path,
		manifestDependencyFieldKeyConstant: defaults.Manifest.DependencyField,
		manifestPinFieldKeyConstant:        defaults.Manifest.PinField,
		documentPathKeyConstant:            defaults.Document.Path,
		commitMessageKeyConstant:           defaults.CommitMessageTemplate,
		tagPrefixKeyConstant:               defaults.TagPrefix,
		constraintKeyConstant:              defaults.Constraint,
		dryRunKeyConstant:                  defaults.DryRun,
	}

	trimmedPrefix := strings.Trim(strings.TrimSpace(prefix), configurationKeySeparatorConstant)
	if len(trimmedPrefix) == 0 {
		return values
	}

	prefixedValues := make(map[string]any, len(values))
	for key, value := range values {
		prefixedValues[trimmedPrefix+configurationKeySeparatorConstant+key] = value
	}
	return prefixedValues
}

// Sanitize trims values and expands a leading "~" in the repository path.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.RepositoryPath = mirrorConfigurationHomeDirectoryExpander.Expand(strings.TrimSpace(configuration.RepositoryPath))
	sanitized.PackageName = strings.TrimSpace(configuration.PackageName)
	sanitized.Registry.BaseURL = strings.TrimSpace(configuration.Registry.BaseURL)
	sanitized.Manifest.Path = strings.TrimSpace(configuration.Manifest.Path)
	sanitized.Manifest.DependencyField = strings.TrimSpace(configuration.Manifest.DependencyField)
	sanitized.Manifest.PinField = strings.TrimSpace(configuration.Manifest.PinField)
	sanitized.Document.Path = strings.TrimSpace(configuration.Document.Path)
	sanitized.TagPrefix = strings.TrimSpace(configuration.TagPrefix)
	sanitized.Constraint = strings.TrimSpace(configuration.Constraint)
	return sanitized
}

// Validate reports every problem with the configuration at once. An empty pin field disables the pin rewrite.
func (configuration Configuration) Validate() error {
	var validationError error

	if len(configuration.PackageName) == 0 {
		validationError = multierr.Append(validationError, errors.New(packageNameMissingMessageConstant))
	}
	if len(configuration.Registry.BaseURL) > 0 {
		parsedURL, parseError := url.Parse(configuration.Registry.BaseURL)
		if parseError != nil || !parsedURL.IsAbs() || len(parsedURL.Host) == 0 {
			validationError = multierr.Append(validationError, fmt.Errorf(registryBaseURLInvalidTemplateConstant, configuration.Registry.BaseURL))
		}
	}
	if configuration.Registry.Timeout < 0 {
		validationError = multierr.Append(validationError, fmt.Errorf(registryTimeoutInvalidTemplateConstant, configuration.Registry.Timeout))
	}
	validationError = multierr.Append(validationError, validateRelativePath(manifestPathKeyConstant, configuration.Manifest.Path))
	validationError = multierr.Append(validationError, validateRelativePath(documentPathKeyConstant, configuration.Document.Path))
	if len(configuration.Manifest.DependencyField) == 0 {
		validationError = multierr.Append(validationError, fmt.Errorf(fieldMissingTemplateConstant, manifestDependencyFieldKeyConstant))
	}
	if len(strings.TrimSpace(configuration.CommitMessageTemplate)) == 0 {
		validationError = multierr.Append(validationError, fmt.Errorf(fieldMissingTemplateConstant, commitMessageKeyConstant))
	}
	if _, constraintError := versions.NewConstraint(configuration.Constraint); constraintError != nil {
		validationError = multierr.Append(validationError, fmt.Errorf(constraintInvalidTemplateConstant, constraintError))
	}

	return validationError
}

// Options resolves a sanitized, validated configuration into run options with an absolute repository path.
func (configuration Configuration) Options() (Options, error) {
	sanitized := configuration.Sanitize()
	if validationError := sanitized.Validate(); validationError != nil {
		return Options{}, fmt.Errorf(configurationInvalidTemplateConstant, validationError)
	}

	repositoryPath, resolveError := mirrorConfigurationHomeDirectoryExpander.ResolveRepositoryRoot(sanitized.RepositoryPath)
	if resolveError != nil {
		return Options{}, fmt.Errorf(repositoryResolveErrorTemplateConstant, sanitized.RepositoryPath, resolveError)
	}

	constraint, constraintError := versions.NewConstraint(sanitized.Constraint)
	if constraintError != nil {
		return Options{}, fmt.Errorf(constraintInvalidTemplateConstant, constraintError)
	}

	return Options{
		RepositoryPath:        repositoryPath,
		PackageName:           sanitized.PackageName,
		ManifestPath:          filepath.ToSlash(filepath.Clean(sanitized.Manifest.Path)),
		DependencyField:       sanitized.Manifest.DependencyField,
		PinField:              sanitized.Manifest.PinField,
		DocumentPath:          filepath.ToSlash(filepath.Clean(sanitized.Document.Path)),
		CommitMessageTemplate: sanitized.CommitMessageTemplate,
		TagPrefix:             sanitized.TagPrefix,
		Constraint:            constraint,
		DryRun:                sanitized.DryRun,
	}, nil
}

// Options are the resolved settings of a single Sync or Candidates call.
type Options struct {
	RepositoryPath        string
	PackageName           string
	ManifestPath          string
	DependencyField       string
	PinField              string
	DocumentPath          string
	CommitMessageTemplate string
	TagPrefix             string
	Constraint            versions.Constraint
	DryRun                bool
}

// CommitMessage renders the commit message for the version.
func (options Options) CommitMessage(version versions.Version) string {
	return strings.ReplaceAll(options.CommitMessageTemplate, versionPlaceholderConstant, version.String())
}

// TagName renders the tag for the version.
func (options Options) TagName(version versions.Version) string {
	return options.TagPrefix + version.String()
}

// PinValue renders the pin field value, "<package>@<version>".
func (options Options) PinValue(version versions.Version) string {
	return options.PackageName + "@" + version.String()
}

func validateRelativePath(key string, candidatePath string) error {
	if len(candidatePath) == 0 {
		return fmt.Errorf(fieldMissingTemplateConstant, key)
	}
	cleanedPath := filepath.Clean(candidatePath)
	if filepath.IsAbs(cleanedPath) || cleanedPath == parentDirectoryConstant || strings.HasPrefix(cleanedPath, parentDirectoryConstant+string(filepath.Separator)) {
		return fmt.Errorf(relativePathRequiredTemplateConstant, key, candidatePath)
	}
	return nil
}
