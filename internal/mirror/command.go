package mirror

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pinmirror/internal/execshell"
	"github.com/temirov/pinmirror/internal/gitrepo"
	"github.com/temirov/pinmirror/internal/preview"
	"github.com/temirov/pinmirror/internal/registry"
	flagutils "github.com/temirov/pinmirror/internal/utils/flags"
	"github.com/temirov/pinmirror/internal/versions"
)

const (
	syncCommandUseConstant                    = "sync"
	syncCommandShortDescriptionConstant       = "Mirror newer registry releases as commits and tags"
	syncCommandLongDescriptionConstant        = "sync fetches every released version of the package, and for each one newer than the pinned version rewrites the manifest and document, commits and tags it, oldest first."
	candidatesCommandUseConstant              = "candidates"
	candidatesCommandShortDescriptionConstant = "List releases newer than the pinned version"
	candidatesCommandLongDescriptionConstant  = "candidates prints the released versions sync would mirror, oldest first, without touching the repository."
	unexpectedArgumentsTemplateConstant       = "%s does not accept positional arguments"
	syncExecutionErrorTemplateConstant        = "mirror sync failed: %w"
	candidatesExecutionErrorTemplateConstant  = "mirror candidates failed: %w"
	repositoryFlagNameConstant                = "repository"
	repositoryFlagDescriptionConstant         = "Repository root containing the manifest and document"
	packageFlagNameConstant                   = "package"
	packageFlagDescriptionConstant            = "Registry package to mirror"
	registryURLFlagNameConstant               = "registry-url"
	registryURLFlagDescriptionConstant        = "Base URL of the npm-compatible registry"
	constraintFlagNameConstant                = "constraint"
	constraintFlagDescriptionConstant         = "Expression over major, minor, patch, version and segments that candidates must satisfy, e.g. \"major == 8\""
	dryRunFlagNameConstant                    = "dry-run"
	dryRunFlagDescriptionConstant             = "Show the changes each version would make without writing files or running git"
	outcomeLineTemplateConstant               = "%s %s\n"
	outcomeTagLineTemplateConstant            = "%s %s %s\n"
	candidateLineTemplateConstant             = "%s\n"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current mirror configuration.
type ConfigurationProvider func() Configuration

// HumanReadableLoggingProvider reports whether git invocations should be logged as sentences.
type HumanReadableLoggingProvider func() bool

// CommandBuilder assembles the sync and candidates commands. Unset collaborators fall back to the
// public registry, the git executable and the operating system filesystem.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	HTTPClient                   registry.HTTPClient
	CommandRunner                execshell.CommandRunner
	FileSystem                   afero.Fs
	Fetcher                      VersionFetcher
	RepositoryManager            GitRepositoryManager
}

// BuildSync constructs the sync command.
func (builder *CommandBuilder) BuildSync() (*cobra.Command, error) {
	syncCommand := &cobra.Command{
		Use:   syncCommandUseConstant,
		Short: syncCommandShortDescriptionConstant,
		Long:  syncCommandLongDescriptionConstant,
		RunE:  builder.runSync,
	}
	builder.bindSelectionFlags(syncCommand)

	var dryRun bool
	flagutils.AddToggleFlag(syncCommand.Flags(), &dryRun, dryRunFlagNameConstant, "", false, dryRunFlagDescriptionConstant)

	return syncCommand, nil
}

// BuildCandidates constructs the candidates command.
func (builder *CommandBuilder) BuildCandidates() (*cobra.Command, error) {
	candidatesCommand := &cobra.Command{
		Use:   candidatesCommandUseConstant,
		Short: candidatesCommandShortDescriptionConstant,
		Long:  candidatesCommandLongDescriptionConstant,
		RunE:  builder.runCandidates,
	}
	builder.bindSelectionFlags(candidatesCommand)
	return candidatesCommand, nil
}

func (builder *CommandBuilder) bindSelectionFlags(command *cobra.Command) {
	command.Flags().String(repositoryFlagNameConstant, "", repositoryFlagDescriptionConstant)
	command.Flags().String(packageFlagNameConstant, "", packageFlagDescriptionConstant)
	command.Flags().String(registryURLFlagNameConstant, "", registryURLFlagDescriptionConstant)
	command.Flags().String(constraintFlagNameConstant, "", constraintFlagDescriptionConstant)
}

func (builder *CommandBuilder) runSync(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, syncCommandUseConstant)
	}

	configuration, configurationError := builder.parseConfiguration(command)
	if configurationError != nil {
		return configurationError
	}
	options, optionsError := configuration.Options()
	if optionsError != nil {
		return optionsError
	}

	output := command.OutOrStdout()
	service, serviceError := builder.resolveService(configuration, preview.NewDiffRenderer(output, preview.ShouldColorize(output)))
	if serviceError != nil {
		return serviceError
	}

	result, syncError := service.Sync(command.Context(), options)
	writeOutcomes(output, result.Outcomes)
	if syncError != nil {
		return fmt.Errorf(syncExecutionErrorTemplateConstant, syncError)
	}
	return nil
}

func (builder *CommandBuilder) runCandidates(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, candidatesCommandUseConstant)
	}

	configuration, configurationError := builder.parseConfiguration(command)
	if configurationError != nil {
		return configurationError
	}
	options, optionsError := configuration.Options()
	if optionsError != nil {
		return optionsError
	}

	service, serviceError := builder.resolveService(configuration, nil)
	if serviceError != nil {
		return serviceError
	}

	candidates, candidatesError := service.Candidates(command.Context(), options)
	if candidatesError != nil {
		return fmt.Errorf(candidatesExecutionErrorTemplateConstant, candidatesError)
	}
	writeCandidates(command.OutOrStdout(), candidates)
	return nil
}

func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) (Configuration, error) {
	configuration := builder.resolveConfiguration()

	stringOverrides := []struct {
		flagName string
		target   *string
	}{
		{flagName: repositoryFlagNameConstant, target: &configuration.RepositoryPath},
		{flagName: packageFlagNameConstant, target: &configuration.PackageName},
		{flagName: registryURLFlagNameConstant, target: &configuration.Registry.BaseURL},
		{flagName: constraintFlagNameConstant, target: &configuration.Constraint},
	}
	for _, override := range stringOverrides {
		if !command.Flags().Changed(override.flagName) {
			continue
		}
		flagValue, flagError := command.Flags().GetString(override.flagName)
		if flagError != nil {
			return Configuration{}, flagError
		}
		*override.target = flagValue
	}

	if dryRunFlag := command.Flags().Lookup(dryRunFlagNameConstant); dryRunFlag != nil && dryRunFlag.Changed {
		configuration.DryRun = dryRunFlag.Value.String() == "true"
	}

	return configuration, nil
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveService(configuration Configuration, previewer DiffPreviewer) (*Service, error) {
	logger := builder.resolveLogger()

	fetcher := builder.Fetcher
	if fetcher == nil {
		registryClient, clientError := registry.NewClient(logger, builder.HTTPClient, registry.ClientConfiguration{
			BaseURL: configuration.Registry.BaseURL,
			Timeout: configuration.Registry.Timeout,
		})
		if clientError != nil {
			return nil, clientError
		}
		fetcher = registryClient
	}

	repositoryManager := builder.RepositoryManager
	if repositoryManager == nil {
		commandRunner := builder.CommandRunner
		if commandRunner == nil {
			commandRunner = execshell.NewOSCommandRunner()
		}
		humanReadableLogging := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()
		executor, executorError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
		if executorError != nil {
			return nil, executorError
		}
		manager, managerError := gitrepo.NewRepositoryManager(executor)
		if managerError != nil {
			return nil, managerError
		}
		repositoryManager = manager
	}

	dependencies := Dependencies{
		Fetcher:           fetcher,
		RepositoryManager: repositoryManager,
		FileSystem:        builder.FileSystem,
		Previewer:         previewer,
		Logger:            logger,
	}
	return NewService(dependencies)
}

func writeOutcomes(output io.Writer, outcomes []VersionOutcome) {
	for _, outcome := range outcomes {
		if outcome.Outcome == OutcomeSkipped {
			fmt.Fprintf(output, outcomeLineTemplateConstant, outcome.Outcome, outcome.Version)
			continue
		}
		fmt.Fprintf(output, outcomeTagLineTemplateConstant, outcome.Outcome, outcome.Version, outcome.TagName)
	}
}

func writeCandidates(output io.Writer, candidates []versions.Version) {
	for _, candidate := range candidates {
		fmt.Fprintf(output, candidateLineTemplateConstant, candidate.String())
	}
}
