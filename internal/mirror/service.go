package mirror

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/pinmirror/internal/versions"
)

const (
	fetchErrorTemplateConstant        = "unable to fetch versions of %s: %w"
	constraintErrorTemplateConstant   = "unable to evaluate constraint %q: %w"
	applyErrorTemplateConstant        = "unable to apply version %s: %w"
	previewErrorTemplateConstant      = "unable to preview version %s: %w"
	candidatesResolvedMessageConstant = "candidate versions resolved"
	versionPreviewedMessageConstant   = "mirrored version previewed"
	syncCompletedMessageConstant      = "mirror completed"
	logFieldPackageConstant           = "package"
	logFieldPinnedVersionConstant     = "pinned_version"
	logFieldPublishedCountConstant    = "published_count"
	logFieldCandidatesConstant        = "candidates"
	logFieldConstraintConstant        = "constraint"
	logFieldDryRunConstant            = "dry_run"
	logFieldCommittedCountConstant    = "committed_count"
	logFieldSkippedCountConstant      = "skipped_count"
	logFieldPreviewedCountConstant    = "previewed_count"
)

// VersionFetcher lists the released versions of a package in ascending order.
type VersionFetcher interface {
	FetchVersions(executionContext context.Context, packageName string) ([]versions.Version, error)
}

// DiffPreviewer renders the changes a dry run would make.
type DiffPreviewer interface {
	RenderVersion(version string) error
	RenderFile(path string, before []byte, after []byte) error
}

// Dependencies wires the collaborators of Service. FileSystem defaults to the operating system and Previewer may be nil.
type Dependencies struct {
	Fetcher           VersionFetcher
	RepositoryManager GitRepositoryManager
	FileSystem        afero.Fs
	Previewer         DiffPreviewer
	Logger            *zap.Logger
}

// Result lists the outcome of every processed version in processing order.
type Result struct {
	PinnedVersion string
	Candidates    []string
	Outcomes      []VersionOutcome
}

// Service mirrors newer registry releases into the repository one version at a time.
type Service struct {
	fetcher    VersionFetcher
	driver     commitDriver
	fileSystem afero.Fs
	previewer  DiffPreviewer
	logger     *zap.Logger
}

// NewService validates the dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Fetcher == nil {
		return nil, ErrFetcherNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}

	return &Service{
		fetcher:    dependencies.Fetcher,
		driver:     commitDriver{repositoryManager: dependencies.RepositoryManager, logger: dependencies.Logger},
		fileSystem: fileSystem,
		previewer:  dependencies.Previewer,
		logger:     dependencies.Logger,
	}, nil
}

// Candidates returns the released versions newer than the pin that satisfy the constraint, ascending. Nothing is written.
func (service *Service) Candidates(executionContext context.Context, options Options) ([]versions.Version, error) {
	applier := NewApplier(service.repositoryFileSystem(options), options)
	_, candidates, resolveError := service.resolveCandidates(executionContext, options, applier)
	return candidates, resolveError
}

// Sync applies, commits and tags every candidate version in ascending order. The first failure stops the loop;
// the returned Result still lists the versions already processed.
func (service *Service) Sync(executionContext context.Context, options Options) (Result, error) {
	applier := NewApplier(service.repositoryFileSystem(options), options)

	pinnedVersion, candidates, resolveError := service.resolveCandidates(executionContext, options, applier)
	if resolveError != nil {
		return Result{}, resolveError
	}

	result := Result{
		PinnedVersion: pinnedVersion.String(),
		Candidates:    versions.Strings(candidates),
		Outcomes:      make([]VersionOutcome, 0, len(candidates)),
	}

	for _, candidate := range candidates {
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}

		applyResult, applyError := applier.Apply(candidate)
		if applyError != nil {
			return result, fmt.Errorf(applyErrorTemplateConstant, candidate.String(), applyError)
		}

		var outcome VersionOutcome
		var recordError error
		if options.DryRun {
			outcome, recordError = service.preview(options, applyResult)
		} else {
			outcome, recordError = service.driver.record(executionContext, options, applyResult)
		}
		if recordError != nil {
			return result, recordError
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	service.logger.Info(
		syncCompletedMessageConstant,
		zap.String(logFieldPackageConstant, options.PackageName),
		zap.Bool(logFieldDryRunConstant, options.DryRun),
		zap.Int(logFieldCommittedCountConstant, result.count(OutcomeCommitted)),
		zap.Int(logFieldSkippedCountConstant, result.count(OutcomeSkipped)),
		zap.Int(logFieldPreviewedCountConstant, result.count(OutcomePreviewed)),
	)
	return result, nil
}

func (service *Service) resolveCandidates(executionContext context.Context, options Options, applier *Applier) (versions.Version, []versions.Version, error) {
	pinnedVersion, pinnedError := applier.PinnedVersion()
	if pinnedError != nil {
		return versions.Version{}, nil, pinnedError
	}

	publishedVersions, fetchError := service.fetcher.FetchVersions(executionContext, options.PackageName)
	if fetchError != nil {
		return versions.Version{}, nil, fmt.Errorf(fetchErrorTemplateConstant, options.PackageName, fetchError)
	}

	candidates, filterError := options.Constraint.Filter(versions.Newer(pinnedVersion, publishedVersions))
	if filterError != nil {
		return versions.Version{}, nil, fmt.Errorf(constraintErrorTemplateConstant, options.Constraint.Expression(), filterError)
	}

	service.logger.Info(
		candidatesResolvedMessageConstant,
		zap.String(logFieldPackageConstant, options.PackageName),
		zap.String(logFieldPinnedVersionConstant, pinnedVersion.String()),
		zap.Int(logFieldPublishedCountConstant, len(publishedVersions)),
		zap.Strings(logFieldCandidatesConstant, versions.Strings(candidates)),
		zap.String(logFieldConstraintConstant, options.Constraint.Expression()),
	)
	return pinnedVersion, candidates, nil
}

func (service *Service) preview(options Options, applyResult ApplyResult) (VersionOutcome, error) {
	version := applyResult.Version
	outcome := VersionOutcome{
		Version:       version.String(),
		Paths:         applyResult.Paths(),
		CommitMessage: options.CommitMessage(version),
		TagName:       options.TagName(version),
	}

	if !applyResult.Changed() {
		service.driver.logNoChange(version)
		outcome.Outcome = OutcomeSkipped
		return outcome, nil
	}

	if service.previewer != nil {
		if renderError := service.previewer.RenderVersion(version.String()); renderError != nil {
			return VersionOutcome{}, fmt.Errorf(previewErrorTemplateConstant, version.String(), renderError)
		}
		for _, change := range applyResult.Changes {
			if renderError := service.previewer.RenderFile(change.Path, change.Before, change.After); renderError != nil {
				return VersionOutcome{}, fmt.Errorf(previewErrorTemplateConstant, version.String(), renderError)
			}
		}
	}

	service.logger.Info(
		versionPreviewedMessageConstant,
		zap.String(logFieldVersionConstant, outcome.Version),
		zap.Strings(logFieldPathsConstant, outcome.Paths),
		zap.String(logFieldTagConstant, outcome.TagName),
	)
	outcome.Outcome = OutcomePreviewed
	return outcome, nil
}

// repositoryFileSystem roots file access at the repository. Dry runs write into an in-memory layer so the
// working tree is never modified while later versions still observe earlier rewrites.
func (service *Service) repositoryFileSystem(options Options) afero.Fs {
	repositoryFileSystem := afero.NewBasePathFs(service.fileSystem, options.RepositoryPath)
	if !options.DryRun {
		return repositoryFileSystem
	}
	return afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(repositoryFileSystem), afero.NewMemMapFs())
}

func (result Result) count(kind OutcomeKind) int {
	matching := 0
	for _, outcome := range result.Outcomes {
		if outcome.Outcome == kind {
			matching++
		}
	}
	return matching
}
