package mirror

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/pinmirror/internal/versions"
)

// OutcomeKind classifies what happened to one candidate version.
type OutcomeKind string

// Outcomes of a mirrored version.
const (
	OutcomeCommitted OutcomeKind = "committed"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomePreviewed OutcomeKind = "previewed"
)

const (
	noChangeMessageTemplateConstant = "No change %s"
	versionCommittedMessageConstant = "mirrored version committed"
	logFieldVersionConstant         = "version"
	logFieldPathsConstant           = "paths"
	logFieldCommitMessageConstant   = "commit_message"
	logFieldTagConstant             = "tag"
)

// GitRepositoryManager exposes the repository-level git operations used to record a version.
type GitRepositoryManager interface {
	HasChanges(executionContext context.Context, repositoryPath string, paths []string) (bool, error)
	StagePaths(executionContext context.Context, repositoryPath string, paths []string) error
	Commit(executionContext context.Context, repositoryPath string, message string) error
	CreateTag(executionContext context.Context, repositoryPath string, tagName string) error
}

// VersionOutcome reports the processing of one candidate version.
type VersionOutcome struct {
	Version       string
	Outcome       OutcomeKind
	Paths         []string
	CommitMessage string
	TagName       string
}

type commitDriver struct {
	repositoryManager GitRepositoryManager
	logger            *zap.Logger
}

// record commits and tags the applied version when the touched paths differ from HEAD.
func (driver commitDriver) record(executionContext context.Context, options Options, applyResult ApplyResult) (VersionOutcome, error) {
	version := applyResult.Version
	outcome := VersionOutcome{
		Version:       version.String(),
		Paths:         applyResult.Paths(),
		CommitMessage: options.CommitMessage(version),
		TagName:       options.TagName(version),
	}

	hasChanges, statusError := driver.repositoryManager.HasChanges(executionContext, options.RepositoryPath, outcome.Paths)
	if statusError != nil {
		return VersionOutcome{}, newVersionControlError(VersionControlOperationStatus, version, statusError)
	}
	if !hasChanges {
		driver.logNoChange(version)
		outcome.Outcome = OutcomeSkipped
		return outcome, nil
	}

	if stageError := driver.repositoryManager.StagePaths(executionContext, options.RepositoryPath, outcome.Paths); stageError != nil {
		return VersionOutcome{}, newVersionControlError(VersionControlOperationStage, version, stageError)
	}
	if commitError := driver.repositoryManager.Commit(executionContext, options.RepositoryPath, outcome.CommitMessage); commitError != nil {
		return VersionOutcome{}, newVersionControlError(VersionControlOperationCommit, version, commitError)
	}
	if tagError := driver.repositoryManager.CreateTag(executionContext, options.RepositoryPath, outcome.TagName); tagError != nil {
		return VersionOutcome{}, newVersionControlError(VersionControlOperationTag, version, tagError)
	}

	driver.logger.Info(
		versionCommittedMessageConstant,
		zap.String(logFieldVersionConstant, outcome.Version),
		zap.Strings(logFieldPathsConstant, outcome.Paths),
		zap.String(logFieldCommitMessageConstant, outcome.CommitMessage),
		zap.String(logFieldTagConstant, outcome.TagName),
	)
	outcome.Outcome = OutcomeCommitted
	return outcome, nil
}

func (driver commitDriver) logNoChange(version versions.Version) {
	driver.logger.Info(fmt.Sprintf(noChangeMessageTemplateConstant, version.String()), zap.String(logFieldVersionConstant, version.String()))
}

func newVersionControlError(operation VersionControlOperation, version versions.Version, cause error) VersionControlError {
	return VersionControlError{Operation: operation, Version: version.String(), Cause: cause}
}
