package mirror

import (
	"errors"
	"fmt"
)

// VersionControlOperation names the git step that failed.
type VersionControlOperation string

// Git steps performed for each mirrored version.
const (
	VersionControlOperationStatus VersionControlOperation = "status"
	VersionControlOperationStage  VersionControlOperation = "stage"
	VersionControlOperationCommit VersionControlOperation = "commit"
	VersionControlOperationTag    VersionControlOperation = "tag"
)

const (
	versionControlErrorTemplateConstant           = "git %s failed for version %s: %v"
	fetcherNotConfiguredMessageConstant           = "version fetcher not configured"
	repositoryManagerNotConfiguredMessageConstant = "git repository manager not configured"
	loggerNotConfiguredMessageConstant            = "mirror logger not configured"
)

var (
	// ErrFetcherNotConfigured indicates the service was constructed without a version fetcher.
	ErrFetcherNotConfigured = errors.New(fetcherNotConfiguredMessageConstant)
	// ErrRepositoryManagerNotConfigured indicates the service was constructed without a git repository manager.
	ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerNotConfiguredMessageConstant)
	// ErrLoggerNotConfigured indicates the service was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
)

// VersionControlError reports a git step that failed while recording a version. The loop stops at the first one.
type VersionControlError struct {
	Operation VersionControlOperation
	Version   string
	Cause     error
}

// Error describes the failed step.
func (versionControlError VersionControlError) Error() string {
	return fmt.Sprintf(versionControlErrorTemplateConstant, versionControlError.Operation, versionControlError.Version, versionControlError.Cause)
}

// Unwrap exposes the executor failure.
func (versionControlError VersionControlError) Unwrap() error {
	return versionControlError.Cause
}
