package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/pinmirror/internal/execshell"
)

const (
	gitStatusSubcommandConstant          = "status"
	gitPorcelainFlagConstant             = "--porcelain"
	gitAddSubcommandConstant             = "add"
	gitCommitSubcommandConstant          = "commit"
	gitCommitMessageFlagConstant         = "-m"
	gitTagSubcommandConstant             = "tag"
	gitPathSeparatorConstant             = "--"
	gitTerminalPromptEnvironmentConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant    = "0"
	executorMissingMessageConstant       = "git executor not configured"
	repositoryPathMissingMessageConstant = "repository path must be provided"
	pathsMissingMessageConstant          = "at least one path must be provided"
	commitMessageMissingMessageConstant  = "commit message must be provided"
	tagNameMissingMessageConstant        = "tag name must be provided"
)

var (
	// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
	ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)
	// ErrRepositoryPathRequired indicates an operation was requested without a repository path.
	ErrRepositoryPathRequired   = errors.New(repositoryPathMissingMessageConstant)
	// ErrPathsRequired indicates a path-scoped operation received no paths.
	ErrPathsRequired            = errors.New(pathsMissingMessageConstant)
	// ErrCommitMessageRequired indicates Commit received an empty message.
	ErrCommitMessageRequired    = errors.New(commitMessageMissingMessageConstant)
	// ErrTagNameRequired indicates CreateTag received an empty name.
	ErrTagNameRequired          = errors.New(tagNameMissingMessageConstant)
)

// GitExecutor exposes the subset of shell execution used by the repository manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager runs git operations against a working tree.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a manager backed by the executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// HasChanges reports whether any of the paths differ from the index or HEAD, including untracked files.
func (manager *RepositoryManager) HasChanges(executionContext context.Context, repositoryPath string, paths []string) (bool, error) {
	arguments, argumentsError := pathScopedArguments(repositoryPath, paths, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if argumentsError != nil {
		return false, argumentsError
	}
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails(repositoryPath, arguments))
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// StagePaths adds the paths to the index.
func (manager *RepositoryManager) StagePaths(executionContext context.Context, repositoryPath string, paths []string) error {
	arguments, argumentsError := pathScopedArguments(repositoryPath, paths, gitAddSubcommandConstant)
	if argumentsError != nil {
		return argumentsError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails(repositoryPath, arguments))
	return executionError
}

// Commit records the staged changes with the message.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, message string) error {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return ErrRepositoryPathRequired
	}
	if len(strings.TrimSpace(message)) == 0 {
		return ErrCommitMessageRequired
	}
	arguments := []string{gitCommitSubcommandConstant, gitCommitMessageFlagConstant, message}
	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails(repositoryPath, arguments))
	return executionError
}

// CreateTag creates a lightweight tag pointing at HEAD.
func (manager *RepositoryManager) CreateTag(executionContext context.Context, repositoryPath string, tagName string) error {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedTagName := strings.TrimSpace(tagName)
	if len(trimmedTagName) == 0 {
		return ErrTagNameRequired
	}
	arguments := []string{gitTagSubcommandConstant, trimmedTagName}
	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails(repositoryPath, arguments))
	return executionError
}

func pathScopedArguments(repositoryPath string, paths []string, leadingArguments ...string) ([]string, error) {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return nil, ErrRepositoryPathRequired
	}
	arguments := append([]string{}, leadingArguments...)
	arguments = append(arguments, gitPathSeparatorConstant)
	pathCount := 0
	for _, path := range paths {
		trimmedPath := strings.TrimSpace(path)
		if len(trimmedPath) == 0 {
			continue
		}
		arguments = append(arguments, trimmedPath)
		pathCount++
	}
	if pathCount == 0 {
		return nil, ErrPathsRequired
	}
	return arguments, nil
}

func commandDetails(repositoryPath string, arguments []string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentConstant: gitTerminalPromptDisabledConstant},
	}
}
