package mirror_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/pinmirror/internal/mirror"
)

func newTestService(testInstance *testing.T, dependencies mirror.Dependencies) *mirror.Service {
	testInstance.Helper()
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	service, serviceError := mirror.NewService(dependencies)
	require.NoError(testInstance, serviceError)
	return service
}

func TestSyncCommitsAndTagsEveryNewerVersionInOrder(testInstance *testing.T) {
	fileSystem := newRepositoryFileSystem(testInstance, "8.0.0")
	fetcher := &recordingFetcher{published: []string{"9.0.0", "7.9.0", "8.0.0", "8.1.0"}}
	repositoryManager := &recordingRepositoryManager{}
	observerCore, observedLogs := observer.New(zap.InfoLevel)

	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           fetcher,
		RepositoryManager: repositoryManager,
		FileSystem:        fileSystem,
		Logger:            zap.New(observerCore),
	})

	result, syncError := service.Sync(context.Background(), testOptions(testInstance, nil))
	require.NoError(testInstance, syncError)

	require.Equal(testInstance, "8.0.0", result.PinnedVersion)
	require.Equal(testInstance, []string{"8.1.0", "9.0.0"}, result.Candidates)
	require.Equal(testInstance, []string{"pnpm"}, fetcher.requestedPackages)
	require.Equal(testInstance, []string{
		"status package.json README.md",
		"add package.json README.md",
		"commit Mirror: 8.1.0",
		"tag v8.1.0",
		"status package.json README.md",
		"add package.json README.md",
		"commit Mirror: 9.0.0",
		"tag v9.0.0",
	}, repositoryManager.calls)

	require.Len(testInstance, result.Outcomes, 2)
	for outcomeIndex, expectedVersion := range []string{"8.1.0", "9.0.0"} {
		outcome := result.Outcomes[outcomeIndex]
		require.Equal(testInstance, expectedVersion, outcome.Version)
		require.Equal(testInstance, mirror.OutcomeCommitted, outcome.Outcome)
		require.Equal(testInstance, "v"+expectedVersion, outcome.TagName)
		require.Equal(testInstance, []string{testManifestPathConstant, testDocumentPathConstant}, outcome.Paths)
	}

	require.Equal(testInstance, manifestContent("9.0.0"), readRepositoryFile(testInstance, fileSystem, testManifestPathConstant))
	require.Equal(testInstance, documentContent("9.0.0"), readRepositoryFile(testInstance, fileSystem, testDocumentPathConstant))
	require.Equal(testInstance, 2, observedLogs.FilterMessage("mirrored version committed").Len())
	require.Equal(testInstance, 1, observedLogs.FilterMessage("mirror completed").Len())
}

func TestSyncSkipsVersionsWithoutWorkingTreeChanges(testInstance *testing.T) {
	fileSystem := newRepositoryFileSystem(testInstance, "8.0.0")
	repositoryManager := &recordingRepositoryManager{unchanged: true}
	observerCore, observedLogs := observer.New(zap.InfoLevel)

	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           &recordingFetcher{published: []string{"8.1.0"}},
		RepositoryManager: repositoryManager,
		FileSystem:        fileSystem,
		Logger:            zap.New(observerCore),
	})

	result, syncError := service.Sync(context.Background(), testOptions(testInstance, nil))
	require.NoError(testInstance, syncError)
	require.Equal(testInstance, []string{"status package.json README.md"}, repositoryManager.calls)
	require.Len(testInstance, result.Outcomes, 1)
	require.Equal(testInstance, mirror.OutcomeSkipped, result.Outcomes[0].Outcome)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("No change 8.1.0").Len())
}

func TestSyncWithNothingNewerMakesNoChanges(testInstance *testing.T) {
	fileSystem := newRepositoryFileSystem(testInstance, "9.0.0")
	repositoryManager := &recordingRepositoryManager{}

	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           &recordingFetcher{published: []string{"8.1.0", "9.0.0"}},
		RepositoryManager: repositoryManager,
		FileSystem:        fileSystem,
	})

	result, syncError := service.Sync(context.Background(), testOptions(testInstance, nil))
	require.NoError(testInstance, syncError)
	require.Empty(testInstance, result.Candidates)
	require.Empty(testInstance, result.Outcomes)
	require.Empty(testInstance, repositoryManager.calls)
	require.Equal(testInstance, manifestContent("9.0.0"), readRepositoryFile(testInstance, fileSystem, testManifestPathConstant))
}

func TestSyncLeavesRepositoryUntouchedWhenRegistryFails(testInstance *testing.T) {
	fileSystem := newRepositoryFileSystem(testInstance, "8.0.0")
	registryFailure := errors.New("registry unavailable")
	repositoryManager := &recordingRepositoryManager{}

	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           &recordingFetcher{failure: registryFailure},
		RepositoryManager: repositoryManager,
		FileSystem:        fileSystem,
	})

	result, syncError := service.Sync(context.Background(), testOptions(testInstance, nil))
	require.ErrorIs(testInstance, syncError, registryFailure)
	require.Empty(testInstance, result.Outcomes)
	require.Empty(testInstance, repositoryManager.calls)
	require.Equal(testInstance, manifestContent("8.0.0"), readRepositoryFile(testInstance, fileSystem, testManifestPathConstant))
	require.Equal(testInstance, documentContent("8.0.0"), readRepositoryFile(testInstance, fileSystem, testDocumentPathConstant))
}

func TestSyncStopsAtFirstGitFailure(testInstance *testing.T) {
	testCases := []struct {
		name              string
		failingOperation  string
		expectedOperation mirror.VersionControlOperation
		expectedCalls     []string
	}{
		{
			name:              "status",
			failingOperation:  "status",
			expectedOperation: mirror.VersionControlOperationStatus,
			expectedCalls:     []string{"status package.json README.md"},
		},
		{
			name:              "commit",
			failingOperation:  "commit",
			expectedOperation: mirror.VersionControlOperationCommit,
			expectedCalls:     []string{"status package.json README.md", "add package.json README.md", "commit Mirror: 8.1.0"},
		},
		{
			name:              "tag",
			failingOperation:  "tag",
			expectedOperation: mirror.VersionControlOperationTag,
			expectedCalls:     []string{"status package.json README.md", "add package.json README.md", "commit Mirror: 8.1.0", "tag v8.1.0"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitFailure := errors.New("git exited with code 128")
			repositoryManager := &recordingRepositoryManager{failingOperation: testCase.failingOperation, failure: gitFailure}

			service := newTestService(testInstance, mirror.Dependencies{
				Fetcher:           &recordingFetcher{published: []string{"8.1.0", "9.0.0"}},
				RepositoryManager: repositoryManager,
				FileSystem:        newRepositoryFileSystem(testInstance, "8.0.0"),
			})

			result, syncError := service.Sync(context.Background(), testOptions(testInstance, nil))

			var versionControlError mirror.VersionControlError
			require.ErrorAs(testInstance, syncError, &versionControlError)
			require.ErrorIs(testInstance, syncError, gitFailure)
			require.Equal(testInstance, testCase.expectedOperation, versionControlError.Operation)
			require.Equal(testInstance, "8.1.0", versionControlError.Version)
			require.Equal(testInstance, testCase.expectedCalls, repositoryManager.calls)
			require.Empty(testInstance, result.Outcomes)
			require.Equal(testInstance, []string{"8.1.0", "9.0.0"}, result.Candidates)
		})
	}
}

func TestSyncDryRunPreviewsWithoutWritingOrCommitting(testInstance *testing.T) {
	fileSystem := newRepositoryFileSystem(testInstance, "8.0.0")
	repositoryManager := &recordingRepositoryManager{}
	previewer := &recordingPreviewer{}

	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           &recordingFetcher{published: []string{"8.1.0", "9.0.0"}},
		RepositoryManager: repositoryManager,
		FileSystem:        fileSystem,
		Previewer:         previewer,
	})

	options := testOptions(testInstance, func(configuration *mirror.Configuration) {
		configuration.DryRun = true
	})
	result, syncError := service.Sync(context.Background(), options)
	require.NoError(testInstance, syncError)

	require.Empty(testInstance, repositoryManager.calls)
	require.Equal(testInstance, manifestContent("8.0.0"), readRepositoryFile(testInstance, fileSystem, testManifestPathConstant))
	require.Equal(testInstance, documentContent("8.0.0"), readRepositoryFile(testInstance, fileSystem, testDocumentPathConstant))

	require.Equal(testInstance, []string{"8.1.0", "9.0.0"}, previewer.renderedVersions)
	require.Len(testInstance, previewer.renderedFiles, 4)
	require.Equal(testInstance, renderedFile{path: testManifestPathConstant, before: manifestContent("8.0.0"), after: manifestContent("8.1.0")}, previewer.renderedFiles[0])
	require.Equal(testInstance, renderedFile{path: testDocumentPathConstant, before: documentContent("8.1.0"), after: documentContent("9.0.0")}, previewer.renderedFiles[3])

	require.Len(testInstance, result.Outcomes, 2)
	for _, outcome := range result.Outcomes {
		require.Equal(testInstance, mirror.OutcomePreviewed, outcome.Outcome)
	}
}

func TestSyncHonorsConstraint(testInstance *testing.T) {
	repositoryManager := &recordingRepositoryManager{}
	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           &recordingFetcher{published: []string{"8.1.0", "8.2.0", "9.0.0"}},
		RepositoryManager: repositoryManager,
		FileSystem:        newRepositoryFileSystem(testInstance, "8.0.0"),
	})

	options := testOptions(testInstance, func(configuration *mirror.Configuration) {
		configuration.Constraint = "major == 8"
	})
	result, syncError := service.Sync(context.Background(), options)
	require.NoError(testInstance, syncError)
	require.Equal(testInstance, []string{"8.1.0", "8.2.0"}, result.Candidates)
	require.Contains(testInstance, repositoryManager.calls, "tag v8.2.0")
	require.NotContains(testInstance, repositoryManager.calls, "tag v9.0.0")
}

func TestSyncRejectsUnparseablePin(testInstance *testing.T) {
	fetcher := &recordingFetcher{published: []string{"8.1.0"}}
	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           fetcher,
		RepositoryManager: &recordingRepositoryManager{},
		FileSystem:        newRepositoryFileSystem(testInstance, "latest"),
	})

	_, syncError := service.Sync(context.Background(), testOptions(testInstance, nil))
	require.Error(testInstance, syncError)
	require.Empty(testInstance, fetcher.requestedPackages)
}

func TestSyncStopsWhenContextIsCanceled(testInstance *testing.T) {
	repositoryManager := &recordingRepositoryManager{}
	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           &recordingFetcher{published: []string{"8.1.0"}},
		RepositoryManager: repositoryManager,
		FileSystem:        newRepositoryFileSystem(testInstance, "8.0.0"),
	})

	canceledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, syncError := service.Sync(canceledContext, testOptions(testInstance, nil))
	require.ErrorIs(testInstance, syncError, context.Canceled)
	require.Empty(testInstance, repositoryManager.calls)
}

func TestCandidatesListsNewerVersionsWithoutWriting(testInstance *testing.T) {
	fileSystem := newRepositoryFileSystem(testInstance, "8.0.0")
	service := newTestService(testInstance, mirror.Dependencies{
		Fetcher:           &recordingFetcher{published: []string{"7.0.0", "8.0.0", "8.0.1", "10.0.0"}},
		RepositoryManager: &recordingRepositoryManager{},
		FileSystem:        fileSystem,
	})

	candidates, candidatesError := service.Candidates(context.Background(), testOptions(testInstance, nil))
	require.NoError(testInstance, candidatesError)
	require.Len(testInstance, candidates, 2)
	require.Equal(testInstance, "8.0.1", candidates[0].String())
	require.Equal(testInstance, "10.0.0", candidates[1].String())
	require.Equal(testInstance, manifestContent("8.0.0"), readRepositoryFile(testInstance, fileSystem, testManifestPathConstant))
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		dependencies  mirror.Dependencies
		expectedError error
	}{
		{
			name:          "missing_fetcher",
			dependencies:  mirror.Dependencies{RepositoryManager: &recordingRepositoryManager{}, Logger: zap.NewNop()},
			expectedError: mirror.ErrFetcherNotConfigured,
		},
		{
			name:          "missing_repository_manager",
			dependencies:  mirror.Dependencies{Fetcher: &recordingFetcher{}, Logger: zap.NewNop()},
			expectedError: mirror.ErrRepositoryManagerNotConfigured,
		},
		{
			name:          "missing_logger",
			dependencies:  mirror.Dependencies{Fetcher: &recordingFetcher{}, RepositoryManager: &recordingRepositoryManager{}},
			expectedError: mirror.ErrLoggerNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service, serviceError := mirror.NewService(testCase.dependencies)
			require.ErrorIs(testInstance, serviceError, testCase.expectedError)
			require.Nil(testInstance, service)
		})
	}
}
