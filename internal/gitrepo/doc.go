// Package gitrepo performs the repository-level git operations used to record mirrored versions.
//
// RepositoryManager reviews status, stages paths, commits and tags through an
// execshell executor, so every git invocation is logged and testable.
package gitrepo
