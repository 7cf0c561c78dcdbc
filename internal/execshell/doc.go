// Package execshell runs external tools such as git through a logged, testable executor.
//
// ShellExecutor turns non-zero exit codes into CommandFailedError values and
// OSCommandRunner provides the default os/exec backed CommandRunner.
package execshell
