package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	argumentSeparatorConstant               = " "
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
	wholeWorkingTreeLabelConstant           = "working tree"
	unknownSubjectLabelConstant             = "unknown"
	pathSeparatorArgumentConstant           = "--"
	flagPrefixConstant                      = "-"
	gitMessageFlagConstant                  = "-m"
)

// gitLifecycleTemplates holds the sentences logged for one git subcommand. Every template receives the
// subject first and the working directory second; failures append the exit code and standard error suffix.
type gitLifecycleTemplates struct {
	started   string
	succeeded string
	unchanged string
	failed    string
	errored   string
	subject   func(arguments []string) string
}

var gitLifecycleTemplatesBySubcommand = map[string]gitLifecycleTemplates{
	"status": {
		started:   "Checking %s for changes in %s",
		succeeded: "%s changed in %s",
		unchanged: "%s unchanged in %s",
		failed:    "Failed to check %s for changes in %s (exit code %d%s)",
		errored:   "Unable to check %s for changes in %s: %s",
		subject:   describeOperands(wholeWorkingTreeLabelConstant),
	},
	"add": {
		started:   "Staging %s in %s",
		succeeded: "Staged %s in %s",
		failed:    "Failed to stage %s in %s (exit code %d%s)",
		errored:   "Unable to stage %s in %s: %s",
		subject:   describeOperands(unknownSubjectLabelConstant),
	},
	"commit": {
		started:   "Committing %q in %s",
		succeeded: "Committed %q in %s",
		failed:    "Failed to commit %q in %s (exit code %d%s)",
		errored:   "Unable to commit %q in %s: %s",
		subject:   describeCommitMessage,
	},
	"tag": {
		started:   "Creating tag %s in %s",
		succeeded: "Created tag %s in %s",
		failed:    "Failed to create tag %s in %s (exit code %d%s)",
		errored:   "Unable to create tag %s in %s: %s",
		subject:   describeOperands(unknownSubjectLabelConstant),
	},
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing a command that could not be run.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return genericMessage(command, result, failure, stage)
	}
	templates, known := gitLifecycleTemplatesBySubcommand[strings.TrimSpace(command.Details.Arguments[0])]
	if !known {
		return genericMessage(command, result, failure, stage)
	}

	subject := templates.subject(command.Details.Arguments[1:])
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		workingDirectory = defaultWorkingDirectoryLabelConstant
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.started, subject, workingDirectory)
	case messageStageSuccess:
		if len(templates.unchanged) > 0 && len(strings.TrimSpace(result.StandardOutput)) == 0 {
			return fmt.Sprintf(templates.unchanged, subject, workingDirectory)
		}
		return fmt.Sprintf(templates.succeeded, subject, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(templates.failed, subject, workingDirectory, result.ExitCode, standardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(templates.errored, subject, workingDirectory, describeFailure(failure))
	}
}

func genericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := strings.TrimSpace(string(command.Name) + argumentSeparatorConstant + strings.Join(command.Details.Arguments, argumentSeparatorConstant))
	if workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(workingDirectory) > 0 {
		commandLabel += fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, standardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, describeFailure(failure))
	}
}

func standardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

// describeOperands joins the non-flag arguments, or everything after "--", falling back to the label.
func describeOperands(fallbackLabel string) func(arguments []string) string {
	return func(arguments []string) string {
		operands := make([]string, 0, len(arguments))
		afterSeparator := false
		for _, argument := range arguments {
			trimmedArgument := strings.TrimSpace(argument)
			switch {
			case len(trimmedArgument) == 0:
			case !afterSeparator && trimmedArgument == pathSeparatorArgumentConstant:
				afterSeparator = true
			case !afterSeparator && strings.HasPrefix(trimmedArgument, flagPrefixConstant):
			default:
				operands = append(operands, trimmedArgument)
			}
		}
		if len(operands) == 0 {
			return fallbackLabel
		}
		return strings.Join(operands, argumentSeparatorConstant)
	}
}

func describeCommitMessage(arguments []string) string {
	for argumentIndex := 0; argumentIndex+1 < len(arguments); argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == gitMessageFlagConstant {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return unknownSubjectLabelConstant
}
