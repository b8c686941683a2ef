package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zerobrew/zb-migrate/internal/execshell"
)

const (
	commandStartedTemplateConstant          = "Running %s"
	commandCompletedTemplateConstant        = "Completed %s"
	commandFailedExitCodeTemplateConstant   = "%s failed with exit code %d"
	commandExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	argumentJoinSeparatorConstant           = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
)

// ConsoleCommandEventLogger echoes package-manager command lifecycle events
// through a zap logger configured for human-readable output. It backs the
// --verbose flag.
type ConsoleCommandEventLogger struct {
	logger *zap.Logger
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(fmt.Sprintf(commandStartedTemplateConstant, commandLabel(command)))
}

// CommandCompleted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode == 0 {
		eventLogger.logger.Info(fmt.Sprintf(commandCompletedTemplateConstant, commandLabel(command)))
		return
	}

	failureMessage := fmt.Sprintf(commandFailedExitCodeTemplateConstant, commandLabel(command), result.ExitCode)
	if trimmedStandardError := strings.TrimSpace(result.StandardError); len(trimmedStandardError) > 0 {
		failureMessage += fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
	}
	eventLogger.logger.Warn(failureMessage)
}

// CommandExecutionFailed implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	eventLogger.logger.Error(fmt.Sprintf(commandExecutionFailureTemplateConstant, commandLabel(command), failureMessage))
}

func commandLabel(command execshell.ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, argumentJoinSeparatorConstant))
	}
	label := strings.Join(commandParts, argumentJoinSeparatorConstant)

	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		label += fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return label
}
