package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandStartLogMessageConstant            = "executing shell command"
	commandCompletedLogMessageConstant        = "shell command completed"
	commandFailedLogMessageConstant           = "shell command failed"
	commandNameFieldConstant                  = "command_name"
	commandArgumentsFieldConstant             = "command_arguments"
	commandWorkingDirectoryFieldConstant      = "working_directory"
	commandExitCodeFieldConstant              = "exit_code"
	commandStandardErrorFieldConstant         = "standard_error"
	commandFailedErrorTemplateConstant        = "%s %s exited with code %d: %s"
	commandExecutionErrorTemplateConstant     = "%s %s could not be executed: %v"
	commandArgumentsJoinSeparatorConstant     = " "
)

// Sentinel errors reported during executor construction.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandName identifies the external binary invoked by the executor.
type CommandName string

// Supported external binaries.
const (
	CommandBrew     CommandName = "brew"
	CommandZerobrew CommandName = "zb"
)

// CommandDetails captures the invocation parameters for a shell command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs a binary name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outputs of a completed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error renders the failed command with its exit code and captured standard error.
func (failedError CommandFailedError) Error() string {
	return fmt.Sprintf(
		commandFailedErrorTemplateConstant,
		failedError.Command.Name,
		strings.Join(failedError.Command.Details.Arguments, commandArgumentsJoinSeparatorConstant),
		failedError.Result.ExitCode,
		strings.TrimSpace(failedError.Result.StandardError),
	)
}

// CommandExecutionError reports a command that could not be started or observed.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error renders the command that failed to execute together with the underlying cause.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(
		commandExecutionErrorTemplateConstant,
		executionError.Command.Name,
		strings.Join(executionError.Command.Details.Arguments, commandArgumentsJoinSeparatorConstant),
		executionError.Cause,
	)
}

// Unwrap exposes the underlying execution failure.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs external package manager binaries with structured logging.
type ShellExecutor struct {
	logger               *zap.Logger
	commandRunner        CommandRunner
	humanReadableLogging bool
	eventObserver        CommandEventObserver
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{
		logger:               logger,
		commandRunner:        commandRunner,
		humanReadableLogging: humanReadableLogging,
		eventObserver:        noopCommandEventObserver{},
	}, nil
}

// SetCommandEventObserver registers an observer notified of command lifecycle events.
func (executor *ShellExecutor) SetCommandEventObserver(observer CommandEventObserver) {
	if executor == nil {
		return
	}
	if observer == nil {
		executor.eventObserver = noopCommandEventObserver{}
		return
	}
	executor.eventObserver = observer
}

// ExecuteBrew runs the Homebrew binary with the provided details.
func (executor *ShellExecutor) ExecuteBrew(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandBrew, Details: details})
}

// ExecuteZerobrew runs the Zerobrew binary with the provided details.
func (executor *ShellExecutor) ExecuteZerobrew(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandZerobrew, Details: details})
}

// Execute runs an arbitrary shell command and reports typed failures.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logCommandStart(command)
	executor.eventObserver.CommandStarted(command)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executionFailure := CommandExecutionError{Command: command, Cause: runError}
		executor.logExecutionFailure(command, runError)
		executor.eventObserver.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, executionFailure
	}

	executor.logCommandCompletion(command, executionResult)
	executor.eventObserver.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

func (executor *ShellExecutor) logCommandStart(command ShellCommand) {
	if executor.humanReadableLogging {
		executor.logger.Info(describeCommandStart(command))
		return
	}

	executor.logger.Info(
		commandStartLogMessageConstant,
		zap.String(commandNameFieldConstant, string(command.Name)),
		zap.Strings(commandArgumentsFieldConstant, command.Details.Arguments),
		zap.String(commandWorkingDirectoryFieldConstant, command.Details.WorkingDirectory),
	)
}

func (executor *ShellExecutor) logCommandCompletion(command ShellCommand, result ExecutionResult) {
	if executor.humanReadableLogging {
		if result.ExitCode == 0 {
			executor.logger.Info(describeCommandSuccess(command))
		} else {
			executor.logger.Warn(describeCommandFailure(command, result))
		}
		return
	}

	executor.logger.Info(
		commandCompletedLogMessageConstant,
		zap.String(commandNameFieldConstant, string(command.Name)),
		zap.Strings(commandArgumentsFieldConstant, command.Details.Arguments),
		zap.Int(commandExitCodeFieldConstant, result.ExitCode),
		zap.String(commandStandardErrorFieldConstant, strings.TrimSpace(result.StandardError)),
	)
}

func (executor *ShellExecutor) logExecutionFailure(command ShellCommand, failure error) {
	if executor.humanReadableLogging {
		executor.logger.Error(describeCommandExecutionFailure(command, failure))
		return
	}

	executor.logger.Error(
		commandFailedLogMessageConstant,
		zap.String(commandNameFieldConstant, string(command.Name)),
		zap.Strings(commandArgumentsFieldConstant, command.Details.Arguments),
		zap.Error(failure),
	)
}
