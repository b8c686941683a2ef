package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zerobrew/zb-migrate/internal/execshell"
	"github.com/zerobrew/zb-migrate/internal/ui"
)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name: execshell.CommandBrew,
		Details: execshell.CommandDetails{
			Arguments: []string{"deps", "--installed", "jq"},
		},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *ui.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "command_started",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandStarted(command)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "Running brew deps --installed jq",
		},
		{
			name: "command_completed",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 0})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "Completed brew deps --installed jq",
		},
		{
			name: "command_failed",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 1, StandardError: "Error: no such keg"})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: "brew deps --installed jq failed with exit code 1: Error: no such keg",
		},
		{
			name: "command_execution_failed",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, errors.New("executable not found"))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: "brew deps --installed jq failed: executable not found",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			observedCore, observedLogs := observer.New(zapcore.DebugLevel)
			eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observedCore))

			testCase.invoke(eventLogger)

			logEntries := observedLogs.All()
			require.Len(subtest, logEntries, 1)
			require.Equal(subtest, testCase.expectedLevel, logEntries[0].Level)
			require.Equal(subtest, testCase.expectedMessage, logEntries[0].Message)
		})
	}
}

func TestConsoleCommandEventLoggerIncludesWorkingDirectory(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observedCore))

	eventLogger.CommandStarted(execshell.ShellCommand{
		Name: execshell.CommandZerobrew,
		Details: execshell.CommandDetails{
			Arguments:        []string{"install", "jq"},
			WorkingDirectory: "/tmp/work",
		},
	})

	logEntries := observedLogs.All()
	require.Len(testInstance, logEntries, 1)
	require.Equal(testInstance, "Running zb install jq (in /tmp/work)", logEntries[0].Message)
}
