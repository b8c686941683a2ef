package zerobrewcli_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zerobrew/zb-migrate/internal/execshell"
	"github.com/zerobrew/zb-migrate/internal/zerobrewcli"
)

type stubZerobrewExecutor struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands [][]string
}

func (executor *stubZerobrewExecutor) ExecuteZerobrew(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details.Arguments)
	return executor.executionResult, executor.executionError
}

func TestClientRequiresExecutor(testInstance *testing.T) {
	_, creationError := zerobrewcli.NewClient(nil)
	require.ErrorIs(testInstance, creationError, zerobrewcli.ErrExecutorMissing)
}

func TestInstallSuccess(testInstance *testing.T) {
	executor := &stubZerobrewExecutor{}

	client, creationError := zerobrewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, client.Install(context.Background(), "jq"))
	require.Equal(testInstance, [][]string{{"install", "jq"}}, executor.recordedCommands)
}

func TestInstallFailureCarriesStandardError(testInstance *testing.T) {
	failedCommand := execshell.ShellCommand{Name: execshell.CommandZerobrew, Details: execshell.CommandDetails{Arguments: []string{"install", "wget"}}}
	executor := &stubZerobrewExecutor{
		executionError: execshell.CommandFailedError{
			Command: failedCommand,
			Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "bottle unavailable for wget\n"},
		},
	}

	client, creationError := zerobrewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	installError := client.Install(context.Background(), "wget")
	require.Error(testInstance, installError)

	installFailed := &zerobrewcli.InstallFailedError{}
	require.ErrorAs(testInstance, installError, &installFailed)
	require.Equal(testInstance, "wget", installFailed.PackageName)
	require.Equal(testInstance, "bottle unavailable for wget", installFailed.Reason)
	require.False(testInstance, installFailed.Conflict)
}

func TestInstallFailureTagsLinkConflicts(testInstance *testing.T) {
	testCases := []struct {
		name             string
		standardError    string
		expectedConflict bool
	}{
		{name: "link_conflict_message", standardError: "Error: link conflict at /opt/zerobrew/bin/gsed", expectedConflict: true},
		{name: "conflicts_with_message", standardError: "Error: gnu-sed conflicts with sed", expectedConflict: true},
		{name: "already_exists_message", standardError: "Error: /opt/zerobrew/bin/jq already exists", expectedConflict: true},
		{name: "would_overwrite_message", standardError: "Error: installing jq would overwrite files owned by oj", expectedConflict: true},
		{name: "uppercase_signature", standardError: "Error: Link Conflict detected", expectedConflict: true},
		{name: "unrelated_failure", standardError: "Error: no bottle available for this platform", expectedConflict: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubZerobrewExecutor{
				executionError: execshell.CommandFailedError{
					Command: execshell.ShellCommand{Name: execshell.CommandZerobrew, Details: execshell.CommandDetails{Arguments: []string{"install", "jq"}}},
					Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: testCase.standardError},
				},
			}

			client, creationError := zerobrewcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			installError := client.Install(context.Background(), "jq")
			installFailed := &zerobrewcli.InstallFailedError{}
			require.ErrorAs(testInstance, installError, &installFailed)
			require.Equal(testInstance, testCase.expectedConflict, installFailed.Conflict)
		})
	}
}

func TestInstallExecutionFailureProducesReason(testInstance *testing.T) {
	executor := &stubZerobrewExecutor{
		executionError: execshell.CommandExecutionError{
			Command: execshell.ShellCommand{Name: execshell.CommandZerobrew},
			Cause:   errors.New("executable file not found"),
		},
	}

	client, creationError := zerobrewcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	installError := client.Install(context.Background(), "jq")
	installFailed := &zerobrewcli.InstallFailedError{}
	require.ErrorAs(testInstance, installError, &installFailed)
	require.Contains(testInstance, installFailed.Reason, "Failed to run zb")
}
