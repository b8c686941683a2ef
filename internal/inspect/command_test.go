package inspect_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/zerobrew/zb-migrate/internal/inspect"
	"github.com/zerobrew/zb-migrate/internal/inventory"
)

type stubServiceResolver struct {
	service *inspect.Service
}

func (resolver *stubServiceResolver) Resolve(logger *zap.Logger) (*inspect.Service, error) {
	return resolver.service, nil
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, error) {
	testInstance.Helper()
	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	command.SetArgs(arguments)
	executionError := command.ExecuteContext(context.Background())
	return outputBuffer.String(), executionError
}

func newCommandBuilder(testInstance *testing.T, source *stubPackageSource) *inspect.CommandBuilder {
	testInstance.Helper()
	return &inspect.CommandBuilder{
		LoggerProvider:  func() *zap.Logger { return zaptest.NewLogger(testInstance) },
		ServiceResolver: &stubServiceResolver{service: newInspectionService(testInstance, source)},
	}
}

func TestListCommandTextOutput(testInstance *testing.T) {
	source := &stubPackageSource{
		formulae: []inventory.PackageRecord{
			{Name: "jq", Version: "1.7.1"},
			{Name: "node", Version: "22.6.0", Pinned: true},
		},
		casks: []inventory.PackageRecord{{Name: "firefox", Version: "130.0", IsCask: true}},
	}
	builder := newCommandBuilder(testInstance, source)

	listCommand, buildError := builder.BuildListCommand()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, listCommand, "--casks")
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "jq 1.7.1")
	require.Contains(testInstance, output, "node 22.6.0 (pinned)")
	require.Contains(testInstance, output, "firefox 130.0")
}

func TestListCommandJSONOutput(testInstance *testing.T) {
	source := &stubPackageSource{
		formulae: []inventory.PackageRecord{{Name: "jq", Version: "1.7.1"}},
	}
	builder := newCommandBuilder(testInstance, source)

	listCommand, buildError := builder.BuildListCommand()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, listCommand, "--json")
	require.NoError(testInstance, executionError)

	var listing inspect.Listing
	require.NoError(testInstance, json.Unmarshal([]byte(output), &listing))
	require.Len(testInstance, listing.Formulae, 1)
	require.Equal(testInstance, "jq", listing.Formulae[0].Name)
}

func TestAnalyzeCommandGroupsByTier(testInstance *testing.T) {
	source := &stubPackageSource{
		formulae: []inventory.PackageRecord{
			{Name: "icu4c", Version: "74.2"},
			{Name: "harfbuzz", Version: "9.0", Dependencies: []string{"icu4c"}},
			{Name: "jq", Version: "1.7.1"},
		},
	}
	builder := newCommandBuilder(testInstance, source)

	analyzeCommand, buildError := builder.BuildAnalyzeCommand()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, analyzeCommand)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "SAFE (1):")
	require.Contains(testInstance, output, "RISKY (1):")
	require.Contains(testInstance, output, "KEEP (1):")
	require.Contains(testInstance, output, "icu4c")
	require.Contains(testInstance, output, "zb-migrate migrate --dry-run")
}

func TestOutdatedCommand(testInstance *testing.T) {
	testCases := []struct {
		name           string
		outdated       []string
		expectedOutput string
	}{
		{name: "with_updates", outdated: []string{"jq"}, expectedOutput: "jq\n"},
		{name: "up_to_date", outdated: nil, expectedOutput: "All packages are up to date.\n"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			builder := newCommandBuilder(subtest, &stubPackageSource{outdated: testCase.outdated})
			outdatedCommand, buildError := builder.BuildOutdatedCommand()
			require.NoError(subtest, buildError)

			output, executionError := executeCommand(subtest, outdatedCommand)
			require.NoError(subtest, executionError)
			require.Equal(subtest, testCase.expectedOutput, output)
		})
	}
}

func TestUpgradeCommand(testInstance *testing.T) {
	source := &stubPackageSource{}
	builder := newCommandBuilder(testInstance, source)

	upgradeCommand, buildError := builder.BuildUpgradeCommand()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, upgradeCommand)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, 1, source.upgradeCalls)
	require.Contains(testInstance, output, "Homebrew packages upgraded.")
}
