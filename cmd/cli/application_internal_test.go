package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zerobrew/zb-migrate/internal/utils/flags"
)

func TestNewApplicationRegistersSubcommands(testInstance *testing.T) {
	application := NewApplication()

	registeredNames := map[string]struct{}{}
	for _, subcommand := range application.rootCommand.Commands() {
		registeredNames[subcommand.Name()] = struct{}{}
	}

	expectedNames := []string{"list", "analyze", "export", "migrate", "outdated", "upgrade", "status", "cleanup"}
	for _, expectedName := range expectedNames {
		require.Contains(testInstance, registeredNames, expectedName)
	}
}

func TestPersistentToggleFlagsNormalizeValueArguments(testInstance *testing.T) {
	NewApplication()

	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:      "long_form_value",
			arguments: []string{"--verbose", "no", "migrate"},
			expected:  []string{"--verbose=no", "migrate"},
		},
		{
			name:      "shorthand_value",
			arguments: []string{"-v", "yes", "list"},
			expected:  []string{"-v=yes", "list"},
		},
		{
			name:      "no_color_value",
			arguments: []string{"--no-color", "yes", "status"},
			expected:  []string{"--no-color=yes", "status"},
		},
		{
			name:      "non_toggle_flags_untouched",
			arguments: []string{"migrate", "--package", "jq", "--dry-run"},
			expected:  []string{"migrate", "--package", "jq", "--dry-run"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, flags.NormalizeToggleArguments(testCase.arguments))
		})
	}
}

func TestInitializeConfigurationAppliesDefaultsAndFlagOverrides(testInstance *testing.T) {
	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, "structured"))

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "info", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", application.configuration.Common.LogFormat)
	require.False(testInstance, application.humanReadableLoggingEnabled())
	require.NotEmpty(testInstance, application.configuration.Migration.StateFilePath)
	require.NotContains(testInstance, application.configuration.Migration.StateFilePath, "~")
}

func TestInitializeConfigurationDefaultsToConsoleFormat(testInstance *testing.T) {
	application := NewApplication()

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))
	require.True(testInstance, application.humanReadableLoggingEnabled())
}

func TestResolveStylerHonorsNoColorFlag(testInstance *testing.T) {
	application := NewApplication()
	application.noColorFlagValue = true

	styler := application.resolveStyler()
	require.Equal(testInstance, "plain text", styler.Title("plain text"))
}

func TestResolveStateStoreUsesConfiguredPath(testInstance *testing.T) {
	application := NewApplication()
	application.configuration.Migration.StateFilePath = "/tmp/zb-test/state.json"

	stateStore, storeError := application.resolveStateStore()
	require.NoError(testInstance, storeError)
	require.Equal(testInstance, "/tmp/zb-test/state.json", stateStore.Path())
}
