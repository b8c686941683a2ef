package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultLogFormat",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			description:    "Override the configured log format.",
			expectedOutput: "`<structured|CONSOLE>` Override the configured log format.",
		},
		{
			name:           "DefaultLogLevel",
			defaultChoice:  "info",
			choices:        []string{"debug", "info", "warn", "error"},
			description:    "Override the configured log level.",
			expectedOutput: "`<debug|INFO|warn|error>` Override the configured log level.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "debug",
			choices:        []string{"debug", "info"},
			description:    "",
			expectedOutput: "`<DEBUG|info>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "info",
			choices:        []string{"info", "info", "debug", "debug"},
			description:    "Select a log level.",
			expectedOutput: "`<INFO|debug>` Select a log level.",
		},
		{
			name:           "WhitespaceTrimmed",
			defaultChoice:  "console",
			choices:        []string{" console ", " structured "},
			description:    "Pick a log format.",
			expectedOutput: "`<CONSOLE|structured>` Pick a log format.",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			actual := FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(t, testCase.expectedOutput, actual)
		})
	}
}
