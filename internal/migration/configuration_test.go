package migration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zerobrew/zb-migrate/internal/migration"
)

func TestConfigurationSanitize(testInstance *testing.T) {
	homeDirectory, homeError := os.UserHomeDir()
	require.NoError(testInstance, homeError)

	testCases := []struct {
		name              string
		configuration     migration.Configuration
		expectedStatePath string
	}{
		{
			name:              "blank_path_falls_back_to_default",
			configuration:     migration.Configuration{StateFilePath: "   "},
			expectedStatePath: filepath.Join(homeDirectory, ".zerobrew", "migration_state.json"),
		},
		{
			name:              "tilde_path_expands",
			configuration:     migration.Configuration{StateFilePath: "~/custom/state.json"},
			expectedStatePath: filepath.Join(homeDirectory, "custom", "state.json"),
		},
		{
			name:              "absolute_path_preserved",
			configuration:     migration.Configuration{StateFilePath: "/var/lib/zb/state.json"},
			expectedStatePath: "/var/lib/zb/state.json",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			sanitizedConfiguration := testCase.configuration.Sanitize()
			require.Equal(subtest, testCase.expectedStatePath, sanitizedConfiguration.StateFilePath)
		})
	}
}

func TestDefaultConfigurationValues(testInstance *testing.T) {
	defaultValues := migration.DefaultConfigurationValues("migration")
	require.Equal(testInstance, "~/.zerobrew/migration_state.json", defaultValues["migration.state_file"])
}
