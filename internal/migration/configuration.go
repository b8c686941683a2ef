package migration

import (
	"strings"

	pathutils "github.com/zerobrew/zb-migrate/internal/utils/path"
)

const (
	defaultStateFilePathConstant    = "~/.zerobrew/migration_state.json"
	stateFileConfigurationKeySuffix = ".state_file"
)

// Configuration stores migrate tool settings resolved from files, environment
// variables, and defaults.
type Configuration struct {
	StateFilePath string `mapstructure:"state_file"`
}

// DefaultConfiguration returns the baseline migrate configuration.
func DefaultConfiguration() Configuration {
	return Configuration{StateFilePath: defaultStateFilePathConstant}
}

// DefaultConfigurationValues exposes default configuration entries keyed under
// the provided configuration prefix.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	return map[string]any{
		configurationKey + stateFileConfigurationKeySuffix: defaultStateFilePathConstant,
	}
}

// Sanitize normalizes configured values and applies fallbacks, expanding a
// leading tilde in the state file path.
func (configuration Configuration) Sanitize() Configuration {
	sanitizedConfiguration := configuration
	sanitizedConfiguration.StateFilePath = strings.TrimSpace(sanitizedConfiguration.StateFilePath)
	if len(sanitizedConfiguration.StateFilePath) == 0 {
		sanitizedConfiguration.StateFilePath = defaultStateFilePathConstant
	}
	sanitizedConfiguration.StateFilePath = pathutils.NewHomeExpander().Expand(sanitizedConfiguration.StateFilePath)
	return sanitizedConfiguration
}
