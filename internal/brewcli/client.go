package brewcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zerobrew/zb-migrate/internal/execshell"
	"github.com/zerobrew/zb-migrate/internal/inventory"
)

const (
	executorMissingMessageConstant       = "brew executor not configured"
	prefixDetectionErrorTemplateConstant = "unable to detect Homebrew prefix: %w"
	formulaListErrorTemplateConstant     = "unable to list installed formulae: %w"
	outdatedListErrorTemplateConstant    = "unable to list outdated packages: %w"
	upgradeErrorTemplateConstant         = "unable to upgrade packages: %w"
	uninstallErrorTemplateConstant       = "unable to uninstall %s: %w"
	metadataParseErrorTemplateConstant   = "unable to parse metadata for %s: %w"
	homebrewCoreTapNameConstant          = "homebrew/core"
	listSubcommandConstant               = "list"
	depsSubcommandConstant               = "deps"
	infoSubcommandConstant               = "info"
	outdatedSubcommandConstant           = "outdated"
	upgradeSubcommandConstant            = "upgrade"
	uninstallSubcommandConstant          = "uninstall"
	prefixFlagConstant                   = "--prefix"
	formulaFlagConstant                  = "--formula"
	caskFlagConstant                     = "--cask"
	versionsFlagConstant                 = "--versions"
	pinnedFlagConstant                   = "--pinned"
	installedFlagConstant                = "--installed"
	quietFlagConstant                    = "--quiet"
	jsonVersionTwoFlagConstant           = "--json=v2"
	ignoreDependenciesFlagConstant       = "--ignore-dependencies"
)

// ErrExecutorMissing indicates the client was constructed without an executor.
var ErrExecutorMissing = errors.New(executorMissingMessageConstant)

// CommandExecutor runs brew commands and returns their captured results.
type CommandExecutor interface {
	ExecuteBrew(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client wraps the Homebrew binary behind typed inventory operations.
type Client struct {
	executor CommandExecutor
}

// NewClient validates dependencies and constructs a Homebrew client.
func NewClient(executor CommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorMissing
	}
	return &Client{executor: executor}, nil
}

type formulaMetadataDocument struct {
	Formulae []struct {
		Tap string `json:"tap"`
	} `json:"formulae"`
}

// DetectPrefix resolves the Homebrew installation prefix.
func (client *Client) DetectPrefix(executionContext context.Context) (string, error) {
	executionResult, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{prefixFlagConstant},
	})
	if executionError != nil {
		return "", fmt.Errorf(prefixDetectionErrorTemplateConstant, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ListInstalledFormulae returns installed formulae with name, version, and pin
// status. Dependency and tap details are loaded separately because they
// require one brew invocation per package.
func (client *Client) ListInstalledFormulae(executionContext context.Context) ([]inventory.PackageRecord, error) {
	executionResult, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{listSubcommandConstant, formulaFlagConstant, versionsFlagConstant},
	})
	if executionError != nil {
		return nil, fmt.Errorf(formulaListErrorTemplateConstant, executionError)
	}

	pinnedPackages, pinnedError := client.listPinnedPackages(executionContext)
	if pinnedError != nil {
		return nil, pinnedError
	}

	records := []inventory.PackageRecord{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		lineFields := strings.Fields(outputLine)
		if len(lineFields) < 2 {
			continue
		}
		packageName := lineFields[0]
		_, packagePinned := pinnedPackages[packageName]
		records = append(records, inventory.PackageRecord{
			Name:         packageName,
			Version:      lineFields[1],
			Dependencies: []string{},
			Pinned:       packagePinned,
		})
	}
	return records, nil
}

// ListInstalledFormulaeDetailed augments the installed formulae with their
// in-inventory dependencies and originating taps.
func (client *Client) ListInstalledFormulaeDetailed(executionContext context.Context) ([]inventory.PackageRecord, error) {
	records, listError := client.ListInstalledFormulae(executionContext)
	if listError != nil {
		return nil, listError
	}

	for recordIndex := range records {
		dependencyNames, dependencyError := client.ListDependencies(executionContext, records[recordIndex].Name)
		if dependencyError != nil {
			return nil, dependencyError
		}
		records[recordIndex].Dependencies = dependencyNames

		tapName, tapError := client.resolveTap(executionContext, records[recordIndex].Name)
		if tapError != nil {
			return nil, tapError
		}
		records[recordIndex].Tap = tapName
	}
	return records, nil
}

// ListInstalledCasks returns installed casks. Hosts without cask support
// report an error from brew, which is treated as an empty inventory.
func (client *Client) ListInstalledCasks(executionContext context.Context) ([]inventory.PackageRecord, error) {
	executionResult, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{listSubcommandConstant, caskFlagConstant, versionsFlagConstant},
	})
	if executionError != nil {
		failedError := execshell.CommandFailedError{}
		if errors.As(executionError, &failedError) {
			return []inventory.PackageRecord{}, nil
		}
		return nil, executionError
	}

	records := []inventory.PackageRecord{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		lineFields := strings.Fields(outputLine)
		if len(lineFields) < 2 {
			continue
		}
		records = append(records, inventory.PackageRecord{
			Name:         lineFields[0],
			Version:      lineFields[1],
			IsCask:       true,
			Dependencies: []string{},
		})
	}
	return records, nil
}

// ListDependencies returns the installed dependencies of the named package.
// Packages brew cannot resolve report no dependencies.
func (client *Client) ListDependencies(executionContext context.Context, packageName string) ([]string, error) {
	executionResult, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{depsSubcommandConstant, installedFlagConstant, packageName},
	})
	if executionError != nil {
		failedError := execshell.CommandFailedError{}
		if errors.As(executionError, &failedError) {
			return []string{}, nil
		}
		return nil, executionError
	}

	dependencyNames := []string{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) > 0 {
			dependencyNames = append(dependencyNames, trimmedLine)
		}
	}
	return dependencyNames, nil
}

// CheckOutdated returns the names of installed packages with newer versions.
func (client *Client) CheckOutdated(executionContext context.Context) ([]string, error) {
	executionResult, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{outdatedSubcommandConstant, quietFlagConstant},
	})
	if executionError != nil {
		return nil, fmt.Errorf(outdatedListErrorTemplateConstant, executionError)
	}

	outdatedNames := []string{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) > 0 {
			outdatedNames = append(outdatedNames, trimmedLine)
		}
	}
	return outdatedNames, nil
}

// UpgradeAll upgrades every outdated package in place.
func (client *Client) UpgradeAll(executionContext context.Context) error {
	_, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{upgradeSubcommandConstant},
	})
	if executionError != nil {
		return fmt.Errorf(upgradeErrorTemplateConstant, executionError)
	}
	return nil
}

// Uninstall removes the named package without cascading to its dependents.
func (client *Client) Uninstall(executionContext context.Context, packageName string) error {
	_, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{uninstallSubcommandConstant, ignoreDependenciesFlagConstant, packageName},
	})
	if executionError != nil {
		return fmt.Errorf(uninstallErrorTemplateConstant, packageName, executionError)
	}
	return nil
}

// resolveTap reports the third-party tap providing the named formula. Core
// formulae report an empty tap.
func (client *Client) resolveTap(executionContext context.Context, packageName string) (string, error) {
	executionResult, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{infoSubcommandConstant, jsonVersionTwoFlagConstant, packageName},
	})
	if executionError != nil {
		failedError := execshell.CommandFailedError{}
		if errors.As(executionError, &failedError) {
			return "", nil
		}
		return "", executionError
	}

	metadataDocument := formulaMetadataDocument{}
	if unmarshalError := json.Unmarshal([]byte(executionResult.StandardOutput), &metadataDocument); unmarshalError != nil {
		return "", fmt.Errorf(metadataParseErrorTemplateConstant, packageName, unmarshalError)
	}
	if len(metadataDocument.Formulae) == 0 {
		return "", nil
	}
	tapName := metadataDocument.Formulae[0].Tap
	if tapName == homebrewCoreTapNameConstant {
		return "", nil
	}
	return tapName, nil
}

func (client *Client) listPinnedPackages(executionContext context.Context) (map[string]struct{}, error) {
	executionResult, executionError := client.executor.ExecuteBrew(executionContext, execshell.CommandDetails{
		Arguments: []string{listSubcommandConstant, pinnedFlagConstant},
	})
	if executionError != nil {
		failedError := execshell.CommandFailedError{}
		if errors.As(executionError, &failedError) {
			return map[string]struct{}{}, nil
		}
		return nil, executionError
	}

	pinnedPackages := map[string]struct{}{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) > 0 {
			pinnedPackages[trimmedLine] = struct{}{}
		}
	}
	return pinnedPackages, nil
}
