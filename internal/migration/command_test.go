package migration_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/zerobrew/zb-migrate/internal/inventory"
	"github.com/zerobrew/zb-migrate/internal/migration"
	"github.com/zerobrew/zb-migrate/internal/state"
	"github.com/zerobrew/zb-migrate/internal/ui"
	"github.com/zerobrew/zb-migrate/internal/zerobrewcli"
)

type stubServiceResolver struct {
	service       *migration.Service
	resolutionErr error
}

func (resolver *stubServiceResolver) Resolve(logger *zap.Logger) (*migration.Service, error) {
	return resolver.service, resolver.resolutionErr
}

type stubSourceResolver struct {
	source inventory.PackageSource
}

func (resolver *stubSourceResolver) Resolve(logger *zap.Logger) (inventory.PackageSource, error) {
	return resolver.source, nil
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

func newMigrationServiceForCommand(testInstance *testing.T, source *stubPackageSource, installer *stubInstaller) (*migration.Service, *state.Store) {
	testInstance.Helper()
	stateStore := state.NewStore(filepath.Join(testInstance.TempDir(), stateFileNameConstant))
	service, serviceError := migration.NewService(migration.ServiceDependencies{
		Logger:        zaptest.NewLogger(testInstance),
		PackageSource: source,
		Installer:     installer,
		StateStore:    stateStore,
		Classifier:    newTestClassifier(testInstance),
	})
	require.NoError(testInstance, serviceError)
	return service, stateStore
}

func TestMigrateCommandReportsSuccess(testInstance *testing.T) {
	source := &stubPackageSource{
		formulae: []inventory.PackageRecord{formulaRecord("jq", "1.7.1")},
		prefix:   serviceTestPrefixConstant,
	}
	service, _ := newMigrationServiceForCommand(testInstance, source, &stubInstaller{})

	builder := &migration.MigrateCommandBuilder{ServiceResolver: &stubServiceResolver{service: service}}
	migrateCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, migrateCommand)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "jq 1.7.1")
	require.Contains(testInstance, output, "1 migrated, 0 failed, 0 skipped")
}

func TestMigrateCommandFailsWhenPackagesFail(testInstance *testing.T) {
	source := &stubPackageSource{
		formulae: []inventory.PackageRecord{formulaRecord("jq", "1.7.1")},
		prefix:   serviceTestPrefixConstant,
	}
	installer := &stubInstaller{failures: map[string]error{"jq": errors.New("bottle fetch failed")}}
	service, _ := newMigrationServiceForCommand(testInstance, source, installer)

	builder := &migration.MigrateCommandBuilder{ServiceResolver: &stubServiceResolver{service: service}}
	migrateCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, migrateCommand)
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "1 package(s) failed to migrate")
	require.Contains(testInstance, output, "bottle fetch failed")
}

func TestMigrateCommandAnnotatesLinkConflicts(testInstance *testing.T) {
	source := &stubPackageSource{
		formulae: []inventory.PackageRecord{formulaRecord("gnu-sed", "4.9")},
		prefix:   serviceTestPrefixConstant,
	}
	installer := &stubInstaller{
		failures: map[string]error{
			"gnu-sed": &zerobrewcli.InstallFailedError{
				PackageName: "gnu-sed",
				Reason:      "Error: /opt/zerobrew/bin/sed already exists",
				Conflict:    true,
			},
		},
	}
	service, _ := newMigrationServiceForCommand(testInstance, source, installer)

	builder := &migration.MigrateCommandBuilder{ServiceResolver: &stubServiceResolver{service: service}}
	migrateCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, migrateCommand)
	require.Error(testInstance, executionError)
	require.Contains(testInstance, output, "Error: /opt/zerobrew/bin/sed already exists")
	require.Contains(testInstance, output, "link conflict")
}

func TestMigrateCommandDryRunFlag(testInstance *testing.T) {
	source := &stubPackageSource{
		formulae: []inventory.PackageRecord{formulaRecord("jq", "1.7.1")},
		prefix:   serviceTestPrefixConstant,
	}
	installer := &stubInstaller{}
	service, stateStore := newMigrationServiceForCommand(testInstance, source, installer)

	builder := &migration.MigrateCommandBuilder{ServiceResolver: &stubServiceResolver{service: service}}
	migrateCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, migrateCommand, "--dry-run")
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "dry run")
	require.Empty(testInstance, installer.installed)
	require.False(testInstance, stateStore.Exists())
}

func TestMigrateCommandRejectsPositionalArguments(testInstance *testing.T) {
	builder := &migration.MigrateCommandBuilder{ServiceResolver: &stubServiceResolver{}}
	migrateCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, migrateCommand, "jq")
	require.Error(testInstance, executionError)
}

func TestStatusCommandWithoutStateFile(testInstance *testing.T) {
	stateStore := state.NewStore(filepath.Join(testInstance.TempDir(), stateFileNameConstant))
	builder := &migration.StatusCommandBuilder{
		StateStoreProvider: func() (*state.Store, error) { return stateStore, nil },
	}
	statusCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, statusCommand)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "No migration state found")
}

func TestStatusCommandListsProgress(testInstance *testing.T) {
	stateStore := state.NewStore(filepath.Join(testInstance.TempDir(), stateFileNameConstant))
	migrationState := state.NewMigrationState()
	migrationState.HomebrewPrefix = serviceTestPrefixConstant
	migrationState.RecordMigrated(formulaRecord("jq", "1.7.1"))
	migrationState.RecordFailed("openssl@3")
	require.NoError(testInstance, stateStore.Save(migrationState))

	builder := &migration.StatusCommandBuilder{
		StateStoreProvider: func() (*state.Store, error) { return stateStore, nil },
		StylerProvider:     func() *ui.Styler { return ui.NewStyler(false) },
	}
	statusCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, statusCommand)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, serviceTestPrefixConstant)
	require.Contains(testInstance, output, "Migrated (1):")
	require.Contains(testInstance, output, "jq 1.7.1")
	require.Contains(testInstance, output, "Failed (1):")
	require.Contains(testInstance, output, "openssl@3")
}

func TestCleanupCommandRefusesWithoutForce(testInstance *testing.T) {
	stateStore := state.NewStore(filepath.Join(testInstance.TempDir(), stateFileNameConstant))
	migrationState := state.NewMigrationState()
	migrationState.RecordMigrated(formulaRecord("jq", "1.7.1"))
	require.NoError(testInstance, stateStore.Save(migrationState))

	source := &stubPackageSource{}
	builder := &migration.CleanupCommandBuilder{
		StateStoreProvider:    func() (*state.Store, error) { return stateStore, nil },
		PackageSourceResolver: &stubSourceResolver{source: source},
	}
	cleanupCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, cleanupCommand)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "would uninstall jq")
	require.Contains(testInstance, output, "Refusing to uninstall without --force")
	require.Empty(testInstance, source.uninstalled)
}

func TestCleanupCommandUninstallsWithForce(testInstance *testing.T) {
	stateStore := state.NewStore(filepath.Join(testInstance.TempDir(), stateFileNameConstant))
	migrationState := state.NewMigrationState()
	migrationState.RecordMigrated(formulaRecord("jq", "1.7.1"))
	migrationState.RecordMigrated(formulaRecord("ripgrep", "14.1.0"))
	require.NoError(testInstance, stateStore.Save(migrationState))

	source := &stubPackageSource{}
	builder := &migration.CleanupCommandBuilder{
		StateStoreProvider:    func() (*state.Store, error) { return stateStore, nil },
		PackageSourceResolver: &stubSourceResolver{source: source},
	}
	cleanupCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, cleanupCommand, "--force")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []string{"jq", "ripgrep"}, source.uninstalled)
	require.Contains(testInstance, output, "uninstalled jq from Homebrew")
}

func TestCleanupCommandWithNothingMigrated(testInstance *testing.T) {
	stateStore := state.NewStore(filepath.Join(testInstance.TempDir(), stateFileNameConstant))
	builder := &migration.CleanupCommandBuilder{
		StateStoreProvider:    func() (*state.Store, error) { return stateStore, nil },
		PackageSourceResolver: &stubSourceResolver{source: &stubPackageSource{}},
	}
	cleanupCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, cleanupCommand)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "No migrated packages to clean up")
}
