package state_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zerobrew/zb-migrate/internal/inventory"
	"github.com/zerobrew/zb-migrate/internal/state"
)

func temporaryStatePath(testInstance *testing.T) string {
	testInstance.Helper()
	return filepath.Join(testInstance.TempDir(), "nested", "migration_state.json")
}

func TestStoreLoadMissingFileReturnsEmptyState(testInstance *testing.T) {
	store := state.NewStore(temporaryStatePath(testInstance))

	migrationState, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, migrationState.MigratedPackages)
	require.Empty(testInstance, migrationState.FailedPackages)
	require.False(testInstance, store.Exists())
}

func TestStoreSaveLoadRoundTrip(testInstance *testing.T) {
	store := state.NewStore(temporaryStatePath(testInstance))

	migrationState := state.NewMigrationState()
	migrationState.HomebrewPrefix = "/opt/homebrew"
	migrationState.RecordMigrated(inventory.PackageRecord{Name: "jq", Version: "1.7", Dependencies: []string{"oniguruma"}})
	migrationState.RecordFailed("ripgrep")

	require.NoError(testInstance, store.Save(migrationState))
	require.True(testInstance, store.Exists())

	reloadedState, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "/opt/homebrew", reloadedState.HomebrewPrefix)
	require.True(testInstance, reloadedState.IsMigrated("jq"))
	require.Equal(testInstance, []string{"ripgrep"}, reloadedState.FailedPackages)
	require.Equal(testInstance, []string{"oniguruma"}, reloadedState.MigratedPackages["jq"].Dependencies)
}

func TestStoreLoadToleratesUnknownFields(testInstance *testing.T) {
	statePath := temporaryStatePath(testInstance)
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(statePath), 0o755))

	stateContent := []byte(`{
		"migrated_packages": {"jq": {"name": "jq", "version": "1.7", "is_cask": false, "dependencies": [], "pinned": false}},
		"failed_packages": [],
		"homebrew_prefix": "/usr/local",
		"schema_revision": 7
	}`)
	require.NoError(testInstance, os.WriteFile(statePath, stateContent, 0o644))

	migrationState, loadError := state.NewStore(statePath).Load()
	require.NoError(testInstance, loadError)
	require.True(testInstance, migrationState.IsMigrated("jq"))
	require.Equal(testInstance, "/usr/local", migrationState.HomebrewPrefix)
}

func TestStoreLoadCorruptFileReportsIOError(testInstance *testing.T) {
	statePath := temporaryStatePath(testInstance)
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(statePath), 0o755))
	require.NoError(testInstance, os.WriteFile(statePath, []byte("{not json"), 0o644))

	_, loadError := state.NewStore(statePath).Load()
	require.Error(testInstance, loadError)

	ioError := &state.StateIOError{}
	require.ErrorAs(testInstance, loadError, &ioError)
	require.Equal(testInstance, statePath, ioError.Path)
}

func TestStoreSaveIsAtomicSnapshot(testInstance *testing.T) {
	statePath := temporaryStatePath(testInstance)
	store := state.NewStore(statePath)

	firstState := state.NewMigrationState()
	firstState.RecordMigrated(inventory.PackageRecord{Name: "fzf", Version: "0.56"})
	require.NoError(testInstance, store.Save(firstState))

	secondState := state.NewMigrationState()
	secondState.RecordMigrated(inventory.PackageRecord{Name: "fzf", Version: "0.56"})
	secondState.RecordMigrated(inventory.PackageRecord{Name: "bat", Version: "0.24"})
	require.NoError(testInstance, store.Save(secondState))

	stateContent, readError := os.ReadFile(statePath)
	require.NoError(testInstance, readError)

	decodedState := map[string]any{}
	require.NoError(testInstance, json.Unmarshal(stateContent, &decodedState))

	directoryEntries, directoryError := os.ReadDir(filepath.Dir(statePath))
	require.NoError(testInstance, directoryError)
	for _, directoryEntry := range directoryEntries {
		require.NotContains(testInstance, directoryEntry.Name(), ".tmp")
	}
}

func TestStoreLockExcludesSecondHolder(testInstance *testing.T) {
	statePath := temporaryStatePath(testInstance)

	firstStore := state.NewStore(statePath)
	require.NoError(testInstance, firstStore.AcquireLock())
	defer firstStore.ReleaseLock()

	secondStore := state.NewStore(statePath)
	lockError := secondStore.AcquireLock()
	require.ErrorIs(testInstance, lockError, state.ErrStateLocked)

	require.NoError(testInstance, firstStore.ReleaseLock())
	require.NoError(testInstance, secondStore.AcquireLock())
	require.NoError(testInstance, secondStore.ReleaseLock())
}

func TestMigrationStateFailureBookkeeping(testInstance *testing.T) {
	migrationState := state.NewMigrationState()

	migrationState.RecordFailed("wget")
	migrationState.RecordFailed("wget")
	require.Equal(testInstance, []string{"wget"}, migrationState.FailedPackages)

	migrationState.RecordMigrated(inventory.PackageRecord{Name: "wget", Version: "1.24"})
	require.Empty(testInstance, migrationState.FailedPackages)
	require.True(testInstance, migrationState.IsMigrated("wget"))
}

func TestStoreDelete(testInstance *testing.T) {
	statePath := temporaryStatePath(testInstance)
	store := state.NewStore(statePath)

	require.NoError(testInstance, store.Delete())

	require.NoError(testInstance, store.Save(state.NewMigrationState()))
	require.True(testInstance, store.Exists())
	require.NoError(testInstance, store.Delete())
	require.False(testInstance, store.Exists())
}
