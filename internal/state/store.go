package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/zerobrew/zb-migrate/internal/inventory"
)

const (
	stateDirectoryNameConstant         = ".zerobrew"
	stateFileNameConstant              = "migration_state.json"
	lockFileSuffixConstant             = ".lock"
	temporaryFilePatternConstant       = ".migration_state-*.tmp"
	stateLockedMessageConstant         = "migration state is locked by another process"
	stateIOErrorTemplateConstant       = "state %s failed for %s: %v"
	homeDirectoryErrorTemplateConstant = "unable to resolve home directory: %w"
	stateDirectoryPermissionsConstant  = 0o755
	stateFilePermissionsConstant       = 0o644
)

// Operations reported inside StateIOError values.
const (
	operationLoad   = "load"
	operationSave   = "save"
	operationDelete = "delete"
	operationLock   = "lock"
)

// ErrStateLocked reports that another process holds the migration state lock.
var ErrStateLocked = errors.New(stateLockedMessageConstant)

// StateIOError wraps filesystem failures around the migration state file.
type StateIOError struct {
	Path      string
	Operation string
	Cause     error
}

// Error describes the failed state file operation.
func (ioError *StateIOError) Error() string {
	return fmt.Sprintf(stateIOErrorTemplateConstant, ioError.Operation, ioError.Path, ioError.Cause)
}

// Unwrap exposes the underlying filesystem failure.
func (ioError *StateIOError) Unwrap() error {
	return ioError.Cause
}

// MigrationState is the durable record of migration progress.
type MigrationState struct {
	MigratedPackages map[string]inventory.PackageRecord `json:"migrated_packages"`
	FailedPackages   []string                           `json:"failed_packages"`
	HomebrewPrefix   string                             `json:"homebrew_prefix"`
}

// NewMigrationState returns an empty state ready for recording outcomes.
func NewMigrationState() *MigrationState {
	return &MigrationState{
		MigratedPackages: map[string]inventory.PackageRecord{},
		FailedPackages:   []string{},
	}
}

// IsMigrated reports whether the named package already migrated successfully.
func (migrationState *MigrationState) IsMigrated(packageName string) bool {
	_, alreadyMigrated := migrationState.MigratedPackages[packageName]
	return alreadyMigrated
}

// RecordMigrated stores a successful migration and clears any earlier failure.
func (migrationState *MigrationState) RecordMigrated(record inventory.PackageRecord) {
	if migrationState.MigratedPackages == nil {
		migrationState.MigratedPackages = map[string]inventory.PackageRecord{}
	}
	migrationState.MigratedPackages[record.Name] = record
	migrationState.removeFailure(record.Name)
}

// RecordFailed stores a failed migration attempt exactly once per package.
func (migrationState *MigrationState) RecordFailed(packageName string) {
	delete(migrationState.MigratedPackages, packageName)
	for _, failedName := range migrationState.FailedPackages {
		if failedName == packageName {
			return
		}
	}
	migrationState.FailedPackages = append(migrationState.FailedPackages, packageName)
}

func (migrationState *MigrationState) removeFailure(packageName string) {
	remainingFailures := migrationState.FailedPackages[:0]
	for _, failedName := range migrationState.FailedPackages {
		if failedName != packageName {
			remainingFailures = append(remainingFailures, failedName)
		}
	}
	migrationState.FailedPackages = remainingFailures
}

// Store persists migration state as JSON guarded by an advisory file lock.
type Store struct {
	filePath string
	fileLock *flock.Flock
}

// NewStore constructs a store for the given state file path.
func NewStore(filePath string) *Store {
	return &Store{
		filePath: filePath,
		fileLock: flock.New(filePath + lockFileSuffixConstant),
	}
}

// DefaultStatePath resolves the per-user migration state file location.
func DefaultStatePath() (string, error) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, homeError)
	}
	return filepath.Join(homeDirectory, stateDirectoryNameConstant, stateFileNameConstant), nil
}

// Path returns the state file location managed by the store.
func (store *Store) Path() string {
	return store.filePath
}

// Exists reports whether a state file is present on disk.
func (store *Store) Exists() bool {
	_, statError := os.Stat(store.filePath)
	return statError == nil
}

// AcquireLock takes the advisory lock without blocking. ErrStateLocked is
// returned when another process already holds it.
func (store *Store) AcquireLock() error {
	if directoryError := os.MkdirAll(filepath.Dir(store.filePath), stateDirectoryPermissionsConstant); directoryError != nil {
		return &StateIOError{Path: store.filePath, Operation: operationLock, Cause: directoryError}
	}

	lockAcquired, lockError := store.fileLock.TryLock()
	if lockError != nil {
		return &StateIOError{Path: store.fileLock.Path(), Operation: operationLock, Cause: lockError}
	}
	if !lockAcquired {
		return ErrStateLocked
	}
	return nil
}

// ReleaseLock releases the advisory lock when held.
func (store *Store) ReleaseLock() error {
	return store.fileLock.Unlock()
}

// Load reads the state file. A missing file yields a fresh empty state.
func (store *Store) Load() (*MigrationState, error) {
	stateContent, readError := os.ReadFile(store.filePath)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return NewMigrationState(), nil
		}
		return nil, &StateIOError{Path: store.filePath, Operation: operationLoad, Cause: readError}
	}

	migrationState := NewMigrationState()
	if unmarshalError := json.Unmarshal(stateContent, migrationState); unmarshalError != nil {
		return nil, &StateIOError{Path: store.filePath, Operation: operationLoad, Cause: unmarshalError}
	}
	if migrationState.MigratedPackages == nil {
		migrationState.MigratedPackages = map[string]inventory.PackageRecord{}
	}
	if migrationState.FailedPackages == nil {
		migrationState.FailedPackages = []string{}
	}
	return migrationState, nil
}

// Save writes the state atomically by staging a temporary file and renaming it
// over the previous snapshot.
func (store *Store) Save(migrationState *MigrationState) error {
	stateDirectory := filepath.Dir(store.filePath)
	if directoryError := os.MkdirAll(stateDirectory, stateDirectoryPermissionsConstant); directoryError != nil {
		return &StateIOError{Path: store.filePath, Operation: operationSave, Cause: directoryError}
	}

	stateContent, marshalError := json.MarshalIndent(migrationState, "", "  ")
	if marshalError != nil {
		return &StateIOError{Path: store.filePath, Operation: operationSave, Cause: marshalError}
	}

	temporaryFile, temporaryError := os.CreateTemp(stateDirectory, temporaryFilePatternConstant)
	if temporaryError != nil {
		return &StateIOError{Path: store.filePath, Operation: operationSave, Cause: temporaryError}
	}
	temporaryPath := temporaryFile.Name()

	if _, writeError := temporaryFile.Write(stateContent); writeError != nil {
		temporaryFile.Close()
		os.Remove(temporaryPath)
		return &StateIOError{Path: store.filePath, Operation: operationSave, Cause: writeError}
	}
	// Flush to disk before the rename so a power loss cannot publish an
	// empty or truncated state file.
	if syncError := temporaryFile.Sync(); syncError != nil {
		temporaryFile.Close()
		os.Remove(temporaryPath)
		return &StateIOError{Path: store.filePath, Operation: operationSave, Cause: syncError}
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		os.Remove(temporaryPath)
		return &StateIOError{Path: store.filePath, Operation: operationSave, Cause: closeError}
	}
	if permissionError := os.Chmod(temporaryPath, stateFilePermissionsConstant); permissionError != nil {
		os.Remove(temporaryPath)
		return &StateIOError{Path: store.filePath, Operation: operationSave, Cause: permissionError}
	}
	if renameError := os.Rename(temporaryPath, store.filePath); renameError != nil {
		os.Remove(temporaryPath)
		return &StateIOError{Path: store.filePath, Operation: operationSave, Cause: renameError}
	}
	return nil
}

// Delete removes the state file. A missing file is not an error.
func (store *Store) Delete() error {
	removeError := os.Remove(store.filePath)
	if removeError != nil && !errors.Is(removeError, os.ErrNotExist) {
		return &StateIOError{Path: store.filePath, Operation: operationDelete, Cause: removeError}
	}
	return nil
}
