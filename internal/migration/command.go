package migration

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zerobrew/zb-migrate/internal/inventory"
	"github.com/zerobrew/zb-migrate/internal/state"
	"github.com/zerobrew/zb-migrate/internal/ui"
)

const (
	migrateCommandUseConstant                   = "migrate"
	migrateCommandShortDescriptionConstant      = "Migrate installed Homebrew packages to Zerobrew"
	migrateCommandLongDescriptionConstant       = "migrate installs Homebrew formulae into Zerobrew in dependency order, persisting progress after every attempt."
	statusCommandUseConstant                    = "status"
	statusCommandShortDescriptionConstant       = "Show persisted migration progress"
	statusCommandLongDescriptionConstant        = "status reports migrated and failed packages recorded in the migration state file."
	cleanupCommandUseConstant                   = "cleanup"
	cleanupCommandShortDescriptionConstant      = "Uninstall migrated packages from Homebrew"
	cleanupCommandLongDescriptionConstant       = "cleanup removes successfully migrated formulae from Homebrew. It refuses to act without --force."
	unexpectedArgumentsErrorMessageConstant     = "command does not accept positional arguments"
	dryRunFlagNameConstant                      = "dry-run"
	dryRunFlagDescriptionConstant               = "Compute and report the migration plan without installing anything"
	packageFlagNameConstant                     = "package"
	packageFlagShorthandConstant                = "p"
	packageFlagDescriptionConstant              = "Restrict migration to the named package (repeatable); unmigrated dependencies are included automatically"
	interactiveFlagNameConstant                 = "interactive"
	interactiveFlagShorthandConstant            = "i"
	interactiveFlagDescriptionConstant          = "Confirm each package before it is migrated"
	forceFlagNameConstant                       = "force"
	forceFlagDescriptionConstant                = "Actually uninstall migrated packages from Homebrew"
	migrationFailuresErrorTemplateConstant      = "%d package(s) failed to migrate"
	serviceResolutionErrorTemplateConstant      = "unable to prepare migration service: %w"
	sourceResolutionErrorTemplateConstant       = "unable to prepare package source: %w"
	statusTitleMessageConstant                  = "Migration status"
	statusEmptyMessageConstant                  = "No migration state found. Run 'zb-migrate migrate' to begin."
	statusPrefixTemplateConstant                = "Homebrew prefix: %s"
	statusMigratedHeadingTemplateConstant       = "Migrated (%d):"
	statusFailedHeadingTemplateConstant         = "Failed (%d):"
	statusMigratedLineTemplateConstant          = "%s %s"
	cleanupTitleMessageConstant                 = "Cleanup"
	cleanupNothingMessageConstant               = "No migrated packages to clean up."
	cleanupRefusalMessageConstant               = "Refusing to uninstall without --force."
	cleanupCandidateTemplateConstant            = "would uninstall %s from Homebrew"
	cleanupRemovedTemplateConstant              = "uninstalled %s from Homebrew"
	cleanupFailureTemplateConstant              = "failed to uninstall %s: %v"
	cleanupFailuresErrorTemplateConstant        = "%d package(s) could not be uninstalled"
	missingServiceResolverMessageConstant       = "service resolver not configured"
	missingStateStoreProviderMessageConstant    = "state store provider not configured"
	missingPackageSourceResolverMessageConstant = "package source resolver not configured"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// StylerProvider supplies the output styler for the current color settings.
type StylerProvider func() *ui.Styler

// StateStoreProvider supplies the configured migration state store.
type StateStoreProvider func() (*state.Store, error)

// ServiceResolver creates migration services bound to command execution.
type ServiceResolver interface {
	Resolve(logger *zap.Logger) (*Service, error)
}

// PackageSourceResolver creates Homebrew package sources for command execution.
type PackageSourceResolver interface {
	Resolve(logger *zap.Logger) (inventory.PackageSource, error)
}

// MigrateCommandBuilder assembles the migrate command.
type MigrateCommandBuilder struct {
	LoggerProvider  LoggerProvider
	StylerProvider  StylerProvider
	ServiceResolver ServiceResolver
}

// Build constructs the migrate command.
func (builder *MigrateCommandBuilder) Build() (*cobra.Command, error) {
	if builder.ServiceResolver == nil {
		return nil, errors.New(missingServiceResolverMessageConstant)
	}

	migrateCommand := &cobra.Command{
		Use:   migrateCommandUseConstant,
		Short: migrateCommandShortDescriptionConstant,
		Long:  migrateCommandLongDescriptionConstant,
		RunE:  builder.run,
	}

	migrateCommand.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)
	migrateCommand.Flags().StringArrayP(packageFlagNameConstant, packageFlagShorthandConstant, nil, packageFlagDescriptionConstant)
	migrateCommand.Flags().BoolP(interactiveFlagNameConstant, interactiveFlagShorthandConstant, false, interactiveFlagDescriptionConstant)

	return migrateCommand, nil
}

func (builder *MigrateCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	dryRunValue, dryRunError := command.Flags().GetBool(dryRunFlagNameConstant)
	if dryRunError != nil {
		return dryRunError
	}
	packageNames, packagesError := command.Flags().GetStringArray(packageFlagNameConstant)
	if packagesError != nil {
		return packagesError
	}
	interactiveValue, interactiveError := command.Flags().GetBool(interactiveFlagNameConstant)
	if interactiveError != nil {
		return interactiveError
	}

	logger := resolveLogger(builder.LoggerProvider)
	migrationService, serviceError := builder.ServiceResolver.Resolve(logger)
	if serviceError != nil {
		return fmt.Errorf(serviceResolutionErrorTemplateConstant, serviceError)
	}

	report, executionError := migrationService.Execute(command.Context(), Options{
		DryRun:       dryRunValue,
		Interactive:  interactiveValue,
		PackageNames: packageNames,
	})
	if executionError != nil {
		return executionError
	}

	RenderReport(command.OutOrStdout(), resolveStyler(builder.StylerProvider), report)

	if failedCount := report.FailedCount(); failedCount > 0 {
		return fmt.Errorf(migrationFailuresErrorTemplateConstant, failedCount)
	}
	return nil
}

// StatusCommandBuilder assembles the status command.
type StatusCommandBuilder struct {
	StylerProvider     StylerProvider
	StateStoreProvider StateStoreProvider
}

// Build constructs the status command.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	if builder.StateStoreProvider == nil {
		return nil, errors.New(missingStateStoreProviderMessageConstant)
	}

	return &cobra.Command{
		Use:   statusCommandUseConstant,
		Short: statusCommandShortDescriptionConstant,
		Long:  statusCommandLongDescriptionConstant,
		RunE:  builder.run,
	}, nil
}

func (builder *StatusCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	stateStore, storeError := builder.StateStoreProvider()
	if storeError != nil {
		return storeError
	}

	styler := resolveStyler(builder.StylerProvider)
	output := command.OutOrStdout()

	if !stateStore.Exists() {
		fmt.Fprintln(output, statusEmptyMessageConstant)
		return nil
	}

	migrationState, loadError := stateStore.Load()
	if loadError != nil {
		return loadError
	}

	fmt.Fprintln(output, styler.Title(statusTitleMessageConstant))
	if len(migrationState.HomebrewPrefix) > 0 {
		fmt.Fprintln(output, fmt.Sprintf(statusPrefixTemplateConstant, migrationState.HomebrewPrefix))
	}

	migratedNames := sortedMigratedNames(migrationState)
	fmt.Fprintln(output, styler.Emphasis(fmt.Sprintf(statusMigratedHeadingTemplateConstant, len(migratedNames))))
	for _, packageName := range migratedNames {
		record := migrationState.MigratedPackages[packageName]
		fmt.Fprintln(output, styler.Success(fmt.Sprintf(statusMigratedLineTemplateConstant, record.Name, record.Version)))
	}

	failedNames := append([]string(nil), migrationState.FailedPackages...)
	sort.Strings(failedNames)
	fmt.Fprintln(output, styler.Emphasis(fmt.Sprintf(statusFailedHeadingTemplateConstant, len(failedNames))))
	for _, packageName := range failedNames {
		fmt.Fprintln(output, styler.Failure(packageName))
	}

	return nil
}

// CleanupCommandBuilder assembles the cleanup command.
type CleanupCommandBuilder struct {
	LoggerProvider        LoggerProvider
	StylerProvider        StylerProvider
	StateStoreProvider    StateStoreProvider
	PackageSourceResolver PackageSourceResolver
}

// Build constructs the cleanup command.
func (builder *CleanupCommandBuilder) Build() (*cobra.Command, error) {
	if builder.StateStoreProvider == nil {
		return nil, errors.New(missingStateStoreProviderMessageConstant)
	}
	if builder.PackageSourceResolver == nil {
		return nil, errors.New(missingPackageSourceResolverMessageConstant)
	}

	cleanupCommand := &cobra.Command{
		Use:   cleanupCommandUseConstant,
		Short: cleanupCommandShortDescriptionConstant,
		Long:  cleanupCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	cleanupCommand.Flags().Bool(forceFlagNameConstant, false, forceFlagDescriptionConstant)

	return cleanupCommand, nil
}

func (builder *CleanupCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	forceValue, forceError := command.Flags().GetBool(forceFlagNameConstant)
	if forceError != nil {
		return forceError
	}

	stateStore, storeError := builder.StateStoreProvider()
	if storeError != nil {
		return storeError
	}
	migrationState, loadError := stateStore.Load()
	if loadError != nil {
		return loadError
	}

	styler := resolveStyler(builder.StylerProvider)
	output := command.OutOrStdout()
	migratedNames := sortedMigratedNames(migrationState)

	fmt.Fprintln(output, styler.Title(cleanupTitleMessageConstant))
	if len(migratedNames) == 0 {
		fmt.Fprintln(output, cleanupNothingMessageConstant)
		return nil
	}

	if !forceValue {
		for _, packageName := range migratedNames {
			fmt.Fprintln(output, styler.Skip(fmt.Sprintf(cleanupCandidateTemplateConstant, packageName)))
		}
		fmt.Fprintln(output, styler.Warning(cleanupRefusalMessageConstant))
		return nil
	}

	logger := resolveLogger(builder.LoggerProvider)
	packageSource, sourceError := builder.PackageSourceResolver.Resolve(logger)
	if sourceError != nil {
		return fmt.Errorf(sourceResolutionErrorTemplateConstant, sourceError)
	}

	uninstallFailureCount := 0
	for _, packageName := range migratedNames {
		uninstallError := packageSource.Uninstall(command.Context(), packageName)
		if uninstallError != nil {
			uninstallFailureCount++
			fmt.Fprintln(output, styler.Failure(fmt.Sprintf(cleanupFailureTemplateConstant, packageName, uninstallError)))
			continue
		}
		fmt.Fprintln(output, styler.Success(fmt.Sprintf(cleanupRemovedTemplateConstant, packageName)))
	}

	if uninstallFailureCount > 0 {
		return fmt.Errorf(cleanupFailuresErrorTemplateConstant, uninstallFailureCount)
	}
	return nil
}

func sortedMigratedNames(migrationState *state.MigrationState) []string {
	migratedNames := make([]string, 0, len(migrationState.MigratedPackages))
	for packageName := range migrationState.MigratedPackages {
		migratedNames = append(migratedNames, packageName)
	}
	sort.Strings(migratedNames)
	return migratedNames
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveStyler(provider StylerProvider) *ui.Styler {
	if provider == nil {
		return ui.NewStyler(false)
	}
	styler := provider()
	if styler == nil {
		return ui.NewStyler(false)
	}
	return styler
}
