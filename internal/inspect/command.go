package inspect

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zerobrew/zb-migrate/internal/ui"
)

const (
	listCommandUseConstant                  = "list"
	listCommandShortDescriptionConstant     = "List installed Homebrew packages"
	listCommandLongDescriptionConstant      = "list prints installed formulae, optionally including casks."
	analyzeCommandUseConstant               = "analyze"
	analyzeCommandShortDescriptionConstant  = "Grade installed packages by migration risk"
	analyzeCommandLongDescriptionConstant   = "analyze classifies every installed formula as SAFE, RISKY, or KEEP and explains each non-safe grade."
	outdatedCommandUseConstant              = "outdated"
	outdatedCommandShortDescriptionConstant = "List packages with pending Homebrew updates"
	outdatedCommandLongDescriptionConstant  = "outdated names installed formulae whose source versions are newer than the installed ones."
	upgradeCommandUseConstant               = "upgrade"
	upgradeCommandShortDescriptionConstant  = "Upgrade Homebrew-managed packages"
	upgradeCommandLongDescriptionConstant   = "upgrade runs the source manager's upgrade for packages that have not been migrated yet."
	casksFlagNameConstant                   = "casks"
	casksFlagDescriptionConstant            = "Include installed casks in the listing"
	jsonFlagNameConstant                    = "json"
	jsonFlagDescriptionConstant             = "Emit machine-readable JSON"
	unexpectedArgumentsErrorMessageConstant = "command does not accept positional arguments"
	serviceResolutionErrorTemplateConstant  = "unable to prepare inspection service: %w"
	missingServiceResolverMessageConstant   = "service resolver not configured"
	outdatedEmptyMessageConstant            = "All packages are up to date."
	upgradeCompletedMessageConstant         = "Homebrew packages upgraded."
)

var errServiceResolverMissing = errors.New(missingServiceResolverMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// StylerProvider supplies the output styler for the current color settings.
type StylerProvider func() *ui.Styler

// ServiceResolver creates inspection services bound to command execution.
type ServiceResolver interface {
	Resolve(logger *zap.Logger) (*Service, error)
}

// CommandBuilder assembles the read-only inspection commands.
type CommandBuilder struct {
	LoggerProvider  LoggerProvider
	StylerProvider  StylerProvider
	ServiceResolver ServiceResolver
}

// BuildListCommand constructs the list command.
func (builder *CommandBuilder) BuildListCommand() (*cobra.Command, error) {
	if builder.ServiceResolver == nil {
		return nil, errServiceResolverMissing
	}

	listCommand := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescriptionConstant,
		Long:  listCommandLongDescriptionConstant,
		RunE:  builder.runList,
	}
	listCommand.Flags().Bool(casksFlagNameConstant, false, casksFlagDescriptionConstant)
	listCommand.Flags().Bool(jsonFlagNameConstant, false, jsonFlagDescriptionConstant)

	return listCommand, nil
}

// BuildAnalyzeCommand constructs the analyze command.
func (builder *CommandBuilder) BuildAnalyzeCommand() (*cobra.Command, error) {
	if builder.ServiceResolver == nil {
		return nil, errServiceResolverMissing
	}

	analyzeCommand := &cobra.Command{
		Use:   analyzeCommandUseConstant,
		Short: analyzeCommandShortDescriptionConstant,
		Long:  analyzeCommandLongDescriptionConstant,
		RunE:  builder.runAnalyze,
	}
	analyzeCommand.Flags().Bool(jsonFlagNameConstant, false, jsonFlagDescriptionConstant)

	return analyzeCommand, nil
}

// BuildOutdatedCommand constructs the outdated command.
func (builder *CommandBuilder) BuildOutdatedCommand() (*cobra.Command, error) {
	if builder.ServiceResolver == nil {
		return nil, errServiceResolverMissing
	}

	return &cobra.Command{
		Use:   outdatedCommandUseConstant,
		Short: outdatedCommandShortDescriptionConstant,
		Long:  outdatedCommandLongDescriptionConstant,
		RunE:  builder.runOutdated,
	}, nil
}

// BuildUpgradeCommand constructs the upgrade command.
func (builder *CommandBuilder) BuildUpgradeCommand() (*cobra.Command, error) {
	if builder.ServiceResolver == nil {
		return nil, errServiceResolverMissing
	}

	return &cobra.Command{
		Use:   upgradeCommandUseConstant,
		Short: upgradeCommandShortDescriptionConstant,
		Long:  upgradeCommandLongDescriptionConstant,
		RunE:  builder.runUpgrade,
	}, nil
}

func (builder *CommandBuilder) runList(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	includeCasks, casksError := command.Flags().GetBool(casksFlagNameConstant)
	if casksError != nil {
		return casksError
	}
	asJSON, jsonError := command.Flags().GetBool(jsonFlagNameConstant)
	if jsonError != nil {
		return jsonError
	}

	inspectionService, serviceError := builder.resolveService()
	if serviceError != nil {
		return serviceError
	}

	listing, listingError := inspectionService.ListPackages(command.Context(), includeCasks)
	if listingError != nil {
		return listingError
	}
	return RenderListing(command.OutOrStdout(), builder.resolveStyler(), listing, asJSON)
}

func (builder *CommandBuilder) runAnalyze(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	asJSON, jsonError := command.Flags().GetBool(jsonFlagNameConstant)
	if jsonError != nil {
		return jsonError
	}

	inspectionService, serviceError := builder.resolveService()
	if serviceError != nil {
		return serviceError
	}

	report, analysisError := inspectionService.Analyze(command.Context())
	if analysisError != nil {
		return analysisError
	}
	return RenderAnalysis(command.OutOrStdout(), builder.resolveStyler(), report, asJSON)
}

func (builder *CommandBuilder) runOutdated(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	inspectionService, serviceError := builder.resolveService()
	if serviceError != nil {
		return serviceError
	}

	outdatedNames, outdatedError := inspectionService.Outdated(command.Context())
	if outdatedError != nil {
		return outdatedError
	}

	output := command.OutOrStdout()
	if len(outdatedNames) == 0 {
		fmt.Fprintln(output, outdatedEmptyMessageConstant)
		return nil
	}
	for _, packageName := range outdatedNames {
		fmt.Fprintln(output, packageName)
	}
	return nil
}

func (builder *CommandBuilder) runUpgrade(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	inspectionService, serviceError := builder.resolveService()
	if serviceError != nil {
		return serviceError
	}

	if upgradeError := inspectionService.UpgradeAll(command.Context()); upgradeError != nil {
		return upgradeError
	}

	fmt.Fprintln(command.OutOrStdout(), builder.resolveStyler().Success(upgradeCompletedMessageConstant))
	return nil
}

func (builder *CommandBuilder) resolveService() (*Service, error) {
	logger := builder.resolveLogger()
	inspectionService, serviceError := builder.ServiceResolver.Resolve(logger)
	if serviceError != nil {
		return nil, fmt.Errorf(serviceResolutionErrorTemplateConstant, serviceError)
	}
	return inspectionService, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveStyler() *ui.Styler {
	if builder.StylerProvider == nil {
		return ui.NewStyler(false)
	}
	styler := builder.StylerProvider()
	if styler == nil {
		return ui.NewStyler(false)
	}
	return styler
}
