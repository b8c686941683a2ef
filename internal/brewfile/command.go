package brewfile

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zerobrew/zb-migrate/internal/inventory"
)

const (
	exportCommandUseConstant                = "export"
	exportCommandShortDescriptionConstant   = "Export installed packages as a Brewfile"
	exportCommandLongDescriptionConstant    = "export writes taps, formulae, and casks to a Brewfile so the Homebrew installation can be reproduced."
	outputFlagNameConstant                  = "output"
	outputFlagShorthandConstant             = "o"
	outputFlagDefaultValueConstant          = "Brewfile"
	outputFlagDescriptionConstant           = "Destination path for the generated Brewfile"
	unexpectedArgumentsErrorMessageConstant = "export does not accept positional arguments"
	sourceResolutionErrorTemplateConstant   = "unable to prepare package source: %w"
	missingSourceResolverMessageConstant    = "package source resolver not configured"
	formulaListErrorTemplateConstant        = "unable to read installed packages: %w"
	caskListErrorTemplateConstant           = "unable to read installed casks: %w"
	exportWrittenTemplateConstant           = "Brewfile written to %s\n"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// PackageSourceResolver creates Homebrew package sources for command execution.
type PackageSourceResolver interface {
	Resolve(logger *zap.Logger) (inventory.PackageSource, error)
}

// ExportCommandBuilder assembles the export command.
type ExportCommandBuilder struct {
	LoggerProvider        LoggerProvider
	PackageSourceResolver PackageSourceResolver
}

// Build constructs the export command.
func (builder *ExportCommandBuilder) Build() (*cobra.Command, error) {
	if builder.PackageSourceResolver == nil {
		return nil, errors.New(missingSourceResolverMessageConstant)
	}

	exportCommand := &cobra.Command{
		Use:   exportCommandUseConstant,
		Short: exportCommandShortDescriptionConstant,
		Long:  exportCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	exportCommand.Flags().StringP(outputFlagNameConstant, outputFlagShorthandConstant, outputFlagDefaultValueConstant, outputFlagDescriptionConstant)

	return exportCommand, nil
}

func (builder *ExportCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	outputPath, outputError := command.Flags().GetString(outputFlagNameConstant)
	if outputError != nil {
		return outputError
	}

	logger := zap.NewNop()
	if builder.LoggerProvider != nil {
		if providedLogger := builder.LoggerProvider(); providedLogger != nil {
			logger = providedLogger
		}
	}

	packageSource, sourceError := builder.PackageSourceResolver.Resolve(logger)
	if sourceError != nil {
		return fmt.Errorf(sourceResolutionErrorTemplateConstant, sourceError)
	}

	formulae, formulaError := packageSource.ListInstalledFormulaeDetailed(command.Context())
	if formulaError != nil {
		return fmt.Errorf(formulaListErrorTemplateConstant, formulaError)
	}
	casks, caskError := packageSource.ListInstalledCasks(command.Context())
	if caskError != nil {
		return fmt.Errorf(caskListErrorTemplateConstant, caskError)
	}

	if writeError := Write(outputPath, formulae, casks); writeError != nil {
		return writeError
	}

	fmt.Fprintf(command.OutOrStdout(), exportWrittenTemplateConstant, outputPath)
	return nil
}
