package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s %s"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	brewListSubcommandNameConstant      = "list"
	brewDepsSubcommandNameConstant      = "deps"
	brewInfoSubcommandNameConstant      = "info"
	brewPrefixSubcommandNameConstant    = "--prefix"
	brewOutdatedSubcommandNameConstant  = "outdated"
	brewUpgradeSubcommandNameConstant   = "upgrade"
	brewUninstallSubcommandNameConstant = "uninstall"
	zerobrewInstallSubcommandConstant   = "install"
	caskFlagConstant                    = "--cask"
)

const (
	brewListStartTemplateConstant          = "Collecting installed %s from Homebrew"
	brewListSuccessTemplateConstant        = "Collected installed %s from Homebrew"
	brewListFailureTemplateConstant        = "Failed to collect installed %s from Homebrew (exit code %d%s)"
	brewDepsStartTemplateConstant          = "Resolving dependencies of %s"
	brewDepsSuccessTemplateConstant        = "Resolved dependencies of %s"
	brewDepsFailureTemplateConstant        = "Failed to resolve dependencies of %s (exit code %d%s)"
	brewInfoStartTemplateConstant          = "Reading Homebrew metadata for %s"
	brewInfoSuccessTemplateConstant        = "Read Homebrew metadata for %s"
	brewInfoFailureTemplateConstant        = "Failed to read Homebrew metadata for %s (exit code %d%s)"
	brewPrefixStartMessageConstant         = "Detecting Homebrew prefix"
	brewPrefixSuccessMessageConstant       = "Detected Homebrew prefix"
	brewPrefixFailureTemplateConstant      = "Failed to detect Homebrew prefix (exit code %d%s)"
	brewOutdatedStartMessageConstant       = "Checking Homebrew for outdated packages"
	brewOutdatedSuccessMessageConstant     = "Checked Homebrew for outdated packages"
	brewOutdatedFailureTemplateConstant    = "Failed to check Homebrew for outdated packages (exit code %d%s)"
	brewUpgradeStartMessageConstant        = "Upgrading Homebrew packages"
	brewUpgradeSuccessMessageConstant      = "Upgraded Homebrew packages"
	brewUpgradeFailureTemplateConstant     = "Failed to upgrade Homebrew packages (exit code %d%s)"
	brewUninstallStartTemplateConstant     = "Uninstalling %s from Homebrew"
	brewUninstallSuccessTemplateConstant   = "Uninstalled %s from Homebrew"
	brewUninstallFailureTemplateConstant   = "Failed to uninstall %s from Homebrew (exit code %d%s)"
	zerobrewInstallStartTemplateConstant   = "Installing %s with Zerobrew"
	zerobrewInstallSuccessTemplateConstant = "Installed %s with Zerobrew"
	zerobrewInstallFailureTemplateConstant = "Failed to install %s with Zerobrew (exit code %d%s)"
	installedFormulaeLabelConstant         = "formulae"
	installedCasksLabelConstant            = "casks"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
)

func describeCommandStart(command ShellCommand) string {
	if message, described := describeCommand(command, messageStageStart, ExecutionResult{}); described {
		return message
	}
	return fmt.Sprintf(genericStartTemplateConstant, commandLabel(command))
}

func describeCommandSuccess(command ShellCommand) string {
	if message, described := describeCommand(command, messageStageSuccess, ExecutionResult{}); described {
		return message
	}
	return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel(command))
}

func describeCommandFailure(command ShellCommand, result ExecutionResult) string {
	if message, described := describeCommand(command, messageStageFailure, result); described {
		return message
	}
	return fmt.Sprintf(genericFailureTemplateConstant, commandLabel(command), result.ExitCode, standardErrorSuffix(result))
}

func describeCommandExecutionFailure(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel(command), failureMessage)
}

func describeCommand(command ShellCommand, stage messageStage, result ExecutionResult) (string, bool) {
	switch command.Name {
	case CommandBrew:
		return describeBrewCommand(command, stage, result)
	case CommandZerobrew:
		return describeZerobrewCommand(command, stage, result)
	default:
		return emptyStringConstant, false
	}
}

func describeBrewCommand(command ShellCommand, stage messageStage, result ExecutionResult) (string, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return emptyStringConstant, false
	}

	switch arguments[0] {
	case brewListSubcommandNameConstant:
		installedLabel := installedFormulaeLabelConstant
		if containsArgument(arguments, caskFlagConstant) {
			installedLabel = installedCasksLabelConstant
		}
		return stagedMessage(stage,
			fmt.Sprintf(brewListStartTemplateConstant, installedLabel),
			fmt.Sprintf(brewListSuccessTemplateConstant, installedLabel),
			fmt.Sprintf(brewListFailureTemplateConstant, installedLabel, result.ExitCode, standardErrorSuffix(result)),
		), true
	case brewDepsSubcommandNameConstant:
		packageName := trailingValueArgument(arguments)
		return stagedMessage(stage,
			fmt.Sprintf(brewDepsStartTemplateConstant, packageName),
			fmt.Sprintf(brewDepsSuccessTemplateConstant, packageName),
			fmt.Sprintf(brewDepsFailureTemplateConstant, packageName, result.ExitCode, standardErrorSuffix(result)),
		), true
	case brewInfoSubcommandNameConstant:
		packageName := trailingValueArgument(arguments)
		return stagedMessage(stage,
			fmt.Sprintf(brewInfoStartTemplateConstant, packageName),
			fmt.Sprintf(brewInfoSuccessTemplateConstant, packageName),
			fmt.Sprintf(brewInfoFailureTemplateConstant, packageName, result.ExitCode, standardErrorSuffix(result)),
		), true
	case brewPrefixSubcommandNameConstant:
		return stagedMessage(stage,
			brewPrefixStartMessageConstant,
			brewPrefixSuccessMessageConstant,
			fmt.Sprintf(brewPrefixFailureTemplateConstant, result.ExitCode, standardErrorSuffix(result)),
		), true
	case brewOutdatedSubcommandNameConstant:
		return stagedMessage(stage,
			brewOutdatedStartMessageConstant,
			brewOutdatedSuccessMessageConstant,
			fmt.Sprintf(brewOutdatedFailureTemplateConstant, result.ExitCode, standardErrorSuffix(result)),
		), true
	case brewUpgradeSubcommandNameConstant:
		return stagedMessage(stage,
			brewUpgradeStartMessageConstant,
			brewUpgradeSuccessMessageConstant,
			fmt.Sprintf(brewUpgradeFailureTemplateConstant, result.ExitCode, standardErrorSuffix(result)),
		), true
	case brewUninstallSubcommandNameConstant:
		packageName := trailingValueArgument(arguments)
		return stagedMessage(stage,
			fmt.Sprintf(brewUninstallStartTemplateConstant, packageName),
			fmt.Sprintf(brewUninstallSuccessTemplateConstant, packageName),
			fmt.Sprintf(brewUninstallFailureTemplateConstant, packageName, result.ExitCode, standardErrorSuffix(result)),
		), true
	default:
		return emptyStringConstant, false
	}
}

func describeZerobrewCommand(command ShellCommand, stage messageStage, result ExecutionResult) (string, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 || arguments[0] != zerobrewInstallSubcommandConstant {
		return emptyStringConstant, false
	}

	packageName := trailingValueArgument(arguments)
	return stagedMessage(stage,
		fmt.Sprintf(zerobrewInstallStartTemplateConstant, packageName),
		fmt.Sprintf(zerobrewInstallSuccessTemplateConstant, packageName),
		fmt.Sprintf(zerobrewInstallFailureTemplateConstant, packageName, result.ExitCode, standardErrorSuffix(result)),
	), true
}

func stagedMessage(stage messageStage, startMessage string, successMessage string, failureMessage string) string {
	switch stage {
	case messageStageStart:
		return startMessage
	case messageStageSuccess:
		return successMessage
	default:
		return failureMessage
	}
}

func commandLabel(command ShellCommand) string {
	joinedArguments := strings.Join(command.Details.Arguments, " ")
	if len(joinedArguments) == 0 {
		return string(command.Name)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, command.Name, joinedArguments)
}

func standardErrorSuffix(result ExecutionResult) string {
	trimmedStandardError := strings.TrimSpace(result.StandardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func trailingValueArgument(arguments []string) string {
	for argumentIndex := len(arguments) - 1; argumentIndex > 0; argumentIndex-- {
		if !strings.HasPrefix(arguments[argumentIndex], "-") {
			return arguments[argumentIndex]
		}
	}
	return fallbackUnknownValueLabelConstant
}

func containsArgument(arguments []string, wantedArgument string) bool {
	for _, argument := range arguments {
		if argument == wantedArgument {
			return true
		}
	}
	return false
}
