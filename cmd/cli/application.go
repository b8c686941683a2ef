package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/zerobrew/zb-migrate/internal/brewcli"
	"github.com/zerobrew/zb-migrate/internal/brewfile"
	"github.com/zerobrew/zb-migrate/internal/execshell"
	"github.com/zerobrew/zb-migrate/internal/inspect"
	"github.com/zerobrew/zb-migrate/internal/inventory"
	"github.com/zerobrew/zb-migrate/internal/migration"
	"github.com/zerobrew/zb-migrate/internal/risk"
	"github.com/zerobrew/zb-migrate/internal/state"
	"github.com/zerobrew/zb-migrate/internal/ui"
	"github.com/zerobrew/zb-migrate/internal/utils"
	"github.com/zerobrew/zb-migrate/internal/utils/flags"
	"github.com/zerobrew/zb-migrate/internal/zerobrewcli"
)

const (
	applicationNameConstant                 = "zb-migrate"
	applicationVersionConstant              = "0.3.0"
	applicationShortDescriptionConstant     = "Migrate Homebrew packages to Zerobrew"
	applicationLongDescriptionConstant      = "zb-migrate inventories an existing Homebrew installation, grades every package by migration risk, and installs packages into Zerobrew in dependency order with resumable progress."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagDescriptionConstant         = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagDescriptionConstant        = "Override the configured log format."
	verboseFlagNameConstant                 = "verbose"
	verboseFlagShorthandConstant            = "v"
	verboseFlagUsageConstant                = "Echo every package-manager command as it runs"
	noColorFlagNameConstant                 = "no-color"
	noColorFlagUsageConstant                = "Disable colored terminal output"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	migrationConfigurationKeyConstant       = "migration"
	environmentPrefixConstant               = "ZBMIGRATE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "zb-migrate CLI executed"
	rootCommandDebugMessageConstant         = "zb-migrate CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
)

var (
	logLevelChoices  = []string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}
	logFormatChoices = []string{string(utils.LogFormatConsole), string(utils.LogFormatStructured)}
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration `mapstructure:"common"`
	Migration migration.Configuration        `mapstructure:"migration"`
	Risk      risk.Configuration             `mapstructure:"risk"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	verboseFlagValue      bool
	noColorFlagValue      bool
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	embeddedConfiguration, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfiguration, embeddedConfigurationType)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Version:       applicationVersionConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogLevelInfo), logLevelChoices, logLevelFlagDescriptionConstant),
	)
	cobraCommand.PersistentFlags().StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogFormatConsole), logFormatChoices, logFormatFlagDescriptionConstant),
	)
	flags.AddToggleFlag(cobraCommand.PersistentFlags(), &application.verboseFlagValue, verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagUsageConstant)
	flags.AddToggleFlag(cobraCommand.PersistentFlags(), &application.noColorFlagValue, noColorFlagNameConstant, "", false, noColorFlagUsageConstant)

	application.registerCommands(cobraCommand)
	application.rootCommand = cobraCommand

	return application
}

func (application *Application) registerCommands(rootCommand *cobra.Command) {
	loggerProvider := func() *zap.Logger { return application.logger }
	sourceResolver := &packageSourceResolver{application: application}

	inspectBuilder := inspect.CommandBuilder{
		LoggerProvider:  inspect.LoggerProvider(loggerProvider),
		StylerProvider:  inspect.StylerProvider(application.resolveStyler),
		ServiceResolver: &inspectionServiceResolver{application: application},
	}
	if listCommand, buildError := inspectBuilder.BuildListCommand(); buildError == nil {
		rootCommand.AddCommand(listCommand)
	}
	if analyzeCommand, buildError := inspectBuilder.BuildAnalyzeCommand(); buildError == nil {
		rootCommand.AddCommand(analyzeCommand)
	}
	if outdatedCommand, buildError := inspectBuilder.BuildOutdatedCommand(); buildError == nil {
		rootCommand.AddCommand(outdatedCommand)
	}
	if upgradeCommand, buildError := inspectBuilder.BuildUpgradeCommand(); buildError == nil {
		rootCommand.AddCommand(upgradeCommand)
	}

	exportBuilder := brewfile.ExportCommandBuilder{
		LoggerProvider:        brewfile.LoggerProvider(loggerProvider),
		PackageSourceResolver: sourceResolver,
	}
	if exportCommand, buildError := exportBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(exportCommand)
	}

	migrateBuilder := migration.MigrateCommandBuilder{
		LoggerProvider:  migration.LoggerProvider(loggerProvider),
		StylerProvider:  migration.StylerProvider(application.resolveStyler),
		ServiceResolver: &migrationServiceResolver{application: application},
	}
	if migrateCommand, buildError := migrateBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(migrateCommand)
	}

	statusBuilder := migration.StatusCommandBuilder{
		StylerProvider:     migration.StylerProvider(application.resolveStyler),
		StateStoreProvider: application.resolveStateStore,
	}
	if statusCommand, buildError := statusBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(statusCommand)
	}

	cleanupBuilder := migration.CleanupCommandBuilder{
		LoggerProvider:        migration.LoggerProvider(loggerProvider),
		StylerProvider:        migration.StylerProvider(application.resolveStyler),
		StateStoreProvider:    application.resolveStateStore,
		PackageSourceResolver: sourceResolver,
	}
	if cleanupCommand, buildError := cleanupBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(cleanupCommand)
	}
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
// Toggle flags accept space-separated values ("--verbose no"), so arguments are
// normalized into "--flag=value" form before cobra parses them.
func (application *Application) Execute() error {
	application.rootCommand.SetArgs(flags.NormalizeToggleArguments(os.Args[1:]))
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range migration.DefaultConfigurationValues(migrationConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.configuration.Migration = application.configuration.Migration.Sanitize()

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logLevel := utils.LogLevel(application.configuration.Common.LogLevel)
	if application.verboseFlagValue {
		logLevel = utils.LogLevelDebug
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		logLevel,
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) resolveStyler() *ui.Styler {
	return ui.NewStyler(!application.noColorFlagValue)
}

func (application *Application) resolveStateStore() (*state.Store, error) {
	return state.NewStore(application.configuration.Migration.StateFilePath), nil
}

func (application *Application) resolveShellExecutor(logger *zap.Logger) (*execshell.ShellExecutor, error) {
	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), application.humanReadableLoggingEnabled())
	if executorError != nil {
		return nil, executorError
	}
	if application.verboseFlagValue {
		shellExecutor.SetCommandEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}
	return shellExecutor, nil
}

func (application *Application) resolvePackageSource(logger *zap.Logger) (inventory.PackageSource, error) {
	shellExecutor, executorError := application.resolveShellExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}
	return brewcli.NewClient(shellExecutor)
}

func (application *Application) resolveClassifier() (*risk.Classifier, error) {
	knowledgeBase, knowledgeBaseError := application.configuration.Risk.BuildKnowledgeBase()
	if knowledgeBaseError != nil {
		return nil, knowledgeBaseError
	}
	return risk.NewClassifier(knowledgeBase), nil
}

type packageSourceResolver struct {
	application *Application
}

func (resolver *packageSourceResolver) Resolve(logger *zap.Logger) (inventory.PackageSource, error) {
	return resolver.application.resolvePackageSource(logger)
}

type inspectionServiceResolver struct {
	application *Application
}

func (resolver *inspectionServiceResolver) Resolve(logger *zap.Logger) (*inspect.Service, error) {
	packageSource, sourceError := resolver.application.resolvePackageSource(logger)
	if sourceError != nil {
		return nil, sourceError
	}
	classifier, classifierError := resolver.application.resolveClassifier()
	if classifierError != nil {
		return nil, classifierError
	}

	return inspect.NewService(inspect.ServiceDependencies{
		Logger:        logger,
		PackageSource: packageSource,
		Classifier:    classifier,
	})
}

type migrationServiceResolver struct {
	application *Application
}

func (resolver *migrationServiceResolver) Resolve(logger *zap.Logger) (*migration.Service, error) {
	packageSource, sourceError := resolver.application.resolvePackageSource(logger)
	if sourceError != nil {
		return nil, sourceError
	}

	shellExecutor, executorError := resolver.application.resolveShellExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}
	installer, installerError := zerobrewcli.NewClient(shellExecutor)
	if installerError != nil {
		return nil, installerError
	}

	stateStore, storeError := resolver.application.resolveStateStore()
	if storeError != nil {
		return nil, storeError
	}
	classifier, classifierError := resolver.application.resolveClassifier()
	if classifierError != nil {
		return nil, classifierError
	}

	return migration.NewService(migration.ServiceDependencies{
		Logger:        logger,
		PackageSource: packageSource,
		Installer:     installer,
		StateStore:    stateStore,
		Classifier:    classifier,
		Prompter:      migration.NewIOPlanPrompter(os.Stdin, os.Stdout),
	})
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
