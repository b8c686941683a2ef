package migration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zerobrew/zb-migrate/internal/depgraph"
	"github.com/zerobrew/zb-migrate/internal/inventory"
	"github.com/zerobrew/zb-migrate/internal/risk"
	"github.com/zerobrew/zb-migrate/internal/state"
	"github.com/zerobrew/zb-migrate/internal/zerobrewcli"
)

const (
	packageSourceMissingMessageConstant  = "package source not configured"
	installerMissingMessageConstant      = "package installer not configured"
	stateStoreMissingMessageConstant     = "state store not configured"
	classifierMissingMessageConstant     = "risk classifier not configured"
	inventoryListErrorTemplateConstant   = "unable to read installed packages: %w"
	caskListErrorTemplateConstant        = "unable to read installed casks: %w"
	stateLoadErrorTemplateConstant       = "unable to load migration state: %w"
	stateSaveErrorTemplateConstant       = "unable to persist migration state: %w"
	prefixDetectErrorTemplateConstant    = "unable to detect Homebrew prefix: %w"
	promptErrorTemplateConstant          = "unable to read interactive response: %w"
	dependencySkipReasonTemplateConstant = "dependency %s was not migrated"
	declinedSkipReasonMessageConstant    = "declined by user"
	caskSkipReasonMessageConstant        = "cask migration is not supported"
	interactivePromptTemplateConstant    = "Migrate %s %s? [y/n/a/q] "
	migrationCompletedLogMessageConstant = "migration run completed"
	packageMigratedLogMessageConstant    = "package migrated"
	packageFailedLogMessageConstant      = "package migration failed"
	packageSkippedLogMessageConstant     = "package skipped"
	logFieldPackageNameConstant          = "package_name"
	logFieldPackageVersionConstant       = "package_version"
	logFieldSkipReasonConstant           = "skip_reason"
	logFieldFailureReasonConstant        = "failure_reason"
	logFieldLinkConflictConstant         = "link_conflict"
	logFieldMigratedCountConstant        = "migrated_count"
	logFieldFailedCountConstant          = "failed_count"
	logFieldSkippedCountConstant         = "skipped_count"
	logFieldDryRunConstant               = "dry_run"
)

var (
	errPackageSourceMissing = errors.New(packageSourceMissingMessageConstant)
	errInstallerMissing     = errors.New(installerMissingMessageConstant)
	errStateStoreMissing    = errors.New(stateStoreMissingMessageConstant)
	errClassifierMissing    = errors.New(classifierMissingMessageConstant)
)

// OutcomeKind labels the terminal status of a package within one run.
type OutcomeKind string

// Terminal statuses recorded in migration reports.
const (
	OutcomeMigrated OutcomeKind = "migrated"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomePlanned  OutcomeKind = "planned"
)

// PackageOutcome records what happened to one package during a run.
// LinkConflict marks failures caused by a file collision in the target
// manager, which require keeping the package in Homebrew or resolving
// the collision by hand.
type PackageOutcome struct {
	Name         string
	Version      string
	Kind         OutcomeKind
	Tier         risk.Tier
	Reason       string
	LinkConflict bool
}

// Report summarizes a migration run in plan order.
type Report struct {
	DryRunMode    bool
	TotalFormulae int
	TotalCasks    int
	Outcomes      []PackageOutcome
	Aborted       bool
}

// MigratedCount returns the number of successfully migrated packages.
func (report Report) MigratedCount() int { return report.countKind(OutcomeMigrated) }

// FailedCount returns the number of failed packages.
func (report Report) FailedCount() int { return report.countKind(OutcomeFailed) }

// SkippedCount returns the number of skipped packages.
func (report Report) SkippedCount() int { return report.countKind(OutcomeSkipped) }

// PlannedCount returns the number of packages a dry run would migrate.
func (report Report) PlannedCount() int { return report.countKind(OutcomePlanned) }

func (report Report) countKind(kind OutcomeKind) int {
	kindCount := 0
	for _, outcome := range report.Outcomes {
		if outcome.Kind == kind {
			kindCount++
		}
	}
	return kindCount
}

// Options configures a migration run.
type Options struct {
	DryRun       bool
	Interactive  bool
	PackageNames []string
}

// ServiceDependencies describes required collaborators for migration runs.
type ServiceDependencies struct {
	Logger        *zap.Logger
	PackageSource inventory.PackageSource
	Installer     inventory.PackageInstaller
	StateStore    *state.Store
	Classifier    *risk.Classifier
	Prompter      PlanPrompter
}

// Service orchestrates migration runs over the dependency-ordered plan.
type Service struct {
	logger        *zap.Logger
	packageSource inventory.PackageSource
	installer     inventory.PackageInstaller
	stateStore    *state.Store
	classifier    *risk.Classifier
	prompter      PlanPrompter
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.PackageSource == nil {
		return nil, errPackageSourceMissing
	}
	if dependencies.Installer == nil {
		return nil, errInstallerMissing
	}
	if dependencies.StateStore == nil {
		return nil, errStateStoreMissing
	}
	if dependencies.Classifier == nil {
		return nil, errClassifierMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:        logger,
		packageSource: dependencies.PackageSource,
		installer:     dependencies.Installer,
		stateStore:    dependencies.StateStore,
		classifier:    dependencies.Classifier,
		prompter:      dependencies.Prompter,
	}, nil
}

type dependencyRunStatus int

const (
	dependencyStatusSatisfied dependencyRunStatus = iota + 1
	dependencyStatusBlocked
)

// Execute runs a migration according to options. Dry runs take no lock and
// produce no side effects. Execute runs persist the state after every attempt
// so an interrupted migration resumes where it stopped.
func (service *Service) Execute(executionContext context.Context, options Options) (Report, error) {
	report := Report{DryRunMode: options.DryRun}

	records, recordsError := service.packageSource.ListInstalledFormulaeDetailed(executionContext)
	if recordsError != nil {
		return report, fmt.Errorf(inventoryListErrorTemplateConstant, recordsError)
	}
	report.TotalFormulae = len(records)

	caskRecords, caskError := service.packageSource.ListInstalledCasks(executionContext)
	if caskError != nil {
		return report, fmt.Errorf(caskListErrorTemplateConstant, caskError)
	}
	report.TotalCasks = len(caskRecords)

	recordsByName := map[string]inventory.PackageRecord{}
	for _, record := range records {
		recordsByName[record.Name] = record
	}

	graph := depgraph.Build(records)
	orderedPackages, orderingError := graph.TopologicalOrder()
	if orderingError != nil {
		return report, orderingError
	}

	classifications := service.classifier.Classify(orderedPackages, graph)

	if !options.DryRun {
		if lockError := service.stateStore.AcquireLock(); lockError != nil {
			return report, lockError
		}
		defer service.stateStore.ReleaseLock()
	}

	migrationState, stateError := service.stateStore.Load()
	if stateError != nil {
		return report, fmt.Errorf(stateLoadErrorTemplateConstant, stateError)
	}

	plan, planError := BuildPlan(PlanInputs{
		OrderedPackages: orderedPackages,
		Records:         recordsByName,
		Graph:           graph,
		Classifications: classifications,
		MigrationState:  migrationState,
		PackageFilter:   options.PackageNames,
	})
	if planError != nil {
		return report, planError
	}

	if !options.DryRun && len(migrationState.HomebrewPrefix) == 0 {
		detectedPrefix, prefixError := service.packageSource.DetectPrefix(executionContext)
		if prefixError != nil {
			return report, fmt.Errorf(prefixDetectErrorTemplateConstant, prefixError)
		}
		migrationState.HomebrewPrefix = detectedPrefix
	}

	dependencyStatuses := map[string]dependencyRunStatus{}
	promptEveryPackage := options.Interactive

	for _, entry := range plan.Entries {
		packageName := entry.Record.Name

		if entry.AlreadyMigrated() {
			dependencyStatuses[packageName] = dependencyStatusSatisfied
			report.Outcomes = append(report.Outcomes, service.skippedOutcome(entry, entry.SkipReason))
			continue
		}

		if len(entry.SkipReason) > 0 {
			dependencyStatuses[packageName] = dependencyStatusBlocked
			report.Outcomes = append(report.Outcomes, service.skippedOutcome(entry, entry.SkipReason))
			continue
		}

		if blockingDependency, blocked := service.findBlockingDependency(graph, dependencyStatuses, packageName); blocked {
			dependencyStatuses[packageName] = dependencyStatusBlocked
			skipReason := fmt.Sprintf(dependencySkipReasonTemplateConstant, blockingDependency)
			report.Outcomes = append(report.Outcomes, service.skippedOutcome(entry, skipReason))
			continue
		}

		if options.DryRun {
			report.Outcomes = append(report.Outcomes, PackageOutcome{
				Name:    packageName,
				Version: entry.Record.Version,
				Kind:    OutcomePlanned,
				Tier:    entry.Tier,
				Reason:  entry.TierReason,
			})
			continue
		}

		if promptEveryPackage && service.prompter != nil {
			prompt := fmt.Sprintf(interactivePromptTemplateConstant, packageName, entry.Record.Version)
			decision, promptError := service.prompter.Decide(prompt)
			if promptError != nil {
				return report, fmt.Errorf(promptErrorTemplateConstant, promptError)
			}
			switch decision {
			case DecisionQuit:
				report.Aborted = true
				service.logRunSummary(report, options)
				return report, nil
			case DecisionAll:
				promptEveryPackage = false
			case DecisionNo:
				dependencyStatuses[packageName] = dependencyStatusBlocked
				report.Outcomes = append(report.Outcomes, service.skippedOutcome(entry, declinedSkipReasonMessageConstant))
				continue
			}
		}

		outcome, attemptError := service.attemptMigration(executionContext, entry, migrationState)
		if attemptError != nil {
			return report, attemptError
		}
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Kind == OutcomeMigrated {
			dependencyStatuses[packageName] = dependencyStatusSatisfied
		} else {
			dependencyStatuses[packageName] = dependencyStatusBlocked
		}
	}

	if len(options.PackageNames) == 0 {
		for _, caskRecord := range caskRecords {
			report.Outcomes = append(report.Outcomes, PackageOutcome{
				Name:    caskRecord.Name,
				Version: caskRecord.Version,
				Kind:    OutcomeSkipped,
				Reason:  caskSkipReasonMessageConstant,
			})
		}
	}

	service.logRunSummary(report, options)
	return report, nil
}

func (service *Service) attemptMigration(executionContext context.Context, entry PlanEntry, migrationState *state.MigrationState) (PackageOutcome, error) {
	packageName := entry.Record.Name

	installError := service.installer.Install(executionContext, packageName)
	if installError == nil {
		migrationState.RecordMigrated(entry.Record)
		if saveError := service.stateStore.Save(migrationState); saveError != nil {
			return PackageOutcome{}, fmt.Errorf(stateSaveErrorTemplateConstant, saveError)
		}
		service.logger.Info(
			packageMigratedLogMessageConstant,
			zap.String(logFieldPackageNameConstant, packageName),
			zap.String(logFieldPackageVersionConstant, entry.Record.Version),
		)
		return PackageOutcome{
			Name:    packageName,
			Version: entry.Record.Version,
			Kind:    OutcomeMigrated,
			Tier:    entry.Tier,
		}, nil
	}

	failureReason := installError.Error()
	linkConflict := false
	installFailed := &zerobrewcli.InstallFailedError{}
	if errors.As(installError, &installFailed) {
		failureReason = installFailed.Reason
		linkConflict = installFailed.Conflict
	}

	migrationState.RecordFailed(packageName)
	if saveError := service.stateStore.Save(migrationState); saveError != nil {
		return PackageOutcome{}, fmt.Errorf(stateSaveErrorTemplateConstant, saveError)
	}

	service.logger.Warn(
		packageFailedLogMessageConstant,
		zap.String(logFieldPackageNameConstant, packageName),
		zap.String(logFieldFailureReasonConstant, failureReason),
		zap.Bool(logFieldLinkConflictConstant, linkConflict),
	)

	return PackageOutcome{
		Name:         packageName,
		Version:      entry.Record.Version,
		Kind:         OutcomeFailed,
		Tier:         entry.Tier,
		Reason:       failureReason,
		LinkConflict: linkConflict,
	}, nil
}

func (service *Service) findBlockingDependency(graph *depgraph.Graph, dependencyStatuses map[string]dependencyRunStatus, packageName string) (string, bool) {
	for _, dependencyName := range graph.Dependencies(packageName) {
		if dependencyStatuses[dependencyName] == dependencyStatusBlocked {
			return dependencyName, true
		}
	}
	return "", false
}

func (service *Service) skippedOutcome(entry PlanEntry, skipReason string) PackageOutcome {
	service.logger.Info(
		packageSkippedLogMessageConstant,
		zap.String(logFieldPackageNameConstant, entry.Record.Name),
		zap.String(logFieldSkipReasonConstant, skipReason),
	)
	return PackageOutcome{
		Name:    entry.Record.Name,
		Version: entry.Record.Version,
		Kind:    OutcomeSkipped,
		Tier:    entry.Tier,
		Reason:  skipReason,
	}
}

func (service *Service) logRunSummary(report Report, options Options) {
	service.logger.Info(
		migrationCompletedLogMessageConstant,
		zap.Bool(logFieldDryRunConstant, options.DryRun),
		zap.Int(logFieldMigratedCountConstant, report.MigratedCount()),
		zap.Int(logFieldFailedCountConstant, report.FailedCount()),
		zap.Int(logFieldSkippedCountConstant, report.SkippedCount()),
	)
}
