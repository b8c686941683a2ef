package inspect

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zerobrew/zb-migrate/internal/depgraph"
	"github.com/zerobrew/zb-migrate/internal/inventory"
	"github.com/zerobrew/zb-migrate/internal/risk"
)

const (
	packageSourceMissingMessageConstant = "package source not configured"
	classifierMissingMessageConstant    = "risk classifier not configured"
	formulaListErrorTemplateConstant    = "unable to read installed packages: %w"
	caskListErrorTemplateConstant       = "unable to read installed casks: %w"
	outdatedErrorTemplateConstant       = "unable to check outdated packages: %w"
	upgradeErrorTemplateConstant        = "unable to upgrade packages: %w"
	upgradeCompletedLogMessageConstant  = "source packages upgraded"
	logFieldFormulaCountConstant        = "formula_count"
	logFieldCaskCountConstant           = "cask_count"
	logFieldOutdatedCountConstant       = "outdated_count"
)

var (
	errPackageSourceMissing = errors.New(packageSourceMissingMessageConstant)
	errClassifierMissing    = errors.New(classifierMissingMessageConstant)
)

// Listing holds installed packages grouped by kind.
type Listing struct {
	Formulae []inventory.PackageRecord `json:"formulae"`
	Casks    []inventory.PackageRecord `json:"casks,omitempty"`
}

// AnalysisEntry pairs a package with its migration risk grade.
type AnalysisEntry struct {
	Record               inventory.PackageRecord `json:"package"`
	Tier                 risk.Tier               `json:"tier"`
	Reason               string                  `json:"reason"`
	BlockingDependencies []string                `json:"blocking_dependencies,omitempty"`
}

// AnalysisReport grades every installed formula in installation order.
type AnalysisReport struct {
	Entries []AnalysisEntry `json:"packages"`
}

// TierCount returns how many entries carry the given tier.
func (report AnalysisReport) TierCount(tier risk.Tier) int {
	tierCount := 0
	for _, entry := range report.Entries {
		if entry.Tier == tier {
			tierCount++
		}
	}
	return tierCount
}

// ServiceDependencies describes required collaborators for inspections.
type ServiceDependencies struct {
	Logger        *zap.Logger
	PackageSource inventory.PackageSource
	Classifier    *risk.Classifier
}

// Service answers read-only questions about the installed package set.
type Service struct {
	logger        *zap.Logger
	packageSource inventory.PackageSource
	classifier    *risk.Classifier
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.PackageSource == nil {
		return nil, errPackageSourceMissing
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
		classifier:    dependencies.Classifier,
	}, nil
}

// ListPackages returns installed formulae, optionally with casks.
func (service *Service) ListPackages(executionContext context.Context, includeCasks bool) (Listing, error) {
	formulae, formulaError := service.packageSource.ListInstalledFormulae(executionContext)
	if formulaError != nil {
		return Listing{}, fmt.Errorf(formulaListErrorTemplateConstant, formulaError)
	}

	listing := Listing{Formulae: formulae}
	if includeCasks {
		casks, caskError := service.packageSource.ListInstalledCasks(executionContext)
		if caskError != nil {
			return Listing{}, fmt.Errorf(caskListErrorTemplateConstant, caskError)
		}
		listing.Casks = casks
	}

	service.logger.Debug(
		"installed packages listed",
		zap.Int(logFieldFormulaCountConstant, len(listing.Formulae)),
		zap.Int(logFieldCaskCountConstant, len(listing.Casks)),
	)
	return listing, nil
}

// Analyze grades every installed formula by migration risk, ordered so
// dependencies precede their dependents.
func (service *Service) Analyze(executionContext context.Context) (AnalysisReport, error) {
	records, recordsError := service.packageSource.ListInstalledFormulaeDetailed(executionContext)
	if recordsError != nil {
		return AnalysisReport{}, fmt.Errorf(formulaListErrorTemplateConstant, recordsError)
	}

	recordsByName := map[string]inventory.PackageRecord{}
	for _, record := range records {
		recordsByName[record.Name] = record
	}

	graph := depgraph.Build(records)
	orderedPackages, orderingError := graph.TopologicalOrder()
	if orderingError != nil {
		return AnalysisReport{}, orderingError
	}

	classifications := service.classifier.Classify(orderedPackages, graph)

	report := AnalysisReport{}
	for _, packageName := range orderedPackages {
		classification := classifications[packageName]
		report.Entries = append(report.Entries, AnalysisEntry{
			Record:               recordsByName[packageName],
			Tier:                 classification.Tier,
			Reason:               classification.Reason,
			BlockingDependencies: classification.BlockingDependencies,
		})
	}
	return report, nil
}

// Outdated names installed formulae with pending source-manager updates.
func (service *Service) Outdated(executionContext context.Context) ([]string, error) {
	outdatedNames, outdatedError := service.packageSource.CheckOutdated(executionContext)
	if outdatedError != nil {
		return nil, fmt.Errorf(outdatedErrorTemplateConstant, outdatedError)
	}

	service.logger.Debug("outdated packages checked", zap.Int(logFieldOutdatedCountConstant, len(outdatedNames)))
	return outdatedNames, nil
}

// UpgradeAll upgrades every source-managed package still installed there.
func (service *Service) UpgradeAll(executionContext context.Context) error {
	if upgradeError := service.packageSource.UpgradeAll(executionContext); upgradeError != nil {
		return fmt.Errorf(upgradeErrorTemplateConstant, upgradeError)
	}
	service.logger.Info(upgradeCompletedLogMessageConstant)
	return nil
}
