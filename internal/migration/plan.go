package migration

import (
	"fmt"

	"github.com/zerobrew/zb-migrate/internal/depgraph"
	"github.com/zerobrew/zb-migrate/internal/inventory"
	"github.com/zerobrew/zb-migrate/internal/risk"
	"github.com/zerobrew/zb-migrate/internal/state"
)

const (
	alreadyMigratedSkipReasonConstant   = "already migrated"
	keepSkipReasonTemplateConstant      = "known conflict: %s"
	unknownPackageErrorTemplateConstant = "package %s is not installed"
)

// UnknownPackageError reports a requested package missing from the inventory.
type UnknownPackageError struct {
	PackageName string
}

// Error names the missing package.
func (unknownError *UnknownPackageError) Error() string {
	return fmt.Sprintf(unknownPackageErrorTemplateConstant, unknownError.PackageName)
}

// PlanEntry pairs a package with its risk grade and any predetermined skip.
type PlanEntry struct {
	Record              inventory.PackageRecord
	Tier                risk.Tier
	TierReason          string
	SkipReason          string
	ExplicitlyRequested bool
}

// AlreadyMigrated reports whether the entry is skipped as previously migrated.
func (entry PlanEntry) AlreadyMigrated() bool {
	return entry.SkipReason == alreadyMigratedSkipReasonConstant
}

// Plan is the ordered sequence of migration decisions for one run.
type Plan struct {
	Entries []PlanEntry
}

// PlanInputs collects everything needed to derive a migration plan.
type PlanInputs struct {
	OrderedPackages []string
	Records         map[string]inventory.PackageRecord
	Graph           *depgraph.Graph
	Classifications map[string]risk.Classification
	MigrationState  *state.MigrationState
	PackageFilter   []string
}

// BuildPlan derives the ordered migration plan. Packages keep their
// topological position; already-migrated packages and keep-graded packages
// are marked skipped up front. When a filter is supplied the plan narrows to
// the requested packages plus their not-yet-migrated dependencies, and a
// requested package overrides its keep grade.
func BuildPlan(inputs PlanInputs) (*Plan, error) {
	requestedPackages := map[string]struct{}{}
	for _, requestedName := range inputs.PackageFilter {
		if _, installed := inputs.Records[requestedName]; !installed {
			return nil, &UnknownPackageError{PackageName: requestedName}
		}
		requestedPackages[requestedName] = struct{}{}
	}

	includedPackages := map[string]struct{}{}
	if len(requestedPackages) > 0 {
		for requestedName := range requestedPackages {
			includeWithDependencies(requestedName, inputs, includedPackages)
		}
	}

	plan := &Plan{}
	for _, packageName := range inputs.OrderedPackages {
		if len(requestedPackages) > 0 {
			if _, included := includedPackages[packageName]; !included {
				continue
			}
		}

		_, explicitlyRequested := requestedPackages[packageName]
		classification := inputs.Classifications[packageName]
		entry := PlanEntry{
			Record:              inputs.Records[packageName],
			Tier:                classification.Tier,
			TierReason:          classification.Reason,
			ExplicitlyRequested: explicitlyRequested,
		}

		switch {
		case inputs.MigrationState.IsMigrated(packageName):
			entry.SkipReason = alreadyMigratedSkipReasonConstant
		case classification.Tier == risk.TierKeep && !explicitlyRequested:
			entry.SkipReason = fmt.Sprintf(keepSkipReasonTemplateConstant, classification.Reason)
		}

		plan.Entries = append(plan.Entries, entry)
	}

	return plan, nil
}

func includeWithDependencies(packageName string, inputs PlanInputs, includedPackages map[string]struct{}) {
	if _, alreadyIncluded := includedPackages[packageName]; alreadyIncluded {
		return
	}
	includedPackages[packageName] = struct{}{}

	for _, dependencyName := range inputs.Graph.Dependencies(packageName) {
		if inputs.MigrationState.IsMigrated(dependencyName) {
			continue
		}
		includeWithDependencies(dependencyName, inputs, includedPackages)
	}
}
