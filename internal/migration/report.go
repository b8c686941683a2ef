package migration

import (
	"fmt"
	"io"

	"github.com/zerobrew/zb-migrate/internal/risk"
	"github.com/zerobrew/zb-migrate/internal/ui"
)

const (
	dryRunTitleMessageConstant       = "Migration plan (dry run)"
	executionTitleMessageConstant    = "Migration results"
	plannedLineTemplateConstant      = "%s %s (%s)"
	migratedLineTemplateConstant     = "%s %s"
	failedLineTemplateConstant       = "%s %s: %s"
	linkConflictSuffixConstant       = " (link conflict; keep this package in Homebrew or resolve the collision manually)"
	skippedLineTemplateConstant      = "%s: %s"
	abortedMessageConstant           = "Migration aborted; remaining packages were not attempted."
	summaryTemplateConstant          = "%d migrated, %d failed, %d skipped"
	dryRunSummaryTemplateConstant    = "%d to migrate, %d skipped"
	inventorySummaryTemplateConstant = "Found %d formulae and %d casks."
)

// RenderReport writes a human-readable account of one migration run.
func RenderReport(output io.Writer, styler *ui.Styler, report Report) {
	title := executionTitleMessageConstant
	if report.DryRunMode {
		title = dryRunTitleMessageConstant
	}
	fmt.Fprintln(output, styler.Title(title))
	fmt.Fprintln(output, fmt.Sprintf(inventorySummaryTemplateConstant, report.TotalFormulae, report.TotalCasks))
	fmt.Fprintln(output)

	for _, outcome := range report.Outcomes {
		fmt.Fprintln(output, renderOutcomeLine(styler, outcome))
	}

	if report.Aborted {
		fmt.Fprintln(output)
		fmt.Fprintln(output, styler.Warning(abortedMessageConstant))
	}

	fmt.Fprintln(output)
	if report.DryRunMode {
		fmt.Fprintln(output, styler.Emphasis(fmt.Sprintf(dryRunSummaryTemplateConstant, report.PlannedCount(), report.SkippedCount())))
		return
	}
	fmt.Fprintln(output, styler.Emphasis(fmt.Sprintf(summaryTemplateConstant, report.MigratedCount(), report.FailedCount(), report.SkippedCount())))
}

func renderOutcomeLine(styler *ui.Styler, outcome PackageOutcome) string {
	switch outcome.Kind {
	case OutcomeMigrated:
		return styler.Success(fmt.Sprintf(migratedLineTemplateConstant, outcome.Name, outcome.Version))
	case OutcomeFailed:
		failedLine := fmt.Sprintf(failedLineTemplateConstant, outcome.Name, outcome.Version, outcome.Reason)
		if outcome.LinkConflict {
			failedLine += linkConflictSuffixConstant
		}
		return styler.Failure(failedLine)
	case OutcomePlanned:
		if outcome.Tier == risk.TierRisky {
			return styler.Warning(fmt.Sprintf(plannedLineTemplateConstant, outcome.Name, outcome.Version, outcome.Reason))
		}
		return styler.Success(fmt.Sprintf(plannedLineTemplateConstant, outcome.Name, outcome.Version, string(outcome.Tier)))
	default:
		return styler.Skip(fmt.Sprintf(skippedLineTemplateConstant, outcome.Name, outcome.Reason))
	}
}
