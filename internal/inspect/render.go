package inspect

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/zerobrew/zb-migrate/internal/risk"
	"github.com/zerobrew/zb-migrate/internal/ui"
)

const (
	listingTitleMessageConstant        = "Installed packages"
	caskSectionTitleMessageConstant    = "Casks"
	listingLineTemplateConstant        = "%s %s"
	pinnedSuffixMessageConstant        = " (pinned)"
	analysisTitleMessageConstant       = "Migration risk analysis"
	safeSectionTemplateConstant        = "SAFE (%d):"
	riskySectionTemplateConstant       = "RISKY (%d):"
	keepSectionTemplateConstant        = "KEEP (%d):"
	analysisLineTemplateConstant       = "%s %s"
	analysisReasonLineTemplateConstant = "%s %s: %s"
	safeRecommendationMessageConstant  = "Safe packages can be migrated now: zb-migrate migrate"
	riskyRecommendationMessageConstant = "Review risky packages before migrating; preview with: zb-migrate migrate --dry-run"
	keepRecommendationMessageConstant  = "Keep-graded packages should stay in Homebrew until their conflicts are resolved."
	emptyListingMessageConstant        = "No packages installed."
	jsonIndentConstant                 = "  "
)

// RenderListing writes installed packages, as text or JSON.
func RenderListing(output io.Writer, styler *ui.Styler, listing Listing, asJSON bool) error {
	if asJSON {
		return writeJSON(output, listing)
	}

	fmt.Fprintln(output, styler.Title(listingTitleMessageConstant))
	if len(listing.Formulae) == 0 && len(listing.Casks) == 0 {
		fmt.Fprintln(output, emptyListingMessageConstant)
		return nil
	}

	for _, record := range listing.Formulae {
		listingLine := fmt.Sprintf(listingLineTemplateConstant, record.Name, record.Version)
		if record.Pinned {
			listingLine += pinnedSuffixMessageConstant
		}
		fmt.Fprintln(output, listingLine)
	}

	if len(listing.Casks) > 0 {
		fmt.Fprintln(output)
		fmt.Fprintln(output, styler.Title(caskSectionTitleMessageConstant))
		for _, record := range listing.Casks {
			fmt.Fprintln(output, fmt.Sprintf(listingLineTemplateConstant, record.Name, record.Version))
		}
	}
	return nil
}

// RenderAnalysis writes the risk report grouped by tier, as text or JSON.
func RenderAnalysis(output io.Writer, styler *ui.Styler, report AnalysisReport, asJSON bool) error {
	if asJSON {
		return writeJSON(output, report)
	}

	fmt.Fprintln(output, styler.Title(analysisTitleMessageConstant))

	safeEntries := entriesWithTier(report, risk.TierSafe)
	fmt.Fprintln(output, styler.Emphasis(fmt.Sprintf(safeSectionTemplateConstant, len(safeEntries))))
	for _, entry := range safeEntries {
		fmt.Fprintln(output, styler.Success(fmt.Sprintf(analysisLineTemplateConstant, entry.Record.Name, entry.Record.Version)))
	}

	riskyEntries := entriesWithTier(report, risk.TierRisky)
	fmt.Fprintln(output, styler.Emphasis(fmt.Sprintf(riskySectionTemplateConstant, len(riskyEntries))))
	for _, entry := range riskyEntries {
		fmt.Fprintln(output, styler.Warning(fmt.Sprintf(analysisReasonLineTemplateConstant, entry.Record.Name, entry.Record.Version, entry.Reason)))
	}

	keepEntries := entriesWithTier(report, risk.TierKeep)
	fmt.Fprintln(output, styler.Emphasis(fmt.Sprintf(keepSectionTemplateConstant, len(keepEntries))))
	for _, entry := range keepEntries {
		fmt.Fprintln(output, styler.Failure(fmt.Sprintf(analysisReasonLineTemplateConstant, entry.Record.Name, entry.Record.Version, entry.Reason)))
	}

	fmt.Fprintln(output)
	if len(safeEntries) > 0 {
		fmt.Fprintln(output, safeRecommendationMessageConstant)
	}
	if len(riskyEntries) > 0 {
		fmt.Fprintln(output, riskyRecommendationMessageConstant)
	}
	if len(keepEntries) > 0 {
		fmt.Fprintln(output, keepRecommendationMessageConstant)
	}
	return nil
}

func entriesWithTier(report AnalysisReport, tier risk.Tier) []AnalysisEntry {
	var tierEntries []AnalysisEntry
	for _, entry := range report.Entries {
		if entry.Tier == tier {
			tierEntries = append(tierEntries, entry)
		}
	}
	return tierEntries
}

func writeJSON(output io.Writer, document any) error {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", jsonIndentConstant)
	return encoder.Encode(document)
}
