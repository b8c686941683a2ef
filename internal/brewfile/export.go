package brewfile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/zerobrew/zb-migrate/internal/inventory"
)

const (
	brewfileHeaderConstant             = "# Zerobrew Migration Brewfile\n# Generated from Homebrew installation\n\n"
	tapEntryTemplateConstant           = "tap %q\n"
	formulaEntryTemplateConstant       = "brew %q\n"
	caskEntryTemplateConstant          = "cask %q\n"
	sectionSeparatorConstant           = "\n"
	brewfilePermissionsConstant        = 0o644
	brewfileWriteErrorTemplateConstant = "unable to write Brewfile to %s: %w"
)

// Render produces Brewfile content listing taps, formulae, and casks from the
// supplied inventory.
func Render(formulae []inventory.PackageRecord, casks []inventory.PackageRecord) string {
	contentBuilder := strings.Builder{}
	contentBuilder.WriteString(brewfileHeaderConstant)

	tapNames := map[string]struct{}{}
	for _, formulaRecord := range formulae {
		if len(formulaRecord.Tap) > 0 {
			tapNames[formulaRecord.Tap] = struct{}{}
		}
	}
	sortedTapNames := make([]string, 0, len(tapNames))
	for tapName := range tapNames {
		sortedTapNames = append(sortedTapNames, tapName)
	}
	sort.Strings(sortedTapNames)
	for _, tapName := range sortedTapNames {
		contentBuilder.WriteString(fmt.Sprintf(tapEntryTemplateConstant, tapName))
	}
	contentBuilder.WriteString(sectionSeparatorConstant)

	for _, formulaRecord := range formulae {
		contentBuilder.WriteString(fmt.Sprintf(formulaEntryTemplateConstant, formulaRecord.Name))
	}
	contentBuilder.WriteString(sectionSeparatorConstant)

	for _, caskRecord := range casks {
		contentBuilder.WriteString(fmt.Sprintf(caskEntryTemplateConstant, caskRecord.Name))
	}

	return contentBuilder.String()
}

// Write renders the Brewfile and stores it at the given path.
func Write(outputPath string, formulae []inventory.PackageRecord, casks []inventory.PackageRecord) error {
	brewfileContent := Render(formulae, casks)
	if writeError := os.WriteFile(outputPath, []byte(brewfileContent), brewfilePermissionsConstant); writeError != nil {
		return fmt.Errorf(brewfileWriteErrorTemplateConstant, outputPath, writeError)
	}
	return nil
}
