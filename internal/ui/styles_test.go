package ui_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zerobrew/zb-migrate/internal/ui"
)

func TestStylerWithoutColorIsPlainText(testInstance *testing.T) {
	styler := ui.NewStyler(false)

	require.Equal(testInstance, "Migration results", styler.Title("Migration results"))
	require.Equal(testInstance, "[OK] jq 1.7.1", styler.Success("jq 1.7.1"))
	require.Equal(testInstance, "[!] openssl@3", styler.Warning("openssl@3"))
	require.Equal(testInstance, "[X] harfbuzz", styler.Failure("harfbuzz"))
	require.Equal(testInstance, "[-] zlib: known conflict", styler.Skip("zlib: known conflict"))
	require.Equal(testInstance, "3 migrated", styler.Emphasis("3 migrated"))
}

func TestStylerWithColorKeepsIconAndText(testInstance *testing.T) {
	styler := ui.NewStyler(true)

	renderedLine := styler.Success("jq 1.7.1")
	require.Contains(testInstance, renderedLine, "[OK]")
	require.Contains(testInstance, renderedLine, "jq 1.7.1")
}
