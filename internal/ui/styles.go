package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorCyan   = lipgloss.Color("36")
	colorGray   = lipgloss.Color("245")
)

const (
	iconSuccess = "[OK]"
	iconWarning = "[!]"
	iconFailure = "[X]"
	iconSkip    = "[-]"
)

// Styler renders terminal output with an optional color palette.
type Styler struct {
	colorEnabled  bool
	titleStyle    lipgloss.Style
	successStyle  lipgloss.Style
	warningStyle  lipgloss.Style
	failureStyle  lipgloss.Style
	skipStyle     lipgloss.Style
	emphasisStyle lipgloss.Style
}

// NewStyler constructs a styler. Colors are suppressed when colorEnabled is
// false so output stays clean under pipes and --no-color.
func NewStyler(colorEnabled bool) *Styler {
	return &Styler{
		colorEnabled:  colorEnabled,
		titleStyle:    lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
		successStyle:  lipgloss.NewStyle().Foreground(colorGreen),
		warningStyle:  lipgloss.NewStyle().Foreground(colorYellow),
		failureStyle:  lipgloss.NewStyle().Foreground(colorRed),
		skipStyle:     lipgloss.NewStyle().Foreground(colorGray),
		emphasisStyle: lipgloss.NewStyle().Bold(true),
	}
}

func (styler *Styler) render(style lipgloss.Style, text string) string {
	if !styler.colorEnabled {
		return text
	}
	return style.Render(text)
}

// Title renders a section heading.
func (styler *Styler) Title(text string) string {
	return styler.render(styler.titleStyle, text)
}

// Success renders a successful outcome line with its icon.
func (styler *Styler) Success(text string) string {
	return styler.render(styler.successStyle, fmt.Sprintf("%s %s", iconSuccess, text))
}

// Warning renders a cautionary line with its icon.
func (styler *Styler) Warning(text string) string {
	return styler.render(styler.warningStyle, fmt.Sprintf("%s %s", iconWarning, text))
}

// Failure renders a failed outcome line with its icon.
func (styler *Styler) Failure(text string) string {
	return styler.render(styler.failureStyle, fmt.Sprintf("%s %s", iconFailure, text))
}

// Skip renders a skipped outcome line with its icon.
func (styler *Styler) Skip(text string) string {
	return styler.render(styler.skipStyle, fmt.Sprintf("%s %s", iconSkip, text))
}

// Emphasis renders inline emphasized text without an icon.
func (styler *Styler) Emphasis(text string) string {
	return styler.render(styler.emphasisStyle, text)
}
