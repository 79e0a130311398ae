// Package tui provides the interactive package browser for vault, built on
// Bubble Tea, Lip Gloss and Bubbles.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/vault/pkg/vault/output"
)

// The browser shares the palette of the catalog listing.
const (
	accentColor    = lipgloss.Color("45")
	subtleColor    = lipgloss.Color("238")
	borderColor    = lipgloss.Color("236")
	highlightColor = lipgloss.Color("24")
	brightColor    = lipgloss.Color("255")
)

var (
	outerBoxStyle = output.HeaderBox.MarginBottom(0)
	dividerStyle  = lipgloss.NewStyle().Foreground(borderColor)

	titleStyle       = output.NameStyle
	mutedTextStyle   = output.MutedStyle
	errorTextStyle   = output.ErrorStyle
	successTextStyle = output.SuccessStyle
	warningTextStyle = output.WarningStyle

	keyStyle     = output.NameStyle
	keyDescStyle = output.MutedStyle
)

// List and detail pane.
var (
	cursorStyle       = output.NameStyle
	normalItemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	selectedItemStyle = lipgloss.NewStyle().Background(highlightColor).Foreground(brightColor).Bold(true)
	versionStyle      = lipgloss.NewStyle().Foreground(accentColor)
	detailLabelStyle  = output.LabelStyle.Width(12)

	inactiveTabStyle = output.MutedStyle.Padding(0, 1)
	activeTabStyle   = lipgloss.NewStyle().Background(output.ColorPrimary).Foreground(brightColor).Padding(0, 1)
)

// Confirmation dialogs.
var (
	dialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(output.ColorWarning).
			Padding(1, 2).
			Width(56)

	dialogTitleStyle = output.WarningStyle.Bold(true)
	dialogTextStyle  = lipgloss.NewStyle().Foreground(brightColor)

	buttonStyle         = lipgloss.NewStyle().Padding(0, 2).Margin(0, 1)
	activeButtonStyle   = buttonStyle.Background(output.ColorDanger).Foreground(brightColor).Bold(true)
	inactiveButtonStyle = buttonStyle.Background(subtleColor).Foreground(lipgloss.Color("252"))
)

func renderDivider(width int) string {
	return dividerStyle.Render(repeatChar('─', width))
}

func repeatChar(char rune, n int) string {
	return strings.Repeat(string(char), max(n, 0))
}

// truncate shortens s to maxLen display cells, keeping the start.
func truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:min(max(maxLen, 0), len(r))])
	}
	for len(r) > 0 && lipgloss.Width(string(r))+3 > maxLen {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	return s + repeatChar(' ', width-lipgloss.Width(s))
}

// renderKeyHints renders "[key] desc" pairs.
func renderKeyHints(hints [][2]string) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyStyle.Render("["+h[0]+"]")+" "+keyDescStyle.Render(h[1]))
	}
	return strings.Join(parts, "  ")
}
