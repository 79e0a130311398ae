package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats the catalog with colors and styling using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	lines := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Vault:"), ValueStyle.Render(r.Source)),
	}

	info := fmt.Sprintf("%s %s", LabelStyle.Render("Category:"), ValueStyle.Render(r.Category))
	if r.Watching {
		info += "  " + SuccessStyle.Render("watching")
	}
	lines = append(lines, info)

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatTable builds the NAME / CATEGORY / VERSION / SIZE / PATH table.
func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Packages) == 0 {
		return MutedStyle.Render("  No packages found") + "\n"
	}

	headers := []string{"NAME", "CATEGORY", "VERSION", "SIZE", "PATH"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, p := range r.Packages {
		for i, v := range []string{p.Name, p.Category, p.Version, p.SizeHuman} {
			widths[i] = max(widths[i], lipgloss.Width(v))
		}
	}

	var sb strings.Builder
	sb.WriteString(" ")
	for i, h := range headers {
		sb.WriteString(" ")
		sb.WriteString(TableHeaderStyle.Render(padRight(h, widths[i])))
	}
	sb.WriteString("\n")

	for _, p := range r.Packages {
		sb.WriteString("  ")
		sb.WriteString(NameStyle.Render(padRight(p.Name, widths[0])))
		sb.WriteString(" ")
		sb.WriteString(CategoryStyle(p.Category).Render(padRight(p.Category, widths[1])))
		sb.WriteString(" ")
		sb.WriteString(ValueStyle.Render(padRight(p.Version, widths[2])))
		sb.WriteString(" ")
		sb.WriteString(ValueStyle.Render(padLeft(p.SizeHuman, widths[3])))
		sb.WriteString(" ")
		sb.WriteString(MutedStyle.Render(p.RelativeExportPath))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Packages:"), ValueStyle.Render(fmt.Sprintf("%d", len(r.Packages)))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Total:"), NameStyle.Render(humanize.IBytes(uint64(max(r.TotalSize(), 0))))),
		MutedStyle.Render("Use -o json for machine-readable output"),
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Unreadable descriptors:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
