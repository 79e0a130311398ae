package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/vault/pkg/vault/types"
)

// Color constants using ANSI 256-color palette.
const (
	// ColorPrimary is used for headers and package names (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for positive status indicators (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for warnings (orange).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for errors (red).
	ColorDanger = lipgloss.Color("196")

	// ColorMuted is used for secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

var (
	// HeaderBox contains the catalog source and filter.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox contains the catalog totals.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

var (
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	NameStyle    = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorDanger)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)

	// TableHeaderStyle is used for table column headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMuted)
)

// categoryColors gives each storable category its own badge color.
var categoryColors = map[types.Category]lipgloss.Color{
	types.CategoryBlueprint:  lipgloss.Color("33"),
	types.CategoryMaterial:   lipgloss.Color("170"),
	types.CategoryLevel:      lipgloss.Color("42"),
	types.CategoryTexture:    lipgloss.Color("214"),
	types.CategoryStaticMesh: lipgloss.Color("39"),
	types.CategorySound:      lipgloss.Color("141"),
	types.CategoryOther:      ColorMuted,
}

// CategoryStyle returns the badge style for a category display name.
func CategoryStyle(name string) lipgloss.Style {
	color, ok := categoryColors[types.ParseCategory(name)]
	if !ok {
		color = ColorMuted
	}
	return lipgloss.NewStyle().Foreground(color)
}
