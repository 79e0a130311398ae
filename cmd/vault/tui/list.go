package tui

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// ListModel is the category-filtered package list.
type ListModel struct {
	records  []catalog.Record
	visible  []catalog.Record
	category types.Category
	cursor   int
	offset   int
	width    int
	height   int
}

// NewListModel creates a list showing records of the given category.
func NewListModel(records []catalog.Record, category types.Category) ListModel {
	m := ListModel{width: 80, height: 24, category: category}
	m.SetRecords(records)
	return m
}

// SetRecords replaces the records, keeping the cursor on the same package
// when it is still listed.
func (m *ListModel) SetRecords(records []catalog.Record) {
	current, ok := m.Current()
	m.records = records
	m.refilter()
	if !ok {
		return
	}
	for i, r := range m.visible {
		if r.PackageRoot == current.PackageRoot {
			m.cursor = i
			m.ensureVisible()
			return
		}
	}
}

// SetCategory changes the category filter and resets the cursor.
func (m *ListModel) SetCategory(c types.Category) {
	m.category = c
	m.cursor = 0
	m.offset = 0
	m.refilter()
}

// NextCategory cycles the filter forward through every category.
func (m *ListModel) NextCategory() {
	m.SetCategory(types.CategoryByIndex((int(m.category) + 1) % (types.MaxCategoryIndex() + 1)))
}

// PrevCategory cycles the filter backward.
func (m *ListModel) PrevCategory() {
	n := types.MaxCategoryIndex() + 1
	m.SetCategory(types.CategoryByIndex((int(m.category) + n - 1) % n))
}

// Category returns the current filter.
func (m ListModel) Category() types.Category {
	return m.category
}

func (m *ListModel) refilter() {
	m.visible = catalog.FilterAndSort(m.records, m.category)
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
	m.ensureVisible()
}

// HandleKey moves the cursor.
func (m *ListModel) HandleKey(key string) {
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.visible)-1, 0)
	case "pgup":
		m.cursor = max(m.cursor-m.visibleRows(), 0)
	case "pgdown":
		m.cursor = max(min(m.cursor+m.visibleRows(), len(m.visible)-1), 0)
	}
	m.ensureVisible()
}

// Current returns the package under the cursor.
func (m ListModel) Current() (catalog.Record, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return catalog.Record{}, false
	}
	return m.visible[m.cursor], true
}

// Visible returns the packages shown under the current filter.
func (m ListModel) Visible() []catalog.Record {
	return m.visible
}

// Total returns the number of packages regardless of the filter.
func (m ListModel) Total() int {
	return len(m.records)
}

// Cursor returns the cursor position.
func (m ListModel) Cursor() int {
	return m.cursor
}

// SetDimensions updates the width and height.
func (m *ListModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

// visibleRows is the number of list rows that fit beside the header, tabs,
// details pane and footer.
func (m ListModel) visibleRows() int {
	return max(m.height-20, 3)
}

func (m *ListModel) ensureVisible() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// renderTabs renders the category bar with the active filter highlighted.
func (m ListModel) renderTabs() string {
	counts := catalog.Counts(m.records)
	var parts []string
	for _, c := range types.AllCategories() {
		label := c.DisplayName()
		if c == types.CategoryAll {
			label = fmt.Sprintf("%s %d", label, len(m.records))
		} else if n := counts[c]; n > 0 {
			label = fmt.Sprintf("%s %d", label, n)
		}
		if c == m.category {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, "")
}

// renderRows renders the visible window of the list.
func (m ListModel) renderRows(width int) string {
	if len(m.visible) == 0 {
		return "\n" + mutedTextStyle.Render("  No packages in this category.") + "\n"
	}

	nameWidth := max(width/2, 20)
	var b strings.Builder
	rows := m.visibleRows()
	for i := m.offset; i < m.offset+rows && i < len(m.visible); i++ {
		d := m.visible[i].Descriptor

		cursor := " "
		if i == m.cursor {
			cursor = cursorStyle.Render(">")
		}
		name := padRight(truncate(d.Name, nameWidth), nameWidth)
		line := fmt.Sprintf(" %s %s %s  %s", cursor, name,
			versionStyle.Render(padRight(d.Version, 8)),
			mutedTextStyle.Render(d.Category.DisplayName()))

		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render(line))
		} else {
			b.WriteString(normalItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	for i := min(len(m.visible)-m.offset, rows); i < rows; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

// renderDetails renders the descriptor of the package under the cursor.
func (m ListModel) renderDetails(width int) string {
	r, ok := m.Current()
	if !ok {
		return ""
	}
	d := r.Descriptor

	field := func(label, value string) string {
		if value == "" {
			value = mutedTextStyle.Render("-")
		}
		return "  " + detailLabelStyle.Render(label) + truncate(value, max(width-16, 10)) + "\n"
	}

	var b strings.Builder
	b.WriteString(field("Path", d.RelativeExportPath))
	b.WriteString(field("Description", d.Description))
	b.WriteString(field("Version", strings.TrimSpace(d.Version+"  "+d.VersionComment)))
	b.WriteString(field("Engine", d.EngineVersion))
	b.WriteString(field("Tags", strings.Join(d.Tags, ", ")))
	b.WriteString(field("Assets", strings.Join(d.ExportedItemNames, ", ")))
	return b.String()
}
