package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/conflict"
	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/output"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// Backend runs the package operations the browser offers.
type Backend interface {
	// Scan lists every package below the storage root.
	Scan(ctx context.Context) ([]catalog.Record, []catalog.ScanError, error)

	// CheckImport returns the package items that already exist in the
	// target subfolder.
	CheckImport(ctx context.Context, relativePath, subfolder string) ([]string, error)

	// Import copies a package into the target subfolder and returns the
	// user-facing result.
	Import(ctx context.Context, relativePath, subfolder string, force bool) (string, error)

	// Delete removes a package folder.
	Delete(packageRoot string) error
}

// AppState is the current mode of the browser.
type AppState int

const (
	StateLoading AppState = iota
	StateBrowse
	StateSubfolder
	StateConfirmImport
	StateConfirmDelete
	StateBusy
)

// Options configures the browser.
type Options struct {
	// Root is the storage root shown in the header.
	Root string

	// Category is the initial filter.
	Category types.Category

	// Subfolder is the initial import target below the content root.
	Subfolder string

	// Changes delivers batches of changed paths; the catalog is reloaded
	// after each. Nil disables live refresh.
	Changes <-chan []string
}

// Model is the Bubble Tea model for the package browser.
type Model struct {
	state   AppState
	backend Backend
	options Options
	list    ListModel

	ctx    context.Context
	cancel context.CancelFunc

	spinner   spinner.Model
	subfolder textinput.Model
	target    string

	conflicts      []string
	confirmFocused int
	busyLabel      string

	warnings int
	status   string
	statusOK bool

	width  int
	height int
}

// NewModel creates a browser using backend for all operations.
func NewModel(backend Backend, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(output.ColorPrimary)

	ti := textinput.New()
	ti.Placeholder = "e.g. Characters/Heroes"
	ti.Prompt = "/Content/"
	ti.CharLimit = 256
	ti.SetValue(opts.Subfolder)

	list := NewListModel(nil, opts.Category)

	return Model{
		state:     StateLoading,
		backend:   backend,
		options:   opts,
		list:      list,
		ctx:       ctx,
		cancel:    cancel,
		spinner:   s,
		subfolder: ti,
		target:    opts.Subfolder,
		width:     80,
		height:    24,
	}
}

type catalogLoadedMsg struct {
	records []catalog.Record
	errs    []catalog.ScanError
	err     error
}

type conflictsMsg struct {
	names []string
	err   error
}

type operationDoneMsg struct {
	message string
	success bool
}

type changesMsg struct {
	paths []string
}

// Init starts the first catalog scan.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCatalog(), m.listenForChanges())
}

func (m Model) loadCatalog() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		records, errs, err := backend.Scan(ctx)
		return catalogLoadedMsg{records: records, errs: errs, err: err}
	}
}

func (m Model) listenForChanges() tea.Cmd {
	ch := m.options.Changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		paths, ok := <-ch
		if !ok {
			return nil
		}
		return changesMsg{paths: paths}
	}
}

func (m Model) checkImport(rel string) tea.Cmd {
	ctx, backend, target := m.ctx, m.backend, m.target
	return func() tea.Msg {
		names, err := backend.CheckImport(ctx, rel, target)
		return conflictsMsg{names: names, err: err}
	}
}

func (m Model) runImport(rel string, force bool) tea.Cmd {
	ctx, backend, target := m.ctx, m.backend, m.target
	return func() tea.Msg {
		msg, err := backend.Import(ctx, rel, target, force)
		if err != nil {
			if msg == "" {
				msg = "Import failed: " + err.Error()
			}
			return operationDoneMsg{message: msg, success: false}
		}
		return operationDoneMsg{message: msg, success: true}
	}
}

func (m Model) runDelete(r catalog.Record) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		if err := backend.Delete(r.PackageRoot); err != nil {
			return operationDoneMsg{message: "Delete failed: " + err.Error()}
		}
		return operationDoneMsg{message: "Deleted " + r.Descriptor.RelativeExportPath, success: true}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case catalogLoadedMsg:
		if m.state == StateLoading || m.state == StateBusy {
			m.state = StateBrowse
		}
		if msg.err != nil {
			m.setStatus("Failed to read catalog: "+msg.err.Error(), false)
			return m, nil
		}
		m.list.SetRecords(msg.records)
		m.warnings = len(msg.errs)
		return m, nil

	case changesMsg:
		return m, tea.Batch(m.loadCatalog(), m.listenForChanges())

	case conflictsMsg:
		r, ok := m.list.Current()
		if !ok {
			m.state = StateBrowse
			return m, nil
		}
		if msg.err != nil && !errors.Is(msg.err, conflict.ErrCannotDetermine) {
			m.state = StateBrowse
			m.setStatus("Conflict check failed: "+msg.err.Error(), false)
			return m, nil
		}
		if len(msg.names) == 0 {
			return m.startBusy("Importing "+r.Descriptor.Name, m.runImport(r.Descriptor.RelativeExportPath, false))
		}
		m.conflicts = msg.names
		m.confirmFocused = 0
		m.state = StateConfirmImport
		return m, nil

	case operationDoneMsg:
		m.setStatus(msg.message, msg.success)
		return m, m.loadCatalog()
	}

	if m.state == StateSubfolder {
		var cmd tea.Cmd
		m.subfolder, cmd = m.subfolder.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setStatus(message string, ok bool) {
	m.status = message
	m.statusOK = ok
}

func (m Model) startBusy(label string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.state = StateBusy
	m.busyLabel = label
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	switch m.state {
	case StateLoading:
		if key == "q" || key == "esc" {
			m.cancel()
			return m, tea.Quit
		}

	case StateBrowse:
		return m.handleBrowseKey(key)

	case StateSubfolder:
		switch key {
		case "esc":
			m.subfolder.SetValue(m.target)
			m.subfolder.Blur()
			m.state = StateBrowse
			return m, nil
		case "enter":
			value := strings.TrimSpace(m.subfolder.Value())
			if err := layout.ValidateSubfolder(value); err != nil {
				m.setStatus("Error: Invalid target subfolder path.", false)
				return m, nil
			}
			m.target = value
			m.subfolder.Blur()
			m.state = StateBrowse
			m.setStatus("Import target set to "+layout.ContentDisplayPath(value), true)
			return m, nil
		}
		var cmd tea.Cmd
		m.subfolder, cmd = m.subfolder.Update(msg)
		return m, cmd

	case StateConfirmImport:
		r, ok := m.list.Current()
		switch key {
		case "esc", "q":
			m.state = StateBrowse
		case "tab", "left", "right", "h", "l":
			m.confirmFocused = (m.confirmFocused + 1) % 2
		case "o":
			if ok {
				return m.startBusy("Importing "+r.Descriptor.Name, m.runImport(r.Descriptor.RelativeExportPath, true))
			}
		case "s":
			if ok {
				return m.startBusy("Importing "+r.Descriptor.Name, m.runImport(r.Descriptor.RelativeExportPath, false))
			}
		case "enter":
			if ok {
				force := m.confirmFocused == 1
				return m.startBusy("Importing "+r.Descriptor.Name, m.runImport(r.Descriptor.RelativeExportPath, force))
			}
		}

	case StateConfirmDelete:
		r, ok := m.list.Current()
		switch key {
		case "esc", "q", "n":
			m.state = StateBrowse
		case "tab", "left", "right", "h", "l":
			m.confirmFocused = (m.confirmFocused + 1) % 2
		case "y":
			if ok {
				return m.startBusy("Deleting "+r.Descriptor.Name, m.runDelete(r))
			}
		case "enter":
			if ok && m.confirmFocused == 1 {
				return m.startBusy("Deleting "+r.Descriptor.Name, m.runDelete(r))
			}
			m.state = StateBrowse
		}

	case StateBusy:
		// Operations run to completion.
	}

	return m, nil
}

func (m Model) handleBrowseKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		m.cancel()
		return m, tea.Quit
	case "tab":
		m.list.NextCategory()
	case "shift+tab":
		m.list.PrevCategory()
	case "r":
		m.setStatus("", true)
		return m, m.loadCatalog()
	case "t":
		m.state = StateSubfolder
		m.subfolder.SetValue(m.target)
		m.subfolder.CursorEnd()
		return m, m.subfolder.Focus()
	case "i", "enter":
		r, ok := m.list.Current()
		if !ok {
			return m, nil
		}
		return m.startBusy("Checking "+r.Descriptor.Name, m.checkImport(r.Descriptor.RelativeExportPath))
	case "d", "delete":
		if _, ok := m.list.Current(); ok {
			m.confirmFocused = 0
			m.state = StateConfirmDelete
		}
	default:
		m.list.HandleKey(key)
	}
	return m, nil
}

// State returns the current state.
func (m Model) State() AppState {
	return m.state
}

// Target returns the import subfolder.
func (m Model) Target() string {
	return m.target
}

// Status returns the last status line and whether it reports success.
func (m Model) Status() (string, bool) {
	return m.status, m.statusOK
}

// View renders the current state.
func (m Model) View() string {
	switch m.state {
	case StateLoading:
		return outerBoxStyle.Width(max(m.width-2, 40)).Render(
			renderAppHeader(m.options.Root, 0, m.options.Changes != nil) + "\n\n  " +
				m.spinner.View() + " Reading catalog...\n")
	case StateConfirmImport:
		return m.renderDialog(m.importDialog())
	case StateConfirmDelete:
		return m.renderDialog(m.deleteDialog())
	}
	return m.renderBrowser()
}

func (m Model) renderBrowser() string {
	contentWidth := max(m.width-4, 60)

	var b strings.Builder
	b.WriteString(renderAppHeader(m.options.Root, m.list.Total(), m.options.Changes != nil))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.list.renderTabs())
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.list.renderRows(contentWidth))
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.list.renderDetails(contentWidth))
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return outerBoxStyle.Width(max(m.width-2, 62)).Render(b.String())
}

func (m Model) renderStatus() string {
	switch {
	case m.state == StateBusy:
		return "  " + m.spinner.View() + " " + m.busyLabel + "..."
	case m.state == StateSubfolder:
		return "  " + m.subfolder.View()
	case m.status != "" && m.statusOK:
		return "  " + successTextStyle.Render(m.status)
	case m.status != "":
		return "  " + errorTextStyle.Render(m.status)
	}

	line := "  " + mutedTextStyle.Render("Import into "+layout.ContentDisplayPath(m.target))
	if m.warnings > 0 {
		line += "  " + warningTextStyle.Render(fmt.Sprintf("%d unreadable descriptors", m.warnings))
	}
	return line
}

func (m Model) renderHelp() string {
	if m.state == StateSubfolder {
		return "  " + renderKeyHints([][2]string{{"Enter", "Set"}, {"Esc", "Cancel"}})
	}
	return "  " + renderKeyHints([][2]string{
		{"Tab", "Category"},
		{"i", "Import"},
		{"t", "Target"},
		{"d", "Delete"},
		{"r", "Refresh"},
		{"q", "Quit"},
	})
}

func (m Model) importDialog() string {
	r, _ := m.list.Current()

	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render("Items Already Exist"))
	b.WriteString("\n\n")
	b.WriteString(dialogTextStyle.Render(fmt.Sprintf("%d items of %s already exist in %s:",
		len(m.conflicts), r.Descriptor.Name, layout.ContentDisplayPath(m.target))))
	b.WriteString("\n")

	shown := min(len(m.conflicts), 5)
	for _, n := range m.conflicts[:shown] {
		b.WriteString(mutedTextStyle.Render("  " + n))
		b.WriteString("\n")
	}
	if len(m.conflicts) > shown {
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  ... and %d more", len(m.conflicts)-shown)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderButtons("Skip existing", "Overwrite"))
	return b.String()
}

func (m Model) deleteDialog() string {
	r, _ := m.list.Current()

	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render("Confirm Deletion"))
	b.WriteString("\n\n")
	b.WriteString(dialogTextStyle.Render("Delete package " + r.Descriptor.RelativeExportPath + "?"))
	b.WriteString("\n\n")
	b.WriteString(m.renderButtons("Cancel", "Delete"))
	return b.String()
}

func (m Model) renderButtons(left, right string) string {
	leftBtn := inactiveButtonStyle.Render(left)
	rightBtn := inactiveButtonStyle.Render(right)
	if m.confirmFocused == 0 {
		leftBtn = activeButtonStyle.Background(output.ColorPrimary).Render(left)
	} else {
		rightBtn = activeButtonStyle.Render(right)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, leftBtn, "  ", rightBtn)
}

// renderDialog centers a dialog in the window.
func (m Model) renderDialog(content string) string {
	dialog := dialogBoxStyle.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}
