// Package tui implements the interactive alias browser.
package tui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"golang.org/x/term"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/backup"
	"github.com/NeverVane/shorty/internal/config"
	"github.com/NeverVane/shorty/internal/logger"
	"github.com/NeverVane/shorty/internal/store"
	syncpkg "github.com/NeverVane/shorty/internal/sync"
)

type mode int

const (
	modeBrowse mode = iota
	modeConfirmDelete
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Filter  key.Binding
	Clear   key.Binding
	Copy    key.Binding
	Delete  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Copy:    key.NewBinding(key.WithKeys("enter", "c"), key.WithHelp("enter", "copy")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Filter, k.Copy, k.Delete, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Filter, k.Clear},
		{k.Copy, k.Delete, k.Quit},
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00"))
	nameStyle     = lipgloss.NewStyle().Bold(true)
	noteStyle     = lipgloss.NewStyle().Faint(true)
	statusStyle   = lipgloss.NewStyle().Faint(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8800"))
)

// Model is the bubbletea model for the alias browser.
type Model struct {
	cfg     *config.Config
	store   *store.Store
	backups *backup.Manager
	col     *store.Collection
	keys    keyMap
	help    help.Model
	filter  textinput.Model

	mode      mode
	filtering bool
	aliases   []*alias.Alias
	visible   []*alias.Alias
	cursor    int
	offset    int
	width     int
	height    int
	status    string
}

// New builds the browser over the given store.
func New(cfg *config.Config) (*Model, error) {
	st := store.New(cfg.Aliases.FilePath)
	col, warnings, err := st.Load()
	if err != nil {
		return nil, err
	}

	filter := textinput.New()
	filter.Placeholder = "type to filter"
	filter.Prompt = "/ "
	filter.CharLimit = 64

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	m := &Model{
		cfg:     cfg,
		store:   st,
		backups: backup.NewManager(cfg.Aliases.FilePath, cfg.BackupDir()),
		col:     col,
		keys:    defaultKeyMap(),
		help:    help.New(),
		filter:  filter,
		width:   width,
		height:  height,
	}
	m.aliases = col.List()
	m.visible = m.aliases
	if len(warnings) > 0 {
		m.status = warnStyle.Render(fmt.Sprintf("%d malformed lines skipped", len(warnings)))
	}
	return m, nil
}

// Run starts the program and blocks until the user quits.
func Run(cfg *config.Config) error {
	m, err := New(cfg)
	if err != nil {
		return err
	}
	logger.GetLogger().TUI().Debug().Int("aliases", len(m.aliases)).Msg("starting alias browser")
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeConfirmDelete {
			return m.updateConfirm(msg)
		}
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Clear):
		m.clearFilter()

	case key.Matches(msg, m.keys.Copy):
		if a := m.selected(); a != nil {
			if err := syncpkg.ShareToClipboard(a); err != nil {
				m.status = warnStyle.Render("clipboard unavailable")
			} else {
				m.status = statusStyle.Render(fmt.Sprintf("copied %s to clipboard", a.Name))
			}
		}

	case key.Matches(msg, m.keys.Delete):
		if m.selected() != nil {
			m.mode = modeConfirmDelete
		}
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case "esc":
		m.clearFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.mode = modeBrowse
		m.deleteSelected()
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
	}
	return m, nil
}

func (m *Model) clearFilter() {
	m.filtering = false
	m.filter.Blur()
	m.filter.SetValue("")
	m.applyFilter()
}

// applyFilter recomputes the visible slice from the filter text, fuzzy
// when enabled, substring otherwise.
func (m *Model) applyFilter() {
	query := strings.TrimSpace(m.filter.Value())
	if query == "" {
		m.visible = m.aliases
		m.clampCursor()
		return
	}

	if m.cfg.TUI.FuzzyFilter {
		targets := make([]string, len(m.aliases))
		for i, a := range m.aliases {
			targets[i] = a.Name + " " + a.Command + " " + a.Note
		}
		matches := fuzzy.Find(query, targets)
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
		m.visible = make([]*alias.Alias, 0, len(matches))
		for _, match := range matches {
			m.visible = append(m.visible, m.aliases[match.Index])
		}
	} else {
		q := strings.ToLower(query)
		m.visible = nil
		for _, a := range m.aliases {
			hay := strings.ToLower(a.Name + " " + a.Command + " " + a.Note)
			if strings.Contains(hay, q) {
				m.visible = append(m.visible, a)
			}
		}
	}
	m.clampCursor()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
}

func (m *Model) pageSize() int {
	page := m.height - 6 // title, filter, status, help
	if page < 1 {
		page = 1
	}
	if m.cfg.TUI.ResultsPerPage > 0 && page > m.cfg.TUI.ResultsPerPage {
		page = m.cfg.TUI.ResultsPerPage
	}
	return page
}

func (m *Model) selected() *alias.Alias {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

// deleteSelected removes the alias behind an automatic backup and
// persists the file.
func (m *Model) deleteSelected() {
	a := m.selected()
	if a == nil {
		return
	}
	if m.cfg.Backup.AutoBackup {
		if _, err := m.backups.Auto(); err != nil {
			m.status = warnStyle.Render("backup failed, delete aborted: " + err.Error())
			return
		}
	}
	if err := m.col.Remove(a.Name); err != nil {
		m.status = warnStyle.Render(err.Error())
		return
	}
	if err := m.store.Save(m.col); err != nil {
		m.status = warnStyle.Render("save failed: " + err.Error())
		return
	}
	m.aliases = m.col.List()
	m.applyFilter()
	m.status = statusStyle.Render(fmt.Sprintf("deleted %s", a.Name))
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("shorty — %d aliases", len(m.aliases))))
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	if m.mode == modeConfirmDelete {
		if a := m.selected(); a != nil {
			b.WriteString(warnStyle.Render(fmt.Sprintf("delete %s? (y/n)", a.Name)))
			b.WriteString("\n")
		}
	}

	page := m.pageSize()
	end := m.offset + page
	if end > len(m.visible) {
		end = len(m.visible)
	}
	if len(m.visible) == 0 {
		b.WriteString(noteStyle.Render("no aliases match"))
		b.WriteString("\n")
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.visible[i], i == m.cursor))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderRow(a *alias.Alias, selected bool) string {
	marker := "  "
	name := nameStyle.Render(a.Name)
	if selected {
		marker = selectedStyle.Render("> ")
		name = selectedStyle.Render(a.Name)
	}

	command := a.Command
	if m.cfg.Display.TruncateCommands && len(command) > m.cfg.Display.MaxCommandLength {
		command = command[:m.cfg.Display.MaxCommandLength-1] + "…"
	}

	row := fmt.Sprintf("%s%-16s %s", marker, name, command)
	if a.Note != "" {
		row += "  " + noteStyle.Render("# "+a.Note)
	}
	if len(a.Tags) > 0 {
		tags := make([]string, len(a.Tags))
		for i, tag := range a.Tags {
			tags[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(config.TagColor(tag))).Render(tag)
		}
		row += "  [" + strings.Join(tags, ",") + "]"
	}
	return row
}
