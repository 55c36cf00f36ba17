// internal/tui/model.go
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	bbtable "github.com/evertras/bubble-table/table"

	"github.com/dbdeck/dbdeck/internal/config"
	"github.com/dbdeck/dbdeck/internal/cred"
	"github.com/dbdeck/dbdeck/internal/explorer"
	"github.com/dbdeck/dbdeck/internal/history"
)

type snapshotMsg explorer.Snapshot

type promptMsg promptRequest

type tickMsg time.Time

type historyMsg struct {
	entries []history.Entry
	err     error
}

// popup identifies the active modal, if any. Popups capture all key input
// until dismissed.
type popup int

const (
	popupNone popup = iota
	popupPassword
	popupAddProfile
	popupConfirmDelete
	popupInspect
	popupHistory
)

// Options wires the model to the rest of the application.
type Options struct {
	Explorer *explorer.Explorer
	Config   *config.Config
	Prompter *Prompter
	Secrets  cred.Store
	History  *history.Store
	Logger   *slog.Logger
}

// Model is the bubbletea program. It renders explorer snapshots and
// translates key presses into explorer intents; all navigation state
// lives in the explorer loop, never here.
type Model struct {
	explorer *explorer.Explorer
	cfg      *config.Config
	prompter *Prompter
	secrets  cred.Store
	store    *history.Store
	logger   *slog.Logger

	snap   explorer.Snapshot
	width  int
	height int

	editor  textarea.Model
	results bbtable.Model
	columns bbtable.Model

	popup   popup
	ticking bool

	// password popup
	prompt        *promptRequest
	passwordInput textinput.Model

	// add-profile popup
	nameInput textinput.Model
	dsnInput  textinput.Model
	addFocus  int
	addErr    string

	// delete confirmation
	deleteID   string
	deleteName string

	// history popup
	historyEntries []history.Entry
	historySel     int
	historyErr     string
}

func NewModel(opts Options) Model {
	editor := textarea.New()
	editor.Placeholder = "SELECT ..."
	editor.CharLimit = 5000
	editor.SetHeight(3)
	editor.SetWidth(80)
	editor.ShowLineNumbers = false
	editor.FocusedStyle.CursorLine = lipgloss.NewStyle()

	password := textinput.New()
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.CharLimit = 256
	password.Width = 32

	name := textinput.New()
	name.Placeholder = "name"
	name.CharLimit = 64
	name.Width = 48

	dsn := textinput.New()
	dsn.Placeholder = "postgres://user@host:5432/db or /path/to.db"
	dsn.CharLimit = 512
	dsn.Width = 48

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return Model{
		explorer:      opts.Explorer,
		cfg:           opts.Config,
		prompter:      opts.Prompter,
		secrets:       opts.Secrets,
		store:         opts.History,
		logger:        logger,
		snap:          opts.Explorer.Snapshot(),
		editor:        editor,
		passwordInput: password,
		nameInput:     name,
		dsnInput:      dsn,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.waitForSnapshot()}
	if m.prompter != nil {
		cmds = append(cmds, m.waitForPrompt())
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForSnapshot() tea.Cmd {
	updates := m.explorer.Updates()
	return func() tea.Msg { return snapshotMsg(<-updates) }
}

func (m Model) waitForPrompt() tea.Cmd {
	requests := m.prompter.requests
	return func() tea.Msg { return promptMsg(<-requests) }
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(msg.Width - 4)
		m = m.rebuildTables()
		return m, nil

	case snapshotMsg:
		return m.applySnapshot(explorer.Snapshot(msg))

	case promptMsg:
		pr := promptRequest(msg)
		m.prompt = &pr
		m.popup = popupPassword
		m.passwordInput.SetValue("")
		return m, tea.Batch(m.passwordInput.Focus(), textinput.Blink)

	case tickMsg:
		if m.snap.Loading {
			return m, tick()
		}
		m.ticking = false
		return m, nil

	case historyMsg:
		m.historyEntries = msg.entries
		m.historySel = 0
		m.historyErr = ""
		if msg.err != nil {
			m.historyErr = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) applySnapshot(snap explorer.Snapshot) (tea.Model, tea.Cmd) {
	prev := m.snap
	m.snap = snap

	cmds := []tea.Cmd{m.waitForSnapshot()}

	if snap.State == explorer.StateQueryEditor && prev.State != explorer.StateQueryEditor {
		m.editor.SetValue(snap.QueryText)
		cmds = append(cmds, m.editor.Focus())
	}
	if snap.State != explorer.StateQueryEditor && m.editor.Focused() {
		m.editor.Blur()
	}

	if tablesChanged(prev, snap) {
		m = m.rebuildTables()
	}

	if snap.Loading && !m.ticking {
		m.ticking = true
		cmds = append(cmds, tick())
	}
	return m, tea.Batch(cmds...)
}

// tablesChanged reports whether the result tables must be rebuilt.
// Rebuilding resets the table cursor, so skip it when only unrelated
// snapshot fields moved.
func tablesChanged(prev, snap explorer.Snapshot) bool {
	return prev.State != snap.State ||
		prev.Page != snap.Page ||
		prev.RowCount != snap.RowCount ||
		prev.ExecTime != snap.ExecTime ||
		len(prev.Columns) != len(snap.Columns)
}

func (m Model) rebuildTables() Model {
	switch m.snap.State {
	case explorer.StateColumnList:
		m.columns = columnTable(m.snap.Columns)
	case explorer.StateRowBrowser, explorer.StateResultView:
		m.results = rowTable(m.snap.Columns, m.snap.Rows, m.innerPageSize(), m.resultFooter())
	}
	return m
}

// innerPageSize is how many rows the table shows before scrolling within
// the fetched page.
func (m Model) innerPageSize() int {
	h := m.height - 10
	if h < 5 {
		h = 5
	}
	return h
}

func (m Model) moveSelection(delta int) {
	entries := m.snap.Entries
	if len(entries) == 0 {
		return
	}
	idx := 0
	for i, e := range entries {
		if e.Key == m.snap.Selected {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(entries) {
		idx = len(entries) - 1
	}
	m.explorer.Select(entries[idx].Key)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.popup != popupNone {
		return m.handlePopupKey(msg)
	}

	if m.snap.State == explorer.StateQueryEditor {
		return m.handleEditorKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		switch {
		case m.snap.Loading:
			m.explorer.Cancel()
		case m.snap.Error != "":
			m.explorer.DismissError()
		default:
			m.explorer.Back()
		}
		return m, nil
	case "r":
		m.explorer.Refresh()
		return m, nil
	case "e":
		if m.snap.Connected {
			m.explorer.OpenQueryEditor()
		}
		return m, nil
	case "D":
		if m.snap.Connected {
			m.explorer.Disconnect()
		}
		return m, nil
	}

	switch m.snap.State {
	case explorer.StateConnectionList:
		return m.handleProfileKey(msg)
	case explorer.StateDatabaseList, explorer.StateSchemaList, explorer.StateTableList:
		return m.handleListKey(msg)
	case explorer.StateColumnList:
		return m.handleColumnKey(msg)
	case explorer.StateRowBrowser, explorer.StateResultView:
		return m.handleRowsKey(msg)
	}
	return m, nil
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "enter":
		if key := m.snap.Selected; key != "" {
			m.explorer.Enter(key)
		}
	case "a":
		m.popup = popupAddProfile
		m.addFocus = 0
		m.addErr = ""
		m.nameInput.SetValue("")
		m.dsnInput.SetValue("")
		m.dsnInput.Blur()
		return m, tea.Batch(m.nameInput.Focus(), textinput.Blink)
	case "x":
		if m.snap.Selected == "" {
			return m, nil
		}
		m.deleteID = m.snap.Selected
		m.deleteName = m.snap.Selected
		for _, e := range m.snap.Entries {
			if e.Key == m.deleteID {
				m.deleteName = e.Label
			}
		}
		m.popup = popupConfirmDelete
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "enter":
		if key := m.snap.Selected; key != "" {
			m.explorer.Enter(key)
		}
	}
	return m, nil
}

func (m Model) handleColumnKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		m.explorer.Enter("")
		return m, nil
	}
	var cmd tea.Cmd
	m.columns, cmd = m.columns.Update(msg)
	return m, cmd
}

func (m Model) handleRowsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n", "pgdown":
		if m.snap.State == explorer.StateRowBrowser {
			m.explorer.NextPage()
			return m, nil
		}
	case "p", "pgup":
		if m.snap.State == explorer.StateRowBrowser {
			m.explorer.PrevPage()
			return m, nil
		}
	case "i", "enter":
		if len(m.snap.Rows) > 0 {
			m.popup = popupInspect
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+d":
		text := m.editor.Value()
		if strings.TrimSpace(text) != "" {
			m.explorer.RunQuery(text)
		}
		return m, nil
	case "esc":
		if m.snap.Loading {
			m.explorer.Cancel()
			return m, nil
		}
		m.explorer.SetQueryText(m.editor.Value())
		m.explorer.Back()
		return m, nil
	case "ctrl+r":
		return m.openHistory()
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) openHistory() (tea.Model, tea.Cmd) {
	if m.store == nil {
		return m, nil
	}
	m.popup = popupHistory
	m.historyEntries = nil
	m.historySel = 0
	m.historyErr = ""
	return m, m.loadHistory()
}

func (m Model) loadHistory() tea.Cmd {
	store := m.store
	profileID := m.snap.ProfileID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		entries, err := store.List(ctx, profileID, 50, 0)
		return historyMsg{entries: entries, err: err}
	}
}

func (m Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.popup {
	case popupPassword:
		return m.handlePasswordKey(msg)
	case popupAddProfile:
		return m.handleAddProfileKey(msg)
	case popupConfirmDelete:
		return m.handleDeleteKey(msg)
	case popupInspect:
		return m.handleInspectKey(msg)
	case popupHistory:
		return m.handleHistoryKey(msg)
	}
	m.popup = popupNone
	return m, nil
}

func (m Model) handlePasswordKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.closePrompt(promptReply{secret: m.passwordInput.Value()})
	case "esc":
		return m.closePrompt(promptReply{err: cred.ErrPromptCancelled})
	}
	var cmd tea.Cmd
	m.passwordInput, cmd = m.passwordInput.Update(msg)
	return m, cmd
}

func (m Model) closePrompt(reply promptReply) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		m.prompt.reply <- reply
		m.prompt = nil
	}
	m.popup = popupNone
	m.passwordInput.SetValue("")
	m.passwordInput.Blur()
	return m, m.waitForPrompt()
}

func (m Model) handleAddProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.popup = popupNone
		m.nameInput.Blur()
		m.dsnInput.Blur()
		return m, nil
	case "tab", "shift+tab":
		m.addFocus = 1 - m.addFocus
		if m.addFocus == 0 {
			m.dsnInput.Blur()
			return m, m.nameInput.Focus()
		}
		m.nameInput.Blur()
		return m, m.dsnInput.Focus()
	case "enter":
		if m.addFocus == 0 {
			m.addFocus = 1
			m.nameInput.Blur()
			return m, m.dsnInput.Focus()
		}
		return m.submitProfile()
	}
	var cmd tea.Cmd
	if m.addFocus == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.dsnInput, cmd = m.dsnInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submitProfile() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.nameInput.Value())
	dsn := strings.TrimSpace(m.dsnInput.Value())
	if name == "" || dsn == "" {
		m.addErr = "name and DSN are both required"
		return m, nil
	}
	profile, secret, err := config.ParseDSN(name, dsn)
	if err != nil {
		m.addErr = err.Error()
		return m, nil
	}
	saved, err := m.cfg.AddProfile(profile)
	if err != nil {
		m.addErr = err.Error()
		return m, nil
	}
	if secret != "" && m.secrets != nil {
		if err := m.secrets.Set(saved.ID, secret); err != nil {
			m.logger.Warn("storing secret failed", "profile", saved.Name, "error", err)
		}
	}
	m.popup = popupNone
	m.nameInput.Blur()
	m.dsnInput.Blur()
	m.explorer.Refresh()
	m.explorer.Select(saved.ID)
	return m, nil
}

func (m Model) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		if err := m.cfg.DeleteProfile(m.deleteID); err != nil {
			m.logger.Warn("deleting profile failed", "error", err)
		} else if m.secrets != nil {
			if err := m.secrets.Delete(m.deleteID); err != nil {
				m.logger.Warn("deleting stored secret failed", "error", err)
			}
		}
		m.popup = popupNone
		m.deleteID = ""
		m.explorer.Refresh()
	case "n", "N", "esc", "q":
		m.popup = popupNone
		m.deleteID = ""
	}
	return m, nil
}

func (m Model) handleInspectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "i", "enter":
		m.popup = popupNone
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "ctrl+r":
		m.popup = popupNone
	case "j", "down":
		if m.historySel < len(m.historyEntries)-1 {
			m.historySel++
		}
	case "k", "up":
		if m.historySel > 0 {
			m.historySel--
		}
	case "enter":
		if m.historySel >= 0 && m.historySel < len(m.historyEntries) {
			entry := m.historyEntries[m.historySel]
			m.editor.SetValue(entry.Query)
			m.explorer.SetQueryText(entry.Query)
		}
		m.popup = popupNone
	}
	return m, nil
}
