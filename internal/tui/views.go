// internal/tui/views.go
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/dbdeck/dbdeck/internal/explorer"
	"github.com/dbdeck/dbdeck/internal/history"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinnerFrame() string {
	return spinnerFrames[int(time.Now().UnixMilli()/100)%len(spinnerFrames)]
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var main string
	switch m.snap.State {
	case explorer.StateConnectionList:
		main = m.renderProfiles()
	case explorer.StateQueryEditor:
		main = m.renderEditor()
	case explorer.StateColumnList:
		main = m.renderColumns()
	case explorer.StateRowBrowser, explorer.StateResultView:
		main = m.renderRows()
	default:
		main = m.renderListing()
	}

	if m.popup != popupNone {
		main = overlay.Composite(m.renderPopup(), main, overlay.Center, overlay.Center, 0, 0)
	}
	return main
}

func (m Model) renderProfiles() string {
	var b strings.Builder

	logo := `
██████╗ ██████╗ ██████╗ ███████╗ ██████╗██╗  ██╗
██╔══██╗██╔══██╗██╔══██╗██╔════╝██╔════╝██║ ██╔╝
██║  ██║██████╔╝██║  ██║█████╗  ██║     █████╔╝
██║  ██║██╔══██╗██║  ██║██╔══╝  ██║     ██╔═██╗
██████╔╝██████╔╝██████╔╝███████╗╚██████╗██║  ██╗
╚═════╝ ╚═════╝ ╚═════╝ ╚══════╝ ╚═════╝╚═╝  ╚═╝`

	b.WriteString(LogoStyle.Render(logo))
	b.WriteString("\n\n")
	b.WriteString(TitleStyle.Render(" PROFILES "))
	b.WriteString("\n\n")

	if len(m.snap.Entries) == 0 {
		b.WriteString(MetaStyle.Render("no profiles yet, press 'a' to add one"))
		b.WriteString("\n")
	}

	for _, e := range m.snap.Entries {
		nameStyle, detailStyle := ItemStyle, ItemDetailStyle
		prefix := "   "
		if e.Key == m.snap.Selected {
			nameStyle, detailStyle = SelectedStyle, SelectedDetail
			prefix = " > "
		}
		b.WriteString(prefix + nameStyle.Render(e.Label) + "\n")
		b.WriteString("   " + detailStyle.Render(e.Detail) + "\n")
	}

	b.WriteString("\n")
	if m.snap.Loading {
		b.WriteString(LoadingStyle.Render(spinnerFrame() + " connecting"))
		b.WriteString("\n")
	} else if m.snap.Error != "" {
		b.WriteString(ErrorStyle.Render(m.snap.Error))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}

func (m Model) renderListing() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	help := m.renderHelp()

	var b strings.Builder
	for _, e := range m.snap.Entries {
		style := ItemStyle
		prefix := "   "
		if e.Key == m.snap.Selected {
			style = SelectedStyle
			prefix = " > "
		}
		line := prefix + style.Render(e.Label)
		if e.Detail != "" {
			line += "  " + ItemDetailStyle.Render(e.Detail)
		}
		b.WriteString(line + "\n")
	}
	if len(m.snap.Entries) == 0 && !m.snap.Loading {
		b.WriteString(MetaStyle.Render("   nothing here") + "\n")
	}

	content := m.fillHeight(b.String(), header, statusBar, help)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar, help)
}

func (m Model) renderColumns() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	help := m.renderHelp()
	content := m.fillHeight(m.columns.View(), header, statusBar, help)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar, help)
}

func (m Model) renderRows() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	help := m.renderHelp()

	var parts []string
	if m.snap.State == explorer.StateResultView {
		if meta := m.renderResultMeta(); meta != "" {
			parts = append(parts, meta)
		}
	}
	parts = append(parts, m.results.View())

	content := m.fillHeight(strings.Join(parts, "\n"), header, statusBar, help)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar, help)
}

func (m Model) renderEditor() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	help := m.renderHelp()

	inputWidth := m.width - 4
	inputView := InputStyle.Width(inputWidth).Render(highlightEditor(m.editor.View()))

	chrome := lipgloss.Height(header) + lipgloss.Height(inputView) +
		lipgloss.Height(statusBar) + lipgloss.Height(help)
	pad := m.height - chrome
	if pad < 0 {
		pad = 0
	}
	spacer := strings.Repeat("\n", pad)

	return lipgloss.JoinVertical(lipgloss.Left, header, spacer, inputView, statusBar, help)
}

func (m Model) renderResultMeta() string {
	var parts []string
	if q := strings.TrimSpace(m.snap.QueryText); q != "" {
		parts = append(parts, HighlightSQL(limitString(firstLine(q), 100)))
	}
	elapsed := m.snap.ExecTime.Round(time.Millisecond)
	if m.snap.IsSelect {
		parts = append(parts, SuccessStyle.Render(fmt.Sprintf("%d rows in %s", m.snap.RowCount, elapsed)))
	} else {
		parts = append(parts, SuccessStyle.Render(fmt.Sprintf("%d rows affected in %s", m.snap.AffectedRows, elapsed)))
	}
	if m.snap.Truncated {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("showing first %d rows only", m.snap.RowCount)))
	}
	return strings.Join(parts, "\n")
}

func (m Model) resultFooter() string {
	if m.snap.State == explorer.StateRowBrowser {
		return fmt.Sprintf("page %d | %d rows | n/p to page", m.snap.Page+1, m.snap.RowCount)
	}
	return fmt.Sprintf("%d rows", m.snap.RowCount)
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render(" " + string(m.snap.State) + " ")
	line := title
	if crumb := strings.Join(m.snap.Breadcrumb, " > "); crumb != "" {
		line = lipgloss.JoinHorizontal(lipgloss.Top, title, " ", BreadcrumbStyle.Render(crumb))
	}
	if m.snap.Error != "" {
		line += "\n" + ErrorStyle.Render(m.snap.Error) + HelpStyle.Render("  (esc to dismiss)")
	}
	return line + "\n"
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.snap.Loading {
		parts = append(parts, LoadingStyle.Render(spinnerFrame()+" LOADING"))
	} else {
		parts = append(parts, ModeStyle.Render(string(m.snap.State)))
	}

	if m.snap.Connected {
		parts = append(parts, ConnectionStyle.Render(m.snap.ProfileName))
		if env := m.snap.Environment; env != "" {
			parts = append(parts, EnvStyle(env).Render(strings.ToUpper(env)))
		}
	}

	switch m.snap.State {
	case explorer.StateRowBrowser:
		parts = append(parts, MetaStyle.Render(fmt.Sprintf(" page %d | %d rows ", m.snap.Page+1, m.snap.RowCount)))
	case explorer.StateResultView:
		if m.snap.IsSelect {
			parts = append(parts, MetaStyle.Render(fmt.Sprintf(" %d rows ", m.snap.RowCount)))
		} else {
			parts = append(parts, MetaStyle.Render(fmt.Sprintf(" %d affected ", m.snap.AffectedRows)))
		}
	}

	return StatusBarStyle.Width(m.width).Render(strings.Join(parts, " "))
}

func (m Model) renderHelp() string {
	switch m.snap.State {
	case explorer.StateConnectionList:
		return HelpStyle.Render("Enter: Connect | a: Add | x: Delete | j/k: Navigate | r: Reload | q: Quit")
	case explorer.StateQueryEditor:
		return HelpStyle.Render("Ctrl+D: Execute | Ctrl+R: History | Esc: Back | Ctrl+C: Quit")
	case explorer.StateColumnList:
		return HelpStyle.Render("Enter: Browse rows | j/k: Scroll | e: Editor | Esc: Back | q: Quit")
	case explorer.StateRowBrowser:
		return HelpStyle.Render("n/p: Page | i: Inspect | j/k: Scroll | e: Editor | r: Refresh | Esc: Back | q: Quit")
	case explorer.StateResultView:
		return HelpStyle.Render("i: Inspect | j/k: Scroll | Esc: Editor | q: Quit")
	default:
		return HelpStyle.Render("Enter: Open | j/k: Navigate | r: Refresh | e: Editor | D: Disconnect | Esc: Back | q: Quit")
	}
}

// fillHeight pads content so the status bar stays pinned to the bottom.
func (m Model) fillHeight(content string, chrome ...string) string {
	used := lipgloss.Height(content)
	for _, c := range chrome {
		used += lipgloss.Height(c)
	}
	pad := m.height - used
	if pad > 0 {
		content += strings.Repeat("\n", pad)
	}
	return content
}

func (m Model) renderPopup() string {
	switch m.popup {
	case popupPassword:
		return m.renderPasswordPopup()
	case popupAddProfile:
		return m.renderAddProfilePopup()
	case popupConfirmDelete:
		return m.renderDeletePopup()
	case popupInspect:
		return m.renderInspectPopup()
	case popupHistory:
		return m.renderHistoryPopup()
	}
	return ""
}

func (m Model) renderPasswordPopup() string {
	var b strings.Builder
	b.WriteString(PopupTitleStyle.Render("Password required"))
	b.WriteString("\n\n")
	if m.prompt != nil {
		req := m.prompt.req
		label := req.ProfileName
		if req.User != "" && req.Host != "" {
			label = fmt.Sprintf("%s@%s", req.User, req.Host)
		}
		b.WriteString(ItemStyle.Render(label))
		b.WriteString("\n\n")
	}
	b.WriteString(m.passwordInput.View())
	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("Enter: Connect | Esc: Cancel"))
	return PopupStyle.Render(b.String())
}

func (m Model) renderAddProfilePopup() string {
	var b strings.Builder
	b.WriteString(PopupTitleStyle.Render("Add profile"))
	b.WriteString("\n\n")
	b.WriteString(ItemDetailStyle.Render("Name"))
	b.WriteString("\n")
	b.WriteString(m.nameInput.View())
	b.WriteString("\n\n")
	b.WriteString(ItemDetailStyle.Render("DSN"))
	b.WriteString("\n")
	b.WriteString(m.dsnInput.View())
	b.WriteString("\n")
	if m.addErr != "" {
		b.WriteString("\n" + ErrorStyle.Render(m.addErr) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Tab: Switch field | Enter: Save | Esc: Cancel"))
	return PopupStyle.Render(b.String())
}

func (m Model) renderDeletePopup() string {
	var b strings.Builder
	b.WriteString(PopupTitleStyle.Render("Delete profile"))
	b.WriteString("\n\n")
	b.WriteString(ItemStyle.Render(fmt.Sprintf("Delete %q and its stored secret?", m.deleteName)))
	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("y: Delete | n: Keep"))
	return PopupStyle.Render(b.String())
}

func (m Model) renderInspectPopup() string {
	idx := m.results.GetHighlightedRowIndex()
	if idx < 0 || idx >= len(m.snap.Rows) {
		return PopupStyle.Render(MetaStyle.Render("no row selected"))
	}
	row := m.snap.Rows[idx]

	nameW := 0
	for _, c := range m.snap.Columns {
		if len(c.Name) > nameW {
			nameW = len(c.Name)
		}
	}

	var b strings.Builder
	b.WriteString(PopupTitleStyle.Render(fmt.Sprintf("Row %d", idx+1)))
	b.WriteString("\n\n")
	for i, c := range m.snap.Columns {
		if i >= len(row) {
			break
		}
		v := row[i]
		b.WriteString(ItemDetailStyle.Render(fmt.Sprintf("%-*s", nameW, c.Name)))
		b.WriteString("  ")
		b.WriteString(ValueStyle(v).Render(limitString(v.Display(), 120)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Esc: Close"))
	return PopupStyle.Render(b.String())
}

func (m Model) renderHistoryPopup() string {
	var b strings.Builder
	b.WriteString(PopupTitleStyle.Render("Query history"))
	b.WriteString("\n\n")

	switch {
	case m.historyErr != "":
		b.WriteString(ErrorStyle.Render(m.historyErr) + "\n")
	case len(m.historyEntries) == 0:
		b.WriteString(MetaStyle.Render("no queries recorded yet") + "\n")
	}

	const window = 12
	start := 0
	if m.historySel >= window {
		start = m.historySel - window + 1
	}
	end := start + window
	if end > len(m.historyEntries) {
		end = len(m.historyEntries)
	}

	for i := start; i < end; i++ {
		entry := m.historyEntries[i]
		prefix := "  "
		if i == m.historySel {
			prefix = SelectedStyle.Render("> ")
		}
		status := SuccessStyle.Render("ok ")
		if entry.Status == history.StatusError {
			status = ErrorStyle.Render("err")
		}
		b.WriteString(fmt.Sprintf("%s%s %s  %s\n",
			prefix,
			status,
			MetaStyle.Render(entry.ExecutedAt.Format("01-02 15:04")),
			HighlightSQL(entry.QueryPreview(48))))
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Enter: Load | j/k: Navigate | Esc: Close"))
	return PopupStyle.Render(b.String())
}

func limitString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	// replace middle with ...
	half := (maxLen - 3) / 2
	return s[:half] + "..." + s[len(s)-half:]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
