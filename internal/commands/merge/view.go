package merge

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

var stageTitles = map[string]string{
	"loading":         "Loading chats",
	"select_chats":    "Select chats",
	"select_users":    "Select users",
	"analyzing":       "Analyzing",
	"select_messages": "Resolve messages",
	"merging":         "Merge",
}

// View renders the UI based on the model's current state.
func (m Model) View() string {
	if !m.ready {
		// Don't render until dimensions are known
		return "Initializing...\n"
	}

	var footer string
	if m.showHelp {
		footer = m.help.View(Keys)
	} else {
		footer = m.help.ShortHelpView(Keys.ShortHelp())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.viewport.View(),
		m.statusBar(),
		footer,
	)
}

func (m Model) header() string {
	title := stageTitles[m.stage.Name()] + "  " +
		m.styles.Subtle.Render(fmt.Sprintf("%s ← %s", m.opts.Master, m.opts.Slave))
	return m.styles.Header.Render(title)
}

func (m Model) statusBar() string {
	var line string
	switch {
	case m.status == StatusError && m.err != nil:
		line = m.styles.Error.Render(wordwrap.String("Error: "+m.err.Error(), max(m.width-2, 20)))
	case m.status.busy():
		line = m.spinner.View() + " " + m.statusMessage
	case m.status == StatusDone:
		line = m.styles.Success.Render(m.statusMessage)
	default:
		line = m.statusMessage
	}
	return m.styles.StatusBar.Render(line)
}

// body renders the viewport content and the line the cursor entry starts on
func (m Model) body() (string, int) {
	width := m.viewport.Width - 2

	switch m.status {
	case StatusDone:
		return m.renderPlan(), 0
	case StatusError:
		return m.styles.Paragraph.Render("The merge session stopped. Nothing was merged."), 0
	}

	var lv listView
	switch s := m.stage.(type) {
	case wizard.SelectChats:
		lv = renderChats(s.Chats, s.ChatsSelection, m.cursor, width, m.styles)
	case wizard.SelectUsers:
		lv = renderUsers(s.Users, s.UsersSelection, m.cursor, width, m.styles)
	case wizard.SelectMessages:
		lv = renderMessages(s.Messages, s.MessagesSelection, m.cursor, m.names, width, m.styles)
		lv.content = m.styles.Title.Render(fmt.Sprintf("Chat %d", s.Pair.ChatID())) + "\n\n" + lv.content
		lv.cursorLine += 2
	default:
		return "", 0
	}

	if lv.content == "" {
		return m.styles.Subtle.Render("Nothing to choose here. Press enter to continue."), 0
	}
	return lv.content, lv.cursorLine
}

func (m Model) renderPlan() string {
	if m.request == nil {
		return ""
	}

	var warnings []wizard.Warning
	if session, ok := wizard.SessionOf(m.stage); ok {
		warnings = session.Warnings
	}

	note := "Dry run: the request was not sent to the backend."
	if m.response != nil {
		note = strings.TrimSpace(m.response.Message)
		if note == "" {
			note = "The backend accepted the merge."
		}
	}

	md := planMarkdown(m.request, warnings, note, max(m.viewport.Width-4, 40))
	if m.renderer == nil {
		return md
	}
	rendered, err := m.renderer.Render(md)
	if err != nil {
		m.logger.Warn("Failed to render plan markdown", "error", err)
		return md
	}
	return rendered
}
