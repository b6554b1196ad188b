package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tildaslashalef/chatmerge/internal/diff"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

// chrome is the number of lines taken by the header, status bar and help
const chrome = 6

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chrome, 1)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stepMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		next, err := wizard.Reduce(m.stage, msg.event)
		if err != nil {
			return m.fail(err), nil
		}
		return m.enter(next)

	case executedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("merge failed: %w", msg.err)), nil
		}
		m.response = msg.resp
		m.status = StatusDone
		m.statusMessage = "Merge complete."
		m.logger.Info("Merge executed", "request_id", m.request.ID)
		m.finishSession(true)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.status.busy() {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Mouse and other messages go to the viewport
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, Keys.Quit):
		if m.status != StatusDone && m.status != StatusError {
			m.logger.Info("Merge session aborted", "stage", m.stage.Name())
			m.session.MarkAborted()
			m.record()
		}
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.status != StatusSelecting {
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, Keys.Down):
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, Keys.Toggle):
		return m.applySelection(toggleEvent(m.stage, m.cursor))

	case key.Matches(msg, Keys.ToggleAll):
		return m.applySelection(toggleAllEvent(m.stage))

	case key.Matches(msg, Keys.Confirm):
		return m.confirm()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func toggleEvent(stage wizard.Stage, i int) wizard.Event {
	switch stage.(type) {
	case wizard.SelectChats:
		return wizard.ChatToggled{Index: i}
	case wizard.SelectUsers:
		return wizard.UserToggled{Index: i}
	case wizard.SelectMessages:
		return wizard.MessageToggled{Index: i}
	default:
		return nil
	}
}

func toggleAllEvent(stage wizard.Stage) wizard.Event {
	switch stage.(type) {
	case wizard.SelectChats:
		return wizard.AllChatsToggled{}
	case wizard.SelectUsers:
		return wizard.AllUsersToggled{}
	case wizard.SelectMessages:
		return wizard.AllMessagesToggled{}
	default:
		return nil
	}
}

// applySelection applies a selection event; entries without a decision are reported, not fatal
func (m Model) applySelection(event wizard.Event) (tea.Model, tea.Cmd) {
	if event == nil {
		return m, nil
	}
	next, err := wizard.Reduce(m.stage, event)
	if err != nil {
		if errors.Is(err, diff.ErrNotToggleable) {
			m.statusMessage = "This entry needs no decision."
			return m, nil
		}
		return m.fail(err), nil
	}
	m.stage = next
	m.statusMessage = m.selectionStatus()
	m.refresh()
	return m, nil
}

func (m Model) confirm() (tea.Model, tea.Cmd) {
	switch s := m.stage.(type) {
	case wizard.SelectChats:
		m.status = StatusWorking
		m.statusMessage = "Loading users and starting analyses..."
		return m, tea.Batch(m.spinner.Tick, confirmChats(m.ctx, m.steps, s))

	case wizard.SelectUsers:
		next, err := wizard.Reduce(s, wizard.UsersConfirmed{})
		if err != nil {
			return m.fail(err), nil
		}
		return m.enter(next)

	case wizard.SelectMessages:
		next, err := wizard.Reduce(s, wizard.MessagesConfirmed{})
		if err != nil {
			return m.fail(err), nil
		}
		return m.enter(next)
	}
	return m, nil
}

// enter moves to next and starts whatever work it needs
func (m Model) enter(next wizard.Stage) (tea.Model, tea.Cmd) {
	if m.stage == nil || next.Name() != m.stage.Name() {
		m.logger.Debug("Stage changed", "to", next.Name())
	}
	m.stage = next
	m.cursor = 0

	switch s := next.(type) {
	case wizard.SelectChats, wizard.SelectUsers:
		m.status = StatusSelecting
		m.statusMessage = m.selectionStatus()

	case wizard.SelectMessages:
		m.status = StatusSelecting
		if m.names == nil {
			m.names = userNames(s.Users)
		}
		m.statusMessage = m.selectionStatus()

	case wizard.Analyzing:
		m.status = StatusWorking
		m.statusMessage = fmt.Sprintf("Analyzing chats, %d left...", len(s.Pending))
		m.refresh()
		return m, tea.Batch(m.spinner.Tick, nextAnalysis(m.ctx, m.steps, s.Session))

	case wizard.Merging:
		return m.synthesize(s)
	}

	m.refresh()
	return m, nil
}

// synthesize builds the request and, unless this is a dry run, executes it
func (m Model) synthesize(s wizard.Merging) (tea.Model, tea.Cmd) {
	req, err := merge.Synthesize(s.MergeInput())
	if err != nil {
		return m.fail(err), nil
	}
	req.ID = ulid.RequestID()
	m.request = req

	if m.execute {
		m.status = StatusExecuting
		m.statusMessage = "Merging..."
		m.refresh()
		return m, tea.Batch(m.spinner.Tick, executeMerge(m.ctx, m.deps.Executor, req))
	}

	m.status = StatusDone
	m.statusMessage = "Merge plan ready (not executed)."
	m.finishSession(false)
	m.refresh()
	return m, nil
}

func (m Model) fail(err error) Model {
	m.logger.Error("Merge session failed", "stage", m.stage.Name(), "error", err)
	m.status = StatusError
	m.err = err
	m.statusMessage = "An error occurred. Press 'q' to quit."
	m.session.MarkFailed(err)
	m.record()
	m.refresh()
	return m
}

func (m *Model) finishSession(executed bool) {
	skipped := 0
	if session, ok := wizard.SessionOf(m.stage); ok {
		skipped = len(session.Warnings)
	}
	if err := m.session.MarkFinished(m.request, skipped, executed); err != nil {
		m.logger.Warn("Failed to encode merge request for history", "error", err)
	}
	m.record()
}

func (m *Model) record() {
	if m.recorded || m.deps.Record == nil {
		return
	}
	m.recorded = true
	// the session context may already be cancelled
	m.deps.Record(context.WithoutCancel(m.ctx), m.session)
}

func (m Model) selectionStatus() string {
	switch s := m.stage.(type) {
	case wizard.SelectChats:
		return fmt.Sprintf("%d of %d chats selected", s.ChatsSelection.Len(), diff.Toggleable(s.Chats).Len())
	case wizard.SelectUsers:
		return fmt.Sprintf("%d of %d users selected", s.UsersSelection.Len(), diff.Toggleable(s.Users).Len())
	case wizard.SelectMessages:
		return fmt.Sprintf("Chat %d: %d of %d sections selected", s.Pair.ChatID(),
			s.MessagesSelection.Len(), diff.Toggleable(s.Messages).Len())
	default:
		return ""
	}
}

// refresh re-renders the viewport and keeps the cursor entry visible
func (m *Model) refresh() {
	if !m.ready {
		return
	}

	content, cursorLine := m.body()
	m.viewport.SetContent(content)

	if m.status != StatusSelecting {
		return
	}
	if cursorLine < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorLine)
	} else if cursorLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorLine - m.viewport.Height + 1)
	}
}
