package merge

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

// loadChats fetches both chat lists and answers with ChatsLoaded
func loadChats(ctx context.Context, steps *wizard.Steps, stage wizard.Loading) tea.Cmd {
	return func() tea.Msg {
		event, err := steps.LoadChats(ctx, stage)
		return stepMsg{event: event, err: err}
	}
}

// confirmChats fetches users and starts the analyses, answering with ChatsConfirmed
func confirmChats(ctx context.Context, steps *wizard.Steps, stage wizard.SelectChats) tea.Cmd {
	return func() tea.Msg {
		event, err := steps.ConfirmChats(ctx, stage)
		return stepMsg{event: event, err: err}
	}
}

// nextAnalysis awaits the front pending analysis
func nextAnalysis(ctx context.Context, steps *wizard.Steps, session wizard.Session) tea.Cmd {
	return func() tea.Msg {
		event, err := steps.Next(ctx, session)
		return stepMsg{event: event, err: err}
	}
}

// executeMerge sends the request to the backend
func executeMerge(ctx context.Context, exec Executor, req *merge.Request) tea.Cmd {
	return func() tea.Msg {
		resp, err := exec.ExecuteMerge(ctx, req)
		return executedMsg{resp: resp, err: err}
	}
}
