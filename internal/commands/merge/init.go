package merge

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

// Init starts the spinner and loads both chat lists
func (m Model) Init() tea.Cmd {
	loading, _ := m.stage.(wizard.Loading)
	return tea.Batch(
		m.spinner.Tick,
		loadChats(m.ctx, m.steps, loading),
	)
}
