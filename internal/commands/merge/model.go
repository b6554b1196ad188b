// Package merge is the interactive merge wizard: a bubbletea program that walks the
// user through chat, user and message selection and finally runs the merge.
package merge

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/tildaslashalef/chatmerge/internal/backend"
	"github.com/tildaslashalef/chatmerge/internal/history"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
	"github.com/tildaslashalef/chatmerge/internal/utils"
	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

// Model represents the TUI model state.
// Stage transitions only happen through wizard.Reduce inside Update; backend work
// runs in commands that answer with stepMsg.
type Model struct {
	deps    Deps
	opts    Options
	execute bool
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *loggy.Logger

	steps  *wizard.Steps
	stage  wizard.Stage
	status Status
	cursor int
	names  map[int64]string

	session  *history.Session
	request  *merge.Request
	response *backend.MergeResponse
	recorded bool

	statusMessage string
	err           error
	width         int
	height        int

	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	showHelp bool
	renderer *glamour.TermRenderer
	styles   Styles

	// Viewport readiness flag
	ready bool
}

// NewModel creates a TUI model for merging opts.Slave into opts.Master
func NewModel(parent context.Context, deps Deps, opts Options) Model {
	id := ulid.NewSessionID()
	ctx := loggy.WithSessionID(loggy.WithLogger(parent, deps.Logger), id.String())
	ctx, cancel := context.WithCancel(ctx)
	logger := loggy.FromContext(ctx)

	styles := DefaultStyles()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	h := help.New()
	h.ShowAll = false

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	vp := viewport.New(10, 10)
	vp.Style = styles.Paragraph

	return Model{
		deps:          deps,
		opts:          opts,
		execute:       deps.Merge.ExecuteOnConfirm && !opts.DryRun && deps.Executor != nil,
		ctx:           ctx,
		cancel:        cancel,
		logger:        logger,
		steps:         wizard.NewSteps(deps.Backend, deps.Merge, logger),
		stage:         wizard.Loading{Master: opts.Master, Slave: opts.Slave},
		status:        StatusLoading,
		session:       history.NewSession(id, utils.GenerateSessionLabel(), opts.Master, opts.Slave),
		statusMessage: "Loading chats...",
		spinner:       s,
		help:          h,
		renderer:      r,
		styles:        styles,
		viewport:      vp,
	}
}

// Stage returns the current wizard stage
func (m Model) Stage() wizard.Stage {
	return m.stage
}

// Request returns the synthesized request once the wizard reached Merging
func (m Model) Request() *merge.Request {
	return m.request
}

// Err returns the error that ended the session, if any
func (m Model) Err() error {
	return m.err
}

// Session returns the history entry of this session
func (m Model) Session() *history.Session {
	return m.session
}

// listLen is the number of entries the cursor moves over
func (m Model) listLen() int {
	switch s := m.stage.(type) {
	case wizard.SelectChats:
		return len(s.Chats)
	case wizard.SelectUsers:
		return len(s.Users)
	case wizard.SelectMessages:
		return len(s.Messages)
	default:
		return 0
	}
}
