package wizard

import (
	"context"
	"fmt"
	"sync"

	"github.com/tildaslashalef/chatmerge/internal/config"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
)

// Wizard runs a merge session synchronously: every confirm performs the backend
// work it needs and, past user selection, drains analyses until the user has to
// decide something or the session reaches Merging.
type Wizard struct {
	mu     sync.Mutex
	steps  *Steps
	stage  Stage
	ctx    context.Context
	cancel context.CancelFunc
	logger *loggy.Logger
	id     ulid.ULID
}

// New creates a wizard for merging slave into master. Close releases it.
func New(ctx context.Context, backend Backend, cfg config.MergeConfig, master, slave dataset.Ref, logger *loggy.Logger) *Wizard {
	id := ulid.NewSessionID()
	if logger == nil {
		logger = loggy.FromContext(ctx)
	}
	logger = logger.With("session_id", id.String())

	ctx, cancel := context.WithCancel(loggy.WithLogger(ctx, logger))
	return &Wizard{
		steps:  NewSteps(backend, cfg, logger),
		stage:  Loading{Master: master, Slave: slave},
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		id:     id,
	}
}

// ID returns the session id
func (w *Wizard) ID() ulid.ULID {
	return w.id
}

// Stage returns the current stage
func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Close abandons the session. The in-flight backend call is cancelled and pending
// analyses are rejected.
func (w *Wizard) Close() {
	w.cancel()
}

func (w *Wizard) apply(event Event) error {
	next, err := Reduce(w.stage, event)
	if err != nil {
		return err
	}
	if next.Name() != w.stage.Name() {
		w.logger.Debug("Stage changed", "from", w.stage.Name(), "to", next.Name())
	}
	w.stage = next
	return nil
}

func (w *Wizard) dispatch(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ctx.Err(); err != nil {
		return ErrClosed
	}
	return w.apply(event)
}

// Start loads both chat lists
func (w *Wizard) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	loading, ok := w.stage.(Loading)
	if !ok {
		return fmt.Errorf("%w: start in %s", ErrUnexpectedEvent, w.stage.Name())
	}
	event, err := w.steps.LoadChats(w.ctx, loading)
	if err != nil {
		return err
	}
	return w.apply(event)
}

// ToggleChat flips chat entry i
func (w *Wizard) ToggleChat(i int) error { return w.dispatch(ChatToggled{Index: i}) }

// ToggleAllChats selects or clears every toggleable chat
func (w *Wizard) ToggleAllChats() error { return w.dispatch(AllChatsToggled{}) }

// SetChatsSelection replaces the chat selection
func (w *Wizard) SetChatsSelection(sel diff.Selection) error {
	return w.dispatch(ChatsSelected{Selection: sel})
}

// ConfirmChats fetches users and starts the analyses
func (w *Wizard) ConfirmChats() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	stage, ok := w.stage.(SelectChats)
	if !ok {
		return fmt.Errorf("%w: confirm chats in %s", ErrUnexpectedEvent, w.stage.Name())
	}
	event, err := w.steps.ConfirmChats(w.ctx, stage)
	if err != nil {
		return err
	}
	return w.apply(event)
}

// ToggleUser flips user entry i
func (w *Wizard) ToggleUser(i int) error { return w.dispatch(UserToggled{Index: i}) }

// ToggleAllUsers selects or clears every toggleable user
func (w *Wizard) ToggleAllUsers() error { return w.dispatch(AllUsersToggled{}) }

// SetUsersSelection replaces the user selection
func (w *Wizard) SetUsersSelection(sel diff.Selection) error {
	return w.dispatch(UsersSelected{Selection: sel})
}

// ConfirmUsers ends user selection and drains analyses
func (w *Wizard) ConfirmUsers() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.apply(UsersConfirmed{}); err != nil {
		return err
	}
	return w.drain()
}

// ToggleMessage flips section i of the chat under review
func (w *Wizard) ToggleMessage(i int) error { return w.dispatch(MessageToggled{Index: i}) }

// ToggleAllMessages selects or clears every toggleable section
func (w *Wizard) ToggleAllMessages() error { return w.dispatch(AllMessagesToggled{}) }

// SetMessagesSelection replaces the section selection
func (w *Wizard) SetMessagesSelection(sel diff.Selection) error {
	return w.dispatch(MessagesSelected{Selection: sel})
}

// ConfirmMessages records the current chat's resolution and resumes draining
func (w *Wizard) ConfirmMessages() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.apply(MessagesConfirmed{}); err != nil {
		return err
	}
	return w.drain()
}

// drain consumes analyses until the user has to choose or none are left
func (w *Wizard) drain() error {
	for {
		analyzing, ok := w.stage.(Analyzing)
		if !ok {
			return nil
		}
		event, err := w.steps.Next(w.ctx, analyzing.Session)
		if err != nil {
			return err
		}
		if err := w.apply(event); err != nil {
			return err
		}
	}
}

// Warnings returns the warnings collected so far
func (w *Wizard) Warnings() []Warning {
	session, _ := SessionOf(w.Stage())
	return session.Warnings
}

// Request synthesizes the merge request. Only valid once the wizard reached Merging.
func (w *Wizard) Request() (*merge.Request, error) {
	stage := w.Stage()
	merging, ok := stage.(Merging)
	if !ok {
		return nil, fmt.Errorf("%w: request in %s", ErrUnexpectedEvent, stage.Name())
	}

	req, err := merge.Synthesize(merging.MergeInput())
	if err != nil {
		return nil, err
	}
	req.ID = ulid.RequestID()
	return req, nil
}
