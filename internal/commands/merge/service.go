package merge

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tildaslashalef/chatmerge/internal/app"
)

// Service is the main service for the TUI
type Service struct {
	app *app.App
}

// NewService creates a new TUI service
func NewService(application *app.App) *Service {
	return &Service{
		app: application,
	}
}

// Deps returns the collaborators the TUI uses, taken from the application
func (s *Service) Deps() Deps {
	return Deps{
		Backend:  s.app.Backend,
		Executor: s.app.Backend,
		Merge:    s.app.Config.Merge,
		Logger:   s.app.Logger,
		Record:   s.app.RecordSession,
	}
}

// Run starts the TUI for one merge session and returns the final model
func (s *Service) Run(ctx context.Context, options Options) (Model, error) {
	if options.Master == "" || options.Slave == "" {
		return Model{}, fmt.Errorf("both master and slave datasets are required")
	}
	if options.Master == options.Slave {
		return Model{}, fmt.Errorf("cannot merge dataset %s into itself", options.Master)
	}

	model := NewModel(ctx, s.Deps(), options)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil {
		return Model{}, fmt.Errorf("error running TUI: %w", err)
	}

	result, ok := final.(Model)
	if !ok {
		return Model{}, fmt.Errorf("unexpected TUI model %T", final)
	}
	result.cancel()
	return result, result.Err()
}
