package wizard

import (
	"context"
	"fmt"

	"github.com/tildaslashalef/chatmerge/internal/analysis"
	"github.com/tildaslashalef/chatmerge/internal/config"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
)

// Backend is what a merge session needs from the archive backend
type Backend interface {
	analysis.Analyzer
	diff.SliceFetcher

	ListChats(ctx context.Context, ds dataset.Ref) ([]dataset.ChatRow, error)
	ListUsers(ctx context.Context, ds dataset.Ref) ([]dataset.UserRow, error)
}

// Steps performs the backend work between stages. Each step returns the event to
// feed into Reduce; none of them changes a stage.
type Steps struct {
	backend Backend
	cfg     config.MergeConfig
	logger  *loggy.Logger
}

// NewSteps creates the effectful half of the wizard
func NewSteps(backend Backend, cfg config.MergeConfig, logger *loggy.Logger) *Steps {
	return &Steps{backend: backend, cfg: cfg, logger: logger}
}

func (s *Steps) limits() diff.SliceLimits {
	limits := diff.DefaultSliceLimits()
	if s.cfg.CombinedLimit > 0 {
		limits.Combined = s.cfg.CombinedLimit
	}
	if s.cfg.AbbreviatedLimit > 0 {
		limits.Abbreviated = s.cfg.AbbreviatedLimit
	}
	return limits
}

// LoadChats fetches both chat lists and builds the chat model
func (s *Steps) LoadChats(ctx context.Context, stage Loading) (Event, error) {
	master, err := s.backend.ListChats(ctx, stage.Master)
	if err != nil {
		return nil, fmt.Errorf("failed to list master chats: %w", err)
	}
	slave, err := s.backend.ListChats(ctx, stage.Slave)
	if err != nil {
		return nil, fmt.Errorf("failed to list slave chats: %w", err)
	}

	chats := diff.BuildChats(master, slave)
	s.logger.Info("Chats loaded",
		"master", len(master), "slave", len(slave),
		"changed", chats.Count(diff.Change), "added", chats.Count(diff.Add))

	return ChatsLoaded{Chats: chats}, nil
}

// ConfirmChats computes the active users, builds the user model and starts analyzing
// every selected changed chat. It returns without waiting for any analysis; ctx
// bounds the whole analysis batch, not just this call.
func (s *Steps) ConfirmChats(ctx context.Context, stage SelectChats) (Event, error) {
	active := ActiveUserIDs(stage.Chats, stage.ChatsSelection)

	master, err := s.backend.ListUsers(ctx, stage.Master)
	if err != nil {
		return nil, fmt.Errorf("failed to list master users: %w", err)
	}
	slave, err := s.backend.ListUsers(ctx, stage.Slave)
	if err != nil {
		return nil, fmt.Errorf("failed to list slave users: %w", err)
	}

	users := diff.BuildUsers(master, slave, nil, active)
	pairs := ChangedPairs(stage.Chats, stage.ChatsSelection)

	s.logger.Info("Chats confirmed", "selected", stage.ChatsSelection.Len(),
		"active_users", len(active), "analyses", len(pairs))

	pending := analysis.Start(ctx, s.backend, pairs, analysis.Options{
		MaxSections: s.cfg.MaxSections,
		Logger:      s.logger,
	})

	return ChatsConfirmed{ActiveUserIDs: active, Users: users, Pending: pending}, nil
}

// Next awaits the front pending analysis. A soft failure yields AnalysisSkipped, a
// hard one is returned as the error. An analysis with sections to decide comes
// back with its message model; one without has a nil model. An empty queue yields
// QueueDrained.
func (s *Steps) Next(ctx context.Context, session Session) (Event, error) {
	if len(session.Pending) == 0 {
		return QueueDrained{}, nil
	}

	future := session.Pending[0]
	pair := future.Pair()

	result, err := future.Await(ctx)
	if err != nil {
		if analysis.IsSoft(err) {
			s.logger.Warn("Skipping chat", "chat_id", pair.ChatID(), "reason", err)
			return AnalysisSkipped{ChatID: pair.ChatID(), Err: err}, nil
		}
		return nil, fmt.Errorf("failed to analyze chat %d: %w", pair.ChatID(), err)
	}

	if !result.HasToggleable() {
		s.logger.Debug("Chat needs no decisions", "chat_id", pair.ChatID(), "sections", len(result.Sections))
		return AnalysisReady{Analysis: result}, nil
	}

	messages, err := diff.BuildMessages(ctx, s.backend, result, pair.Master, pair.Slave, s.limits())
	if err != nil {
		return nil, fmt.Errorf("failed to build messages of chat %d: %w", pair.ChatID(), err)
	}

	return AnalysisReady{Analysis: result, Messages: messages}, nil
}
