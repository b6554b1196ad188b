package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
)

// Service records and lists merge sessions
type Service struct {
	repo   Repository
	logger *loggy.Logger
}

// NewService creates a history service
func NewService(repo Repository, logger *loggy.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record stores a session. Sessions without an id are rejected.
func (s *Service) Record(ctx context.Context, session *Session) error {
	if session.ID.IsZero() {
		return fmt.Errorf("recording merge session: empty id")
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		s.logger.Error("Failed to record merge session", "session_id", session.ID.String(), "error", err)
		return err
	}

	s.logger.Info("Merge session recorded",
		"session_id", session.ID.String(),
		"status", session.Status,
		"chats_merged", session.ChatsMerged,
		"chats_added", session.ChatsAdded,
		"chats_skipped", session.ChatsSkipped,
	)
	return nil
}

// List returns sessions newest first
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*Session, error) {
	return s.repo.ListSessions(ctx, opts)
}

// Get returns one session
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Session, error) {
	return s.repo.GetSession(ctx, id)
}

// Delete removes one session
func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	return s.repo.DeleteSession(ctx, id)
}

// Request decodes the merge request stored with a session
func (s *Service) Request(ctx context.Context, id ulid.ULID) (*merge.Request, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(session.Request) == 0 {
		return nil, fmt.Errorf("merge session %s has no request", id)
	}

	var req merge.Request
	if err := json.Unmarshal(session.Request, &req); err != nil {
		return nil, fmt.Errorf("decoding stored merge request: %w", err)
	}
	return &req, nil
}
