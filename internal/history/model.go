// Package history records finished and aborted merge sessions
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
)

// Status is the outcome of a merge session
type Status string

const (
	// StatusCompleted means the backend executed the merge
	StatusCompleted Status = "completed"
	// StatusPlanned means the request was built but not executed (dry run or plan export)
	StatusPlanned Status = "planned"
	// StatusFailed means analysis or execution returned an error
	StatusFailed Status = "failed"
	// StatusAborted means the user quit before the wizard finished
	StatusAborted Status = "aborted"
)

// Session is one row of merge history
type Session struct {
	ID            ulid.ULID       `json:"id"`
	Label         string          `json:"label"`
	MasterDataset dataset.Ref     `json:"master_dataset"`
	SlaveDataset  dataset.Ref     `json:"slave_dataset"`
	Status        Status          `json:"status"`
	ChatsMerged   int             `json:"chats_merged"`
	ChatsAdded    int             `json:"chats_added"`
	UsersReplaced int             `json:"users_replaced"`
	UsersAdded    int             `json:"users_added"`
	ChatsSkipped  int             `json:"chats_skipped"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	Request       json.RawMessage `json:"request,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// NewSession starts a history entry for a wizard session
func NewSession(id ulid.ULID, label string, master, slave dataset.Ref) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		Label:         label,
		MasterDataset: master,
		SlaveDataset:  slave,
		Status:        StatusAborted, // until marked otherwise
		StartedAt:     now,
		CompletedAt:   now,
	}
}

// MarkFinished records the request and its decision counts.
// executed distinguishes a merge sent to the backend from a dry run.
func (s *Session) MarkFinished(req *merge.Request, skipped int, executed bool) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding merge request: %w", err)
	}

	sum := merge.Summarize(req)
	s.Request = data
	s.ChatsMerged = sum.Chats[merge.ChatMerge]
	s.ChatsAdded = sum.Chats[merge.ChatAdd]
	s.UsersReplaced = sum.Users[merge.UserReplace]
	s.UsersAdded = sum.Users[merge.UserAdd]
	s.ChatsSkipped = skipped
	s.Status = StatusPlanned
	if executed {
		s.Status = StatusCompleted
	}
	s.CompletedAt = time.Now()
	return nil
}

// MarkFailed records the error that ended the session
func (s *Session) MarkFailed(err error) {
	s.Status = StatusFailed
	if err != nil {
		s.ErrorMessage = err.Error()
	}
	s.CompletedAt = time.Now()
}

// MarkAborted records that the user left the wizard
func (s *Session) MarkAborted() {
	s.Status = StatusAborted
	s.CompletedAt = time.Now()
}

// Duration is the wall time of the session
func (s *Session) Duration() time.Duration {
	return s.CompletedAt.Sub(s.StartedAt)
}

// ListOptions filters List results
type ListOptions struct {
	MasterDataset dataset.Ref
	SlaveDataset  dataset.Ref
	Status        Status
	Limit         int
	Offset        int
}
