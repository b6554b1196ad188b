// Package merge turns the final state of a merge session into the request the
// backend executes: one decision per user, per chat and per message section.
package merge

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
)

// ErrInvariant is returned when the session state cannot describe a consistent merge.
// It indicates a programming error, never a user mistake.
var ErrInvariant = errors.New("merge invariant violated")

// UserDecision is what happens to one user
type UserDecision string

const (
	// UserMatchOrDontReplace keeps the master user as is
	UserMatchOrDontReplace UserDecision = "match_or_dont_replace"
	// UserReplace overwrites the master user with the slave's details
	UserReplace UserDecision = "replace"
	// UserAdd adds a slave-only user
	UserAdd UserDecision = "add"
	// UserDontAdd leaves a slave-only user out
	UserDontAdd UserDecision = "dont_add"
	// UserRetain keeps a master-only user
	UserRetain UserDecision = "retain"
)

// ChatDecision is what happens to one chat
type ChatDecision string

const (
	// ChatDontMerge keeps the master chat and ignores the slave copy
	ChatDontMerge ChatDecision = "dont_merge"
	// ChatMerge merges the slave chat into the master chat section by section
	ChatMerge ChatDecision = "merge"
	// ChatAdd adds a slave-only chat
	ChatAdd ChatDecision = "add"
	// ChatDontAdd leaves a slave-only chat out
	ChatDontAdd ChatDecision = "dont_add"
	// ChatRetain keeps a master-only chat
	ChatRetain ChatDecision = "retain"
)

// MessageDecision is what happens to one analysis section of a merged chat
type MessageDecision string

const (
	// MessageMatch is a section equal on both sides
	MessageMatch MessageDecision = "match"
	// MessageRetain keeps master-only messages
	MessageRetain MessageDecision = "retain"
	// MessageAdd adds slave-only messages
	MessageAdd MessageDecision = "add"
	// MessageDontAdd leaves slave-only messages out
	MessageDontAdd MessageDecision = "dont_add"
	// MessageReplace replaces conflicting master messages with the slave's
	MessageReplace MessageDecision = "replace"
	// MessageDontReplace keeps the master side of a conflict
	MessageDontReplace MessageDecision = "dont_replace"
)

// UserEntry is the decision for one user id
type UserEntry struct {
	UserID   int64        `json:"user_id" yaml:"user_id"`
	Decision UserDecision `json:"decision" yaml:"decision"`
}

// MessageEntry is the decision for one analysis section
type MessageEntry struct {
	Decision MessageDecision `json:"decision" yaml:"decision"`
	Range    dataset.Range   `json:"range" yaml:"range"`
}

// ChatEntry is the decision for one chat id. Messages is only set for ChatMerge.
type ChatEntry struct {
	ChatID   int64          `json:"chat_id" yaml:"chat_id"`
	Decision ChatDecision   `json:"decision" yaml:"decision"`
	Messages []MessageEntry `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// Request is the complete merge handed to the backend
type Request struct {
	ID     string      `json:"id,omitempty" yaml:"id,omitempty"`
	Master dataset.Ref `json:"master" yaml:"master"`
	Slave  dataset.Ref `json:"slave" yaml:"slave"`
	Users  []UserEntry `json:"users" yaml:"users"`
	Chats  []ChatEntry `json:"chats" yaml:"chats"`
}

// Chat returns the decision for chatID
func (r *Request) Chat(chatID int64) (ChatEntry, bool) {
	for _, c := range r.Chats {
		if c.ChatID == chatID {
			return c, true
		}
	}
	return ChatEntry{}, false
}

// User returns the decision for userID
func (r *Request) User(userID int64) (UserEntry, bool) {
	for _, u := range r.Users {
		if u.UserID == userID {
			return u, true
		}
	}
	return UserEntry{}, false
}

// ToYAML encodes the request as a YAML document
func (r *Request) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merge request: %w", err)
	}
	return data, nil
}

// WriteYAMLFile writes the request to path
func (r *Request) WriteYAMLFile(path string) error {
	data, err := r.ToYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write merge request to %s: %w", path, err)
	}
	return nil
}

// ReadYAMLFile loads a request previously written with WriteYAMLFile
func ReadYAMLFile(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read merge request from %s: %w", path, err)
	}

	var r Request
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode merge request: %w", err)
	}
	return &r, nil
}
