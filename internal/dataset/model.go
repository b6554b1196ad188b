// Package dataset holds the records exchanged with the archive backend: chats, users and
// messages as they exist in one dataset, plus the per-chat analysis the backend produces
// when comparing two datasets.
package dataset

import (
	"sort"
	"time"
)

// Ref identifies one dataset (archive) on the backend
type Ref string

// ChatType is the kind of conversation
type ChatType string

const (
	// ChatTypePersonal is a one-to-one conversation
	ChatTypePersonal ChatType = "personal"
	// ChatTypePrivateGroup is an invite-only group
	ChatTypePrivateGroup ChatType = "private_group"
	// ChatTypePublicGroup is a public group or supergroup
	ChatTypePublicGroup ChatType = "public_group"
	// ChatTypeChannel is a broadcast channel
	ChatTypeChannel ChatType = "channel"
)

// User is a person known to a dataset
type User struct {
	ID        int64  `json:"id" yaml:"id"`
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Username  string `json:"username,omitempty" yaml:"username,omitempty"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// PrettyName returns the best human-readable name for the user
func (u User) PrettyName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "#" + formatInt(u.ID)
	}
}

// Chat is a conversation in a dataset
type Chat struct {
	ID           int64    `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Type         ChatType `json:"type" yaml:"type"`
	MessageCount int      `json:"message_count" yaml:"message_count"`
	MemberIDs    []int64  `json:"member_ids" yaml:"member_ids"`
}

// Message is a single message of a chat. ID is the dataset-internal id that
// analysis ranges refer to; SourceID is the id the messenger assigned.
type Message struct {
	ID       MessageID `json:"id"`
	SourceID int64     `json:"source_id"`
	FromID   int64     `json:"from_id"`
	Time     time.Time `json:"time"`
	Text     string    `json:"text"`
}

// ChatRow is a chat with its member details in the context of one dataset
type ChatRow struct {
	Chat    Chat   `json:"chat"`
	Members []User `json:"members"`
	Dataset Ref    `json:"dataset"`
}

// Ref returns the backend reference for this chat
func (r ChatRow) Ref() ChatRef {
	return ChatRef{Dataset: r.Dataset, ChatID: r.Chat.ID}
}

// MemberIDs returns the ids of the chat members, falling back to the chat's own member list
func (r ChatRow) MemberIDs() []int64 {
	if len(r.Members) == 0 {
		return r.Chat.MemberIDs
	}
	ids := make([]int64, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// UserRow is a user in the context of one dataset
type UserRow struct {
	User    User `json:"user"`
	Dataset Ref  `json:"dataset"`
}

// MessageRow is a message together with the chat and dataset it was read from
type MessageRow struct {
	Message Message `json:"message"`
	Chat    Chat    `json:"chat"`
	Dataset Ref     `json:"dataset"`
}

// ChatRef addresses one chat in one dataset
type ChatRef struct {
	Dataset Ref   `json:"dataset" yaml:"dataset"`
	ChatID  int64 `json:"chat_id" yaml:"chat_id"`
}

// IDSet is a set of user or chat ids
type IDSet map[int64]struct{}

// NewIDSet builds a set from ids
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	s.Add(ids...)
	return s
}

// Add inserts ids into the set
func (s IDSet) Add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has reports whether id is in the set
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order
func (s IDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MessageSlice is a bounded window of a chat's messages. When the requested range
// is longer than the combined limit, only the first and last items are returned
// and Elided counts the ones in between.
type MessageSlice struct {
	Leading  []Message `json:"leading"`
	Elided   int       `json:"elided"`
	Trailing []Message `json:"trailing"`
}
