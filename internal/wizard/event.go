package wizard

import (
	"github.com/tildaslashalef/chatmerge/internal/analysis"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
)

// Event is an input to Reduce
type Event interface {
	isEvent()
}

// ChatsLoaded carries the chat model built from both chat lists
type ChatsLoaded struct {
	Chats diff.Model[dataset.ChatRow]
}

// ChatToggled flips one chat entry
type ChatToggled struct{ Index int }

// AllChatsToggled selects or clears every toggleable chat
type AllChatsToggled struct{}

// ChatsSelected replaces the chat selection
type ChatsSelected struct{ Selection diff.Selection }

// ChatsConfirmed ends chat selection. It carries what ConfirmChats computed: the
// active users, the user model and the analysis futures for the selected changed chats.
type ChatsConfirmed struct {
	ActiveUserIDs dataset.IDSet
	Users         diff.Model[dataset.UserRow]
	Pending       []*analysis.Future
}

// UserToggled flips one user entry
type UserToggled struct{ Index int }

// AllUsersToggled selects or clears every toggleable user
type AllUsersToggled struct{}

// UsersSelected replaces the user selection
type UsersSelected struct{ Selection diff.Selection }

// UsersConfirmed ends user selection
type UsersConfirmed struct{}

// AnalysisSkipped consumes the front future after a soft failure
type AnalysisSkipped struct {
	ChatID int64
	Err    error
}

// AnalysisReady consumes the front future. Messages is nil when the analysis has
// nothing for the user to decide.
type AnalysisReady struct {
	Analysis *dataset.ChatAnalysis
	Messages diff.Model[dataset.MessageRow]
}

// MessageToggled flips one section of the chat under review
type MessageToggled struct{ Index int }

// AllMessagesToggled selects or clears every toggleable section
type AllMessagesToggled struct{}

// MessagesSelected replaces the section selection
type MessagesSelected struct{ Selection diff.Selection }

// MessagesConfirmed records the section selection as the chat's resolution
type MessagesConfirmed struct{}

// QueueDrained reports that no analyses are pending
type QueueDrained struct{}

func (ChatsLoaded) isEvent()        {}
func (ChatToggled) isEvent()        {}
func (AllChatsToggled) isEvent()    {}
func (ChatsSelected) isEvent()      {}
func (ChatsConfirmed) isEvent()     {}
func (UserToggled) isEvent()        {}
func (AllUsersToggled) isEvent()    {}
func (UsersSelected) isEvent()      {}
func (UsersConfirmed) isEvent()     {}
func (AnalysisSkipped) isEvent()    {}
func (AnalysisReady) isEvent()      {}
func (MessageToggled) isEvent()     {}
func (AllMessagesToggled) isEvent() {}
func (MessagesSelected) isEvent()   {}
func (MessagesConfirmed) isEvent()  {}
func (QueueDrained) isEvent()       {}
