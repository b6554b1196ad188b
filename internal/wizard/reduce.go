package wizard

import (
	"fmt"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
)

// Reduce returns the stage that follows stage after event. It does not modify its
// inputs. Events that do not apply to stage fail with ErrUnexpectedEvent and leave
// the stage unchanged.
func Reduce(stage Stage, event Event) (Stage, error) {
	var (
		next Stage
		err  error
	)

	switch s := stage.(type) {
	case Loading:
		next, err = reduceLoading(s, event)
	case SelectChats:
		next, err = reduceSelectChats(s, event)
	case SelectUsers:
		next, err = reduceSelectUsers(s, event)
	case Analyzing:
		next, err = reduceAnalyzing(s, event)
	case SelectMessages:
		next, err = reduceSelectMessages(s, event)
	default:
		err = unexpected(stage, event)
	}

	if err != nil {
		return stage, err
	}
	return next, nil
}

func unexpected(stage Stage, event Event) error {
	name := "<nil>"
	if stage != nil {
		name = stage.Name()
	}
	return fmt.Errorf("%w: %T in %s", ErrUnexpectedEvent, event, name)
}

func reduceLoading(s Loading, event Event) (Stage, error) {
	e, ok := event.(ChatsLoaded)
	if !ok {
		return nil, unexpected(s, event)
	}
	if err := diff.ValidateChatModel(e.Chats); err != nil {
		return nil, fmt.Errorf("invalid chat model: %w", err)
	}
	return SelectChats{
		Master:         s.Master,
		Slave:          s.Slave,
		Chats:          e.Chats,
		ChatsSelection: diff.NewSelection(),
	}, nil
}

func reduceSelectChats(s SelectChats, event Event) (Stage, error) {
	switch e := event.(type) {
	case ChatToggled:
		sel, err := diff.Toggle(s.Chats, s.ChatsSelection, e.Index)
		if err != nil {
			return nil, err
		}
		s.ChatsSelection = sel
		return s, nil

	case AllChatsToggled:
		s.ChatsSelection = diff.ToggleAll(s.Chats, s.ChatsSelection)
		return s, nil

	case ChatsSelected:
		s.ChatsSelection = diff.Restrict(s.Chats, e.Selection)
		return s, nil

	case ChatsConfirmed:
		if err := e.Users.Validate(); err != nil {
			return nil, fmt.Errorf("invalid user model: %w", err)
		}
		return SelectUsers{Session: Session{
			Master:         s.Master,
			Slave:          s.Slave,
			Chats:          s.Chats,
			ChatsSelection: s.ChatsSelection,
			Users:          e.Users,
			UsersSelection: diff.NewSelection(),
			ActiveUserIDs:  e.ActiveUserIDs,
			Pending:        e.Pending,
		}}, nil

	default:
		return nil, unexpected(s, event)
	}
}

func reduceSelectUsers(s SelectUsers, event Event) (Stage, error) {
	switch e := event.(type) {
	case UserToggled:
		sel, err := diff.Toggle(s.Users, s.UsersSelection, e.Index)
		if err != nil {
			return nil, err
		}
		s.UsersSelection = sel
		return s, nil

	case AllUsersToggled:
		s.UsersSelection = diff.ToggleAll(s.Users, s.UsersSelection)
		return s, nil

	case UsersSelected:
		s.UsersSelection = diff.Restrict(s.Users, e.Selection)
		return s, nil

	case UsersConfirmed:
		return Analyzing{Session: s.Session}, nil

	default:
		return nil, unexpected(s, event)
	}
}

func reduceAnalyzing(s Analyzing, event Event) (Stage, error) {
	switch e := event.(type) {
	case AnalysisSkipped:
		if len(s.Pending) == 0 {
			return nil, fmt.Errorf("%w: no pending analysis to skip", ErrUnexpectedEvent)
		}
		if front := s.Pending[0].Pair().ChatID(); front != e.ChatID {
			return nil, fmt.Errorf("%w: skipped chat %d but chat %d is next", ErrUnexpectedEvent, e.ChatID, front)
		}

		sess := s.popPending()
		sess.ChatsSelection = deselectChat(sess.Chats, sess.ChatsSelection, e.ChatID)
		msg := fmt.Sprintf("chat %d skipped", e.ChatID)
		if e.Err != nil {
			msg = fmt.Sprintf("chat %d skipped: %v", e.ChatID, e.Err)
		}
		return Analyzing{Session: sess.warn(Warning{ChatID: e.ChatID, Message: msg})}, nil

	case AnalysisReady:
		if len(s.Pending) == 0 {
			return nil, fmt.Errorf("%w: no pending analysis", ErrUnexpectedEvent)
		}
		if e.Analysis == nil {
			return nil, fmt.Errorf("%w: nil analysis", ErrUnexpectedEvent)
		}
		pair := s.Pending[0].Pair()
		if pair.ChatID() != e.Analysis.MasterChat.ChatID {
			return nil, fmt.Errorf("%w: analysis for chat %d but chat %d is next",
				ErrUnexpectedEvent, e.Analysis.MasterChat.ChatID, pair.ChatID())
		}

		sess := s.popPending()
		if len(e.Messages) == 0 || diff.Toggleable(e.Messages).Len() == 0 {
			return Analyzing{Session: sess.consumed(e.Analysis, diff.NewSelection())}, nil
		}
		if len(e.Messages) != len(e.Analysis.Sections) {
			return nil, fmt.Errorf("%w: %d message entries for %d sections",
				diff.ErrInvariant, len(e.Messages), len(e.Analysis.Sections))
		}
		return SelectMessages{
			Session:           sess,
			Pair:              pair,
			Analysis:          e.Analysis,
			Messages:          e.Messages,
			MessagesSelection: diff.NewSelection(),
		}, nil

	case QueueDrained:
		if n := len(s.Pending); n > 0 {
			return nil, fmt.Errorf("%w: %d analyses still pending", ErrUnexpectedEvent, n)
		}
		return Merging{Session: s.Session}, nil

	default:
		return nil, unexpected(s, event)
	}
}

func reduceSelectMessages(s SelectMessages, event Event) (Stage, error) {
	switch e := event.(type) {
	case MessageToggled:
		sel, err := diff.Toggle(s.Messages, s.MessagesSelection, e.Index)
		if err != nil {
			return nil, err
		}
		s.MessagesSelection = sel
		return s, nil

	case AllMessagesToggled:
		s.MessagesSelection = diff.ToggleAll(s.Messages, s.MessagesSelection)
		return s, nil

	case MessagesSelected:
		s.MessagesSelection = diff.Restrict(s.Messages, e.Selection)
		return s, nil

	case MessagesConfirmed:
		return Analyzing{Session: s.Session.consumed(s.Analysis, s.MessagesSelection)}, nil

	default:
		return nil, unexpected(s, event)
	}
}

// deselectChat removes every entry of chatID from the selection
func deselectChat(chats diff.Model[dataset.ChatRow], sel diff.Selection, chatID int64) diff.Selection {
	for i, e := range chats {
		if diff.ChatID(e) == chatID && sel.Has(i) {
			sel = sel.Without(i)
		}
	}
	return sel
}
