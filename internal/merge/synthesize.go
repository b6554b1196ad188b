package merge

import (
	"fmt"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
)

// Input is the final state of a merge session
type Input struct {
	Master dataset.Ref
	Slave  dataset.Ref

	Chats          diff.Model[dataset.ChatRow]
	ChatsSelection diff.Selection

	Users          diff.Model[dataset.UserRow]
	UsersSelection diff.Selection
	ActiveUserIDs  dataset.IDSet

	// Analyses and Resolutions are parallel: Resolutions[i] holds the section
	// indices of Analyses[i] the user chose to apply.
	Analyses    []*dataset.ChatAnalysis
	Resolutions []diff.Selection
}

// Synthesize maps every user, chat and section of the session to a decision.
// It is total over the diff types and fails only on inconsistent input.
func Synthesize(in Input) (*Request, error) {
	if len(in.Resolutions) != len(in.Analyses) {
		return nil, fmt.Errorf("%w: %d resolutions for %d analyses", ErrInvariant, len(in.Resolutions), len(in.Analyses))
	}

	req := &Request{
		Master: in.Master,
		Slave:  in.Slave,
		Users:  make([]UserEntry, 0, len(in.Users)),
		Chats:  make([]ChatEntry, 0, len(in.Chats)),
	}

	for i, e := range in.Users {
		row, ok := diff.First(e.Left)
		if !ok {
			row, ok = diff.First(e.Right)
		}
		if !ok {
			return nil, fmt.Errorf("%w: user entry %d has no rows", ErrInvariant, i)
		}

		decision, err := userDecision(e.Type, in.UsersSelection.Has(i), in.ActiveUserIDs.Has(row.User.ID))
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", row.User.ID, err)
		}
		req.Users = append(req.Users, UserEntry{UserID: row.User.ID, Decision: decision})
	}

	byChat := make(map[int64]int, len(in.Analyses))
	for i, a := range in.Analyses {
		if a == nil {
			return nil, fmt.Errorf("%w: analysis %d is nil", ErrInvariant, i)
		}
		byChat[a.MasterChat.ChatID] = i
	}

	for i, e := range in.Chats {
		chatID := diff.ChatID(e)

		decision, err := chatDecision(e.Type, in.ChatsSelection.Has(i))
		if err != nil {
			return nil, fmt.Errorf("chat %d: %w", chatID, err)
		}
		chat := ChatEntry{ChatID: chatID, Decision: decision}

		if decision == ChatMerge {
			idx, ok := byChat[chatID]
			if !ok {
				return nil, fmt.Errorf("%w: no analysis for merged chat %d", ErrInvariant, chatID)
			}
			messages, err := messageEntries(in.Analyses[idx], in.Resolutions[idx])
			if err != nil {
				return nil, fmt.Errorf("chat %d: %w", chatID, err)
			}
			chat.Messages = messages
		}

		req.Chats = append(req.Chats, chat)
	}

	return req, nil
}

func userDecision(t diff.Type, selected, active bool) (UserDecision, error) {
	switch t {
	case diff.NoChange:
		return UserMatchOrDontReplace, nil
	case diff.Change:
		if selected {
			return UserReplace, nil
		}
		return UserMatchOrDontReplace, nil
	case diff.Add:
		if active {
			return UserAdd, nil
		}
		return UserDontAdd, nil
	case diff.DontAdd:
		return UserDontAdd, nil
	case diff.Keep:
		return UserRetain, nil
	default:
		return "", fmt.Errorf("%w: unknown diff type %q", ErrInvariant, t)
	}
}

func chatDecision(t diff.Type, selected bool) (ChatDecision, error) {
	switch t {
	case diff.NoChange:
		return ChatDontMerge, nil
	case diff.Change:
		if selected {
			return ChatMerge, nil
		}
		return ChatDontMerge, nil
	case diff.Add:
		if selected {
			return ChatAdd, nil
		}
		return ChatDontAdd, nil
	case diff.DontAdd:
		return ChatDontAdd, nil
	case diff.Keep:
		return ChatRetain, nil
	default:
		return "", fmt.Errorf("%w: unknown diff type %q", ErrInvariant, t)
	}
}

func messageEntries(a *dataset.ChatAnalysis, resolution diff.Selection) ([]MessageEntry, error) {
	out := make([]MessageEntry, 0, len(a.Sections))
	for i, s := range a.Sections {
		var d MessageDecision
		switch s.Type {
		case dataset.SectionMatch:
			d = MessageMatch
		case dataset.SectionRetention:
			d = MessageRetain
		case dataset.SectionAddition:
			d = MessageDontAdd
			if resolution.Has(i) {
				d = MessageAdd
			}
		case dataset.SectionConflict:
			d = MessageDontReplace
			if resolution.Has(i) {
				d = MessageReplace
			}
		default:
			return nil, fmt.Errorf("%w: section %d has unknown type %q", ErrInvariant, i, s.Type)
		}
		out = append(out, MessageEntry{Decision: d, Range: s.Range})
	}
	return out, nil
}
