package wizard

import (
	"context"
	"fmt"
	"sync"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
)

type fakeBackend struct {
	mu       sync.Mutex
	chats    map[dataset.Ref][]dataset.ChatRow
	users    map[dataset.Ref][]dataset.UserRow
	analyses map[int64]*dataset.ChatAnalysis
	errs     map[int64]error
	analyzed []int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chats:    map[dataset.Ref][]dataset.ChatRow{},
		users:    map[dataset.Ref][]dataset.UserRow{},
		analyses: map[int64]*dataset.ChatAnalysis{},
		errs:     map[int64]error{},
	}
}

func (b *fakeBackend) addChat(ds dataset.Ref, id int64, members ...int64) {
	b.chats[ds] = append(b.chats[ds], dataset.ChatRow{
		Chat:    dataset.Chat{ID: id, Name: fmt.Sprintf("chat %d", id), MemberIDs: members},
		Dataset: ds,
	})
}

func (b *fakeBackend) addUser(ds dataset.Ref, u dataset.User) {
	b.users[ds] = append(b.users[ds], dataset.UserRow{User: u, Dataset: ds})
}

func (b *fakeBackend) ListChats(ctx context.Context, ds dataset.Ref) ([]dataset.ChatRow, error) {
	return b.chats[ds], nil
}

func (b *fakeBackend) ListUsers(ctx context.Context, ds dataset.Ref) ([]dataset.UserRow, error) {
	return b.users[ds], nil
}

func (b *fakeBackend) AnalyzeChatPair(ctx context.Context, master, slave dataset.ChatRef) (*dataset.ChatAnalysis, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.analyzed = append(b.analyzed, master.ChatID)

	if err := b.errs[master.ChatID]; err != nil {
		return nil, err
	}
	a, ok := b.analyses[master.ChatID]
	if !ok {
		return &dataset.ChatAnalysis{MasterChat: master, SlaveChat: slave}, nil
	}
	out := *a
	out.MasterChat, out.SlaveChat = master, slave
	return &out, nil
}

// FetchBoundedSlice returns every message of the range, eliding the middle past the combined limit
func (b *fakeBackend) FetchBoundedSlice(ctx context.Context, chat dataset.ChatRef, first, last dataset.MessageID, combinedLimit, abbreviatedLimit int) (*dataset.MessageSlice, error) {
	var all []dataset.Message
	for id := first; id <= last; id++ {
		all = append(all, dataset.Message{ID: id, Text: fmt.Sprintf("%s/%d", chat.Dataset, id)})
	}
	if len(all) <= combinedLimit {
		return &dataset.MessageSlice{Leading: all}, nil
	}
	return &dataset.MessageSlice{
		Leading:  all[:abbreviatedLimit],
		Elided:   len(all) - 2*abbreviatedLimit,
		Trailing: all[len(all)-abbreviatedLimit:],
	}, nil
}

func sections(types ...dataset.SectionType) []dataset.Section {
	out := make([]dataset.Section, 0, len(types))
	none := dataset.NoMessage
	for i, t := range types {
		base := dataset.MessageID(10 * (i + 1))
		r := dataset.Range{FirstMasterID: base, LastMasterID: base + 2, FirstSlaveID: base, LastSlaveID: base + 2}
		switch t {
		case dataset.SectionAddition:
			r.FirstMasterID, r.LastMasterID = none, none
		case dataset.SectionRetention:
			r.FirstSlaveID, r.LastSlaveID = none, none
		}
		out = append(out, dataset.Section{Type: t, Range: r})
	}
	return out
}
