package diff

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchBoundedSlice(ctx context.Context, chat dataset.ChatRef, first, last dataset.MessageID, combinedLimit, abbreviatedLimit int) (*dataset.MessageSlice, error) {
	args := m.Called(ctx, chat, first, last, combinedLimit, abbreviatedLimit)
	if slice := args.Get(0); slice != nil {
		return slice.(*dataset.MessageSlice), args.Error(1)
	}
	return nil, args.Error(1)
}

func messages(ids ...int64) []dataset.Message {
	out := make([]dataset.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, dataset.Message{ID: dataset.MessageID(id), Text: "msg"})
	}
	return out
}

func section(t dataset.SectionType, fm, lm, fs, ls dataset.MessageID) dataset.Section {
	return dataset.Section{Type: t, Range: dataset.Range{FirstMasterID: fm, LastMasterID: lm, FirstSlaveID: fs, LastSlaveID: ls}}
}

func TestBuildMessages(t *testing.T) {
	ctx := context.Background()
	master := chatRow(7, "m")
	slave := chatRow(7, "s")
	limits := SliceLimits{Combined: 4, Abbreviated: 1}
	none := dataset.NoMessage

	analysis := &dataset.ChatAnalysis{
		MasterChat: master.Ref(),
		SlaveChat:  slave.Ref(),
		Sections: []dataset.Section{
			section(dataset.SectionMatch, 1, 2, 101, 102),
			section(dataset.SectionAddition, none, none, 10, 12),
			section(dataset.SectionConflict, 3, 3, 103, 103),
			section(dataset.SectionRetention, 4, 40, none, none),
		},
	}

	f := &mockFetcher{}
	f.On("FetchBoundedSlice", ctx, master.Ref(), dataset.MessageID(1), dataset.MessageID(2), 4, 1).
		Return(&dataset.MessageSlice{Leading: messages(1, 2)}, nil)
	f.On("FetchBoundedSlice", ctx, slave.Ref(), dataset.MessageID(101), dataset.MessageID(102), 4, 1).
		Return(&dataset.MessageSlice{Leading: messages(101), Trailing: messages(102)}, nil)
	f.On("FetchBoundedSlice", ctx, slave.Ref(), dataset.MessageID(10), dataset.MessageID(12), 4, 1).
		Return(&dataset.MessageSlice{Leading: messages(10, 11, 12)}, nil)
	f.On("FetchBoundedSlice", ctx, master.Ref(), dataset.MessageID(3), dataset.MessageID(3), 4, 1).
		Return(&dataset.MessageSlice{Leading: messages(3)}, nil)
	f.On("FetchBoundedSlice", ctx, slave.Ref(), dataset.MessageID(103), dataset.MessageID(103), 4, 1).
		Return(&dataset.MessageSlice{Leading: messages(103)}, nil)
	f.On("FetchBoundedSlice", ctx, master.Ref(), dataset.MessageID(4), dataset.MessageID(40), 4, 1).
		Return(&dataset.MessageSlice{Leading: messages(4), Elided: 35, Trailing: messages(40)}, nil)

	model, err := BuildMessages(ctx, f, analysis, master, slave, limits)
	require.NoError(t, err)
	require.Len(t, model, 4)
	f.AssertExpectations(t)

	assert.Equal(t, []Type{NoChange, Add, Change, Keep}, []Type{model[0].Type, model[1].Type, model[2].Type, model[3].Type})
	assert.Equal(t, []int{1, 2}, Toggleable(model).Indices())

	// flat when nothing was elided, leading and trailing joined
	assert.Equal(t, 2, model[0].Right.Len())
	_, isFlat := model[0].Right.(Flat[dataset.MessageRow])
	assert.True(t, isFlat)

	// rows remember where they came from
	left, _ := First(model[0].Left)
	assert.Equal(t, dataset.Ref("m"), left.Dataset)
	right, _ := First(model[1].Right)
	assert.Equal(t, dataset.Ref("s"), right.Dataset)
	assert.Equal(t, int64(7), right.Chat.ID)
	assert.True(t, IsEmpty(model[1].Left))

	retained, ok := model[3].Left.(Abbreviated[dataset.MessageRow])
	require.True(t, ok)
	assert.Equal(t, 35, retained.Elided())
	assert.Equal(t, 37, retained.Len())
}

func TestBuildMessagesFetchErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	master := chatRow(1, "m")
	slave := chatRow(1, "s")
	boom := errors.New("backend down")

	f := &mockFetcher{}
	f.On("FetchBoundedSlice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, boom)

	analysis := &dataset.ChatAnalysis{Sections: []dataset.Section{section(dataset.SectionConflict, 1, 1, 2, 2)}}
	_, err := BuildMessages(ctx, f, analysis, master, slave, DefaultSliceLimits())
	assert.ErrorIs(t, err, boom)
}

func TestBuildMessagesRejectsMalformedSlice(t *testing.T) {
	ctx := context.Background()
	master := chatRow(1, "m")
	none := dataset.NoMessage

	f := &mockFetcher{}
	f.On("FetchBoundedSlice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&dataset.MessageSlice{Leading: messages(1), Elided: 5}, nil)

	analysis := &dataset.ChatAnalysis{Sections: []dataset.Section{section(dataset.SectionRetention, 1, 9, none, none)}}
	_, err := BuildMessages(ctx, f, analysis, master, chatRow(1, "s"), DefaultSliceLimits())
	assert.ErrorIs(t, err, ErrInvalidAbbreviation)
}

func TestBuildMessagesUnknownSection(t *testing.T) {
	analysis := &dataset.ChatAnalysis{Sections: []dataset.Section{{Type: "weird"}}}
	_, err := BuildMessages(context.Background(), &mockFetcher{}, analysis, chatRow(1, "m"), chatRow(1, "s"), DefaultSliceLimits())
	assert.ErrorIs(t, err, ErrInvariant)
}
