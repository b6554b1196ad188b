package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chatmerge/internal/analysis"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
)

func chatModel() diff.Model[dataset.ChatRow] {
	row := func(id int64, ds dataset.Ref, members ...int64) dataset.ChatRow {
		return dataset.ChatRow{Chat: dataset.Chat{ID: id, MemberIDs: members}, Dataset: ds}
	}
	return diff.BuildChats(
		[]dataset.ChatRow{row(1, "m", 100), row(2, "m", 200)},
		[]dataset.ChatRow{row(2, "s", 201), row(3, "s", 300), row(4, "s", 400)},
	)
}

func selectChats() SelectChats {
	return SelectChats{Master: "m", Slave: "s", Chats: chatModel(), ChatsSelection: diff.NewSelection()}
}

func pairFor(id int64) analysis.Pair {
	return analysis.Pair{
		Master: dataset.ChatRow{Chat: dataset.Chat{ID: id}, Dataset: "m"},
		Slave:  dataset.ChatRow{Chat: dataset.Chat{ID: id}, Dataset: "s"},
	}
}

func analyzingWith(pending ...int64) Analyzing {
	futures := make([]*analysis.Future, 0, len(pending))
	for _, id := range pending {
		futures = append(futures, analysis.Resolved(pairFor(id), nil, nil))
	}
	return Analyzing{Session: Session{
		Master:         "m",
		Slave:          "s",
		Chats:          chatModel(),
		ChatsSelection: diff.NewSelection(1, 3),
		Pending:        futures,
	}}
}

func TestLoadingToSelectChats(t *testing.T) {
	next, err := Reduce(Loading{Master: "m", Slave: "s"}, ChatsLoaded{Chats: chatModel()})
	require.NoError(t, err)

	sc, ok := next.(SelectChats)
	require.True(t, ok)
	assert.Equal(t, dataset.Ref("m"), sc.Master)
	assert.Len(t, sc.Chats, 4)
	assert.Zero(t, sc.ChatsSelection.Len())
}

func TestUnexpectedEvents(t *testing.T) {
	tests := []struct {
		stage Stage
		event Event
	}{
		{Loading{}, ChatToggled{Index: 0}},
		{selectChats(), UsersConfirmed{}},
		{selectChats(), ChatsLoaded{}},
		{SelectUsers{}, ChatToggled{Index: 1}},
		{analyzingWith(), MessagesConfirmed{}},
		{SelectMessages{}, QueueDrained{}},
		{Merging{}, ChatsLoaded{}},
		{Merging{}, QueueDrained{}},
	}

	for _, tt := range tests {
		next, err := Reduce(tt.stage, tt.event)
		assert.ErrorIs(t, err, ErrUnexpectedEvent, "%T in %s", tt.event, tt.stage.Name())
		assert.Equal(t, tt.stage.Name(), next.Name())
	}
}

func TestChatSelectionEvents(t *testing.T) {
	var stage Stage = selectChats()

	stage, err := Reduce(stage, ChatToggled{Index: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, stage.(SelectChats).ChatsSelection.Indices())

	_, err = Reduce(stage, ChatToggled{Index: 0})
	assert.ErrorIs(t, err, diff.ErrNotToggleable, "keep entries cannot be toggled")

	stage, err = Reduce(stage, AllChatsToggled{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, stage.(SelectChats).ChatsSelection.Indices())

	stage, err = Reduce(stage, AllChatsToggled{})
	require.NoError(t, err)
	assert.Zero(t, stage.(SelectChats).ChatsSelection.Len())

	stage, err = Reduce(stage, ChatsSelected{Selection: diff.NewSelection(0, 2, 9)})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, stage.(SelectChats).ChatsSelection.Indices())
}

func TestToggleTwiceRestoresSelection(t *testing.T) {
	start := selectChats()
	start.ChatsSelection = diff.NewSelection(3)

	for _, i := range []int{1, 2, 3} {
		once, err := Reduce(start, ChatToggled{Index: i})
		require.NoError(t, err)
		twice, err := Reduce(once, ChatToggled{Index: i})
		require.NoError(t, err)
		assert.True(t, twice.(SelectChats).ChatsSelection.Equal(start.ChatsSelection))
	}
}

func TestChatsConfirmedBuildsSession(t *testing.T) {
	sc := selectChats()
	sc.ChatsSelection = diff.NewSelection(1)
	pending := []*analysis.Future{analysis.Resolved(pairFor(2), nil, nil)}

	next, err := Reduce(sc, ChatsConfirmed{ActiveUserIDs: dataset.NewIDSet(100), Pending: pending})
	require.NoError(t, err)

	su, ok := next.(SelectUsers)
	require.True(t, ok)
	assert.Equal(t, sc.Chats, su.Chats)
	assert.True(t, su.ChatsSelection.Equal(sc.ChatsSelection))
	assert.Len(t, su.Pending, 1)
	assert.True(t, su.ActiveUserIDs.Has(100))
}

func TestUserSelectionEvents(t *testing.T) {
	users := diff.BuildUsers(
		[]dataset.UserRow{{User: dataset.User{ID: 1}}, {User: dataset.User{ID: 2}}},
		[]dataset.UserRow{{User: dataset.User{ID: 1, Username: "new"}}, {User: dataset.User{ID: 3}}},
		nil, dataset.NewIDSet(3),
	)
	var stage Stage = SelectUsers{Session: Session{Users: users, UsersSelection: diff.NewSelection()}}

	stage, err := Reduce(stage, AllUsersToggled{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, stage.(SelectUsers).UsersSelection.Indices())

	stage, err = Reduce(stage, UserToggled{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, stage.(SelectUsers).UsersSelection.Indices())

	stage, err = Reduce(stage, UsersSelected{Selection: diff.NewSelection(0, 1)})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, stage.(SelectUsers).UsersSelection.Indices())

	stage, err = Reduce(stage, UsersConfirmed{})
	require.NoError(t, err)
	assert.IsType(t, Analyzing{}, stage)
}

func TestAnalysisSkippedDropsChat(t *testing.T) {
	start := analyzingWith(2, 3)
	err := &analysis.TooManySectionsError{ChatID: 2, Sections: 501, Limit: 500}

	next, rerr := Reduce(start, AnalysisSkipped{ChatID: 2, Err: err})
	require.NoError(t, rerr)

	a := next.(Analyzing)
	assert.Len(t, a.Pending, 1)
	assert.False(t, a.ChatsSelection.Has(1), "chat 2 sits at index 1")
	assert.True(t, a.ChatsSelection.Has(3))
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, int64(2), a.Warnings[0].ChatID)
	assert.Contains(t, a.Warnings[0].Message, "501")

	assert.Len(t, start.Pending, 2, "input stage is untouched")
	assert.True(t, start.ChatsSelection.Has(1))
}

func TestAnalysisSkippedMustMatchFront(t *testing.T) {
	_, err := Reduce(analyzingWith(2, 3), AnalysisSkipped{ChatID: 3})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
}

func TestAnalysisReadyWithoutDecisions(t *testing.T) {
	start := analyzingWith(2)
	ready := &dataset.ChatAnalysis{MasterChat: dataset.ChatRef{ChatID: 2}, Sections: sections(dataset.SectionMatch)}

	next, err := Reduce(start, AnalysisReady{Analysis: ready})
	require.NoError(t, err)

	a := next.(Analyzing)
	assert.Empty(t, a.Pending)
	require.Len(t, a.Analyses, 1)
	require.Len(t, a.Resolutions, 1)
	assert.Zero(t, a.Resolutions[0].Len())
	assert.Empty(t, start.Analyses)
}

func TestAnalysisReadyMustMatchFront(t *testing.T) {
	wrong := &dataset.ChatAnalysis{MasterChat: dataset.ChatRef{ChatID: 9}}
	_, err := Reduce(analyzingWith(2), AnalysisReady{Analysis: wrong})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)

	_, err = Reduce(analyzingWith(), AnalysisReady{Analysis: wrong})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
}

func messageModel() diff.Model[dataset.MessageRow] {
	row := func(id dataset.MessageID) dataset.MessageRow {
		return dataset.MessageRow{Message: dataset.Message{ID: id}}
	}
	return diff.Model[dataset.MessageRow]{
		{Type: diff.NoChange, Left: diff.Flat[dataset.MessageRow]{row(1)}, Right: diff.Flat[dataset.MessageRow]{row(1)}},
		{Type: diff.Add, Left: diff.Empty[dataset.MessageRow](), Right: diff.Flat[dataset.MessageRow]{row(10)}},
		{Type: diff.Change, Left: diff.Flat[dataset.MessageRow]{row(2)}, Right: diff.Flat[dataset.MessageRow]{row(3)}},
	}
}

func TestMessageReviewCycle(t *testing.T) {
	ready := &dataset.ChatAnalysis{
		MasterChat: dataset.ChatRef{ChatID: 2},
		Sections:   sections(dataset.SectionMatch, dataset.SectionAddition, dataset.SectionConflict),
	}

	stage, err := Reduce(analyzingWith(2, 3), AnalysisReady{Analysis: ready, Messages: messageModel()})
	require.NoError(t, err)
	sm, ok := stage.(SelectMessages)
	require.True(t, ok)
	assert.Equal(t, int64(2), sm.Pair.ChatID())
	assert.Len(t, sm.Pending, 1)

	stage, err = Reduce(stage, AllMessagesToggled{})
	require.NoError(t, err)
	stage, err = Reduce(stage, MessageToggled{Index: 2})
	require.NoError(t, err)
	_, err = Reduce(stage, MessageToggled{Index: 0})
	assert.ErrorIs(t, err, diff.ErrNotToggleable)

	stage, err = Reduce(stage, MessagesConfirmed{})
	require.NoError(t, err)
	a := stage.(Analyzing)
	require.Len(t, a.Analyses, 1)
	require.Len(t, a.Resolutions, 1)
	assert.Equal(t, []int{1}, a.Resolutions[0].Indices())
}

func TestQueueDrained(t *testing.T) {
	_, err := Reduce(analyzingWith(2), QueueDrained{})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)

	next, err := Reduce(analyzingWith(), QueueDrained{})
	require.NoError(t, err)
	assert.IsType(t, Merging{}, next)
}

func TestActiveUserIDs(t *testing.T) {
	chats := chatModel() // Keep(1), Change(2), Add(3), Add(4)

	none := ActiveUserIDs(chats, diff.NewSelection())
	assert.Equal(t, []int64{100}, none.Sorted())

	some := ActiveUserIDs(chats, diff.NewSelection(1, 3))
	assert.Equal(t, []int64{100, 200, 201, 400}, some.Sorted())
}

func TestChangedPairs(t *testing.T) {
	chats := chatModel()
	assert.Empty(t, ChangedPairs(chats, diff.NewSelection(2, 3)))

	pairs := ChangedPairs(chats, diff.NewSelection(1, 2))
	require.Len(t, pairs, 1)
	assert.Equal(t, dataset.Ref("m"), pairs[0].Master.Dataset)
	assert.Equal(t, dataset.Ref("s"), pairs[0].Slave.Dataset)
}
