package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateSession(ctx context.Context, s *Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockRepository) GetSession(ctx context.Context, id ulid.ULID) (*Session, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListSessions(ctx context.Context, opts ListOptions) ([]*Session, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).([]*Session), args.Error(1)
}

func (m *mockRepository) DeleteSession(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

func TestServiceRecord(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, loggy.NewNoopLogger())
	ctx := context.Background()

	s := NewSession(ulid.NewSessionID(), "label", "a", "b")
	repo.On("CreateSession", ctx, s).Return(nil).Once()
	require.NoError(t, svc.Record(ctx, s))

	failing := NewSession(ulid.NewSessionID(), "label", "a", "b")
	repo.On("CreateSession", ctx, failing).Return(errors.New("locked")).Once()
	assert.Error(t, svc.Record(ctx, failing))

	assert.Error(t, svc.Record(ctx, &Session{}))
	repo.AssertExpectations(t)
}

func TestServiceList(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, loggy.NewNoopLogger())
	ctx := context.Background()

	want := []*Session{sampleSession()}
	repo.On("ListSessions", ctx, ListOptions{Limit: 5}).Return(want, nil)

	got, err := svc.List(ctx, ListOptions{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestServiceRequest(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, loggy.NewNoopLogger())
	ctx := context.Background()

	s := NewSession(ulid.NewSessionID(), "label", "phone", "laptop")
	require.NoError(t, s.MarkFinished(&merge.Request{
		Master: "phone",
		Slave:  "laptop",
		Chats:  []merge.ChatEntry{{ChatID: 9, Decision: merge.ChatAdd}},
	}, 0, true))

	empty := NewSession(ulid.NewSessionID(), "label", "phone", "laptop")
	missing := ulid.NewSessionID()

	repo.On("GetSession", ctx, s.ID).Return(s, nil)
	repo.On("GetSession", ctx, empty.ID).Return(empty, nil)
	repo.On("GetSession", ctx, missing).Return(nil, ErrNotFound)

	req, err := svc.Request(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, req.Chats, 1)
	assert.Equal(t, merge.ChatAdd, req.Chats[0].Decision)

	_, err = svc.Request(ctx, empty.ID)
	assert.Error(t, err)

	_, err = svc.Request(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)
}
