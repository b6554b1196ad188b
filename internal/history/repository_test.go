package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
)

func newMockRepository(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")
	t.Cleanup(func() { db.Close() })

	return NewSQLRepository(db, loggy.NewNoopLogger()), mock
}

func sampleSession() *Session {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Session{
		ID:            ulid.NewSessionID(),
		Label:         "brave-hopper",
		MasterDataset: "phone",
		SlaveDataset:  "laptop",
		Status:        StatusCompleted,
		ChatsMerged:   2,
		ChatsAdded:    1,
		UsersReplaced: 1,
		UsersAdded:    3,
		ChatsSkipped:  1,
		Request:       []byte(`{"master":"phone","slave":"laptop","users":[],"chats":[]}`),
		StartedAt:     started,
		CompletedAt:   started.Add(2 * time.Minute),
	}
}

func sessionRows(sessions ...*Session) *sqlmock.Rows {
	rows := sqlmock.NewRows(sessionColumns)
	for _, s := range sessions {
		var request any
		if len(s.Request) > 0 {
			request = string(s.Request)
		}
		rows.AddRow(
			s.ID.String(), s.Label, string(s.MasterDataset), string(s.SlaveDataset), string(s.Status),
			s.ChatsMerged, s.ChatsAdded, s.UsersReplaced, s.UsersAdded, s.ChatsSkipped,
			s.ErrorMessage, request, s.StartedAt, s.CompletedAt,
		)
	}
	return rows
}

func TestCreateSession(t *testing.T) {
	repo, mock := newMockRepository(t)
	s := sampleSession()

	mock.ExpectExec("INSERT INTO merge_sessions").
		WithArgs(
			s.ID.String(), s.Label, "phone", "laptop", "completed",
			2, 1, 1, 3, 1,
			"", string(s.Request), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.CreateSession(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSessionWithoutRequest(t *testing.T) {
	repo, mock := newMockRepository(t)
	s := sampleSession()
	s.Request = nil
	s.Status = StatusAborted

	mock.ExpectExec("INSERT INTO merge_sessions").
		WithArgs(
			s.ID.String(), s.Label, "phone", "laptop", "aborted",
			2, 1, 1, 3, 1,
			"", nil, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.CreateSession(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSessionError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO merge_sessions").WillReturnError(errors.New("disk full"))

	err := repo.CreateSession(context.Background(), sampleSession())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestGetSession(t *testing.T) {
	repo, mock := newMockRepository(t)
	s := sampleSession()

	mock.ExpectQuery(`SELECT .+ FROM merge_sessions WHERE id = \?`).
		WithArgs(s.ID.String()).
		WillReturnRows(sessionRows(s))

	got, err := repo.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, ulid.PrefixSession, got.ID.Prefix())
	assert.Equal(t, s.Label, got.Label)
	assert.Equal(t, dataset.Ref("laptop"), got.SlaveDataset)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.JSONEq(t, string(s.Request), string(got.Request))
	assert.Equal(t, 2*time.Minute, got.Duration())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	missing := ulid.NewSessionID()

	mock.ExpectQuery(`SELECT .+ FROM merge_sessions WHERE id = \?`).
		WithArgs(missing.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSession(context.Background(), missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSessionRejectsMalformedID(t *testing.T) {
	repo, mock := newMockRepository(t)
	s := sampleSession()

	mock.ExpectQuery(`SELECT .+ FROM merge_sessions WHERE id = \?`).
		WithArgs(s.ID.String()).
		WillReturnRows(sqlmock.NewRows(sessionColumns).AddRow(
			"mrg-garbage", s.Label, "phone", "laptop", "completed",
			0, 0, 0, 0, 0, "", nil, s.StartedAt, s.CompletedAt,
		))

	_, err := repo.GetSession(context.Background(), s.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	repo, mock := newMockRepository(t)
	a := sampleSession()
	b := sampleSession()
	b.ID = ulid.NewSessionID()
	b.Request = nil
	b.Status = StatusFailed
	b.ErrorMessage = "backend unavailable"

	mock.ExpectQuery(`SELECT .+ FROM merge_sessions WHERE master_dataset = \? AND status = \? ORDER BY completed_at DESC LIMIT 10`).
		WithArgs("phone", "failed").
		WillReturnRows(sessionRows(a, b))

	sessions, err := repo.ListSessions(context.Background(), ListOptions{
		MasterDataset: "phone",
		Status:        StatusFailed,
		Limit:         10,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "backend unavailable", sessions[1].ErrorMessage)
	assert.Nil(t, sessions[1].Request)
	assert.Equal(t, b.ID, sessions[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSession(t *testing.T) {
	repo, mock := newMockRepository(t)

	kept, gone := ulid.NewSessionID(), ulid.NewSessionID()

	mock.ExpectExec(`DELETE FROM merge_sessions WHERE id = \?`).
		WithArgs(kept.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM merge_sessions WHERE id = \?`).
		WithArgs(gone.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteSession(context.Background(), kept))
	assert.ErrorIs(t, repo.DeleteSession(context.Background(), gone), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionMarkFinished(t *testing.T) {
	s := NewSession(ulid.NewSessionID(), "calm-turing", "phone", "laptop")
	assert.Equal(t, StatusAborted, s.Status)

	req := &merge.Request{
		Master: "phone",
		Slave:  "laptop",
		Users: []merge.UserEntry{
			{UserID: 1, Decision: merge.UserReplace},
			{UserID: 2, Decision: merge.UserAdd},
			{UserID: 3, Decision: merge.UserDontAdd},
		},
		Chats: []merge.ChatEntry{
			{ChatID: 1, Decision: merge.ChatMerge},
			{ChatID: 2, Decision: merge.ChatAdd},
			{ChatID: 3, Decision: merge.ChatDontMerge},
		},
	}

	require.NoError(t, s.MarkFinished(req, 2, false))
	assert.Equal(t, StatusPlanned, s.Status)
	assert.Equal(t, 1, s.ChatsMerged)
	assert.Equal(t, 1, s.ChatsAdded)
	assert.Equal(t, 1, s.UsersReplaced)
	assert.Equal(t, 1, s.UsersAdded)
	assert.Equal(t, 2, s.ChatsSkipped)
	assert.Contains(t, string(s.Request), `"master":"phone"`)

	require.NoError(t, s.MarkFinished(req, 0, true))
	assert.Equal(t, StatusCompleted, s.Status)

	s.MarkFailed(errors.New("timeout"))
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "timeout", s.ErrorMessage)
}
