package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chatmerge/internal/config"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(config.BackendConfig{
		URL:        server.URL + "/",
		Token:      "secret",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}, loggy.NewNoopLogger())
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListChats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/datasets/phone%20backup/chats", r.URL.EscapedPath())
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"chat": map[string]any{"id": 1, "name": "Family"}, "members": []map[string]any{{"id": 7, "first_name": "Mum"}}},
			{"chat": map[string]any{"id": 2, "name": "Work"}},
		})
	})

	rows, err := c.ListChats(context.Background(), "phone backup")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Family", rows[0].Chat.Name)
	assert.Equal(t, dataset.Ref("phone backup"), rows[0].Dataset)
	assert.Equal(t, dataset.Ref("phone backup"), rows[1].Dataset)
	assert.Equal(t, []int64{7}, rows[0].MemberIDs())
}

func TestListUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/datasets/master/users", r.URL.Path)
		writeJSON(t, w, http.StatusOK, []dataset.User{{ID: 1, Username: "ann"}})
	})

	rows, err := c.ListUsers(context.Background(), "master")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ann", rows[0].User.Username)
	assert.Equal(t, dataset.Ref("master"), rows[0].Dataset)
}

func TestAnalyzeChatPair(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)

		var req AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(5), req.Master.ChatID)
		assert.Equal(t, dataset.Ref("s"), req.Slave.Dataset)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"master_chat":{"dataset":"m","chat_id":5},"slave_chat":{"dataset":"s","chat_id":5},
			"sections":[{"type":"addition","range":{"first_master_id":null,"last_master_id":null,"first_slave_id":10,"last_slave_id":12}}]}`))
	})

	a, err := c.AnalyzeChatPair(context.Background(), dataset.ChatRef{Dataset: "m", ChatID: 5}, dataset.ChatRef{Dataset: "s", ChatID: 5})
	require.NoError(t, err)
	require.Len(t, a.Sections, 1)
	assert.Equal(t, dataset.SectionAddition, a.Sections[0].Type)
	assert.False(t, a.Sections[0].Range.HasMaster())
	assert.Equal(t, dataset.MessageID(12), a.Sections[0].Range.LastSlaveID)
}

func TestAnalyzeChatPairFillsChatRefs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sections":[{"type":"match","range":{"first_master_id":1,"last_master_id":2,"first_slave_id":1,"last_slave_id":2}}]}`))
	})

	master := dataset.ChatRef{Dataset: "m", ChatID: 7}
	slave := dataset.ChatRef{Dataset: "s", ChatID: 7}

	a, err := c.AnalyzeChatPair(context.Background(), master, slave)
	require.NoError(t, err)
	assert.Equal(t, master, a.MasterChat)
	assert.Equal(t, slave, a.SlaveChat)
	require.Len(t, a.Sections, 1)
}

func TestFetchBoundedSlice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req SliceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, dataset.MessageID(1), req.FirstID)
		assert.Equal(t, dataset.MessageID(100), req.LastID)
		assert.Equal(t, 10, req.CombinedLimit)
		assert.Equal(t, 3, req.AbbreviatedLimit)

		writeJSON(t, w, http.StatusOK, dataset.MessageSlice{
			Leading:  []dataset.Message{{ID: 1}, {ID: 2}, {ID: 3}},
			Elided:   94,
			Trailing: []dataset.Message{{ID: 98}, {ID: 99}, {ID: 100}},
		})
	})

	slice, err := c.FetchBoundedSlice(context.Background(), dataset.ChatRef{Dataset: "m", ChatID: 1}, 1, 100, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 94, slice.Elided)
	assert.Len(t, slice.Trailing, 3)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeJSON(t, w, http.StatusBadGateway, APIError{Message: "upstream"})
			return
		}
		writeJSON(t, w, http.StatusOK, []dataset.User{})
	})

	_, err := c.ListUsers(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, http.StatusServiceUnavailable, APIError{Message: "busy"})
	})

	_, err := c.ListUsers(context.Background(), "m")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "one attempt plus two retries")
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, http.StatusNotFound, APIError{ErrorCode: "not_found", Message: "no such dataset"})
	})

	_, err := c.ListChats(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.ErrorCode)
	assert.False(t, apiErr.Temporary())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPlainTextErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusForbidden)
	})

	_, err := c.ListChats(context.Background(), "m")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad token", apiErr.Message)
}

func TestExecuteMerge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/merge", r.URL.Path)
		var req merge.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "req-1", req.ID)
		require.Len(t, req.Chats, 1)
		writeJSON(t, w, http.StatusOK, MergeResponse{Success: true, Message: "merged"})
	})

	resp, err := c.ExecuteMerge(context.Background(), &merge.Request{
		ID:    "req-1",
		Chats: []merge.ChatEntry{{ChatID: 1, Decision: merge.ChatAdd}},
	})
	require.NoError(t, err)
	assert.Equal(t, "merged", resp.Message)
}

func TestExecuteMergeIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, http.StatusInternalServerError, APIError{Message: "boom"})
	})

	_, err := c.ExecuteMerge(context.Background(), &merge.Request{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExecuteMergeRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, MergeResponse{Success: false, ErrorMessage: "dataset locked"})
	})

	resp, err := c.ExecuteMerge(context.Background(), &merge.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset locked")
	assert.False(t, resp.Success)
}

func TestVerifyToken(t *testing.T) {
	valid := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ok, err := valid.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	invalid := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, APIError{Message: "expired"})
	})
	ok, err = invalid.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []dataset.User{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListUsers(ctx, "m")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewLimiter(t *testing.T) {
	unlimited := newLimiter(0, 0)
	assert.Equal(t, 1, unlimited.Burst())
	assert.True(t, unlimited.Allow())

	limited := newLimiter(60, 2)
	assert.Equal(t, 2, limited.Burst())
	assert.InDelta(t, 1.0, float64(limited.Limit()), 0.001)
}
