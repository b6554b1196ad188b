// Package backend is the HTTP client for the archive backend: it lists chats and
// users, analyzes chat pairs, returns bounded message slices and executes merges.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/tildaslashalef/chatmerge/internal/config"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
)

// Client handles HTTP communication with the archive backend
type Client struct {
	baseURL    string
	token      string
	maxRetries int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *loggy.Logger

	// newBackOff is replaced in tests to avoid real sleeps
	newBackOff func() backoff.BackOff
}

// NewClient creates a backend client from config
func NewClient(cfg config.BackendConfig, logger *loggy.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		limiter:    newLimiter(cfg.RequestsPerMinute, cfg.BurstLimit),
		logger:     logger,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// newLimiter creates a rate limiter from requests per minute and burst
func newLimiter(rpm, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// ListChats returns the chats of a dataset in the backend's canonical order
func (c *Client) ListChats(ctx context.Context, ds dataset.Ref) ([]dataset.ChatRow, error) {
	var rows []dataset.ChatRow
	path := fmt.Sprintf("/api/datasets/%s/chats", url.PathEscape(string(ds)))
	if err := c.do(ctx, http.MethodGet, path, nil, &rows, c.maxRetries); err != nil {
		return nil, fmt.Errorf("listing chats of %s: %w", ds, err)
	}
	for i := range rows {
		rows[i].Dataset = ds
	}
	return rows, nil
}

// ListUsers returns the users of a dataset in the backend's canonical order
func (c *Client) ListUsers(ctx context.Context, ds dataset.Ref) ([]dataset.UserRow, error) {
	var users []dataset.User
	path := fmt.Sprintf("/api/datasets/%s/users", url.PathEscape(string(ds)))
	if err := c.do(ctx, http.MethodGet, path, nil, &users, c.maxRetries); err != nil {
		return nil, fmt.Errorf("listing users of %s: %w", ds, err)
	}

	rows := make([]dataset.UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, dataset.UserRow{User: u, Dataset: ds})
	}
	return rows, nil
}

// AnalyzeChatPair compares a master chat with a slave chat
func (c *Client) AnalyzeChatPair(ctx context.Context, master, slave dataset.ChatRef) (*dataset.ChatAnalysis, error) {
	var result dataset.ChatAnalysis
	body := AnalyzeRequest{Master: master, Slave: slave}
	if err := c.do(ctx, http.MethodPost, "/api/analyze", body, &result, c.maxRetries); err != nil {
		return nil, fmt.Errorf("analyzing chat %d: %w", master.ChatID, err)
	}
	// the analysis always describes the pair that was asked for
	result.MasterChat, result.SlaveChat = master, slave
	return &result, nil
}

// FetchBoundedSlice returns messages first..last of a chat, eliding the middle when
// there are more than combinedLimit
func (c *Client) FetchBoundedSlice(ctx context.Context, chat dataset.ChatRef, first, last dataset.MessageID, combinedLimit, abbreviatedLimit int) (*dataset.MessageSlice, error) {
	var slice dataset.MessageSlice
	body := SliceRequest{
		Chat:             chat,
		FirstID:          first,
		LastID:           last,
		CombinedLimit:    combinedLimit,
		AbbreviatedLimit: abbreviatedLimit,
	}
	if err := c.do(ctx, http.MethodPost, "/api/slice", body, &slice, c.maxRetries); err != nil {
		return nil, fmt.Errorf("fetching messages of chat %d: %w", chat.ChatID, err)
	}
	return &slice, nil
}

// ExecuteMerge sends a finished merge request. It is never retried: the backend
// may already have applied a request whose response got lost.
func (c *Client) ExecuteMerge(ctx context.Context, req *merge.Request) (*MergeResponse, error) {
	var resp MergeResponse
	if err := c.do(ctx, http.MethodPost, "/api/merge", req, &resp, 0); err != nil {
		return nil, fmt.Errorf("executing merge: %w", err)
	}
	if !resp.Success {
		msg := resp.ErrorMessage
		if msg == "" {
			msg = resp.Message
		}
		return &resp, fmt.Errorf("merge rejected by backend: %s", msg)
	}
	return &resp, nil
}

// VerifyToken checks whether the configured token is accepted
func (c *Client) VerifyToken(ctx context.Context) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/api/auth/verify", nil, nil, c.maxRetries)
	if err == nil {
		return true, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return false, nil
	}
	return false, err
}

// do sends one JSON request, retrying transport errors and 5xx responses up to
// retries times. Any other status fails immediately with an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any, retries int) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("waiting for rate limiter: %w", err))
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Debug("Backend request failed", "method", method, "path", path, "attempt", attempt, "error", err)
			return fmt.Errorf("executing request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := parseAPIError(resp.StatusCode, respBody)
			c.logger.Debug("Backend error response", "method", method, "path", path,
				"status", resp.StatusCode, "attempt", attempt)
			if apiErr.Temporary() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if retries > 0 {
		policy = backoff.WithMaxRetries(c.newBackOff(), uint64(retries))
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		if attempt > 1 {
			c.logger.Warn("Backend request gave up", "method", method, "path", path, "attempts", attempt, "error", err)
		}
		return err
	}
	return nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.Message == "" && apiErr.ErrorCode == "") {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	apiErr.StatusCode = status
	return apiErr
}
