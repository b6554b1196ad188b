package backend

import (
	"fmt"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
)

// APIError represents an error response from the backend
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	ErrorCode  string `json:"error"`
}

func (e *APIError) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d: %s - %s", e.StatusCode, e.ErrorCode, e.Message)
}

// Temporary reports whether retrying the request may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

// AnalyzeRequest asks the backend to compare two chats
type AnalyzeRequest struct {
	Master dataset.ChatRef `json:"master"`
	Slave  dataset.ChatRef `json:"slave"`
}

// SliceRequest asks for a bounded window of a chat's messages
type SliceRequest struct {
	Chat             dataset.ChatRef   `json:"chat"`
	FirstID          dataset.MessageID `json:"first_id"`
	LastID           dataset.MessageID `json:"last_id"`
	CombinedLimit    int               `json:"combined_limit"`
	AbbreviatedLimit int               `json:"abbreviated_limit"`
}

// MergeResponse is the backend's answer to an executed merge
type MergeResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
