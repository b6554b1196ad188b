package analysis

import (
	"errors"
	"fmt"
)

// TooManySectionsError rejects one chat whose analysis is too fragmented to review.
// It is soft: the chat is skipped and the rest of the batch continues.
type TooManySectionsError struct {
	ChatID   int64
	Sections int
	Limit    int
}

func (e *TooManySectionsError) Error() string {
	return fmt.Sprintf("chat %d has %d analysis sections, more than the limit of %d", e.ChatID, e.Sections, e.Limit)
}

// BatchError is the failure that ended a batch. Every future still pending when the
// failure happened is rejected with it.
type BatchError struct {
	ChatID int64 // chat whose analysis failed
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("analysis of chat %d failed: %v", e.ChatID, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// ErrEmptyAnalysis is returned when the backend answers without an analysis
var ErrEmptyAnalysis = errors.New("backend returned no analysis")

// IsSoft reports whether err only skips one chat instead of aborting the session
func IsSoft(err error) bool {
	var tooMany *TooManySectionsError
	return errors.As(err, &tooMany)
}
