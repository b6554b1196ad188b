package merge

import (
	"context"

	"github.com/tildaslashalef/chatmerge/internal/backend"
	"github.com/tildaslashalef/chatmerge/internal/config"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/history"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

// Status represents the current status of the TUI
type Status int

const (
	// StatusLoading waits for both chat lists
	StatusLoading Status = iota
	// StatusSelecting waits for the user to choose chats, users or sections
	StatusSelecting
	// StatusWorking waits for users or analyses
	StatusWorking
	// StatusExecuting waits for the backend to run the merge
	StatusExecuting
	// StatusDone shows the plan summary
	StatusDone
	// StatusError shows the error that ended the session
	StatusError
)

// busy reports whether the spinner should run
func (s Status) busy() bool {
	return s == StatusLoading || s == StatusWorking || s == StatusExecuting
}

// Options contains options for a merge session
type Options struct {
	Master dataset.Ref
	Slave  dataset.Ref
	// DryRun builds the request without sending it
	DryRun bool
}

// Executor sends a finished request to the backend
type Executor interface {
	ExecuteMerge(ctx context.Context, req *merge.Request) (*backend.MergeResponse, error)
}

// Deps are the collaborators of the TUI
type Deps struct {
	Backend  wizard.Backend
	Executor Executor
	Merge    config.MergeConfig
	Logger   *loggy.Logger
	// Record stores the session outcome; nil skips recording
	Record func(ctx context.Context, s *history.Session)
}
