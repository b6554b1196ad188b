package merge

import (
	"github.com/tildaslashalef/chatmerge/internal/backend"
	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

// stepMsg carries the event produced by a wizard step
type stepMsg struct {
	event wizard.Event
	err   error
}

// executedMsg is sent when the backend finished the merge
type executedMsg struct {
	resp *backend.MergeResponse
	err  error
}
