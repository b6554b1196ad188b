// Package wizard drives a merge session through its stages: select chats, select
// users, review the messages of every changed chat, and finally merge.
//
// Stages are immutable values. Reduce is the only way to move from one stage to the
// next and it never performs I/O; the backend calls live in Steps, which return the
// events Reduce consumes.
package wizard

import (
	"slices"

	"github.com/tildaslashalef/chatmerge/internal/analysis"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
	"github.com/tildaslashalef/chatmerge/internal/merge"
)

// Stage is one step of the wizard. The set of stages is closed.
type Stage interface {
	Name() string
	isStage()
}

// Warning is a non-fatal problem surfaced to the user
type Warning struct {
	ChatID  int64
	Message string
}

// Session is everything accumulated once chats are confirmed
type Session struct {
	Master dataset.Ref
	Slave  dataset.Ref

	Chats          diff.Model[dataset.ChatRow]
	ChatsSelection diff.Selection

	Users          diff.Model[dataset.UserRow]
	UsersSelection diff.Selection
	ActiveUserIDs  dataset.IDSet

	// Analyses holds the consumed analyses; Resolutions[i] are the section indices
	// chosen for Analyses[i]. Pending is consumed from the front.
	Analyses    []*dataset.ChatAnalysis
	Resolutions []diff.Selection
	Pending     []*analysis.Future

	Warnings []Warning
}

// MergeInput returns the synthesizer input for the session
func (s Session) MergeInput() merge.Input {
	return merge.Input{
		Master:         s.Master,
		Slave:          s.Slave,
		Chats:          s.Chats,
		ChatsSelection: s.ChatsSelection,
		Users:          s.Users,
		UsersSelection: s.UsersSelection,
		ActiveUserIDs:  s.ActiveUserIDs,
		Analyses:       s.Analyses,
		Resolutions:    s.Resolutions,
	}
}

// consumed returns a copy of s with analysis a and its resolution appended and the
// front pending future removed
func (s Session) consumed(a *dataset.ChatAnalysis, resolution diff.Selection) Session {
	s.Analyses = append(slices.Clip(s.Analyses), a)
	s.Resolutions = append(slices.Clip(s.Resolutions), resolution)
	return s
}

func (s Session) popPending() Session {
	s.Pending = slices.Clip(s.Pending[1:])
	return s
}

func (s Session) warn(w Warning) Session {
	s.Warnings = append(slices.Clip(s.Warnings), w)
	return s
}

// Loading waits for both chat lists
type Loading struct {
	Master dataset.Ref
	Slave  dataset.Ref
}

// SelectChats lets the user pick which changed and added chats to merge
type SelectChats struct {
	Master         dataset.Ref
	Slave          dataset.Ref
	Chats          diff.Model[dataset.ChatRow]
	ChatsSelection diff.Selection
}

// SelectUsers lets the user pick which changed users to replace
type SelectUsers struct {
	Session
}

// Analyzing drains the pending analyses
type Analyzing struct {
	Session
}

// SelectMessages lets the user resolve the sections of one analyzed chat
type SelectMessages struct {
	Session
	Pair              analysis.Pair
	Analysis          *dataset.ChatAnalysis
	Messages          diff.Model[dataset.MessageRow]
	MessagesSelection diff.Selection
}

// Merging is terminal: every decision is known
type Merging struct {
	Session
}

func (Loading) isStage()        {}
func (SelectChats) isStage()    {}
func (SelectUsers) isStage()    {}
func (Analyzing) isStage()      {}
func (SelectMessages) isStage() {}
func (Merging) isStage()        {}

func (Loading) Name() string        { return "loading" }
func (SelectChats) Name() string    { return "select_chats" }
func (SelectUsers) Name() string    { return "select_users" }
func (Analyzing) Name() string      { return "analyzing" }
func (SelectMessages) Name() string { return "select_messages" }
func (Merging) Name() string        { return "merging" }

// SessionOf returns the session carried by stage, if any
func SessionOf(stage Stage) (Session, bool) {
	switch s := stage.(type) {
	case SelectUsers:
		return s.Session, true
	case Analyzing:
		return s.Session, true
	case SelectMessages:
		return s.Session, true
	case Merging:
		return s.Session, true
	default:
		return Session{}, false
	}
}

// ActiveUserIDs returns the members of every chat that will exist after the merge:
// Keep and NoChange chats, plus selected Change and Add chats.
func ActiveUserIDs(chats diff.Model[dataset.ChatRow], selection diff.Selection) dataset.IDSet {
	active := dataset.NewIDSet()
	for i, e := range chats {
		switch e.Type {
		case diff.Keep, diff.NoChange:
		case diff.Change, diff.Add:
			if !selection.Has(i) {
				continue
			}
		default:
			continue
		}
		for _, side := range []diff.Units[dataset.ChatRow]{e.Left, e.Right} {
			for _, row := range diff.Visible(side) {
				active.Add(row.MemberIDs()...)
			}
		}
	}
	return active
}

// ChangedPairs returns the analysis pairs of every selected Change chat, in model
// order. Each master chat is paired with its first slave row.
func ChangedPairs(chats diff.Model[dataset.ChatRow], selection diff.Selection) []analysis.Pair {
	var pairs []analysis.Pair
	for i, e := range chats {
		if e.Type != diff.Change || !selection.Has(i) {
			continue
		}
		master, okMaster := diff.First(e.Left)
		slave, okSlave := diff.First(e.Right)
		if !okMaster || !okSlave {
			continue
		}
		pairs = append(pairs, analysis.Pair{Master: master, Slave: slave})
	}
	return pairs
}
