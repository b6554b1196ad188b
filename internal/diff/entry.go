package diff

import (
	"fmt"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
)

// Type classifies a diff entry
type Type string

const (
	// NoChange pairs equal items on both sides
	NoChange Type = "no_change"
	// Change pairs items that differ between master and slave
	Change Type = "change"
	// Add is a slave-only item that will be added
	Add Type = "add"
	// DontAdd is a slave-only item that is out of scope for the merge
	DontAdd Type = "dont_add"
	// Keep is a master-only item that is retained
	Keep Type = "keep"
)

// Toggleable reports whether entries of this type carry a user decision
func (t Type) Toggleable() bool {
	return t == Change || t == Add
}

// Entry is one row of a diff model
type Entry[T any] struct {
	Type  Type
	Left  Units[T] // master side
	Right Units[T] // slave side
}

// Model is an ordered list of diff entries. Order follows the source collections.
type Model[T any] []Entry[T]

// ValidateEntry checks the side rules for the entry type: NoChange and Change have
// both sides, Add and DontAdd have no master side, Keep has no slave side.
func ValidateEntry[T any](e Entry[T]) error {
	left, right := !IsEmpty(e.Left), !IsEmpty(e.Right)

	switch e.Type {
	case NoChange, Change:
		if !left || !right {
			return fmt.Errorf("%w: %s entry needs both sides", ErrInvariant, e.Type)
		}
	case Add, DontAdd:
		if left {
			return fmt.Errorf("%w: %s entry must have an empty master side", ErrInvariant, e.Type)
		}
		if !right {
			return fmt.Errorf("%w: %s entry needs a slave side", ErrInvariant, e.Type)
		}
	case Keep:
		if right {
			return fmt.Errorf("%w: keep entry must have an empty slave side", ErrInvariant)
		}
		if !left {
			return fmt.Errorf("%w: keep entry needs a master side", ErrInvariant)
		}
	default:
		return fmt.Errorf("%w: unknown entry type %q", ErrInvariant, e.Type)
	}
	return nil
}

// Validate checks every entry of the model
func (m Model[T]) Validate() error {
	for i, e := range m {
		if err := ValidateEntry(e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// Count returns the number of entries of type t
func (m Model[T]) Count(t Type) int {
	n := 0
	for _, e := range m {
		if e.Type == t {
			n++
		}
	}
	return n
}

// ValidateChatModel checks a chat model: side rules, plus exactly one master row for
// Change and Keep entries.
func ValidateChatModel(m Model[dataset.ChatRow]) error {
	if err := m.Validate(); err != nil {
		return err
	}
	for i, e := range m {
		if e.Type != Change && e.Type != Keep {
			continue
		}
		if n := e.Left.Len(); n != 1 {
			return fmt.Errorf("entry %d: %w: %s chat entry has %d master rows", i, ErrInvariant, e.Type, n)
		}
	}
	return nil
}

// MasterChat returns the master row of a chat entry
func MasterChat(e Entry[dataset.ChatRow]) (dataset.ChatRow, bool) {
	return First(e.Left)
}

// ChatID returns the id of the chat an entry describes, master side first
func ChatID(e Entry[dataset.ChatRow]) int64 {
	if row, ok := First(e.Left); ok {
		return row.Chat.ID
	}
	row, _ := First(e.Right)
	return row.Chat.ID
}
