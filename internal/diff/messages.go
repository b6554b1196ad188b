package diff

import (
	"context"
	"fmt"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
)

// SliceFetcher returns a bounded window of a chat's messages between two ids.
// Ranges longer than combinedLimit come back with abbreviatedLimit items at each
// end and the rest elided.
type SliceFetcher interface {
	FetchBoundedSlice(ctx context.Context, chat dataset.ChatRef, first, last dataset.MessageID, combinedLimit, abbreviatedLimit int) (*dataset.MessageSlice, error)
}

// SliceLimits bounds how many messages a section side may show
type SliceLimits struct {
	Combined    int
	Abbreviated int
}

// DefaultSliceLimits returns the limits used when none are configured
func DefaultSliceLimits() SliceLimits {
	return SliceLimits{Combined: 10, Abbreviated: 3}
}

var sectionEntryTypes = map[dataset.SectionType]Type{
	dataset.SectionMatch:     NoChange,
	dataset.SectionConflict:  Change,
	dataset.SectionRetention: Keep,
	dataset.SectionAddition:  Add,
}

// EntryTypeFor maps an analysis section type to the diff entry type it produces
func EntryTypeFor(t dataset.SectionType) (Type, bool) {
	et, ok := sectionEntryTypes[t]
	return et, ok
}

// BuildMessages turns a chat analysis into a message model with one entry per section,
// in section order, so entry i always describes section i. Fetch failures abort the build.
func BuildMessages(ctx context.Context, fetcher SliceFetcher, analysis *dataset.ChatAnalysis, master, slave dataset.ChatRow, limits SliceLimits) (Model[dataset.MessageRow], error) {
	if analysis == nil {
		return nil, fmt.Errorf("%w: nil analysis", ErrInvariant)
	}

	model := make(Model[dataset.MessageRow], 0, len(analysis.Sections))
	for i, section := range analysis.Sections {
		t, ok := EntryTypeFor(section.Type)
		if !ok {
			return nil, fmt.Errorf("section %d: %w: unknown section type %q", i, ErrInvariant, section.Type)
		}

		left := Empty[dataset.MessageRow]()
		if section.Range.HasMaster() {
			units, err := fetchSide(ctx, fetcher, master, section.Range.FirstMasterID, section.Range.LastMasterID, limits)
			if err != nil {
				return nil, fmt.Errorf("section %d master side: %w", i, err)
			}
			left = units
		}

		right := Empty[dataset.MessageRow]()
		if section.Range.HasSlave() {
			units, err := fetchSide(ctx, fetcher, slave, section.Range.FirstSlaveID, section.Range.LastSlaveID, limits)
			if err != nil {
				return nil, fmt.Errorf("section %d slave side: %w", i, err)
			}
			right = units
		}

		entry := Entry[dataset.MessageRow]{Type: t, Left: left, Right: right}
		if err := ValidateEntry(entry); err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		model = append(model, entry)
	}

	return model, nil
}

func fetchSide(ctx context.Context, fetcher SliceFetcher, chat dataset.ChatRow, first, last dataset.MessageID, limits SliceLimits) (Units[dataset.MessageRow], error) {
	slice, err := fetcher.FetchBoundedSlice(ctx, chat.Ref(), first, last, limits.Combined, limits.Abbreviated)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages %s..%s of chat %d: %w", first, last, chat.Chat.ID, err)
	}
	if slice == nil {
		return nil, fmt.Errorf("failed to fetch messages %s..%s of chat %d: empty response", first, last, chat.Chat.ID)
	}

	return UnitsFromSlice(toRows(slice.Leading, chat), slice.Elided, toRows(slice.Trailing, chat))
}

func toRows(messages []dataset.Message, chat dataset.ChatRow) []dataset.MessageRow {
	rows := make([]dataset.MessageRow, 0, len(messages))
	for _, m := range messages {
		rows = append(rows, dataset.MessageRow{Message: m, Chat: chat.Chat, Dataset: chat.Dataset})
	}
	return rows
}
