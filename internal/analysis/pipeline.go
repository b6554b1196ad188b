// Package analysis runs the backend's chat-pair analysis for a batch of chats. Results
// are handed out as pre-allocated futures in chat order, while one background
// goroutine performs the calls strictly one after another.
package analysis

import (
	"context"
	"fmt"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
)

// DefaultMaxSections is the section ceiling used when Options leaves it unset
const DefaultMaxSections = 500

// Analyzer compares one master chat with one slave chat
type Analyzer interface {
	AnalyzeChatPair(ctx context.Context, master, slave dataset.ChatRef) (*dataset.ChatAnalysis, error)
}

// Pair is a master chat and the slave chat it is compared with
type Pair struct {
	Master dataset.ChatRow
	Slave  dataset.ChatRow
}

// ChatID returns the id shared by both chats
func (p Pair) ChatID() int64 {
	return p.Master.Chat.ID
}

// Options configures a batch
type Options struct {
	MaxSections int
	Logger      *loggy.Logger
}

// Start allocates one future per pair, launches the batch in the background and
// returns the futures immediately in pair order.
//
// A result with more than MaxSections sections rejects only its own future with a
// *TooManySectionsError. Any other failure rejects that future and every later one
// with a *BatchError; futures settled earlier keep their values. Cancelling ctx stops
// the batch after the in-flight call and rejects the remaining futures with ctx's error.
func Start(ctx context.Context, analyzer Analyzer, pairs []Pair, opts Options) []*Future {
	if opts.MaxSections <= 0 {
		opts.MaxSections = DefaultMaxSections
	}
	if opts.Logger == nil {
		opts.Logger = loggy.FromContext(ctx)
	}

	futures := make([]*Future, len(pairs))
	for i, p := range pairs {
		futures[i] = newFuture(p)
	}

	if len(futures) > 0 {
		go run(ctx, analyzer, futures, opts)
	}

	return futures
}

func run(ctx context.Context, analyzer Analyzer, futures []*Future, opts Options) {
	logger := opts.Logger

	for i, f := range futures {
		if err := ctx.Err(); err != nil {
			logger.Debug("Analysis batch cancelled", "remaining", len(futures)-i)
			rejectFrom(futures, i, fmt.Errorf("analysis cancelled: %w", err))
			return
		}

		pair := f.Pair()
		result, err := analyzer.AnalyzeChatPair(ctx, pair.Master.Ref(), pair.Slave.Ref())
		if err == nil && result == nil {
			err = ErrEmptyAnalysis
		}
		if err != nil {
			if ctx.Err() != nil {
				rejectFrom(futures, i, fmt.Errorf("analysis cancelled: %w", ctx.Err()))
				return
			}
			logger.Error("Chat analysis failed, rejecting rest of batch",
				"chat_id", pair.ChatID(), "remaining", len(futures)-i, "error", err)
			rejectFrom(futures, i, &BatchError{ChatID: pair.ChatID(), Err: err})
			return
		}

		if n := len(result.Sections); n > opts.MaxSections {
			logger.Warn("Chat analysis exceeds section limit", "chat_id", pair.ChatID(), "sections", n, "limit", opts.MaxSections)
			f.reject(&TooManySectionsError{ChatID: pair.ChatID(), Sections: n, Limit: opts.MaxSections})
			continue
		}

		logger.Debug("Chat analyzed", "chat_id", pair.ChatID(), "sections", len(result.Sections))
		f.resolve(result)
	}
}

func rejectFrom(futures []*Future, start int, err error) {
	for _, f := range futures[start:] {
		f.reject(err)
	}
}
