package analysis

import (
	"context"
	"sync"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
)

// Future is a single-assignment slot for one chat's analysis. It is safe to await
// from any goroutine; the first resolution wins.
type Future struct {
	pair Pair

	once  sync.Once
	done  chan struct{}
	value *dataset.ChatAnalysis
	err   error
}

func newFuture(pair Pair) *Future {
	return &Future{pair: pair, done: make(chan struct{})}
}

// Pair returns the chat pair this future analyzes
func (f *Future) Pair() Pair {
	return f.pair
}

// Done is closed once the future is resolved or rejected
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future already holds a value or an error
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx is done
func (f *Future) Await(ctx context.Context) (*dataset.ChatAnalysis, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) resolve(value *dataset.ChatAnalysis) {
	f.settle(value, nil)
}

func (f *Future) reject(err error) {
	f.settle(nil, err)
}

func (f *Future) settle(value *dataset.ChatAnalysis, err error) {
	f.once.Do(func() {
		f.value, f.err = value, err
		close(f.done)
	})
}

// Resolved returns an already settled future. Useful for tests and for callers that
// have an analysis in hand.
func Resolved(pair Pair, value *dataset.ChatAnalysis, err error) *Future {
	f := newFuture(pair)
	f.settle(value, err)
	return f
}
