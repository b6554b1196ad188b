// Package diff models the reconciliation of two ordered collections (master and slave)
// and builds those models for chats, users and messages.
package diff

import "fmt"

// Units is one side of a diff entry: either every item (Flat) or the two ends of a
// long run with the middle elided (Abbreviated). The set of variants is closed; use
// MatchUnits to branch on it.
type Units[T any] interface {
	// Len is the logical number of items, including elided ones
	Len() int
	isUnits(T)
}

// Flat is a fully listed run of items
type Flat[T any] []T

func (Flat[T]) isUnits(T) {}

// Len returns the number of items
func (f Flat[T]) Len() int { return len(f) }

// Abbreviated is a long run shown by its first and last items
type Abbreviated[T any] struct {
	leading  []T
	elided   int
	trailing []T
}

func (Abbreviated[T]) isUnits(T) {}

// NewAbbreviated builds an abbreviated run. It fails with ErrInvalidAbbreviation
// unless elided is positive and both ends are non-empty.
func NewAbbreviated[T any](leading []T, elided int, trailing []T) (Abbreviated[T], error) {
	if elided <= 0 {
		return Abbreviated[T]{}, fmt.Errorf("%w: elided count %d must be positive", ErrInvalidAbbreviation, elided)
	}
	if len(leading) == 0 {
		return Abbreviated[T]{}, fmt.Errorf("%w: leading items are empty", ErrInvalidAbbreviation)
	}
	if len(trailing) == 0 {
		return Abbreviated[T]{}, fmt.Errorf("%w: trailing items are empty", ErrInvalidAbbreviation)
	}
	return Abbreviated[T]{leading: leading, elided: elided, trailing: trailing}, nil
}

// Leading returns the items shown before the elision
func (a Abbreviated[T]) Leading() []T { return a.leading }

// Elided returns the number of hidden items
func (a Abbreviated[T]) Elided() int { return a.elided }

// Trailing returns the items shown after the elision
func (a Abbreviated[T]) Trailing() []T { return a.trailing }

// Len returns the number of items including the elided ones
func (a Abbreviated[T]) Len() int { return len(a.leading) + a.elided + len(a.trailing) }

// UnitsFromSlice picks the variant for a bounded slice: Flat when nothing was
// elided, Abbreviated otherwise.
func UnitsFromSlice[T any](leading []T, elided int, trailing []T) (Units[T], error) {
	if elided == 0 {
		items := make(Flat[T], 0, len(leading)+len(trailing))
		items = append(items, leading...)
		items = append(items, trailing...)
		return items, nil
	}
	a, err := NewAbbreviated(leading, elided, trailing)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Empty returns an empty side
func Empty[T any]() Units[T] {
	return Flat[T](nil)
}

// MatchUnits calls the handler for the variant of u. A nil u is treated as an empty Flat.
func MatchUnits[T, R any](u Units[T], flat func(Flat[T]) R, abbreviated func(Abbreviated[T]) R) R {
	switch v := u.(type) {
	case nil:
		return flat(nil)
	case Flat[T]:
		return flat(v)
	case Abbreviated[T]:
		return abbreviated(v)
	default:
		panic(fmt.Sprintf("diff: unknown units variant %T", u))
	}
}

// IsEmpty reports whether the side holds no items
func IsEmpty[T any](u Units[T]) bool {
	return u == nil || u.Len() == 0
}

// Visible returns the items that are actually present, skipping elided ones
func Visible[T any](u Units[T]) []T {
	return MatchUnits(u,
		func(f Flat[T]) []T { return f },
		func(a Abbreviated[T]) []T {
			items := make([]T, 0, len(a.leading)+len(a.trailing))
			items = append(items, a.leading...)
			return append(items, a.trailing...)
		},
	)
}

// First returns the first visible item
func First[T any](u Units[T]) (T, bool) {
	items := Visible(u)
	if len(items) == 0 {
		var zero T
		return zero, false
	}
	return items[0], true
}
