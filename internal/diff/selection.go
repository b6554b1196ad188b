package diff

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Selection is an immutable set of entry indices. Every operation returns a new value.
type Selection struct {
	idx map[int]struct{}
}

// NewSelection builds a selection from indices
func NewSelection(indices ...int) Selection {
	s := Selection{idx: make(map[int]struct{}, len(indices))}
	for _, i := range indices {
		s.idx[i] = struct{}{}
	}
	return s
}

// Has reports whether index i is selected
func (s Selection) Has(i int) bool {
	_, ok := s.idx[i]
	return ok
}

// Len returns the number of selected indices
func (s Selection) Len() int {
	return len(s.idx)
}

// Indices returns the selected indices in ascending order
func (s Selection) Indices() []int {
	out := make([]int, 0, len(s.idx))
	for i := range s.idx {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Equal reports whether both selections hold the same indices
func (s Selection) Equal(other Selection) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.idx {
		if !other.Has(i) {
			return false
		}
	}
	return true
}

// ContainsAll reports whether every index of other is selected
func (s Selection) ContainsAll(other Selection) bool {
	for i := range other.idx {
		if !s.Has(i) {
			return false
		}
	}
	return true
}

// With returns a copy of s with i added
func (s Selection) With(i int) Selection {
	out := s.clone()
	out.idx[i] = struct{}{}
	return out
}

// Without returns a copy of s with i removed
func (s Selection) Without(i int) Selection {
	out := s.clone()
	delete(out.idx, i)
	return out
}

// Union returns the indices in s or other
func (s Selection) Union(other Selection) Selection {
	out := s.clone()
	for i := range other.idx {
		out.idx[i] = struct{}{}
	}
	return out
}

// Minus returns the indices in s but not in other
func (s Selection) Minus(other Selection) Selection {
	out := NewSelection()
	for i := range s.idx {
		if !other.Has(i) {
			out.idx[i] = struct{}{}
		}
	}
	return out
}

// Intersect returns the indices in both s and other
func (s Selection) Intersect(other Selection) Selection {
	out := NewSelection()
	for i := range s.idx {
		if other.Has(i) {
			out.idx[i] = struct{}{}
		}
	}
	return out
}

func (s Selection) clone() Selection {
	out := Selection{idx: make(map[int]struct{}, len(s.idx)+1)}
	for i := range s.idx {
		out.idx[i] = struct{}{}
	}
	return out
}

// String formats the selection as a sorted index list
func (s Selection) String() string {
	return fmt.Sprint(s.Indices())
}

// MarshalJSON encodes the selection as a sorted array
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Indices())
}

// UnmarshalJSON decodes a selection from an array of indices
func (s *Selection) UnmarshalJSON(data []byte) error {
	var indices []int
	if err := json.Unmarshal(data, &indices); err != nil {
		return err
	}
	*s = NewSelection(indices...)
	return nil
}

// Toggleable returns the indices of the model's Change and Add entries
func Toggleable[T any](m Model[T]) Selection {
	out := NewSelection()
	for i, e := range m {
		if e.Type.Toggleable() {
			out.idx[i] = struct{}{}
		}
	}
	return out
}

// Toggle flips index i in s. Only Change and Add entries can be toggled.
func Toggle[T any](m Model[T], s Selection, i int) (Selection, error) {
	if i < 0 || i >= len(m) {
		return s, fmt.Errorf("%w: index %d out of range [0,%d)", ErrNotToggleable, i, len(m))
	}
	if !m[i].Type.Toggleable() {
		return s, fmt.Errorf("%w: entry %d is %s", ErrNotToggleable, i, m[i].Type)
	}
	if s.Has(i) {
		return s.Without(i), nil
	}
	return s.With(i), nil
}

// ToggleAll selects every toggleable entry, or deselects exactly those when all of
// them are already selected. Indices outside the toggleable set are never touched.
func ToggleAll[T any](m Model[T], s Selection) Selection {
	all := Toggleable(m)
	if s.ContainsAll(all) {
		return s.Minus(all)
	}
	return s.Union(all)
}

// Restrict keeps only the toggleable indices of s
func Restrict[T any](m Model[T], s Selection) Selection {
	return s.Intersect(Toggleable(m))
}
