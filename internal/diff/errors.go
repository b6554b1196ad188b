package diff

import "errors"

var (
	// ErrInvalidAbbreviation is returned when an abbreviation would hide nothing or show an empty end
	ErrInvalidAbbreviation = errors.New("invalid abbreviation")
	// ErrInvariant is returned when an entry or model breaks the diff side rules
	ErrInvariant = errors.New("diff invariant violated")
	// ErrNotToggleable is returned when toggling an entry the user cannot decide on
	ErrNotToggleable = errors.New("entry is not toggleable")
)
