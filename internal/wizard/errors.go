package wizard

import "errors"

var (
	// ErrUnexpectedEvent is returned when an event does not apply to the current stage
	ErrUnexpectedEvent = errors.New("unexpected event for stage")
	// ErrClosed is returned by a wizard after Close
	ErrClosed = errors.New("wizard is closed")
)
