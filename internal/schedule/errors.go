package schedule

import "fmt"

// ConflictError reports that a requested range overlaps an existing booking.
type ConflictError struct {
	Blocking Booking
}

func (e *ConflictError) Error() string {
	b := e.Blocking
	return fmt.Sprintf("time conflict with %s %s (%s, room %q) on %s %s-%s",
		b.SessionType, b.ClassRef, b.ID, b.Room, b.Day, b.Start, b.End)
}

type InvalidMergeError struct {
	Reason string
}

func (e *InvalidMergeError) Error() string {
	return "invalid merge: " + e.Reason
}

type InvalidSplitError struct {
	ID     SessionID
	Reason string
}

func (e *InvalidSplitError) Error() string {
	return fmt.Sprintf("invalid split of %s: %s", e.ID, e.Reason)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ValidationError rejects malformed input at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func sessionNotFound(id SessionID) error {
	return &NotFoundError{Kind: "session", ID: id}
}

func templateNotFound(id string) error {
	return &NotFoundError{Kind: "template", ID: id}
}
