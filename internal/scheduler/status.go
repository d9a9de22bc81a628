package scheduler

import "fmt"

// Status is the lifecycle state of a schedule entry.
type Status string

const (
	// StatusScheduled is the initial state of every entry.
	StatusScheduled Status = "scheduled"
	// StatusInProgress indicates a crew has started the visit.
	StatusInProgress Status = "in-progress"
	// StatusCompleted is terminal; the visit finished.
	StatusCompleted Status = "completed"
	// StatusCancelled is terminal; the visit was aborted before completion.
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status value.
func ParseStatus(value string) (Status, error) {
	status := Status(value)
	if !status.Valid() {
		return "", fmt.Errorf("scheduler: unknown status %q", value)
	}
	return status, nil
}

// Valid reports whether the status is one of the enumerated states.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Statuses lists every lifecycle state in progression order.
func Statuses() []Status {
	return []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}
}

// Collection work is physically sequential: a crew starts, then finishes or
// aborts. The table enumerates every legal transition; everything else,
// including no-op transitions and any move out of a terminal state, is
// rejected.
var transitions = map[Status]map[Status]struct{}{
	StatusScheduled: {
		StatusInProgress: {},
		StatusCancelled:  {},
	},
	StatusInProgress: {
		StatusCompleted: {},
		StatusCancelled: {},
	},
}

// IllegalTransitionError reports a lifecycle move outside the transition table.
type IllegalTransitionError struct {
	From Status
	To   Status
}

// Error implements the error interface.
func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("scheduler: illegal transition from %s to %s", e.From, e.To)
}

// ValidateTransition reports whether current may move to requested. It is a
// pure function; callers commit the change only after it returns nil.
func ValidateTransition(current, requested Status) error {
	if allowed, ok := transitions[current]; ok {
		if _, ok := allowed[requested]; ok {
			return nil
		}
	}
	return &IllegalTransitionError{From: current, To: requested}
}
