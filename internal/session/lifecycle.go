// Package session holds the therapy-session state machine: which lifecycle
// transitions are legal, how the waiting list moves entrants into the
// participant list, and the polling loop that tracks a live session.
package session

import (
	"errors"
	"fmt"

	"mindwell/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotWaiting        = errors.New("entrant is not on the waiting list")
)

// CanStart reports whether a session in the given state may start.
// Cancelled and Completed are terminal; starting from them never happens.
func CanStart(status models.SessionStatus) bool {
	return status == models.SessionScheduled
}

// CanEnd reports whether a session may be ended. Completion is only
// reachable from In Progress, and only via the explicit end action.
func CanEnd(status models.SessionStatus) bool {
	return status == models.SessionInProgress
}

// CanCancel reports whether a session may be cancelled
func CanCancel(status models.SessionStatus) bool {
	return status == models.SessionScheduled
}

// CheckTransition validates a lifecycle move and returns a descriptive
// error when it is illegal.
func CheckTransition(from, to models.SessionStatus) error {
	ok := false
	switch to {
	case models.SessionInProgress:
		ok = CanStart(from)
	case models.SessionCompleted:
		ok = CanEnd(from)
	case models.SessionCancelled:
		ok = CanCancel(from)
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Approve moves a named entrant from the waiting list to the participant
// list, leaving every other entry untouched. The two lists stay disjoint.
// The returned metadata is a new document, ready for a full-document update.
func Approve(meta models.SessionMetadata, name string) (models.SessionMetadata, error) {
	waiting, found := remove(meta.Waiting, name)
	if !found {
		return meta, fmt.Errorf("approve %q: %w", name, ErrNotWaiting)
	}
	out := meta
	out.Waiting = waiting
	out.Participants = append(append([]string(nil), meta.Participants...), name)
	return out, nil
}

// Deny removes a named entrant from the waiting list without adding them
// to the participants.
func Deny(meta models.SessionMetadata, name string) (models.SessionMetadata, error) {
	waiting, found := remove(meta.Waiting, name)
	if !found {
		return meta, fmt.Errorf("deny %q: %w", name, ErrNotWaiting)
	}
	out := meta
	out.Waiting = waiting
	out.Participants = append([]string(nil), meta.Participants...)
	return out, nil
}

func remove(list []string, name string) ([]string, bool) {
	out := make([]string, 0, len(list))
	found := false
	for _, entry := range list {
		if entry == name && !found {
			found = true
			continue
		}
		out = append(out, entry)
	}
	return out, found
}
