package workflow

import "errors"

// Sentinel errors for workflow operations. Callers match with errors.Is;
// the HTTP handler maps each kind to a status code.
var (
	// ErrUnauthorized means the actor lacks the role or ownership the
	// action requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition means the action has no table entry for the
	// article's current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrMissingPayload means a required payload field is absent.
	ErrMissingPayload = errors.New("missing payload")

	// ErrConflict means the article's state changed between validation
	// and the write. The caller may retry with fresh state.
	ErrConflict = errors.New("workflow conflict")

	// ErrNotFound means the article or the target reviewer does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable means the article store failed mid-transition.
	// Nothing was committed.
	ErrStoreUnavailable = errors.New("article store unavailable")
)
