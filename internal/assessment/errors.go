package assessment

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no session has the requested id.
	ErrSessionNotFound = errors.New("assessment session not found")

	// ErrSessionNotActive is returned when an operation requires an active
	// session and the session was completed or cancelled.
	ErrSessionNotActive = errors.New("assessment session is not active")

	// ErrSessionAlreadyExists is returned by Start when the learner already
	// has an active, unexpired session.
	ErrSessionAlreadyExists = errors.New("learner already has an active assessment session")

	// ErrSessionExpired is returned when the session timeout has elapsed,
	// including for sessions already marked expired.
	ErrSessionExpired = errors.New("assessment session has expired")

	// ErrLearnerNotFound is returned when the learner record does not exist.
	ErrLearnerNotFound = errors.New("learner not found")
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
