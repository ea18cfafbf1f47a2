package services

import (
	"errors"

	"autoblog/internal/session"
)

// FailureStatus maps a stage error to the session status the workflow manager
// should persist after the stage aborts. Stages roll back to the step the
// user can retry from, so a flaky backend never dead-ends a session.
// Configuration errors mark the session failed outright; retrying without a
// config change cannot succeed. Gate redirects also roll back, with the gate
// reason recorded separately by the manager.
func FailureStatus(err error, from session.Status) session.Status {
	if errors.Is(err, ErrConfiguration) {
		return session.StatusFailed
	}
	if prev, ok := session.RollbackStatus(from); ok {
		return prev
	}
	return session.StatusFailed
}
