package stage

import (
	"context"

	"autoblog/internal/session"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *session.Session) error
	Execute(context.Context, *session.Session) error
	HealthCheck(context.Context) Health
}
