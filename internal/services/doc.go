// Package services defines the shared error taxonomy and context plumbing
// used by stage handlers and the external service clients.
//
// Stage code wraps failures with one of the exported sentinel errors so the
// workflow manager can classify them: validation and configuration problems
// park a session for user attention, transient and external failures mark it
// failed and retryable. Context helpers carry session IDs, stage names, and
// correlation IDs from the manager down into client requests and log lines.
package services
