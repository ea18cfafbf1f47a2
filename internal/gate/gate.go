// Package gate decides where the wizard pauses for an account. The check
// is a pure predicate over the session so the workflow manager and the
// CLI both evaluate it the same way. Demo mode disables every gate and
// offers a synthesized demo account instead.
package gate

import (
	"fmt"

	"autoblog/internal/services"
	"autoblog/internal/session"
)

// DemoEmail is the synthesized account used when a gate is skipped in demo mode.
const DemoEmail = "demo@example.com"

// Kind identifies which gate applies at a wizard step.
type Kind int

const (
	// KindNone means the step is ungated.
	KindNone Kind = iota
	// KindEmail is the lighter signup gate reached when a topic is taken
	// into content generation.
	KindEmail
	// KindAccount is the full account gate, required from the editing
	// step onward.
	KindAccount
)

func (k Kind) String() string {
	switch k {
	case KindEmail:
		return "email"
	case KindAccount:
		return "account"
	default:
		return "none"
	}
}

// For returns the gate kind guarding the given wizard step. Strategy
// selection and topic generation are ungated; the first gate sits on the
// edge into content generation.
func For(status session.Status) Kind {
	switch status {
	case session.StatusGeneratingContent:
		return KindEmail
	case session.StatusEditing,
		session.StatusRegenerating,
		session.StatusExporting:
		return KindAccount
	default:
		return KindNone
	}
}

// Requires reports whether progressing past the step needs a gate prompt.
// Demo mode always answers no.
func Requires(status session.Status, hasAccount, demoMode bool) bool {
	if demoMode {
		return false
	}
	if hasAccount {
		return false
	}
	return For(status) != KindNone
}

// Check evaluates the gate for the session's current step. When the gate
// applies it records the gate reason on the session and returns an
// unauthorized error the workflow treats as a redirect, not a failure.
func Check(sess *session.Session) error {
	if sess == nil {
		return nil
	}
	if !Requires(sess.Status, sess.HasAccount(), sess.DemoMode) {
		sess.GateReason = ""
		return nil
	}
	kind := For(sess.Status)
	sess.GateReason = kind.String()
	return services.Wrap(services.ErrUnauthorized, "gate", "check",
		fmt.Sprintf("Sign in required (%s gate); run 'autoblog login' or 'autoblog demo on'", kind), nil)
}

// SkipWithDemo satisfies every gate by attaching the demo account.
// The demo flag is sticky for the rest of the session.
func SkipWithDemo(sess *session.Session) {
	if sess == nil {
		return
	}
	sess.AccountEmail = DemoEmail
	sess.DemoMode = true
	sess.GateReason = ""
}
