package gate

import (
	"errors"
	"testing"

	"autoblog/internal/services"
	"autoblog/internal/session"
)

func TestRequires(t *testing.T) {
	cases := []struct {
		name       string
		status     session.Status
		hasAccount bool
		demoMode   bool
		want       bool
	}{
		{"analysis ungated", session.StatusAnalyzing, false, false, false},
		{"strategy selection ungated", session.StatusAnalyzed, false, false, false},
		{"content generation needs signup", session.StatusGeneratingContent, false, false, true},
		{"editing needs account", session.StatusEditing, false, false, true},
		{"export needs account", session.StatusExporting, false, false, true},
		{"account satisfies gate", session.StatusEditing, true, false, false},
		{"demo mode disables gate", session.StatusEditing, false, true, false},
		{"topics listing ungated", session.StatusTopicsReady, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Requires(tc.status, tc.hasAccount, tc.demoMode); got != tc.want {
				t.Fatalf("Requires(%s, %v, %v) = %v, want %v",
					tc.status, tc.hasAccount, tc.demoMode, got, tc.want)
			}
		})
	}
}

func TestCheck_RecordsGateReason(t *testing.T) {
	sess := &session.Session{Status: session.StatusGeneratingContent}
	err := Check(sess)
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if !services.IsGateRedirect(err) {
		t.Fatal("expected gate redirect classification")
	}
	if sess.GateReason != "email" {
		t.Fatalf("unexpected gate reason %q", sess.GateReason)
	}
}

func TestCheck_ClearsStaleReason(t *testing.T) {
	sess := &session.Session{
		Status:       session.StatusEditing,
		AccountEmail: "user@example.com",
		GateReason:   "account",
	}
	if err := Check(sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.GateReason != "" {
		t.Fatalf("expected cleared gate reason, got %q", sess.GateReason)
	}
}

func TestSkipWithDemo(t *testing.T) {
	sess := &session.Session{Status: session.StatusEditing, GateReason: "account"}
	SkipWithDemo(sess)
	if sess.AccountEmail != DemoEmail {
		t.Fatalf("unexpected account email %q", sess.AccountEmail)
	}
	if !sess.DemoMode {
		t.Fatal("expected sticky demo flag")
	}
	if err := Check(sess); err != nil {
		t.Fatalf("gate should pass after demo skip: %v", err)
	}
}
