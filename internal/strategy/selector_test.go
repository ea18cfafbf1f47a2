package strategy

import (
	"errors"
	"testing"

	"autoblog/internal/services"
	"autoblog/internal/session"
)

func rankedAnalysis() session.WebsiteAnalysis {
	return session.WebsiteAnalysis{
		BusinessName: "Acme",
		Scenarios: []session.Scenario{
			{ID: "s3", Title: "Third", BusinessValue: &session.BusinessValue{Priority: 3}},
			{ID: "s1", Title: "First", BusinessValue: &session.BusinessValue{Priority: 1}},
			{ID: "s2", Title: "Second", BusinessValue: &session.BusinessValue{Priority: 2}},
			{ID: "s9", Title: "Unranked"},
		},
	}
}

func TestVisible_SortsAndTruncates(t *testing.T) {
	sess := &session.Session{Status: session.StatusAnalyzed}
	visible := Visible(rankedAnalysis(), sess)
	if len(visible) != session.MaxUnlockedScenarios {
		t.Fatalf("expected %d visible scenarios, got %d", session.MaxUnlockedScenarios, len(visible))
	}
	if visible[0].ID != "s1" || visible[1].ID != "s2" {
		t.Fatalf("unexpected visible order: %s, %s", visible[0].ID, visible[1].ID)
	}
}

func TestVisible_UnrankedSortLast(t *testing.T) {
	sess := &session.Session{ScenariosUnlocked: true}
	visible := Visible(rankedAnalysis(), sess)
	if len(visible) != 4 {
		t.Fatalf("expected all scenarios when unlocked, got %d", len(visible))
	}
	if visible[3].ID != "s9" {
		t.Fatalf("expected unranked scenario last, got %s", visible[3].ID)
	}
}

func TestVisible_DemoModeUnlocksAll(t *testing.T) {
	sess := &session.Session{DemoMode: true}
	if got := len(Visible(rankedAnalysis(), sess)); got != 4 {
		t.Fatalf("expected all scenarios in demo mode, got %d", got)
	}
	if Locked(rankedAnalysis(), sess) != 0 {
		t.Fatal("expected no locked scenarios in demo mode")
	}
}

func TestSelect_AdvancesSession(t *testing.T) {
	sess := &session.Session{
		Status:       session.StatusAnalyzed,
		AccountEmail: "user@example.com",
	}
	if err := Select(sess, rankedAnalysis(), "s1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sess.SelectedScenarioID != "s1" {
		t.Fatalf("unexpected selection %q", sess.SelectedScenarioID)
	}
	if sess.Status != session.StatusGeneratingTopics {
		t.Fatalf("unexpected status %s", sess.Status)
	}
}

func TestSelect_WorksWithoutAccount(t *testing.T) {
	sess := &session.Session{Status: session.StatusAnalyzed}
	if err := Select(sess, rankedAnalysis(), "s1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sess.Status != session.StatusGeneratingTopics {
		t.Fatalf("unexpected status %s", sess.Status)
	}
}

func TestSelect_LockedScenarioRejected(t *testing.T) {
	sess := &session.Session{
		Status:       session.StatusAnalyzed,
		AccountEmail: "user@example.com",
	}
	err := Select(sess, rankedAnalysis(), "s3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for locked scenario, got %v", err)
	}

	Unlock(sess)
	if err := Select(sess, rankedAnalysis(), "s3"); err != nil {
		t.Fatalf("Select after unlock: %v", err)
	}
}

func TestSelect_UnknownScenario(t *testing.T) {
	sess := &session.Session{
		Status:       session.StatusAnalyzed,
		AccountEmail: "user@example.com",
	}
	err := Select(sess, rankedAnalysis(), "nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
