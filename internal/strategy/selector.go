// Package strategy handles the customer-scenario selection step: which
// scenarios the user sees, how many are unlocked, and what selecting one
// does to the session.
package strategy

import (
	"fmt"

	"autoblog/internal/services"
	"autoblog/internal/session"
)

// Visible returns the scenarios the session may display, sorted ascending
// by priority. Until the session unlocks the full list (or runs in demo
// mode) only the first scenarios are shown.
func Visible(analysis session.WebsiteAnalysis, sess *session.Session) []session.Scenario {
	scenarios := append([]session.Scenario(nil), analysis.Scenarios...)
	session.SortScenarios(scenarios)
	if sess != nil && (sess.ScenariosUnlocked || sess.DemoMode) {
		return scenarios
	}
	if len(scenarios) > session.MaxUnlockedScenarios {
		scenarios = scenarios[:session.MaxUnlockedScenarios]
	}
	return scenarios
}

// Locked reports how many scenarios are hidden behind the unlock action.
func Locked(analysis session.WebsiteAnalysis, sess *session.Session) int {
	total := len(analysis.Scenarios)
	visible := len(Visible(analysis, sess))
	return total - visible
}

// Unlock reveals the full scenario list. The two pricing choices offered at
// the unlock prompt have identical effect; no payment is processed.
func Unlock(sess *session.Session) {
	if sess == nil {
		return
	}
	sess.ScenariosUnlocked = true
}

// Select records the chosen scenario and advances the wizard to topic
// generation. The scenario must exist and must be visible to the session.
func Select(sess *session.Session, analysis session.WebsiteAnalysis, scenarioID string) error {
	if sess.Status != session.StatusAnalyzed {
		return services.Wrap(services.ErrValidation, "strategy", "select",
			fmt.Sprintf("Cannot select a strategy while the session is %s", sess.Status), nil)
	}
	scenario, ok := analysis.ScenarioByID(scenarioID)
	if !ok {
		return services.Wrap(services.ErrNotFound, "strategy", "select",
			fmt.Sprintf("Strategy %q not found; run 'autoblog strategies' to list them", scenarioID), nil)
	}
	if !visibleTo(sess, analysis, scenario.ID) {
		return services.Wrap(services.ErrValidation, "strategy", "select",
			fmt.Sprintf("Strategy %q is locked; run 'autoblog unlock' first", scenarioID), nil)
	}
	sess.SelectedScenarioID = scenario.ID
	sess.Status = session.StatusGeneratingTopics
	sess.InitProgress("Generating topics", "Queued for topic generation")
	return nil
}

func visibleTo(sess *session.Session, analysis session.WebsiteAnalysis, scenarioID string) bool {
	for _, scenario := range Visible(analysis, sess) {
		if scenario.ID == scenarioID {
			return true
		}
	}
	return false
}
