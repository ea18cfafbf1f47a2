package stage

import (
	"autoblog/internal/services"
	"autoblog/internal/session"
)

// RequireAnalysis decodes the session's stored website analysis and fails
// with a services.ErrValidation when the session has none. Stages past the
// analysis step call this before doing anything else.
func RequireAnalysis(sess *session.Session) (session.WebsiteAnalysis, error) {
	if sess.AnalysisJSON == "" {
		return session.WebsiteAnalysis{}, services.Wrap(
			services.ErrValidation, "stage", "load analysis",
			"Website analysis missing; rerun analysis", nil)
	}
	return session.AnalysisFromJSON(sess.AnalysisJSON), nil
}

// RequireTopics decodes the session's stored topic list and fails with a
// services.ErrValidation when no topics were generated.
func RequireTopics(sess *session.Session) ([]session.Topic, error) {
	topics := session.TopicsFromJSON(sess.TopicsJSON)
	if len(topics) == 0 {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "load topics",
			"Topic list missing or empty; regenerate topics", nil)
	}
	return topics, nil
}
