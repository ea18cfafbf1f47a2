// Package content implements article generation and regeneration.
//
// Failure policy is abort-and-report: a failed backend call rolls the
// session back to the step the user can retry from, and no filler article
// is ever fabricated. The previous revision is snapshotted only after a
// regeneration succeeds, so a failed call never clobbers the diff baseline.
package content

import (
	"context"
	"fmt"
	"log/slog"

	"autoblog/internal/config"
	"autoblog/internal/gate"
	"autoblog/internal/logging"
	"autoblog/internal/notifications"
	"autoblog/internal/services"
	"autoblog/internal/services/autoblogapi"
	"autoblog/internal/session"
	"autoblog/internal/stage"
)

// Backend is the slice of the API client the generator needs.
type Backend interface {
	GenerateContent(ctx context.Context, req autoblogapi.ContentRequest) (string, error)
	AnalyzeChanges(ctx context.Context, previous, current, feedback string) (autoblogapi.ChangeAnalysis, error)
	HealthCheck(ctx context.Context) error
}

// Generator writes and rewrites the article for a session. It serves both
// the first generation pass and later regenerations with feedback.
type Generator struct {
	store    *session.Store
	cfg      *config.Config
	logger   *slog.Logger
	backend  Backend
	notifier notifications.Service
}

// NewGenerator constructs the content stage handler using default dependencies.
func NewGenerator(cfg *config.Config, store *session.Store, logger *slog.Logger, backend *autoblogapi.Client) *Generator {
	return NewGeneratorWithDependencies(cfg, store, logger, backend, notifications.NewService(cfg))
}

// NewGeneratorWithDependencies allows injecting collaborators (used in tests).
func NewGeneratorWithDependencies(cfg *config.Config, store *session.Store, logger *slog.Logger, backend Backend, notifier notifications.Service) *Generator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "content"))
	}
	return &Generator{store: store, cfg: cfg, logger: stageLogger, backend: backend, notifier: notifier}
}

func (g *Generator) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, g.logger)
	if err := gate.Check(sess); err != nil {
		logger.Info("content generation gated", logging.String("gate", sess.GateReason))
		return err
	}
	if sess.ContentLocked() {
		return services.Wrap(services.ErrLocked, "content", "prepare",
			"This post was exported and can no longer be changed; start a new session to write another article", nil)
	}
	if _, err := stage.RequireAnalysis(sess); err != nil {
		return err
	}
	if _, err := stage.RequireTopics(sess); err != nil {
		return err
	}
	if sess.SelectedTopicID == "" {
		return services.Wrap(services.ErrValidation, "content", "prepare",
			"No topic selected; run 'autoblog select-topic' first", nil)
	}
	if sess.Status == session.StatusRegenerating {
		sess.InitProgress("Regenerating", "Preparing regeneration")
	} else {
		sess.InitProgress("Writing", "Preparing content generation")
	}
	return nil
}

func (g *Generator) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, g.logger)
	regenerating := sess.Status == session.StatusRegenerating

	analysis, err := stage.RequireAnalysis(sess)
	if err != nil {
		return err
	}
	topics, err := stage.RequireTopics(sess)
	if err != nil {
		return err
	}
	topic, ok := session.TopicByID(topics, sess.SelectedTopicID)
	if !ok {
		return services.Wrap(services.ErrValidation, "content", "load topic",
			fmt.Sprintf("Selected topic %q not in the generated list", sess.SelectedTopicID), nil)
	}

	var scenario *session.Scenario
	if sess.SelectedScenarioID != "" {
		if found, ok := analysis.ScenarioByID(sess.SelectedScenarioID); ok {
			scenario = &found
		}
	}
	strategy := session.ContentStrategyFromJSON(sess.ContentStrategyJSON)
	instructions := BuildInstructions(scenario, strategy, sess.RegenFeedback, regenerating)

	req := autoblogapi.ContentRequest{
		Topic:                  topic,
		BusinessInfo:           analysis,
		AdditionalInstructions: instructions,
	}
	if regenerating {
		sess.SetProgress("Regenerating", "Rewriting article", 30)
	} else {
		sess.SetProgress("Writing", "Writing article", 30)
	}

	generated, err := g.backend.GenerateContent(ctx, req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "content", "generate",
			fmt.Sprintf("Content generation for %q failed; the session returns to topic selection", topic.Title), err)
	}

	// Snapshot only after the call succeeded. The feedback stays on the
	// session so the change analysis can report whether it was applied.
	if regenerating && sess.Content != "" {
		sess.PreviousContent = sess.Content
	}
	sess.Content = generated
	sess.Status = session.StatusEditing
	if regenerating {
		sess.SetProgressComplete("Regenerating", "Article rewritten")
	} else {
		sess.SetProgressComplete("Writing", "Article ready for editing")
	}

	logger.Info("content generation complete",
		logging.String("topic_id", topic.ID),
		logging.Bool("regenerated", regenerating),
		logging.Int("characters", len(generated)),
	)
	if g.notifier != nil {
		if err := g.notifier.NotifyContentGenerated(ctx, topic.Title); err != nil {
			logger.Warn("content notification failed", logging.Error(err))
		}
	}
	return nil
}

// ChangeSummary asks the backend to describe what changed between the
// previous and current revisions, forwarding the feedback that drove the
// regeneration so the backend can report whether it was applied.
func (g *Generator) ChangeSummary(ctx context.Context, sess *session.Session) (autoblogapi.ChangeAnalysis, error) {
	if sess.PreviousContent == "" {
		return autoblogapi.ChangeAnalysis{}, services.Wrap(services.ErrValidation, "content", "analyze changes",
			"No previous revision to compare against", nil)
	}
	return g.backend.AnalyzeChanges(ctx, sess.PreviousContent, sess.Content, sess.RegenFeedback)
}

func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if g.backend == nil {
		return stage.Unhealthy("content", "backend client not configured")
	}
	if err := g.backend.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("content", err.Error())
	}
	return stage.Healthy("content")
}
