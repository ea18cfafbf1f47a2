// Package topics implements the topic-generation stage: asking the backend
// for article ideas scoped to the selected customer scenario.
//
// Unlike analysis, this stage never fabricates ideas. A failed or empty
// result falls back to the scenario's own content ideas when it has any,
// and otherwise produces an explicit empty state the CLI can present.
package topics

import (
	"context"
	"fmt"
	"log/slog"

	"autoblog/internal/config"
	"autoblog/internal/logging"
	"autoblog/internal/notifications"
	"autoblog/internal/services"
	"autoblog/internal/services/autoblogapi"
	"autoblog/internal/session"
	"autoblog/internal/stage"
)

// Backend is the slice of the API client the generator needs.
type Backend interface {
	TrendingTopics(ctx context.Context, req autoblogapi.TopicsRequest) ([]session.Topic, error)
	HealthCheck(ctx context.Context) error
}

// Generator produces the topic candidates for a session.
type Generator struct {
	store    *session.Store
	cfg      *config.Config
	logger   *slog.Logger
	backend  Backend
	notifier notifications.Service
}

// NewGenerator constructs the topic stage handler using default dependencies.
func NewGenerator(cfg *config.Config, store *session.Store, logger *slog.Logger, backend *autoblogapi.Client) *Generator {
	return NewGeneratorWithDependencies(cfg, store, logger, backend, notifications.NewService(cfg))
}

// NewGeneratorWithDependencies allows injecting collaborators (used in tests).
func NewGeneratorWithDependencies(cfg *config.Config, store *session.Store, logger *slog.Logger, backend Backend, notifier notifications.Service) *Generator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "topics"))
	}
	return &Generator{store: store, cfg: cfg, logger: stageLogger, backend: backend, notifier: notifier}
}

func (g *Generator) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, g.logger)
	if _, err := stage.RequireAnalysis(sess); err != nil {
		return err
	}
	sess.InitProgress("Generating topics", "Preparing topic generation")
	logger.Info("starting topic generation preparation",
		logging.String("scenario_id", sess.SelectedScenarioID))
	return nil
}

func (g *Generator) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, g.logger)
	analysis, err := stage.RequireAnalysis(sess)
	if err != nil {
		return err
	}

	var scenario *session.Scenario
	if sess.SelectedScenarioID != "" {
		if found, ok := analysis.ScenarioByID(sess.SelectedScenarioID); ok {
			scenario = &found
		} else {
			return services.Wrap(services.ErrValidation, "topics", "load scenario",
				fmt.Sprintf("Selected strategy %q no longer present in analysis", sess.SelectedScenarioID), nil)
		}
	}

	sess.SetProgress("Generating topics", "Requesting topic ideas", 25)
	generated, genErr := g.backend.TrendingTopics(ctx, autoblogapi.TopicsRequest{
		BusinessType:   analysis.BusinessType,
		TargetAudience: analysis.TargetAudience,
		ContentFocus:   analysis.ContentFocus,
	})
	if genErr != nil {
		logger.Warn("topic generation failed", logging.Error(genErr))
	}

	topics := truncate(generated)
	if len(topics) == 0 {
		topics = scenarioIdeas(scenario)
		if len(topics) == 0 && genErr != nil {
			// Nothing to fall back on; abort so the user can retry.
			return services.Wrap(services.ErrExternalService, "topics", "generate",
				"Topic generation failed and the selected strategy has no content ideas to fall back on", genErr)
		}
		if len(topics) > 0 {
			logger.Info("using scenario content ideas as topics", logging.Int("count", len(topics)))
		}
	}

	encoded, err := session.TopicsToJSON(topics)
	if err != nil {
		return services.Wrap(services.ErrValidation, "topics", "encode topics",
			"Failed to store topic list", err)
	}
	sess.TopicsJSON = encoded
	sess.Status = session.StatusTopicsReady
	if len(topics) == 0 {
		// Explicit empty state; the CLI renders "No Content Ideas Available".
		sess.SetProgressComplete("Generating topics", "No content ideas available")
	} else {
		sess.SetProgressComplete("Generating topics", fmt.Sprintf("%d topic ideas ready", len(topics)))
	}

	logger.Info("topic generation complete", logging.Int("topics", len(topics)))
	if g.notifier != nil && len(topics) > 0 {
		if err := g.notifier.NotifyTopicsReady(ctx, analysis.BusinessName, len(topics)); err != nil {
			logger.Warn("topics notification failed", logging.Error(err))
		}
	}
	return nil
}

func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if g.backend == nil {
		return stage.Unhealthy("topics", "backend client not configured")
	}
	if err := g.backend.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("topics", err.Error())
	}
	return stage.Healthy("topics")
}

// truncate keeps only the topics the product shows.
func truncate(topics []session.Topic) []session.Topic {
	if len(topics) > session.MaxVisibleTopics {
		return append([]session.Topic(nil), topics[:session.MaxVisibleTopics]...)
	}
	return topics
}

// scenarioIdeas converts a scenario's own content ideas into topics.
func scenarioIdeas(scenario *session.Scenario) []session.Topic {
	if scenario == nil {
		return nil
	}
	var topics []session.Topic
	for i, idea := range scenario.ContentIdeas {
		if i >= session.MaxVisibleTopics {
			break
		}
		topics = append(topics, session.Topic{
			ID:       fmt.Sprintf("idea-%d", i+1),
			Title:    idea,
			Category: scenario.Title,
		})
	}
	return topics
}
