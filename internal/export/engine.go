// Package export renders the finished article to a file. Exporting once,
// in any format, flips the post to its exported state and permanently
// locks editing; that lock is deliberate product policy, not an accident
// of implementation.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/gate"
	"autoblog/internal/logging"
	"autoblog/internal/notifications"
	"autoblog/internal/services"
	"autoblog/internal/services/autoblogapi"
	"autoblog/internal/session"
	"autoblog/internal/stage"
)

// Backend is the slice of the API client the engine needs. Export counters
// live server-side; rendering is entirely local.
type Backend interface {
	RecordExport(ctx context.Context, post autoblogapi.ExportRecord, format string) error
	HealthCheck(ctx context.Context) error
}

// Engine writes the article to the export directory and finalizes the session.
type Engine struct {
	store    *session.Store
	cfg      *config.Config
	logger   *slog.Logger
	backend  Backend
	notifier notifications.Service
	now      func() time.Time
}

// NewEngine constructs the export stage handler using default dependencies.
func NewEngine(cfg *config.Config, store *session.Store, logger *slog.Logger, backend *autoblogapi.Client) *Engine {
	return NewEngineWithDependencies(cfg, store, logger, backend, notifications.NewService(cfg))
}

// NewEngineWithDependencies allows injecting collaborators (used in tests).
func NewEngineWithDependencies(cfg *config.Config, store *session.Store, logger *slog.Logger, backend Backend, notifier notifications.Service) *Engine {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "export"))
	}
	return &Engine{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		backend:  backend,
		notifier: notifier,
		now:      time.Now,
	}
}

func (e *Engine) Prepare(ctx context.Context, sess *session.Session) error {
	if err := gate.Check(sess); err != nil {
		return err
	}
	if sess.Content == "" {
		return services.Wrap(services.ErrValidation, "export", "prepare",
			"Nothing to export; generate content first", nil)
	}
	if _, err := ParseFormat(sess.ExportFormat); err != nil && sess.ExportFormat != "" {
		return services.Wrap(services.ErrValidation, "export", "prepare", err.Error(), err)
	}
	sess.InitProgress("Exporting", "Preparing export")
	return nil
}

func (e *Engine) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, e.logger)

	format := FormatMarkdown
	if sess.ExportFormat != "" {
		parsed, err := ParseFormat(sess.ExportFormat)
		if err != nil {
			return services.Wrap(services.ErrValidation, "export", "parse format", err.Error(), err)
		}
		format = parsed
	}

	title := e.articleTitle(sess)
	doc := NewDocument(sess, title, e.now())
	sess.SetProgress("Exporting", fmt.Sprintf("Rendering %s", format), 40)

	rendered, err := Render(doc, format)
	if err != nil {
		return services.Wrap(services.ErrValidation, "export", "render", "Failed to render export", err)
	}

	if err := os.MkdirAll(e.cfg.Paths.ExportDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "ensure export dir",
			fmt.Sprintf("Cannot create export directory %s", e.cfg.Paths.ExportDir), err)
	}
	target := filepath.Join(e.cfg.Paths.ExportDir, fmt.Sprintf("%s.%s", doc.Slug, format.Extension()))
	if err := os.WriteFile(target, rendered, 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "write file",
			fmt.Sprintf("Cannot write export file %s", target), err)
	}

	exportedAt := doc.ExportedAt
	sess.ExportFormat = string(format)
	sess.ExportPath = target
	sess.ExportedAt = &exportedAt
	sess.PostState = session.PostStateExported
	sess.Status = session.StatusExported
	sess.SetProgressComplete("Exporting", fmt.Sprintf("Exported to %s", target))

	logger.Info("export complete",
		logging.String("format", string(format)),
		logging.String("path", target),
		logging.Int("word_count", doc.WordCount),
	)

	if e.backend != nil {
		record := autoblogapi.ExportRecord{Title: title, Content: sess.Content}
		if err := e.backend.RecordExport(ctx, record, string(format)); err != nil {
			logger.Warn("export counter update failed", logging.Error(err))
		}
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyExportCompleted(ctx, title, string(format), target); err != nil {
			logger.Warn("export notification failed", logging.Error(err))
		}
	}
	return nil
}

func (e *Engine) HealthCheck(ctx context.Context) stage.Health {
	if e.cfg == nil {
		return stage.Unhealthy("export", "configuration missing")
	}
	if err := os.MkdirAll(e.cfg.Paths.ExportDir, 0o755); err != nil {
		return stage.Unhealthy("export", fmt.Sprintf("export directory unavailable: %v", err))
	}
	return stage.Healthy("export")
}

func (e *Engine) articleTitle(sess *session.Session) string {
	topics := session.TopicsFromJSON(sess.TopicsJSON)
	if topic, ok := session.TopicByID(topics, sess.SelectedTopicID); ok {
		return topic.Title
	}
	analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
	if analysis.BusinessName != "" {
		return fmt.Sprintf("%s Blog Post", analysis.BusinessName)
	}
	return "Untitled Post"
}
