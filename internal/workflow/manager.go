package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"autoblog/internal/config"
	"autoblog/internal/logging"
	"autoblog/internal/notifications"
	"autoblog/internal/services"
	"autoblog/internal/session"
	"autoblog/internal/stage"
)

// StageSet holds the handlers that implement each wizard step. Any handler
// left nil disables its step; sessions waiting on it simply stay queued.
type StageSet struct {
	Analyzer         stage.Handler
	TopicGenerator   stage.Handler
	ContentGenerator stage.Handler
	Exporter         stage.Handler
}

// pipelineStage binds a handler to the statuses it owns. startStatus is what
// the store is polled for, processingStatus is persisted while the handler
// runs, and doneStatus is applied only when the handler finishes without
// moving the session itself.
type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      session.Status
	processingStatus session.Status
	doneStatus       session.Status
}

// Manager drives sessions through the wizard pipeline.
type Manager struct {
	store    *session.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service

	stages   []pipelineStage
	byStart  map[session.Status]pipelineStage
	runnable []session.Status

	mu sync.Mutex

	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	lastErr     error
	lastSession *session.Session
}

// NewManager constructs a Manager wired to the provided stage handlers.
func NewManager(cfg *config.Config, store *session.Store, logger *slog.Logger, set StageSet, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	m := &Manager{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		notifier: notifier,
		byStart:  make(map[session.Status]pipelineStage),
	}
	m.register(pipelineStage{
		name:             "analysis",
		handler:          set.Analyzer,
		startStatus:      session.StatusPending,
		processingStatus: session.StatusAnalyzing,
		doneStatus:       session.StatusAnalyzed,
	})
	m.register(pipelineStage{
		name:             "topics",
		handler:          set.TopicGenerator,
		startStatus:      session.StatusGeneratingTopics,
		processingStatus: session.StatusGeneratingTopics,
		doneStatus:       session.StatusTopicsReady,
	})
	m.register(pipelineStage{
		name:             "content",
		handler:          set.ContentGenerator,
		startStatus:      session.StatusGeneratingContent,
		processingStatus: session.StatusGeneratingContent,
		doneStatus:       session.StatusEditing,
	})
	m.register(pipelineStage{
		name:             "regeneration",
		handler:          set.ContentGenerator,
		startStatus:      session.StatusRegenerating,
		processingStatus: session.StatusRegenerating,
		doneStatus:       session.StatusEditing,
	})
	m.register(pipelineStage{
		name:             "export",
		handler:          set.Exporter,
		startStatus:      session.StatusExporting,
		processingStatus: session.StatusExporting,
		doneStatus:       session.StatusExported,
	})
	return m
}

func (m *Manager) register(stg pipelineStage) {
	if stg.handler == nil {
		return
	}
	m.stages = append(m.stages, stg)
	m.byStart[stg.startStatus] = stg
	m.runnable = append(m.runnable, stg.startStatus)
}

// Start launches the background polling loop. Sessions stranded in a
// processing status by an earlier crash are rolled back first so they get
// picked up again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("workflow manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(ctx); err != nil {
		m.logger.Warn("failed to reset stuck sessions", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset stuck sessions", logging.Int64("count", reset))
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates the polling loop and waits for in-flight work to settle.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	<-done
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	poll := time.Duration(m.cfg.Workflow.PollInterval) * time.Second
	retry := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	if poll <= 0 {
		poll = time.Second
	}
	if retry <= 0 {
		retry = poll
	}

	for {
		processed, err := m.ProcessNext(ctx)
		wait := poll
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			m.setLastError(err)
			m.logger.Error("workflow iteration failed", logging.Error(err))
			wait = retry
		case processed:
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// ProcessNext claims the oldest runnable session and runs its stage to
// completion. It reports whether a session was processed. Stage failures are
// recorded on the session and do not surface as errors here; only store or
// wiring problems do.
func (m *Manager) ProcessNext(ctx context.Context) (bool, error) {
	sess, err := m.store.NextForStatuses(ctx, m.runnable...)
	if err != nil {
		return false, fmt.Errorf("fetch next session: %w", err)
	}
	if sess == nil {
		return false, nil
	}
	stg, ok := m.byStart[sess.Status]
	if !ok {
		return false, fmt.Errorf("no stage registered for status %s", sess.Status)
	}
	if err := m.processSession(ctx, stg, sess); err != nil {
		return true, err
	}
	return true, nil
}

// RunUntilIdle processes sessions until none are runnable. The wizard CLI
// uses this after each user action so a command returns once the session is
// parked at the next step.
func (m *Manager) RunUntilIdle(ctx context.Context) error {
	for {
		processed, err := m.ProcessNext(ctx)
		if err != nil {
			return err
		}
		if !processed {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (m *Manager) processSession(ctx context.Context, stg pipelineStage, sess *session.Session) error {
	ctx = services.WithSessionID(ctx, sess.ID)
	ctx = services.WithStage(ctx, stg.name)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	if err := m.transitionToProcessing(ctx, stg, sess); err != nil {
		return err
	}
	m.setLastSession(sess)

	logger.Info("stage started",
		logging.String("status", string(sess.Status)),
		logging.String("url", sess.WebsiteURL))

	if err := stg.handler.Prepare(ctx, sess); err != nil {
		return m.handleStageFailure(ctx, logger, stg, sess, err)
	}
	if err := m.store.Update(ctx, sess); err != nil {
		return fmt.Errorf("persist prepared session: %w", err)
	}

	if err := stg.handler.Execute(ctx, sess); err != nil {
		return m.handleStageFailure(ctx, logger, stg, sess, err)
	}
	if sess.Status == stg.processingStatus {
		sess.Status = stg.doneStatus
		sess.SetProgressComplete(sess.ProgressStage, "Done")
	}
	if err := m.store.Update(ctx, sess); err != nil {
		return fmt.Errorf("persist completed session: %w", err)
	}
	m.setLastSession(sess)

	logger.Info("stage completed", logging.String("status", string(sess.Status)))
	return nil
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, sess *session.Session) error {
	sess.Status = stg.processingStatus
	sess.ErrorMessage = ""
	if err := m.store.Update(ctx, sess); err != nil {
		return fmt.Errorf("mark session processing: %w", err)
	}
	return nil
}

// handleStageFailure persists the post-failure state. Gate redirects are not
// failures: the session returns to the previous step with the gate reason
// already recorded by the handler, and no error notification goes out.
func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, stg pipelineStage, sess *session.Session, stageErr error) error {
	if services.IsGateRedirect(stageErr) {
		sess.Rollback("")
		sess.ErrorMessage = ""
		if err := m.store.Update(ctx, sess); err != nil {
			return fmt.Errorf("persist gated session: %w", err)
		}
		m.setLastSession(sess)
		logger.Info("session parked at access gate",
			logging.String("gate", sess.GateReason),
			logging.String("status", string(sess.Status)))
		return nil
	}

	message := failureMessage(stageErr)
	target := services.FailureStatus(stageErr, sess.Status)
	// A rollback target that is itself runnable would be claimed again
	// immediately, looping on the same error. Those sessions fail instead.
	if target == session.StatusFailed || !session.IsParkedStatus(target) {
		sess.SetFailed(message)
	} else {
		sess.Rollback(message)
	}
	if err := m.store.Update(ctx, sess); err != nil {
		return fmt.Errorf("persist failed session: %w", err)
	}
	m.setLastSession(sess)
	m.setLastError(stageErr)

	logger.Error("stage failed",
		logging.String("stage", stg.name),
		logging.String("status", string(sess.Status)),
		logging.Error(stageErr))
	if err := m.notifier.NotifyError(ctx, stageErr, stg.name); err != nil {
		logger.Warn("failed to send error notification", logging.Error(err))
	}
	return nil
}

func failureMessage(err error) string {
	if err == nil {
		return "stage failed"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "stage failed"
	}
	return msg
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastSession(sess *session.Session) {
	m.mu.Lock()
	if sess != nil {
		cp := *sess
		m.lastSession = &cp
	} else {
		m.lastSession = nil
	}
	m.mu.Unlock()
}
