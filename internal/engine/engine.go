// Package engine assembles the AutoBlog runtime: the session store, the
// library collections, the backend clients, the stage handlers, and the
// workflow manager, with flock-based locking to prevent two processes from
// writing the same data directory.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"autoblog/internal/analysis"
	"autoblog/internal/config"
	"autoblog/internal/content"
	"autoblog/internal/export"
	"autoblog/internal/library"
	"autoblog/internal/logging"
	"autoblog/internal/notifications"
	"autoblog/internal/services/auth"
	"autoblog/internal/services/autoblogapi"
	"autoblog/internal/session"
	"autoblog/internal/topics"
	"autoblog/internal/workflow"
)

// Engine owns the shared runtime state behind every CLI command.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *session.Store
	library  *library.Store
	auth     *auth.Manager
	backend  *autoblogapi.Client
	notifier notifications.Service
	workflow *workflow.Manager
	content  *content.Generator

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
}

// Status represents engine runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	DataDir      string
	LockFilePath string
	SignedIn     bool
	AccountEmail string
	DemoMode     bool
}

// New constructs an engine with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	sessions, err := session.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	lib, err := library.NewStore(sessions, cfg)
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("open library store: %w", err)
	}

	authManager, err := auth.NewManager(cfg)
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("init auth manager: %w", err)
	}

	backend := autoblogapi.NewClient(autoblogapi.Config{
		BaseURL:        cfg.Backend.BaseURL,
		TimeoutSeconds: cfg.Backend.TimeoutSeconds,
		RetryAttempts:  cfg.Backend.RetryMaxAttempts,
	}, autoblogapi.WithTokenSource(authManager))

	notifier := notifications.NewService(cfg)
	contentGenerator := content.NewGenerator(cfg, sessions, logger, backend)

	manager := workflow.NewManager(cfg, sessions, logger, workflow.StageSet{
		Analyzer:         analysis.NewAnalyzer(cfg, sessions, logger, backend),
		TopicGenerator:   topics.NewGenerator(cfg, sessions, logger, backend),
		ContentGenerator: contentGenerator,
		Exporter:         export.NewEngine(cfg, sessions, logger, backend),
	}, notifier)

	lockPath := filepath.Join(cfg.Paths.DataDir, "autoblog.lock")
	return &Engine{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "engine"),
		sessions: sessions,
		library:  lib,
		auth:     authManager,
		backend:  backend,
		notifier: notifier,
		workflow: manager,
		content:  contentGenerator,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the data-directory lock and launches the workflow manager.
func (e *Engine) Start(ctx context.Context) error {
	if e.running.Load() {
		return errors.New("engine already running")
	}

	ok, err := e.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another autoblog process is already using this data directory")
	}

	e.refreshCredentials(ctx)

	if err := e.workflow.Start(ctx); err != nil {
		_ = e.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}

	e.running.Store(true)
	e.logger.Info("engine started", logging.String("lock", e.lockPath))
	return nil
}

// Stop stops background processing and releases the lock.
func (e *Engine) Stop() {
	if !e.running.Load() {
		return
	}
	e.workflow.Stop()
	if err := e.lock.Unlock(); err != nil {
		e.logger.Warn("failed to release lock", logging.Error(err))
	}
	e.running.Store(false)
	e.logger.Info("engine stopped")
}

// Close releases all resources held by the engine.
func (e *Engine) Close() error {
	e.Stop()
	if e.sessions != nil {
		return e.sessions.Close()
	}
	return nil
}

// ErrBusy reports that another process holds the data-directory lock. The
// mutation is already persisted; the running engine will pick it up.
var ErrBusy = errors.New("another autoblog process is processing sessions")

// RunUntilIdle synchronously processes runnable sessions until every session
// is parked. CLI commands call this after mutating a session so the user
// sees the outcome before the command returns. It takes the same lock the
// background loop does, so it cannot race a running engine.
func (e *Engine) RunUntilIdle(ctx context.Context) error {
	if e.running.Load() {
		return nil
	}
	ok, err := e.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrBusy
	}
	defer func() {
		if unlockErr := e.lock.Unlock(); unlockErr != nil {
			e.logger.Warn("failed to release lock", logging.Error(unlockErr))
		}
	}()
	e.refreshCredentials(ctx)
	return e.workflow.RunUntilIdle(ctx)
}

// refreshCredentials renews the access token when it is close to expiry.
// Failures are logged and otherwise ignored; stage handlers surface the
// real authorization error if the stale token is rejected.
func (e *Engine) refreshCredentials(ctx context.Context) {
	if !e.auth.SignedIn() {
		return
	}
	if err := e.auth.Refresh(ctx); err != nil {
		e.logger.Warn("token refresh failed", logging.Error(err))
	}
}

// Sessions exposes the wizard session store.
func (e *Engine) Sessions() *session.Store { return e.sessions }

// Library exposes the saved projects, posts, and activity collections.
func (e *Engine) Library() *library.Store { return e.library }

// Auth exposes the authentication manager.
func (e *Engine) Auth() *auth.Manager { return e.auth }

// ContentGenerator exposes the content stage for change analysis.
func (e *Engine) ContentGenerator() *content.Generator { return e.content }

// Status reports engine diagnostics.
func (e *Engine) Status(ctx context.Context) Status {
	return Status{
		Running:      e.running.Load(),
		Workflow:     e.workflow.Status(ctx),
		DataDir:      e.cfg.Paths.DataDir,
		LockFilePath: e.lockPath,
		SignedIn:     e.auth.SignedIn(),
		AccountEmail: e.auth.Email(),
		DemoMode:     e.cfg.DemoEnabled(),
	}
}

// TestNotification sends a test push notification.
func (e *Engine) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(e.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := e.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send test notification", err
	}
	return true, "test notification sent", nil
}
