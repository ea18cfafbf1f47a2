package workflow

import (
	"context"

	"autoblog/internal/logging"
	"autoblog/internal/session"
	"autoblog/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running      bool
	LastError    string
	LastSession  *session.Session
	SessionStats map[session.Status]int
	StageHealth  map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.Lock()
	running := m.running
	lastErr := m.lastErr
	lastSession := m.lastSession
	m.mu.Unlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read session stats", logging.Error(err))
	}

	summary := StatusSummary{
		Running:      running,
		SessionStats: stats,
		StageHealth:  m.Health(ctx),
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastSession != nil {
		cp := *lastSession
		summary.LastSession = &cp
	}
	return summary
}

// Health runs every registered stage health check.
func (m *Manager) Health(ctx context.Context) map[string]stage.Health {
	health := make(map[string]stage.Health, len(m.stages))
	for _, stg := range m.stages {
		if _, seen := health[stg.name]; seen {
			continue
		}
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}
	return health
}
