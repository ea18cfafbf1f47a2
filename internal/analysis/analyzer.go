// Package analysis implements the website-analysis stage of the wizard.
//
// The stage always resolves: when the backend cannot analyze the site, a
// minimal fallback analysis is synthesized locally from the URL (enriched
// by a best-effort page probe) so downstream stages never null-check.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/logging"
	"autoblog/internal/notifications"
	"autoblog/internal/services"
	"autoblog/internal/services/autoblogapi"
	"autoblog/internal/session"
	"autoblog/internal/siteurl"
	"autoblog/internal/stage"
)

// Backend is the slice of the API client the analyzer needs.
type Backend interface {
	AnalyzeWebsite(ctx context.Context, websiteURL string) (session.WebsiteAnalysis, error)
	HealthCheck(ctx context.Context) error
}

// Analyzer turns a submitted URL into a stored WebsiteAnalysis.
type Analyzer struct {
	store    *session.Store
	cfg      *config.Config
	logger   *slog.Logger
	backend  Backend
	probe    *Probe
	notifier notifications.Service
	sleeper  func(time.Duration)
}

// NewAnalyzer constructs the analysis stage handler using default dependencies.
func NewAnalyzer(cfg *config.Config, store *session.Store, logger *slog.Logger, backend *autoblogapi.Client) *Analyzer {
	return NewAnalyzerWithDependencies(cfg, store, logger, backend, notifications.NewService(cfg))
}

// NewAnalyzerWithDependencies allows injecting collaborators (used in tests).
func NewAnalyzerWithDependencies(cfg *config.Config, store *session.Store, logger *slog.Logger, backend Backend, notifier notifications.Service) *Analyzer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "analysis"))
	}
	var probe *Probe
	if cfg != nil && cfg.Analysis.ProbeEnabled {
		probe = NewProbe(time.Duration(cfg.Analysis.ProbeTimeoutSeconds) * time.Second)
	}
	return &Analyzer{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		backend:  backend,
		probe:    probe,
		notifier: notifier,
	}
}

func (a *Analyzer) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, a.logger)
	normalized, err := siteurl.Normalize(sess.WebsiteURL)
	if err != nil {
		return services.Wrap(services.ErrValidation, "analysis", "validate url",
			fmt.Sprintf("Website address %q is not valid; enter something like example.com", sess.WebsiteURL), err)
	}
	sess.WebsiteURL = normalized
	sess.InitProgress("Analyzing", "Preparing website analysis")
	logger.Info("starting analysis preparation", logging.String("website_url", normalized))
	return nil
}

func (a *Analyzer) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, a.logger)
	sess.SetProgress("Analyzing", "Analyzing website", 10)

	analysis, err := a.backend.AnalyzeWebsite(ctx, sess.WebsiteURL)
	if err != nil {
		logger.Warn("backend analysis failed, synthesizing fallback", logging.Error(err))
		analysis = a.fallbackAnalysis(ctx, sess.WebsiteURL)
	} else if !analysis.WebSearchStatus.EnhancementComplete {
		analysis = a.awaitEnhancement(ctx, logger, sess, analysis)
	}

	analysis.BrandColors.ApplyDefaults()
	session.SortScenarios(analysis.Scenarios)

	encoded, err := analysis.ToJSON()
	if err != nil {
		return services.Wrap(services.ErrValidation, "analysis", "encode analysis",
			"Failed to store website analysis", err)
	}
	sess.AnalysisJSON = encoded
	sess.Status = session.StatusAnalyzed
	sess.SetProgressComplete("Analyzing", "Analysis complete")

	logger.Info("analysis complete",
		logging.String("business_name", analysis.BusinessName),
		logging.Int("scenarios", len(analysis.Scenarios)),
		logging.Bool("fallback", analysis.Fallback),
	)
	if a.notifier != nil {
		if err := a.notifier.NotifyAnalysisComplete(ctx, analysis.BusinessName, sess.WebsiteURL); err != nil {
			logger.Warn("analysis notification failed", logging.Error(err))
		}
	}
	return nil
}

// awaitEnhancement re-polls the backend until the slower research enrichment
// finishes, with capped exponential backoff. Partial data is kept once the
// attempts are used up.
func (a *Analyzer) awaitEnhancement(ctx context.Context, logger *slog.Logger, sess *session.Session, analysis session.WebsiteAnalysis) session.WebsiteAnalysis {
	attempts := a.cfg.Analysis.EnhancementMaxAttempts
	if attempts <= 0 {
		return analysis
	}
	base := time.Duration(a.cfg.Analysis.EnhancementBaseDelayMS) * time.Millisecond
	maxDelay := time.Duration(a.cfg.Analysis.EnhancementMaxDelayMS) * time.Millisecond
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if maxDelay < base {
		maxDelay = base
	}

	delay := base
	for attempt := 1; attempt <= attempts; attempt++ {
		sess.SetProgress("Analyzing", "Waiting for research enrichment", float64(10+attempt*50/attempts))
		if !a.sleep(ctx, delay) {
			return analysis
		}
		refreshed, err := a.backend.AnalyzeWebsite(ctx, sess.WebsiteURL)
		if err != nil {
			logger.Warn("enhancement poll failed", logging.Error(err), logging.Int("attempt", attempt))
		} else {
			analysis = refreshed
			if analysis.WebSearchStatus.EnhancementComplete {
				return analysis
			}
		}
		if delay < maxDelay/2 {
			delay *= 2
		} else {
			delay = maxDelay
		}
	}
	logger.Warn("enhancement never completed, continuing with partial data",
		logging.Int("attempts", attempts))
	return analysis
}

func (a *Analyzer) sleep(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	if a.sleeper != nil {
		a.sleeper(delay)
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// fallbackAnalysis builds the minimal analysis used when the backend is
// unreachable. The description carries an explicit notice so the user knows
// the data is synthesized.
func (a *Analyzer) fallbackAnalysis(ctx context.Context, websiteURL string) session.WebsiteAnalysis {
	name := siteurl.BusinessName(websiteURL)
	if name == "" {
		name = "Your Business"
	}
	description := fmt.Sprintf("We were unable to analyze %s automatically. Showing a general profile for %s.", websiteURL, name)

	analysis := session.WebsiteAnalysis{
		BusinessName:    name,
		BusinessType:    "General Business",
		TargetAudience:  "Potential customers researching online",
		ContentFocus:    "Helpful articles about your products and services",
		BrandVoice:      "Professional and approachable",
		Description:     description,
		Fallback:        true,
		WebSearchStatus: session.WebSearchStatus{EnhancementComplete: true},
	}

	if a.probe != nil {
		if page, err := a.probe.Fetch(ctx, websiteURL); err == nil {
			if page.Title != "" {
				analysis.BusinessName = page.Title
			}
			if page.Description != "" {
				analysis.Description = fmt.Sprintf("%s (Automatic analysis unavailable; summary taken from the site itself.)", page.Description)
			}
		}
	}

	analysis.BrandColors.ApplyDefaults()
	return analysis
}

func (a *Analyzer) HealthCheck(ctx context.Context) stage.Health {
	if a.backend == nil {
		return stage.Unhealthy("analysis", "backend client not configured")
	}
	if err := a.backend.HealthCheck(ctx); err != nil {
		// The stage still works without the backend thanks to the local
		// fallback, so report ready with detail.
		return stage.Health{
			Name:   "analysis",
			Ready:  true,
			Detail: fmt.Sprintf("backend unreachable, fallback only: %v", strings.TrimSpace(err.Error())),
		}
	}
	return stage.Healthy("analysis")
}
