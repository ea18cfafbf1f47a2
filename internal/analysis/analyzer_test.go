package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"autoblog/internal/logging"
	"autoblog/internal/services"
	"autoblog/internal/session"
	"autoblog/internal/testsupport"
)

type fakeBackend struct {
	responses []session.WebsiteAnalysis
	err       error
	calls     int
}

func (f *fakeBackend) AnalyzeWebsite(ctx context.Context, websiteURL string) (session.WebsiteAnalysis, error) {
	f.calls++
	if f.err != nil {
		return session.WebsiteAnalysis{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func (f *fakeBackend) HealthCheck(ctx context.Context) error { return f.err }

func newAnalyzer(t *testing.T, backend Backend) (*Analyzer, *session.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	analyzer := NewAnalyzerWithDependencies(cfg, store, logging.NewNop(), backend, nil)
	analyzer.sleeper = func(d time.Duration) {}
	return analyzer, store
}

func TestPrepare_RejectsInvalidURL(t *testing.T) {
	analyzer, store := newAnalyzer(t, &fakeBackend{})
	sess := testsupport.NewSession(t, store, "not a url")

	err := analyzer.Prepare(context.Background(), sess)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPrepare_NormalizesURL(t *testing.T) {
	analyzer, store := newAnalyzer(t, &fakeBackend{})
	sess := testsupport.NewSession(t, store, "acme.com")

	if err := analyzer.Prepare(context.Background(), sess); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if sess.WebsiteURL != "https://acme.com" {
		t.Fatalf("unexpected normalized url %q", sess.WebsiteURL)
	}
}

func TestExecute_StoresAnalysisAndSortsScenarios(t *testing.T) {
	backend := &fakeBackend{responses: []session.WebsiteAnalysis{{
		BusinessName: "Acme",
		Scenarios: []session.Scenario{
			{ID: "s3", Title: "Third", BusinessValue: &session.BusinessValue{Priority: 3}},
			{ID: "s1", Title: "First", BusinessValue: &session.BusinessValue{Priority: 1}},
			{ID: "s2", Title: "Second", BusinessValue: &session.BusinessValue{Priority: 2}},
		},
		WebSearchStatus: session.WebSearchStatus{EnhancementComplete: true},
	}}}
	analyzer, store := newAnalyzer(t, backend)
	sess := testsupport.NewSession(t, store, "https://acme.com")
	sess.Status = session.StatusAnalyzing

	if err := analyzer.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sess.Status != session.StatusAnalyzed {
		t.Fatalf("unexpected status %s", sess.Status)
	}

	analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
	if analysis.BusinessName != "Acme" {
		t.Fatalf("unexpected business name %q", analysis.BusinessName)
	}
	order := []string{analysis.Scenarios[0].ID, analysis.Scenarios[1].ID, analysis.Scenarios[2].ID}
	if order[0] != "s1" || order[1] != "s2" || order[2] != "s3" {
		t.Fatalf("scenarios not sorted by priority: %v", order)
	}
	if analysis.BrandColors.Primary != session.DefaultBrandColors().Primary {
		t.Fatalf("expected default brand colors, got %+v", analysis.BrandColors)
	}
}

func TestExecute_FallbackNeverErrors(t *testing.T) {
	analyzer, store := newAnalyzer(t, &fakeBackend{err: errors.New("backend down")})
	sess := testsupport.NewSession(t, store, "https://acme.com")
	sess.Status = session.StatusAnalyzing

	if err := analyzer.Execute(context.Background(), sess); err != nil {
		t.Fatalf("analysis must degrade gracefully, got %v", err)
	}
	analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
	if !analysis.Fallback {
		t.Fatal("expected fallback analysis")
	}
	if analysis.BusinessName != "Acme" {
		t.Fatalf("expected business name from domain label, got %q", analysis.BusinessName)
	}
	if !strings.Contains(analysis.Description, "unable to analyze") {
		t.Fatalf("fallback description missing notice: %q", analysis.Description)
	}
}

func TestExecute_EnhancementPollingIsBounded(t *testing.T) {
	incomplete := session.WebsiteAnalysis{
		BusinessName:    "Acme",
		WebSearchStatus: session.WebSearchStatus{EnhancementComplete: false},
	}
	backend := &fakeBackend{responses: []session.WebsiteAnalysis{incomplete}}
	analyzer, store := newAnalyzer(t, backend)
	sess := testsupport.NewSession(t, store, "https://acme.com")
	sess.Status = session.StatusAnalyzing

	if err := analyzer.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	wantCalls := 1 + analyzer.cfg.Analysis.EnhancementMaxAttempts
	if backend.calls != wantCalls {
		t.Fatalf("expected %d backend calls, got %d", wantCalls, backend.calls)
	}
	if sess.Status != session.StatusAnalyzed {
		t.Fatalf("expected analyzed status despite incomplete enhancement, got %s", sess.Status)
	}
}

func TestExecute_EnhancementStopsWhenComplete(t *testing.T) {
	incomplete := session.WebsiteAnalysis{
		BusinessName:    "Acme",
		WebSearchStatus: session.WebSearchStatus{EnhancementComplete: false},
	}
	complete := incomplete
	complete.WebSearchStatus.EnhancementComplete = true
	backend := &fakeBackend{responses: []session.WebsiteAnalysis{incomplete, incomplete, complete}}
	analyzer, store := newAnalyzer(t, backend)
	sess := testsupport.NewSession(t, store, "https://acme.com")
	sess.Status = session.StatusAnalyzing

	if err := analyzer.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if backend.calls != 3 {
		t.Fatalf("expected polling to stop after enhancement completed, got %d calls", backend.calls)
	}
}
