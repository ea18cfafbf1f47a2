package stage

import (
	"errors"
	"testing"

	"autoblog/internal/services"
	"autoblog/internal/session"
)

func TestRequireAnalysis_Present(t *testing.T) {
	sess := &session.Session{AnalysisJSON: `{"businessName":"Acme","scenarios":[]}`}
	analysis, err := RequireAnalysis(sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.BusinessName != "Acme" {
		t.Fatalf("unexpected business name: %q", analysis.BusinessName)
	}
	if analysis.BrandColors.Primary == "" {
		t.Fatal("expected default brand colors applied")
	}
}

func TestRequireAnalysis_Missing(t *testing.T) {
	_, err := RequireAnalysis(&session.Session{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireTopics_Empty(t *testing.T) {
	_, err := RequireTopics(&session.Session{TopicsJSON: "[]"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireTopics_Present(t *testing.T) {
	sess := &session.Session{TopicsJSON: `[{"id":"t1","title":"First"}]`}
	topics, err := RequireTopics(sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(topics) != 1 || topics[0].ID != "t1" {
		t.Fatalf("unexpected topics: %+v", topics)
	}
}
