package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"autoblog/internal/logging"
	"autoblog/internal/services"
	"autoblog/internal/services/autoblogapi"
	"autoblog/internal/session"
	"autoblog/internal/testsupport"
)

type fakeBackend struct {
	content     string
	changes     autoblogapi.ChangeAnalysis
	err         error
	calls       int
	gotReq      autoblogapi.ContentRequest
	gotFeedback string
}

func (f *fakeBackend) GenerateContent(ctx context.Context, req autoblogapi.ContentRequest) (string, error) {
	f.calls++
	f.gotReq = req
	return f.content, f.err
}

func (f *fakeBackend) AnalyzeChanges(ctx context.Context, previous, current, feedback string) (autoblogapi.ChangeAnalysis, error) {
	f.gotFeedback = feedback
	return f.changes, f.err
}

func (f *fakeBackend) HealthCheck(ctx context.Context) error { return f.err }

func readySession(t *testing.T, store *session.Store) *session.Session {
	t.Helper()
	sess := testsupport.NewSession(t, store, "https://acme.com")
	analysis := session.WebsiteAnalysis{
		BusinessName: "Acme",
		Scenarios: []session.Scenario{{
			ID:              "s1",
			Title:           "Launch",
			CustomerProblem: "Customers cannot find reliable reviews",
			Keywords:        []string{"acme reviews", "best widgets"},
			ConversionPath:  "Request a demo",
		}},
	}
	encoded, err := analysis.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	topicsJSON, err := session.TopicsToJSON([]session.Topic{
		{ID: "t1", Title: "How to Choose a Widget"},
		{ID: "t2", Title: "Widget Maintenance Basics"},
	})
	if err != nil {
		t.Fatalf("TopicsToJSON: %v", err)
	}
	sess.AnalysisJSON = encoded
	sess.TopicsJSON = topicsJSON
	sess.SelectedScenarioID = "s1"
	sess.SelectedTopicID = "t1"
	sess.AccountEmail = "user@example.com"
	sess.Status = session.StatusGeneratingContent
	return sess
}

func newGenerator(t *testing.T, backend Backend) (*Generator, *session.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return NewGeneratorWithDependencies(cfg, store, logging.NewNop(), backend, nil), store
}

func TestPrepare_GateRedirectWithoutAccount(t *testing.T) {
	backend := &fakeBackend{content: "article"}
	gen, store := newGenerator(t, backend)
	sess := readySession(t, store)
	sess.AccountEmail = ""

	err := gen.Prepare(context.Background(), sess)
	if !services.IsGateRedirect(err) {
		t.Fatalf("expected gate redirect, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("expected zero generation calls, got %d", backend.calls)
	}
}

func TestPrepare_DemoModeBypassesGate(t *testing.T) {
	gen, store := newGenerator(t, &fakeBackend{content: "article"})
	sess := readySession(t, store)
	sess.AccountEmail = ""
	sess.DemoMode = true

	if err := gen.Prepare(context.Background(), sess); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
}

func TestPrepare_ExportedPostIsLocked(t *testing.T) {
	gen, store := newGenerator(t, &fakeBackend{content: "article"})
	sess := readySession(t, store)
	sess.Status = session.StatusRegenerating
	sess.PostState = session.PostStateExported

	err := gen.Prepare(context.Background(), sess)
	if !errors.Is(err, services.ErrLocked) {
		t.Fatalf("expected locked error, got %v", err)
	}
}

func TestExecute_GeneratesAndAdvances(t *testing.T) {
	backend := &fakeBackend{content: "Generated article body."}
	gen, store := newGenerator(t, backend)
	sess := readySession(t, store)

	if err := gen.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sess.Content != "Generated article body." {
		t.Fatalf("unexpected content %q", sess.Content)
	}
	if sess.Status != session.StatusEditing {
		t.Fatalf("unexpected status %s", sess.Status)
	}
	if sess.PreviousContent != "" {
		t.Fatal("first generation must not create a previous revision")
	}
	instructions := backend.gotReq.AdditionalInstructions
	for _, want := range []string{"Customers cannot find reliable reviews", "acme reviews", "Request a demo"} {
		if !strings.Contains(instructions, want) {
			t.Fatalf("instructions missing %q:\n%s", want, instructions)
		}
	}
}

func TestExecute_RegenerationSnapshotsOnSuccessOnly(t *testing.T) {
	backend := &fakeBackend{err: errors.New("backend down")}
	gen, store := newGenerator(t, backend)
	sess := readySession(t, store)
	sess.Status = session.StatusRegenerating
	sess.Content = "Original draft."
	sess.RegenFeedback = "Make it shorter"

	err := gen.Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external-service error, got %v", err)
	}
	if sess.PreviousContent != "" {
		t.Fatal("failed regeneration must not snapshot previous content")
	}
	if sess.Content != "Original draft." {
		t.Fatal("failed regeneration must not clobber the draft")
	}

	backend.err = nil
	backend.content = "Shorter draft."
	if err := gen.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sess.PreviousContent != "Original draft." {
		t.Fatalf("expected snapshot of previous revision, got %q", sess.PreviousContent)
	}
	if sess.Content != "Shorter draft." {
		t.Fatalf("unexpected content %q", sess.Content)
	}
	if sess.RegenFeedback != "Make it shorter" {
		t.Fatal("feedback must survive regeneration for the change analysis")
	}
}

func TestExecute_RegenerationIncludesFeedbackAndStrategy(t *testing.T) {
	backend := &fakeBackend{content: "Rewritten."}
	gen, store := newGenerator(t, backend)
	sess := readySession(t, store)
	sess.Status = session.StatusRegenerating
	sess.Content = "Original draft."
	sess.RegenFeedback = "Lead with the problem"

	if err := gen.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	instructions := backend.gotReq.AdditionalInstructions
	for _, want := range []string{
		"Lead with the problem",
		"Goal: awareness",
		"Voice: expert",
		"Template: problem-solution",
		"Length: standard",
	} {
		if !strings.Contains(instructions, want) {
			t.Fatalf("instructions missing %q:\n%s", want, instructions)
		}
	}
	if backend.gotReq.BusinessInfo.BusinessName != "Acme" {
		t.Fatalf("expected business info in request, got %+v", backend.gotReq.BusinessInfo)
	}
}

func TestBuildInstructions_GenericWithoutScenario(t *testing.T) {
	got := BuildInstructions(nil, session.DefaultContentStrategy(), "", false)
	if !strings.Contains(got, "target audience") {
		t.Fatalf("expected generic instruction, got %q", got)
	}
	if strings.Contains(got, "Goal:") {
		t.Fatal("strategy must only be rendered on regeneration")
	}
}

func TestChangeSummary_RequiresPreviousRevision(t *testing.T) {
	backend := &fakeBackend{changes: autoblogapi.ChangeAnalysis{
		Summary:         "Tone changed.",
		KeyChanges:      []string{"Shorter intro"},
		FeedbackApplied: true,
	}}
	gen, store := newGenerator(t, backend)
	sess := readySession(t, store)
	sess.Content = "Draft."

	if _, err := gen.ChangeSummary(context.Background(), sess); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	sess.PreviousContent = "Old draft."
	sess.RegenFeedback = "Make it shorter"
	changes, err := gen.ChangeSummary(context.Background(), sess)
	if err != nil {
		t.Fatalf("ChangeSummary: %v", err)
	}
	if changes.Summary != "Tone changed." {
		t.Fatalf("unexpected summary %q", changes.Summary)
	}
	if !changes.FeedbackApplied || len(changes.KeyChanges) != 1 {
		t.Fatalf("unexpected change analysis %+v", changes)
	}
	if backend.gotFeedback != "Make it shorter" {
		t.Fatalf("expected the regeneration feedback forwarded, got %q", backend.gotFeedback)
	}
}
