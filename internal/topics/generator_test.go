package topics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"autoblog/internal/logging"
	"autoblog/internal/services"
	"autoblog/internal/services/autoblogapi"
	"autoblog/internal/session"
	"autoblog/internal/testsupport"
)

type fakeBackend struct {
	topics []session.Topic
	err    error
	gotReq autoblogapi.TopicsRequest
}

func (f *fakeBackend) TrendingTopics(ctx context.Context, req autoblogapi.TopicsRequest) ([]session.Topic, error) {
	f.gotReq = req
	return f.topics, f.err
}

func (f *fakeBackend) HealthCheck(ctx context.Context) error { return f.err }

func analyzedSession(t *testing.T, store *session.Store, scenario session.Scenario) *session.Session {
	t.Helper()
	sess := testsupport.NewSession(t, store, "https://acme.com")
	analysis := session.WebsiteAnalysis{
		BusinessName:   "Acme",
		BusinessType:   "Retail",
		TargetAudience: "Shoppers",
		ContentFocus:   "Product news",
		Scenarios:      []session.Scenario{scenario},
	}
	encoded, err := analysis.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	sess.AnalysisJSON = encoded
	sess.SelectedScenarioID = scenario.ID
	sess.Status = session.StatusGeneratingTopics
	return sess
}

func makeTopics(n int) []session.Topic {
	topics := make([]session.Topic, n)
	for i := range topics {
		topics[i] = session.Topic{ID: fmt.Sprintf("t%d", i+1), Title: fmt.Sprintf("Topic %d", i+1)}
	}
	return topics
}

func TestExecute_TruncatesToVisibleLimit(t *testing.T) {
	for _, count := range []int{0, 1, 2, 5} {
		t.Run(fmt.Sprintf("%d topics", count), func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			store := testsupport.MustOpenStore(t, cfg)
			backend := &fakeBackend{topics: makeTopics(count)}
			gen := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), backend, nil)
			sess := analyzedSession(t, store, session.Scenario{ID: "s1", Title: "Launch"})

			if err := gen.Execute(context.Background(), sess); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			got := session.TopicsFromJSON(sess.TopicsJSON)
			want := count
			if want > session.MaxVisibleTopics {
				want = session.MaxVisibleTopics
			}
			if len(got) != want {
				t.Fatalf("expected %d stored topics, got %d", want, len(got))
			}
			if sess.Status != session.StatusTopicsReady {
				t.Fatalf("unexpected status %s", sess.Status)
			}
		})
	}
}

func TestExecute_FallsBackToScenarioIdeas(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	backend := &fakeBackend{err: errors.New("backend down")}
	gen := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), backend, nil)
	scenario := session.Scenario{
		ID:           "s1",
		Title:        "Launch",
		ContentIdeas: []string{"First idea", "Second idea", "Third idea"},
	}
	sess := analyzedSession(t, store, scenario)

	if err := gen.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got := session.TopicsFromJSON(sess.TopicsJSON)
	if len(got) != session.MaxVisibleTopics {
		t.Fatalf("expected %d fallback topics, got %d", session.MaxVisibleTopics, len(got))
	}
	if got[0].Title != "First idea" || got[0].Category != "Launch" {
		t.Fatalf("unexpected fallback topic %+v", got[0])
	}
}

func TestExecute_AbortsWhenNoFallbackExists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	backend := &fakeBackend{err: errors.New("backend down")}
	gen := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), backend, nil)
	sess := analyzedSession(t, store, session.Scenario{ID: "s1", Title: "Launch"})

	err := gen.Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external-service error, got %v", err)
	}
}

func TestExecute_EmptyStateWithoutError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	backend := &fakeBackend{}
	gen := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), backend, nil)
	sess := analyzedSession(t, store, session.Scenario{ID: "s1", Title: "Launch"})

	if err := gen.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := session.TopicsFromJSON(sess.TopicsJSON); len(got) != 0 {
		t.Fatalf("expected explicit empty topic list, got %d", len(got))
	}
	if sess.Status != session.StatusTopicsReady {
		t.Fatalf("unexpected status %s", sess.Status)
	}
}

func TestExecute_SendsBusinessProfileToBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	backend := &fakeBackend{topics: makeTopics(1)}
	gen := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), backend, nil)
	sess := analyzedSession(t, store, session.Scenario{ID: "s1", Title: "Launch"})

	if err := gen.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := autoblogapi.TopicsRequest{
		BusinessType:   "Retail",
		TargetAudience: "Shoppers",
		ContentFocus:   "Product news",
	}
	if backend.gotReq != want {
		t.Fatalf("request = %+v, want %+v", backend.gotReq, want)
	}
}
