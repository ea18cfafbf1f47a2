package autoblogapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autoblog/internal/services"
	"autoblog/internal/session"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append(opts, WithHTTPClient(server.Client()), WithSleeper(func(time.Duration) {}))
	return NewClient(Config{BaseURL: server.URL}, opts...), server
}

func TestAnalyzeWebsite_Success(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze-website" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"analysis":{"businessName":"Acme","scenarios":[{"id":"s1","title":"Launch"}]}}`))
	}))

	analysis, err := client.AnalyzeWebsite(context.Background(), "https://acme.com")
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

func TestAnalyzeWebsite_AttachesBearerToken(t *testing.T) {
	var got string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"analysis":{}}`))
	}), WithTokenSource(staticToken("tok-123")))

	if _, err := client.AnalyzeWebsite(context.Background(), "https://acme.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Bearer tok-123" {
		t.Fatalf("unexpected authorization header: %q", got)
	}
}

func TestPostJSON_RetriesServerErrors(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"topics":[{"id":"t1","title":"First"}]}`))
	}))

	topics, err := client.TrendingTopics(context.Background(), TopicsRequest{BusinessType: "Retail"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(topics) != 1 || topics[0].ID != "t1" {
		t.Fatalf("unexpected topics: %+v", topics)
	}
}

func TestPostJSON_UnauthorizedDoesNotRetry(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.GenerateContent(context.Background(), ContentRequest{Topic: session.Topic{Title: "First"}})
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestPostJSON_BadRequestDoesNotRetry(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := client.AnalyzeChanges(context.Background(), "before", "after", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestGenerateContent_EmptyContent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"blogPost":{"content":"  "}}`))
	}))

	_, err := client.GenerateContent(context.Background(), ContentRequest{Topic: session.Topic{Title: "First"}})
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestGenerateContent_DecodesBlogPostEnvelope(t *testing.T) {
	var body map[string]json.RawMessage
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"blogPost":{"content":"# Hello\n\nBody."}}`))
	}))

	content, err := client.GenerateContent(context.Background(), ContentRequest{
		Topic:                  session.Topic{ID: "t1", Title: "First"},
		BusinessInfo:           session.WebsiteAnalysis{BusinessName: "Acme"},
		AdditionalInstructions: "Keep it short",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "# Hello\n\nBody." {
		t.Fatalf("unexpected content %q", content)
	}
	for _, key := range []string{"topic", "businessInfo", "additionalInstructions"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("request body missing %q: %v", key, body)
		}
	}
}

func TestAnalyzeChanges_DecodesAnalysisEnvelope(t *testing.T) {
	var body map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"analysis":{"summary":" Tone softened ","keyChanges":["Shorter intro"],"feedbackApplied":true}}`))
	}))

	changes, err := client.AnalyzeChanges(context.Background(), "before", "after", "soften the tone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changes.Summary != "Tone softened" {
		t.Fatalf("unexpected summary %q", changes.Summary)
	}
	if len(changes.KeyChanges) != 1 || !changes.FeedbackApplied {
		t.Fatalf("unexpected change analysis %+v", changes)
	}
	want := map[string]string{
		"previousContent": "before",
		"newContent":      "after",
		"customFeedback":  "soften the tone",
	}
	for key, value := range want {
		if body[key] != value {
			t.Fatalf("request body[%q] = %q, want %q", key, body[key], value)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBackoffDelay_Caps(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:3001"},
		WithRetryBackoff(500*time.Millisecond, 8*time.Second))
	if got := client.backoffDelay(1); got != 500*time.Millisecond {
		t.Fatalf("attempt 1 delay = %s", got)
	}
	if got := client.backoffDelay(2); got != time.Second {
		t.Fatalf("attempt 2 delay = %s", got)
	}
	if got := client.backoffDelay(10); got != 8*time.Second {
		t.Fatalf("attempt 10 delay = %s, want cap", got)
	}
}
