package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"autoblog/internal/logging"
	"autoblog/internal/services"
	"autoblog/internal/services/autoblogapi"
	"autoblog/internal/session"
	"autoblog/internal/testsupport"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"How to Choose a Widget", "how-to-choose-a-widget"},
		{"  Spaces   Everywhere  ", "spaces-everywhere"},
		{"Symbols!@# & Numbers 42", "symbols-numbers-42"},
		{"", "untitled"},
		{"!!!", "untitled"},
	}
	for _, tc := range cases {
		if got := Slug(tc.title); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestSlug_Properties(t *testing.T) {
	long := strings.Repeat("very long title ", 20)
	slug := Slug(long)
	if len(slug) > 50 {
		t.Fatalf("slug exceeds 50 chars: %d", len(slug))
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		t.Fatalf("slug has edge hyphen: %q", slug)
	}
	for _, r := range slug {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			t.Fatalf("slug contains invalid rune %q in %q", r, slug)
		}
	}
}

func TestWordCount(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one", 1},
		{"one two three", 3},
	}
	for _, tc := range cases {
		if got := WordCount(tc.content); got != tc.want {
			t.Errorf("WordCount(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"skips headings and blanks", "# Title\n\nFirst body line.", "First body line."},
		{"empty content", "", ""},
		{"only headings", "# One\n## Two", ""},
	}
	for _, tc := range cases {
		if got := Excerpt(tc.content); got != tc.want {
			t.Errorf("%s: Excerpt = %q, want %q", tc.name, got, tc.want)
		}
	}

	long := Excerpt(strings.Repeat("x", 300))
	if !strings.HasSuffix(long, "...") {
		t.Fatalf("long excerpt not truncated: %q", long)
	}
	if n := len([]rune(long)); n != 160 {
		t.Fatalf("long excerpt length %d, want 160", n)
	}
}

func TestReadingTime(t *testing.T) {
	cases := []struct {
		chars int
		want  int
	}{
		{0, 0},
		{1, 1},
		{999, 1},
		{1000, 1},
		{1001, 2},
		{5000, 5},
	}
	for _, tc := range cases {
		content := strings.Repeat("a", tc.chars)
		if got := ReadingTime(content); got != tc.want {
			t.Errorf("ReadingTime(%d chars) = %d, want %d", tc.chars, got, tc.want)
		}
	}
}

type fakeBackend struct {
	recorded []autoblogapi.ExportRecord
	formats  []string
	err      error
}

func (f *fakeBackend) RecordExport(ctx context.Context, post autoblogapi.ExportRecord, format string) error {
	f.recorded = append(f.recorded, post)
	f.formats = append(f.formats, format)
	return f.err
}

func (f *fakeBackend) HealthCheck(ctx context.Context) error { return f.err }

func exportableSession(t *testing.T, store *session.Store) *session.Session {
	t.Helper()
	sess := testsupport.NewSession(t, store, "https://acme.com")
	analysis := session.WebsiteAnalysis{
		BusinessName: "Acme",
		Keywords:     []string{"widgets"},
		Scenarios: []session.Scenario{
			{ID: "s1", Title: "First-time buyers", Keywords: []string{"widgets", "buying"}},
		},
	}
	encoded, err := analysis.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	topicsJSON, err := session.TopicsToJSON([]session.Topic{{
		ID:        "t1",
		Title:     "How to Choose a Widget",
		Subheader: "A practical buying guide",
		Category:  "Buying Guides",
	}})
	if err != nil {
		t.Fatalf("TopicsToJSON: %v", err)
	}
	sess.AnalysisJSON = encoded
	sess.TopicsJSON = topicsJSON
	sess.SelectedScenarioID = "s1"
	sess.SelectedTopicID = "t1"
	sess.AccountEmail = "user@example.com"
	sess.Content = "## Heading\n\nSome article body."
	sess.Status = session.StatusExporting
	return sess
}

func TestEngine_ExportsMarkdownAndLocks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	backend := &fakeBackend{}
	engine := NewEngineWithDependencies(cfg, store, logging.NewNop(), backend, nil)
	sess := exportableSession(t, store)
	sess.ExportFormat = "markdown"

	if err := engine.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sess.Status != session.StatusExported {
		t.Fatalf("unexpected status %s", sess.Status)
	}
	if sess.PostState != session.PostStateExported {
		t.Fatalf("unexpected post state %s", sess.PostState)
	}
	if !sess.ContentLocked() {
		t.Fatal("export must lock further edits")
	}
	if sess.ExportedAt == nil {
		t.Fatal("expected exported timestamp")
	}

	data, err := os.ReadFile(sess.ExportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "title: \"How to Choose a Widget\"") {
		t.Fatalf("front matter missing title:\n%s", text)
	}
	if !strings.Contains(text, "slug: how-to-choose-a-widget") {
		t.Fatalf("front matter missing slug:\n%s", text)
	}
	if !strings.Contains(text, "*A practical buying guide*") {
		t.Fatalf("markdown missing subheading:\n%s", text)
	}
	if !strings.Contains(text, markdownAttribution) {
		t.Fatalf("markdown missing attribution footer:\n%s", text)
	}
	for _, line := range []string{
		"Tags: widgets, buying",
		"Category: Buying Guides",
		"Word count: 4",
		"Source: Acme https://acme.com",
	} {
		if !strings.Contains(text, line) {
			t.Fatalf("markdown missing %q:\n%s", line, text)
		}
	}
	if len(backend.formats) != 1 || backend.formats[0] != "markdown" {
		t.Fatalf("expected export recorded, got %v", backend.formats)
	}
	if backend.recorded[0].Title != "How to Choose a Widget" || backend.recorded[0].Content == "" {
		t.Fatalf("expected the article in the export record, got %+v", backend.recorded[0])
	}
}

func TestEngine_ExportsHTMLWithBrandColors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := NewEngineWithDependencies(cfg, store, logging.NewNop(), &fakeBackend{}, nil)
	sess := exportableSession(t, store)
	sess.ExportFormat = "html"

	if err := engine.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(sess.ExportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, session.DefaultBrandColors().Primary) {
		t.Fatalf("html missing default primary color:\n%s", text)
	}
	if !strings.Contains(text, "<h2>Heading</h2>") {
		t.Fatalf("markdown not converted to html:\n%s", text)
	}
}

func TestEngine_ExportsJSONWithMetrics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := NewEngineWithDependencies(cfg, store, logging.NewNop(), &fakeBackend{}, nil)
	sess := exportableSession(t, store)
	sess.Content = strings.Repeat("word ", 99) + "word"
	sess.ExportFormat = "json"

	if err := engine.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(sess.ExportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var payload struct {
		Slug          string   `json:"slug"`
		Excerpt       string   `json:"excerpt"`
		Tags          []string `json:"tags"`
		Category      string   `json:"category"`
		PublishedAt   string   `json:"publishedAt"`
		Source        string   `json:"source"`
		SourceWebsite string   `json:"sourceWebsite"`
		BrandColors   struct {
			Primary string `json:"primary"`
		} `json:"brandColors"`
		Metadata struct {
			WordCount     int    `json:"wordCount"`
			ReadingTime   int    `json:"readingTime"`
			GeneratedAt   string `json:"generatedAt"`
			AutoGenerated bool   `json:"autoGenerated"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if payload.Metadata.WordCount != 100 {
		t.Fatalf("unexpected word count %d", payload.Metadata.WordCount)
	}
	if payload.Metadata.ReadingTime != 1 {
		t.Fatalf("unexpected reading time %d", payload.Metadata.ReadingTime)
	}
	if !payload.Metadata.AutoGenerated {
		t.Fatal("expected autoGenerated flag")
	}
	if payload.Metadata.GeneratedAt == "" {
		t.Fatal("expected generatedAt timestamp")
	}
	if payload.Slug != "how-to-choose-a-widget" {
		t.Fatalf("unexpected slug %q", payload.Slug)
	}
	if payload.Excerpt == "" {
		t.Fatal("expected an excerpt")
	}
	if len(payload.Tags) != 2 || payload.Tags[0] != "widgets" {
		t.Fatalf("unexpected tags %v", payload.Tags)
	}
	if payload.Category != "Buying Guides" {
		t.Fatalf("unexpected category %q", payload.Category)
	}
	if payload.PublishedAt == "" {
		t.Fatal("expected publishedAt timestamp")
	}
	if payload.Source != "Acme" || payload.SourceWebsite != "https://acme.com" {
		t.Fatalf("unexpected source %q %q", payload.Source, payload.SourceWebsite)
	}
}

func TestPrepare_RequiresContent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := NewEngineWithDependencies(cfg, store, logging.NewNop(), &fakeBackend{}, nil)
	sess := exportableSession(t, store)
	sess.Content = ""

	if err := engine.Prepare(context.Background(), sess); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty content, got %v", err)
	}
}

func TestPrepare_GateRedirectWithoutAccount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := NewEngineWithDependencies(cfg, store, logging.NewNop(), &fakeBackend{}, nil)
	sess := exportableSession(t, store)
	sess.AccountEmail = ""

	if err := engine.Prepare(context.Background(), sess); !services.IsGateRedirect(err) {
		t.Fatalf("expected gate redirect, got %v", err)
	}
}

func TestEngine_RecordExportFailureDoesNotBlock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	backend := &fakeBackend{err: context.DeadlineExceeded}
	engine := NewEngineWithDependencies(cfg, store, logging.NewNop(), backend, nil)
	sess := exportableSession(t, store)
	sess.ExportFormat = "markdown"

	if err := engine.Execute(context.Background(), sess); err != nil {
		t.Fatalf("export must succeed despite counter failure, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"HTML":     FormatHTML,
		" json ":   FormatJSON,
	} {
		got, err := ParseFormat(raw)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
