package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"autoblog/internal/session"
)

// Format is a supported export output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (supported: markdown, html, json)", value)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatJSON:
		return "json"
	default:
		return "md"
	}
}

// Document collects everything a renderer needs for one article.
type Document struct {
	Title       string
	Subheading  string
	Content     string
	Slug        string
	Excerpt     string
	Tags        []string
	Category    string
	WordCount   int
	ReadingTime int
	Business    string
	Website     string
	Colors      session.BrandColors
	GeneratedAt time.Time
	ExportedAt  time.Time
}

// NewDocument derives the export document for a session's article.
func NewDocument(sess *session.Session, topicTitle string, now time.Time) Document {
	analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
	doc := Document{
		Title:       topicTitle,
		Content:     sess.Content,
		Slug:        Slug(topicTitle),
		Excerpt:     Excerpt(sess.Content),
		Tags:        analysis.Keywords,
		WordCount:   WordCount(sess.Content),
		ReadingTime: ReadingTime(sess.Content),
		Business:    analysis.BusinessName,
		Website:     sess.WebsiteURL,
		Colors:      analysis.BrandColors,
		GeneratedAt: now.UTC(),
		ExportedAt:  now.UTC(),
	}
	if !sess.UpdatedAt.IsZero() {
		doc.GeneratedAt = sess.UpdatedAt.UTC()
	}
	topics := session.TopicsFromJSON(sess.TopicsJSON)
	if topic, ok := session.TopicByID(topics, sess.SelectedTopicID); ok {
		doc.Subheading = topic.Subheader
		doc.Category = topic.Category
	}
	if scenario, ok := analysis.ScenarioByID(sess.SelectedScenarioID); ok && len(scenario.Keywords) > 0 {
		doc.Tags = scenario.Keywords
	}
	return doc
}

// Render produces the file body for the requested format.
func Render(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(doc), nil
	case FormatHTML:
		return renderHTML(doc)
	case FormatJSON:
		return renderJSON(doc)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// markdownAttribution is the fixed footer appended to every markdown export.
const markdownAttribution = "*This article was generated by AutoBlog.*"

func renderMarkdown(doc Document) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", doc.Title)
	fmt.Fprintf(&b, "slug: %s\n", doc.Slug)
	fmt.Fprintf(&b, "exportedAt: %s\n", doc.ExportedAt.Format(time.RFC3339))
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	if doc.Subheading != "" {
		fmt.Fprintf(&b, "*%s*\n", doc.Subheading)
	}
	b.WriteByte('\n')
	b.WriteString(doc.Content)
	if !strings.HasSuffix(doc.Content, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("\n---\n\n")
	b.WriteString(markdownAttribution)
	b.WriteString("\n\n")
	if len(doc.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", doc.Category)
	}
	fmt.Fprintf(&b, "Reading time: %d min\n", doc.ReadingTime)
	fmt.Fprintf(&b, "Word count: %d\n", doc.WordCount)
	if doc.Business != "" || doc.Website != "" {
		fmt.Fprintf(&b, "Source: %s\n", strings.TrimSpace(doc.Business+" "+doc.Website))
	}
	return []byte(b.String())
}

func renderHTML(doc Document) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(doc.Content), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	colors := doc.Colors
	colors.ApplyDefaults()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", htmlEscape(doc.Title))
	if doc.Excerpt != "" {
		fmt.Fprintf(&b, "<meta name=\"description\" content=\"%s\">\n", htmlEscape(doc.Excerpt))
	}
	fmt.Fprintf(&b, `<style>
body { font-family: Georgia, serif; max-width: 42rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1, h2, h3 { color: %s; }
a { color: %s; }
blockquote { border-left: 4px solid %s; background: %s; margin: 0; padding: 0.5rem 1rem; }
.meta { color: #666; font-size: 0.9rem; }
</style>
`, colors.Primary, colors.Accent, colors.Accent, colors.Secondary)
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", htmlEscape(doc.Title))
	if doc.Subheading != "" {
		fmt.Fprintf(&b, "<p class=\"meta\">%s</p>\n", htmlEscape(doc.Subheading))
	}
	fmt.Fprintf(&b, "<p class=\"meta\">%d words · %d min read</p>\n", doc.WordCount, doc.ReadingTime)
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String()), nil
}

func renderJSON(doc Document) ([]byte, error) {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	payload := struct {
		Title         string              `json:"title"`
		Slug          string              `json:"slug"`
		Excerpt       string              `json:"excerpt"`
		Content       string              `json:"content"`
		Tags          []string            `json:"tags"`
		Category      string              `json:"category"`
		PublishedAt   string              `json:"publishedAt"`
		Source        string              `json:"source"`
		SourceWebsite string              `json:"sourceWebsite"`
		BrandColors   session.BrandColors `json:"brandColors"`
		Metadata      struct {
			WordCount     int    `json:"wordCount"`
			ReadingTime   int    `json:"readingTime"`
			GeneratedAt   string `json:"generatedAt"`
			AutoGenerated bool   `json:"autoGenerated"`
		} `json:"metadata"`
	}{
		Title:         doc.Title,
		Slug:          doc.Slug,
		Excerpt:       doc.Excerpt,
		Content:       doc.Content,
		Tags:          tags,
		Category:      doc.Category,
		PublishedAt:   doc.ExportedAt.Format(time.RFC3339),
		Source:        doc.Business,
		SourceWebsite: doc.Website,
		BrandColors:   doc.Colors,
	}
	payload.Metadata.WordCount = doc.WordCount
	payload.Metadata.ReadingTime = doc.ReadingTime
	payload.Metadata.GeneratedAt = doc.GeneratedAt.Format(time.RFC3339)
	payload.Metadata.AutoGenerated = true
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return append(data, '\n'), nil
}

func htmlEscape(value string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(value)
}
