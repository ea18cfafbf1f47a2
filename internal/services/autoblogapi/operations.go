package autoblogapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"autoblog/internal/session"
)

// AnalyzeResult carries the backend's read of a website.
type AnalyzeResult struct {
	Analysis session.WebsiteAnalysis `json:"analysis"`
}

// AnalyzeWebsite asks the backend to analyze the supplied website.
func (c *Client) AnalyzeWebsite(ctx context.Context, websiteURL string) (session.WebsiteAnalysis, error) {
	websiteURL = strings.TrimSpace(websiteURL)
	if websiteURL == "" {
		return session.WebsiteAnalysis{}, errors.New("analyze website: url required")
	}
	payload := struct {
		URL string `json:"url"`
	}{URL: websiteURL}
	var result AnalyzeResult
	if err := c.postJSON(ctx, "/api/analyze-website", payload, &result, "analyze website"); err != nil {
		return session.WebsiteAnalysis{}, err
	}
	result.Analysis.BrandColors.ApplyDefaults()
	return result.Analysis, nil
}

// TopicsRequest scopes trending topic generation to a business profile.
type TopicsRequest struct {
	BusinessType   string `json:"businessType"`
	TargetAudience string `json:"targetAudience"`
	ContentFocus   string `json:"contentFocus"`
}

// TrendingTopics asks the backend for topic candidates.
func (c *Client) TrendingTopics(ctx context.Context, req TopicsRequest) ([]session.Topic, error) {
	var result struct {
		Topics []session.Topic `json:"topics"`
	}
	if err := c.postJSON(ctx, "/api/trending-topics", req, &result, "trending topics"); err != nil {
		return nil, err
	}
	return result.Topics, nil
}

// ContentRequest describes a generation or regeneration call.
type ContentRequest struct {
	Topic                  session.Topic           `json:"topic"`
	BusinessInfo           session.WebsiteAnalysis `json:"businessInfo"`
	AdditionalInstructions string                  `json:"additionalInstructions,omitempty"`
}

// GenerateContent asks the backend to write (or rewrite) an article. The
// article body arrives wrapped in a blogPost envelope.
func (c *Client) GenerateContent(ctx context.Context, req ContentRequest) (string, error) {
	if req.Topic.Title == "" {
		return "", errors.New("generate content: topic required")
	}
	var result struct {
		BlogPost struct {
			Content string `json:"content"`
		} `json:"blogPost"`
	}
	if err := c.postJSON(ctx, "/api/generate-content", req, &result, "generate content"); err != nil {
		return "", err
	}
	if strings.TrimSpace(result.BlogPost.Content) == "" {
		return "", errors.New("generate content: backend returned empty content")
	}
	return result.BlogPost.Content, nil
}

// ExportRecord is the blogPost envelope sent when reporting an export.
type ExportRecord struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// RecordExport notifies the backend that an article was exported.
// Rendering happens locally; this call only updates server-side counters,
// so failures are reported but must not block the export. The raw file
// blob the endpoint returns is discarded.
func (c *Client) RecordExport(ctx context.Context, post ExportRecord, format string) error {
	payload := struct {
		BlogPost ExportRecord `json:"blogPost"`
		Format   string       `json:"format"`
	}{BlogPost: post, Format: format}
	return c.postJSON(ctx, "/api/export", payload, nil, "record export")
}

// ChangeAnalysis describes how the current revision differs from the
// previous one and whether the user's feedback was applied.
type ChangeAnalysis struct {
	Summary         string   `json:"summary"`
	KeyChanges      []string `json:"keyChanges"`
	FeedbackApplied bool     `json:"feedbackApplied"`
}

// AnalyzeChanges summarizes the difference between two article revisions.
func (c *Client) AnalyzeChanges(ctx context.Context, previous, current, feedback string) (ChangeAnalysis, error) {
	payload := struct {
		Previous string `json:"previousContent"`
		Current  string `json:"newContent"`
		Feedback string `json:"customFeedback,omitempty"`
	}{Previous: previous, Current: current, Feedback: feedback}
	var result struct {
		Analysis ChangeAnalysis `json:"analysis"`
	}
	if err := c.postJSON(ctx, "/api/analyze-changes", payload, &result, "analyze changes"); err != nil {
		return ChangeAnalysis{}, err
	}
	result.Analysis.Summary = strings.TrimSpace(result.Analysis.Summary)
	return result.Analysis, nil
}

// HealthCheck verifies the backend answers on its health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.sendOnce(ctx, http.MethodGet, "/health", nil); err != nil {
		return fmt.Errorf("backend health: %w", err)
	}
	return nil
}
