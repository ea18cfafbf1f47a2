package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autoblog/internal/config"
)

const userAgent = "AutoBlog/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyAnalysisComplete(ctx context.Context, businessName, websiteURL string) error
	NotifyTopicsReady(ctx context.Context, businessName string, count int) error
	NotifyContentGenerated(ctx context.Context, topicTitle string) error
	NotifyExportCompleted(ctx context.Context, title, format, path string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		events:   cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	events   config.Notifications
}

func (n *ntfyService) NotifyAnalysisComplete(ctx context.Context, businessName, websiteURL string) error {
	if !n.events.Analysis {
		return nil
	}
	businessName = strings.TrimSpace(businessName)
	websiteURL = strings.TrimSpace(websiteURL)
	data := payload{
		title:   "AutoBlog - Analysis Complete",
		message: fmt.Sprintf("Analyzed %s (%s)", businessName, websiteURL),
		tags:    []string{"autoblog", "analysis", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTopicsReady(ctx context.Context, businessName string, count int) error {
	if !n.events.Content {
		return nil
	}
	businessName = strings.TrimSpace(businessName)
	data := payload{
		title:   "AutoBlog - Topics Ready",
		message: fmt.Sprintf("%d topic ideas ready for %s", count, businessName),
		tags:    []string{"autoblog", "topics", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyContentGenerated(ctx context.Context, topicTitle string) error {
	if !n.events.Content {
		return nil
	}
	topicTitle = strings.TrimSpace(topicTitle)
	data := payload{
		title:   "AutoBlog - Draft Ready",
		message: fmt.Sprintf("Draft generated: %s", topicTitle),
		tags:    []string{"autoblog", "content", "generated"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportCompleted(ctx context.Context, title, format, path string) error {
	if !n.events.Export {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Exported %s as %s", title, strings.ToUpper(format))
	if path = strings.TrimSpace(path); path != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, path)
	}
	data := payload{
		title:    "AutoBlog - Export Complete",
		message:  message,
		tags:     []string{"autoblog", "export", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.events.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "AutoBlog - Error",
		message:  builder.String(),
		tags:     []string{"autoblog", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "AutoBlog - Test",
		message:  "Notification system test",
		tags:     []string{"autoblog", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyAnalysisComplete(context.Context, string, string) error { return nil }
func (noopService) NotifyTopicsReady(context.Context, string, int) error         { return nil }
func (noopService) NotifyContentGenerated(context.Context, string) error         { return nil }
func (noopService) NotifyExportCompleted(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
