package analysis

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const probeUserAgent = "AutoBlog/0.1.0 (+https://github.com/autoblog/autoblog)"

// PageSummary holds what the probe could read from the site itself.
type PageSummary struct {
	Title       string
	Description string
}

// Probe fetches a website's landing page and extracts its title and meta
// description. Strictly best-effort; every failure returns an error the
// caller is expected to ignore.
type Probe struct {
	client *http.Client
}

// NewProbe builds a probe with the given request timeout.
func NewProbe(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Probe{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and parses the page at the given URL.
func (p *Probe) Fetch(ctx context.Context, pageURL string) (PageSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return PageSummary{}, fmt.Errorf("probe: new request: %w", err)
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return PageSummary{}, fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return PageSummary{}, fmt.Errorf("probe: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return PageSummary{}, fmt.Errorf("probe: parse page: %w", err)
	}
	return summarize(doc), nil
}

func summarize(doc *goquery.Document) PageSummary {
	summary := PageSummary{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name, _ := sel.Attr("name")
		property, _ := sel.Attr("property")
		if strings.EqualFold(name, "description") || strings.EqualFold(property, "og:description") {
			if content, ok := sel.Attr("content"); ok {
				summary.Description = strings.TrimSpace(content)
				return summary.Description == ""
			}
		}
		return true
	})
	if title, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			summary.Title = trimmed
		}
	}
	return summary
}
