package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// Service fetches a page and reduces it to plain text for use as chat
// grounding context.
type Service struct {
	client *resty.Client
}

// NewService builds the scraper with a bounded HTTP client.
func NewService(timeout time.Duration, userAgent string) *Service {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)

	return &Service{client: client}
}

// ValidURL reports whether raw has both a scheme and a host.
func ValidURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

// PageText fetches pageURL and returns its visible text, one line per text
// node, trimmed and with blank lines dropped.
func (s *Service) PageText(ctx context.Context, pageURL string) (string, error) {
	if !ValidURL(pageURL) {
		return "", fmt.Errorf("invalid url %q", pageURL)
	}

	resp, err := s.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("HTTP error %d when fetching page", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	text := collapseWhitespace(root.Text())
	if text == "" {
		return "", fmt.Errorf("no text content at %s", pageURL)
	}
	return text, nil
}

func collapseWhitespace(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
