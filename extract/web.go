package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultUserAgent = "curator/1.0 (+https://github.com/poiesic/curator)"

// WebExtractor implements Extractor by fetching pages over HTTP and
// pulling readable content out of the HTML.
type WebExtractor struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ Extractor = (*WebExtractor)(nil)

// Option configures a WebExtractor.
type Option func(*WebExtractor)

// WithHTTPClient sets the HTTP client used for fetching pages.
func WithHTTPClient(client *http.Client) Option {
	return func(e *WebExtractor) {
		e.client = client
	}
}

// WithUserAgent sets the User-Agent header sent with requests.
func WithUserAgent(ua string) Option {
	return func(e *WebExtractor) {
		e.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *WebExtractor) {
		e.logger = logger
	}
}

// NewWebExtractor creates a web extractor with a 30 second default timeout.
func NewWebExtractor(opts ...Option) *WebExtractor {
	e := &WebExtractor{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: defaultUserAgent,
		logger:    slog.Default().With("component", "web-extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the URL and extracts title, body text, and page metadata.
func (e *WebExtractor) Extract(ctx context.Context, rawURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("fetch failed", "url", rawURL, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("fetch returned non-200", "url", rawURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: unexpected status %d", ErrExtraction, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	result := &Result{
		Title:         extractTitle(doc),
		Body:          extractBody(doc),
		Author:        firstAttr(doc, `meta[name="author"], meta[property="article:author"]`, "content"),
		PublishedDate: extractPublishedDate(doc),
		Domain:        domainOf(rawURL),
	}

	if result.Body == "" {
		return nil, fmt.Errorf("%w: no readable content at %s", ErrExtraction, rawURL)
	}
	if result.Title == "" {
		result.Title = rawURL
	}

	e.logger.Debug("extracted content",
		"url", rawURL,
		"title_length", len(result.Title),
		"body_length", len(result.Body))

	return result, nil
}

// extractTitle prefers og:title, then <title>, then the first h1.
func extractTitle(doc *goquery.Document) string {
	if title := firstAttr(doc, `meta[property="og:title"]`, "content"); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractBody collects paragraph text, preferring semantic containers.
func extractBody(doc *goquery.Document) string {
	var paragraphs []string

	collect := func(selection *goquery.Selection) {
		selection.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
	}

	for _, container := range []string{"article", "main", `[role="main"]`} {
		selection := doc.Find(container).First()
		if selection.Length() > 0 {
			collect(selection)
		}
		if len(paragraphs) > 0 {
			break
		}
	}
	if len(paragraphs) == 0 {
		collect(doc.Find("body").First())
	}

	return strings.Join(paragraphs, "\n\n")
}

// extractPublishedDate reads article:published_time or a <time> element.
func extractPublishedDate(doc *goquery.Document) string {
	if date := firstAttr(doc, `meta[property="article:published_time"]`, "content"); date != "" {
		return date
	}
	return firstAttr(doc, "time[datetime]", "datetime")
}

// firstAttr returns the named attribute of the first selector match.
func firstAttr(doc *goquery.Document, selector, attr string) string {
	value, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(value)
}

// domainOf returns the host portion of a URL, without a www prefix.
func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
