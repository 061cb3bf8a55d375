package wiki

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
)

const (
	// DefaultBaseURL is the wiki the character pages live on.
	DefaultBaseURL = "https://namu.wiki"

	// browserUA avoids the wiki's bot rejection on plain Go user agents.
	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// contextClipRunes caps the parent-element text kept per image.
	contextClipRunes = 200
)

// excludedImageWords filters out page chrome masquerading as images.
var excludedImageWords = []string{"logo", "icon", "button", "spacer"}

// imageHosts are the hosts whose <img> tags count as document images.
var imageHosts = []string{"namu.wiki", "namu.la", "i.namu.wiki"}

// Crawler fetches wiki pages over HTTP with a politeness rate limit. Safe
// for concurrent use; the limiter serializes the effective request rate.
type Crawler struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// NewCrawler builds a crawler for base (DefaultBaseURL when empty) that
// spaces requests at least delay apart.
func NewCrawler(base string, timeout, delay time.Duration) *Crawler {
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var lim *rate.Limiter
	if delay > 0 {
		lim = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &Crawler{
		BaseURL:    strings.TrimRight(base, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Limiter:    lim,
	}
}

// PageURL returns the fully percent-encoded URL of a document title.
func (c *Crawler) PageURL(title string) string {
	return c.BaseURL + "/w/" + url.PathEscape(title)
}

// Fetch retrieves a wiki page by title and extracts its body text and image
// references. The returned document has Type/Source unset; callers stamp
// those. A page whose content container cannot be located yields an error;
// callers treat any error as "this character has no web document".
func (c *Crawler) Fetch(ctx context.Context, title string) (*domain.Document, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	pageURL := c.PageURL(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page HTML: %w", err)
	}

	pageTitle := strings.TrimSpace(doc.Find("h1").First().Text())
	if pageTitle == "" {
		pageTitle = title
	}

	content := doc.Find("#app").First()
	if content.Length() == 0 {
		return nil, fmt.Errorf("page body not found")
	}
	content.Find("script, style").Remove()

	return &domain.Document{
		Title:     pageTitle,
		Text:      extractText(content),
		ImageURLs: c.extractImages(content),
		URL:       pageURL,
	}, nil
}

// extractText flattens the content container to newline-separated trimmed
// lines.
func extractText(content *goquery.Selection) string {
	var lines []string
	for _, raw := range strings.Split(content.Text(), "\n") {
		if t := strings.TrimSpace(raw); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

// extractImages collects the document's image URLs from <img> tags: only the
// wiki's own image hosts count, page chrome is excluded, relative sources
// are resolved, and each reference keeps its alt text plus a clip of the
// surrounding text for portrait selection.
func (c *Crawler) extractImages(content *goquery.Selection) []domain.ImageRef {
	var refs []domain.ImageRef
	content.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			if src, ok = img.Attr("data-src"); !ok || src == "" {
				if src, ok = img.Attr("data-original"); !ok || src == "" {
					return
				}
			}
		}
		if !fromImageHost(src) {
			return
		}

		full := c.absoluteURL(src)
		lower := strings.ToLower(full)
		for _, w := range excludedImageWords {
			if strings.Contains(lower, w) {
				return
			}
		}

		ref := domain.ImageRef{
			URL: full,
			Alt: img.AttrOr("alt", ""),
		}
		if parent := img.Parent(); parent.Length() > 0 {
			ctxText := strings.Join(strings.Fields(parent.Text()), " ")
			if r := []rune(ctxText); len(r) > contextClipRunes {
				ctxText = string(r[:contextClipRunes])
			}
			ref.Context = ctxText
		}
		refs = append(refs, ref)
	})
	return refs
}

func fromImageHost(src string) bool {
	for _, h := range imageHosts {
		if strings.Contains(src, h) {
			return true
		}
	}
	return false
}

// absoluteURL resolves scheme-relative and path-relative image sources
// against the wiki origin.
func (c *Crawler) absoluteURL(src string) string {
	switch {
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case strings.HasPrefix(src, "/"):
		return c.BaseURL + src
	default:
		return c.BaseURL + "/" + src
	}
}
