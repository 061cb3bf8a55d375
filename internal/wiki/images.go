// Package wiki fetches character pages from the live wiki and extracts image
// references from both rendered HTML and raw wiki markup.
package wiki

import (
	"regexp"
	"strings"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
)

// Raw-markup image sources: the wiki's image CDNs, and [[파일:...]] links
// which carry no URL but still tell the model which file belongs to a page.
var (
	imageURLREs = []*regexp.Regexp{
		regexp.MustCompile(`https://i\.namu\.wiki/i/[^\s\)\]\>\"'\n\r\t]+`),
		regexp.MustCompile(`https://w\.namu\.la/[^\s\)\]\>\"'\n\r\t]+`),
		regexp.MustCompile(`https://[^/\s]*namu[^/\s]*/[^\s\)\]\>\"'\n\r\t]+`),
	}
	fileLinkRE = regexp.MustCompile(`\[\[파일:([^\|\]]+)(?:\|[^\]]+)?\]\]`)
)

// imageExtensions are the suffixes accepted as definite image URLs.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

// ExtractImageRefs scans raw wiki text for image references: direct CDN URLs
// (kept when they end in an image extension, or carry ".webp" or the "/i/"
// CDN path mid-URL) and [[파일:...]] file links, which are preserved as
// "파일:"-prefixed pseudo-URLs for the model to see.
func ExtractImageRefs(text string) []domain.ImageRef {
	var refs []domain.ImageRef

	for _, re := range imageURLREs {
		for _, url := range re.FindAllString(text, -1) {
			url = strings.TrimSpace(url)
			if looksLikeImageURL(url) {
				refs = append(refs, domain.ImageRef{URL: url})
			}
		}
	}

	for _, m := range fileLinkRE.FindAllStringSubmatch(text, -1) {
		filename := strings.TrimSpace(m[1])
		refs = append(refs, domain.ImageRef{URL: "파일:" + filename, Alt: filename})
	}

	return refs
}

func looksLikeImageURL(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return strings.Contains(lower, ".webp") || strings.Contains(url, "/i/")
}
