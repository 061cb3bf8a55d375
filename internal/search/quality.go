package search

import "strings"

// Content-quality markers for namu-style wiki markup.
const (
	// redirectMarker prefixes pages that only point at another document.
	redirectMarker = "#redirect"
	// disambigMarker appears on pages listing similarly-named alternatives.
	disambigMarker = "동음이의어"
	// headingMarker opens a section heading.
	headingMarker = "=="
	// includeMarker transcludes another document.
	includeMarker = "[include("

	// disambigMaxLen bounds how long a page may be while still counting as a
	// disambiguation stub: longer pages carry real content even when they
	// mention the marker.
	disambigMaxLen = 500

	// minArticleLen is the shortest text treated as a real article. Catches
	// stray redirect-like stubs the marker checks miss.
	minArticleLen = 100
)

// IsLowQuality reports whether text is a redirect/disambiguation stub rather
// than substantive article content. Any one of the following is sufficient:
//
//   - text is empty
//   - trimmed text starts with a redirect marker (any case)
//   - text carries a disambiguation marker, is shorter than 500 characters,
//     and contains a heading or transclusion marker (a short link farm)
//   - text is shorter than 100 characters
//
// The check order only matters for short-circuiting, not for the result.
func IsLowQuality(text string) bool {
	if text == "" {
		return true
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(trimmed), redirectMarker) {
		return true
	}
	if strings.Contains(text, disambigMarker) && len([]rune(text)) < disambigMaxLen {
		if strings.Contains(text, headingMarker) || strings.Contains(text, includeMarker) {
			return true
		}
	}
	return len([]rune(text)) < minArticleLen
}
