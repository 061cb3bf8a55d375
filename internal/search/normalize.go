// Package search implements the title-resolution core: a read-only index of
// corpus titles, a substring candidate scanner with string-similarity
// scoring, a content-quality classifier for redirect/disambiguation stubs,
// and a best-match resolver that combines them. It is intentionally small and
// engineered for predictable behavior:
//
//   - No logging in the library (callers decide how/what to log)
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Not-found is a value, never an error
//
// Similarity uses a Ratcliff/Obershelp-style sequence ratio between the
// normalized keyword and each normalized title, with a prefix boost.
package search

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a title for matching: it lower-cases the input and
// removes every whitespace run (not just leading/trailing), so spacing
// variance between source titles never causes a lookup miss.
//
// The exact same function must be applied when building the index and when
// querying it; any divergence silently breaks exact-match lookups. Normalize
// is pure and total: it never fails and maps "" to "".
func Normalize(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
