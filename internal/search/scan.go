package search

import "strings"

// Candidate is a document considered as a possible answer to a query, before
// final quality-adjusted scoring. Candidates are ephemeral, produced per
// query, and never persisted.
type Candidate struct {
	Pos        int
	Title      string
	Normalized string
	// Similarity is the string similarity between the normalized keyword and
	// the normalized title, in [0,1].
	Similarity float64
}

// prefixBoost is applied when the normalized title starts with the keyword:
// a title that leads with the query is a stronger match than one that merely
// contains it somewhere.
const prefixBoost = 1.2

// ScanCandidates walks the ordered title list once and returns every document
// whose normalized title contains the normalized keyword as a substring and,
// when suffix is non-empty, also ends with the normalized suffix.
//
// Similarity per candidate:
//   - exact normalized match            => 1.0
//   - keyword is a substring of title   => sequence ratio, ×1.2 (capped at
//     1.0) when the title starts with the keyword
//   - otherwise                         => plain sequence ratio
//
// Candidates come back in title-list order (corpus position order); the
// resolver's stable sort relies on that for deterministic tie-breaking.
func ScanCandidates(titles []TitleEntry, keyword, suffix string) []Candidate {
	kw := Normalize(keyword)
	sfx := Normalize(suffix)

	var out []Candidate
	for _, e := range titles {
		if !strings.Contains(e.Normalized, kw) {
			continue
		}
		if sfx != "" && !strings.HasSuffix(e.Normalized, sfx) {
			continue
		}
		out = append(out, Candidate{
			Pos:        e.Pos,
			Title:      e.Title,
			Normalized: e.Normalized,
			Similarity: similarity(kw, e.Normalized),
		})
	}
	return out
}

// similarity scores a normalized keyword against a normalized title.
func similarity(kw, title string) float64 {
	if kw == title {
		return 1.0
	}
	base := sequenceRatio(kw, title)
	if strings.Contains(title, kw) && strings.HasPrefix(title, kw) {
		if boosted := base * prefixBoost; boosted < 1.0 {
			return boosted
		}
		return 1.0
	}
	return base
}
