package search

import (
	"errors"
	"sort"
	"strings"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
)

// ErrSuffixSeparator is returned when a non-empty suffix does not start with
// the '/' separator. Exact-match lookups append the suffix directly to the
// keyword, so a suffix without its separator would silently match the wrong
// key; rejecting it makes the caller convention explicit.
var ErrSuffixSeparator = errors.New("suffix must start with '/'")

// Match is a successful resolution: the winning document, its corpus
// position, the normalized title it matched under, and the string similarity
// that ranked it. Similarity is the ranking input, not the quality-adjusted
// score; the score is internal to the resolver.
type Match struct {
	Pos        int
	Doc        domain.Document
	Title      string
	Similarity float64
}

// Resolver picks the single best-matching document for a keyword out of an
// indexed corpus. It is read-only over both structures and safe for
// concurrent use once constructed.
type Resolver struct {
	Index  *TitleIndex
	Corpus Corpus
}

// quality scoring knobs for the fuzzy path.
const (
	// lengthBonusCap caps the content-length reward.
	lengthBonusCap = 0.1
	// lengthBonusScale divides the text length into the bonus.
	lengthBonusScale = 10000.0
	// lowQualityPenalty is subtracted from redirect/disambiguation stubs.
	lowQualityPenalty = 0.2
)

// Resolve returns the best match for keyword, optionally constrained to
// titles ending in suffix (which must include its leading '/', e.g.
// "/characters"). A nil Match with a nil error is the defined not-found
// result, not a failure.
//
// Strategy, in order, exiting early on success:
//
//  1. Exact-match fast path: look up normalize(keyword)+normalize(suffix) in
//     the index; if the first indexed document passes the quality check,
//     return it with similarity 1.0. A poor-quality exact hit is discarded,
//     never returned: low-quality documents under the exact key are also
//     barred from the fuzzy fallback, so a redirect stub cannot win there on
//     its perfect title similarity.
//  2. Scan the full title list for substring candidates; none → not found.
//  3. Score every candidate: similarity plus a capped content-length bonus,
//     or minus a flat penalty when its text is a redirect/disambiguation
//     stub.
//  4. Pick the top score (stable sort, scan order breaks ties) and surface
//     its similarity.
func (r *Resolver) Resolve(keyword, suffix string) (*Match, error) {
	if suffix != "" && !strings.HasPrefix(suffix, "/") {
		return nil, ErrSuffixSeparator
	}

	// 1) Exact-match fast path, content-checked.
	key := Normalize(keyword) + Normalize(suffix)
	if positions, ok := r.Index.ByTitle[key]; ok && len(positions) > 0 {
		pos := positions[0]
		doc := r.Corpus.At(pos)
		if !IsLowQuality(doc.Text) {
			return &Match{Pos: pos, Doc: doc, Title: key, Similarity: 1.0}, nil
		}
	}

	// 2) Fuzzy fallback over the full title list.
	cands := ScanCandidates(r.Index.Titles, keyword, suffix)
	if len(cands) == 0 {
		return nil, nil
	}

	// 3) Quality-adjusted scoring.
	type scored struct {
		cand Candidate
		doc  domain.Document
		val  float64
	}
	buf := make([]scored, 0, len(cands))
	for _, c := range cands {
		doc := r.Corpus.At(c.Pos)
		val := c.Similarity
		if IsLowQuality(doc.Text) {
			// Already rejected once in step 1; the penalty alone would not
			// keep a stub's 1.0 title similarity from beating real articles.
			if c.Normalized == key {
				continue
			}
			val -= lowQualityPenalty
		} else {
			bonus := float64(len([]rune(doc.Text))) / lengthBonusScale
			if bonus > lengthBonusCap {
				bonus = lengthBonusCap
			}
			val += bonus
		}
		buf = append(buf, scored{cand: c, doc: doc, val: val})
	}

	if len(buf) == 0 {
		return nil, nil
	}

	// 4) Stable sort keeps scan order for ties.
	sort.SliceStable(buf, func(i, j int) bool { return buf[i].val > buf[j].val })

	top := buf[0]
	return &Match{
		Pos:        top.cand.Pos,
		Doc:        top.doc,
		Title:      top.cand.Normalized,
		Similarity: top.cand.Similarity,
	}, nil
}

// Exact returns the document indexed under exactly normalize(title), if any.
// The first indexed position wins; later duplicates are shadowed. No quality
// check is applied; this is the raw lookup used to backfill character
// documents by name.
func (r *Resolver) Exact(title string) (*Match, bool) {
	key := Normalize(title)
	positions, ok := r.Index.ByTitle[key]
	if !ok || len(positions) == 0 {
		return nil, false
	}
	pos := positions[0]
	return &Match{Pos: pos, Doc: r.Corpus.At(pos), Title: key, Similarity: 1.0}, true
}
