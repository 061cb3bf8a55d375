package search

import (
	"strings"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
)

// Corpus is the minimal, positionally-addressable document sequence the
// search core reads from. Positions are stable for the lifetime of a loaded
// corpus/index pair. Implementations must be safe for concurrent reads.
type Corpus interface {
	// Len returns the number of documents in the corpus.
	Len() int
	// At returns the document at position i (0 <= i < Len()).
	At(i int) domain.Document
}

// TitleEntry ties a corpus position to its original and normalized title.
// The ordered entry list is the substrate for substring scans, since the
// exact-match map only answers whole-key lookups.
type TitleEntry struct {
	Pos        int    `json:"pos"`
	Title      string `json:"title"`
	Normalized string `json:"normalized"`
}

// TitleIndex maps normalized titles to corpus positions and keeps the ordered
// title list for fuzzy scans. It is built once and treated as read-only
// thereafter, so concurrent queries need no locking.
//
// Invariant: every position present in ByTitle appears exactly once in Titles
// under the same normalized form, and vice versa.
type TitleIndex struct {
	// ByTitle maps a normalized title to the corpus positions that share it,
	// in corpus order. Duplicates are preserved: a corpus may legitimately
	// contain several documents normalizing to the same title.
	ByTitle map[string][]int

	// Titles holds one entry per document with a non-empty title, in corpus
	// iteration order.
	Titles []TitleEntry
}

// BuildIndex scans the corpus once and indexes every document that carries a
// non-empty title. Titles are trimmed before normalization. Documents without
// a usable title are skipped entirely but remain reachable by position
// through the corpus itself.
func BuildIndex(c Corpus) *TitleIndex {
	idx := &TitleIndex{
		ByTitle: make(map[string][]int),
	}
	n := c.Len()
	for pos := 0; pos < n; pos++ {
		title := strings.TrimSpace(c.At(pos).Title)
		if title == "" {
			continue
		}
		norm := Normalize(title)
		idx.ByTitle[norm] = append(idx.ByTitle[norm], pos)
		idx.Titles = append(idx.Titles, TitleEntry{Pos: pos, Title: title, Normalized: norm})
	}
	return idx
}
