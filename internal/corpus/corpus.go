// Package corpus loads and exposes the wiki dump the search core resolves
// against: an ordered, randomly-indexable sequence of documents. The corpus
// is fully materialized at startup and read-only afterwards, so concurrent
// queries need no locking.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
)

// record is the on-disk shape of one corpus line. Both fields are tolerated
// absent; unknown fields are ignored.
type record struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Slice is an in-memory corpus backed by a document slice. Position i is
// stable for the lifetime of the value.
type Slice struct {
	docs []domain.Document
}

// New wraps already-materialized documents as a corpus.
func New(docs []domain.Document) *Slice {
	return &Slice{docs: docs}
}

// Len returns the number of documents.
func (s *Slice) Len() int { return len(s.docs) }

// At returns the document at position i.
func (s *Slice) At(i int) domain.Document { return s.docs[i] }

// LoadJSONL reads a corpus from a JSON-Lines file: one document object per
// line with optional "title" and "text" fields. Blank lines are skipped.
// A malformed line aborts the load; a corpus that cannot materialize is the
// one non-recoverable condition in this subsystem.
func LoadJSONL(path string) (*Slice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	var docs []domain.Document
	sc := bufio.NewScanner(f)
	// Wiki articles can be long; allow lines up to 16 MiB.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", line, err)
		}
		docs = append(docs, domain.Document{Title: rec.Title, Text: rec.Text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return &Slice{docs: docs}, nil
}
