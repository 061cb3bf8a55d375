package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "corpus.jsonl")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return p
}

func TestLoadJSONL_Success(t *testing.T) {
	p := writeCorpus(t, `{"title":"One Piece","text":"pirates"}
{"title":"One Piece/등장인물","text":"cast"}

{"text":"untitled document"}
{"title":"Naruto","text":"ninjas","extra":"ignored"}
`)
	s, err := LoadJSONL(p)
	if err != nil {
		t.Fatalf("LoadJSONL error: %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("Len = %d; want 4 (blank line skipped)", s.Len())
	}
	if d := s.At(0); d.Title != "One Piece" || d.Text != "pirates" {
		t.Fatalf("doc 0 unexpected: %+v", d)
	}
	if d := s.At(2); d.Title != "" || d.Text != "untitled document" {
		t.Fatalf("missing title should load as empty: %+v", d)
	}
	if d := s.At(3); d.Title != "Naruto" {
		t.Fatalf("unknown fields should be ignored: %+v", d)
	}
}

func TestLoadJSONL_MalformedLineAborts(t *testing.T) {
	p := writeCorpus(t, `{"title":"ok","text":"fine"}
{not json}
`)
	if _, err := LoadJSONL(p); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line-2 parse error, got %v", err)
	}
}

func TestLoadJSONL_MissingFile(t *testing.T) {
	if _, err := LoadJSONL(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadJSONL_LongLines(t *testing.T) {
	// Articles far beyond the default scanner buffer must still load.
	long := strings.Repeat("글", 200_000)
	p := writeCorpus(t, `{"title":"long","text":"`+long+`"}`+"\n")

	s, err := LoadJSONL(p)
	if err != nil {
		t.Fatalf("LoadJSONL error: %v", err)
	}
	if s.Len() != 1 || len([]rune(s.At(0).Text)) != 200_000 {
		t.Fatalf("long article did not round-trip")
	}
}

func TestNewAndAt(t *testing.T) {
	s := New([]domain.Document{{Title: "a"}, {Title: "b"}})
	if s.Len() != 2 || s.At(1).Title != "b" {
		t.Fatalf("New/At unexpected: %+v", s)
	}
}
