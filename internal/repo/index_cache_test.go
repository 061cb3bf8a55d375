package repo

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nmkim/go-castgraph-backend/internal/corpus"
	"github.com/nmkim/go-castgraph-backend/internal/domain"
	"github.com/nmkim/go-castgraph-backend/internal/search"
)

func testIndex() *search.TitleIndex {
	c := corpus.New([]domain.Document{
		{Title: "One Piece", Text: "a"},
		{Title: "ONE PIECE", Text: "b"}, // duplicate normalized form
		{Title: ""},                     // skipped by the builder
		{Title: "Naruto", Text: "c"},
	})
	return search.BuildIndex(c)
}

func TestSaveAndLoadIndex_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	want := testIndex()

	if err := SaveIndex(path, want); err != nil {
		t.Fatalf("SaveIndex error: %v", err)
	}
	got, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex error: %v", err)
	}

	if !reflect.DeepEqual(got.Titles, want.Titles) {
		t.Fatalf("titles mismatch:\n got %#v\nwant %#v", got.Titles, want.Titles)
	}
	if !reflect.DeepEqual(got.ByTitle, want.ByTitle) {
		t.Fatalf("position map mismatch:\n got %#v\nwant %#v", got.ByTitle, want.ByTitle)
	}
	// Duplicates must survive in corpus order.
	if !reflect.DeepEqual(got.ByTitle["onepiece"], []int{0, 1}) {
		t.Fatalf("duplicate positions lost: %v", got.ByTitle["onepiece"])
	}
}

func TestSaveIndex_ReplacesPreviousArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	if err := SaveIndex(path, testIndex()); err != nil {
		t.Fatalf("first SaveIndex error: %v", err)
	}

	smaller := search.BuildIndex(corpus.New([]domain.Document{{Title: "Bleach", Text: "x"}}))
	if err := SaveIndex(path, smaller); err != nil {
		t.Fatalf("second SaveIndex error: %v", err)
	}

	got, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex error: %v", err)
	}
	if len(got.Titles) != 1 || got.Titles[0].Normalized != "bleach" {
		t.Fatalf("old artifact leaked through: %#v", got.Titles)
	}

	// No temp or WAL leftovers next to the artifact.
	for _, leftover := range []string{path + ".tmp", path + ".tmp-wal", path + ".tmp-shm"} {
		if _, err := os.Stat(leftover); err == nil {
			t.Fatalf("leftover file %s should not exist", leftover)
		}
	}
}

func TestLoadIndex_MissingFile(t *testing.T) {
	if _, err := LoadIndex(filepath.Join(t.TempDir(), "absent.db")); err == nil {
		t.Fatalf("expected error for missing cache")
	}
}

func TestLoadIndex_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	if err := os.WriteFile(path, []byte("this is not a database"), 0o600); err != nil {
		t.Fatalf("write corrupt cache: %v", err)
	}
	if _, err := LoadIndex(path); err == nil {
		t.Fatalf("expected error for corrupt cache")
	}
}

func TestLoadIndex_EmptyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	empty := &search.TitleIndex{ByTitle: map[string][]int{}}
	if err := SaveIndex(path, empty); err != nil {
		t.Fatalf("SaveIndex error: %v", err)
	}
	if _, err := LoadIndex(path); !errors.Is(err, ErrCacheEmpty) {
		t.Fatalf("expected ErrCacheEmpty, got %v", err)
	}
}
