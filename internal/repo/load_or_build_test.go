package repo

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nmkim/go-castgraph-backend/internal/corpus"
	"github.com/nmkim/go-castgraph-backend/internal/domain"
	"github.com/nmkim/go-castgraph-backend/internal/search"
)

func testCorpus() *corpus.Slice {
	return corpus.New([]domain.Document{
		{Title: "One Piece", Text: "a"},
		{Title: "Naruto", Text: "b"},
	})
}

func TestLoadOrBuildIndex_BuildsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c := testCorpus()

	idx := LoadOrBuildIndex(path, c, false)
	if idx == nil || len(idx.Titles) != 2 {
		t.Fatalf("fresh build unexpected: %#v", idx)
	}

	// The build must have been cached for the next start.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache artifact missing: %v", err)
	}
	cached, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex error: %v", err)
	}
	if !reflect.DeepEqual(cached.Titles, idx.Titles) {
		t.Fatalf("cached index differs from built index")
	}
}

func TestLoadOrBuildIndex_PrefersCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	// Seed the cache from a different corpus than the one passed below. A
	// cache hit is visible because the loaded titles are the seeded ones.
	seeded := search.BuildIndex(corpus.New([]domain.Document{{Title: "Bleach", Text: "x"}}))
	if err := SaveIndex(path, seeded); err != nil {
		t.Fatalf("SaveIndex error: %v", err)
	}

	idx := LoadOrBuildIndex(path, testCorpus(), false)
	if len(idx.Titles) != 1 || idx.Titles[0].Normalized != "bleach" {
		t.Fatalf("cache should win over a rebuild: %#v", idx.Titles)
	}
}

func TestLoadOrBuildIndex_ForceRebuildIgnoresCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	seeded := search.BuildIndex(corpus.New([]domain.Document{{Title: "Bleach", Text: "x"}}))
	if err := SaveIndex(path, seeded); err != nil {
		t.Fatalf("SaveIndex error: %v", err)
	}

	idx := LoadOrBuildIndex(path, testCorpus(), true)
	if len(idx.Titles) != 2 {
		t.Fatalf("forced rebuild should ignore the cache: %#v", idx.Titles)
	}
	// And the rebuild replaces the artifact.
	cached, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex error: %v", err)
	}
	if len(cached.Titles) != 2 {
		t.Fatalf("rebuild was not persisted: %#v", cached.Titles)
	}
}

func TestLoadOrBuildIndex_CorruptCacheRebuildsSilently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write corrupt cache: %v", err)
	}

	idx := LoadOrBuildIndex(path, testCorpus(), false)
	if idx == nil || len(idx.Titles) != 2 {
		t.Fatalf("corrupt cache should trigger a rebuild: %#v", idx)
	}
}

func TestLoadOrBuildIndex_UnwritableCacheStillReturnsIndex(t *testing.T) {
	// Pointing the cache at a directory makes the persist step fail; the
	// in-memory index must be returned regardless.
	dir := t.TempDir()
	idx := LoadOrBuildIndex(dir, testCorpus(), true)
	if idx == nil || len(idx.Titles) != 2 {
		t.Fatalf("persist failure must not lose the index: %#v", idx)
	}
}
