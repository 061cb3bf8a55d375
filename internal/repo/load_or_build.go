package repo

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nmkim/go-castgraph-backend/internal/search"
)

// LoadOrBuildIndex returns a usable title index, preferring the cache at
// path. The cache is advisory only:
//
//   - a readable cache (and no forced rebuild) is used as-is,
//   - a missing or corrupt cache is logged and silently replaced by a fresh
//     build from the corpus,
//   - a failure to persist the fresh build is logged and ignored; the
//     in-memory index is returned either way.
//
// The function never returns an error; the corpus is already materialized,
// so a build can always succeed.
func LoadOrBuildIndex(path string, c search.Corpus, forceRebuild bool) *search.TitleIndex {
	if !forceRebuild {
		start := time.Now()
		if idx, err := LoadIndex(path); err == nil {
			log.Info().
				Str("path", path).
				Int("titles", len(idx.Titles)).
				Int("keys", len(idx.ByTitle)).
				Dur("elapsed", time.Since(start)).
				Msg("title index loaded from cache")
			return idx
		} else {
			log.Warn().Err(err).Str("path", path).Msg("index cache unavailable, rebuilding")
		}
	}

	start := time.Now()
	idx := search.BuildIndex(c)
	log.Info().
		Int("documents", c.Len()).
		Int("titles", len(idx.Titles)).
		Int("keys", len(idx.ByTitle)).
		Dur("elapsed", time.Since(start)).
		Msg("title index built")

	if err := SaveIndex(path, idx); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("index cache persist failed, continuing in-memory")
	} else {
		log.Info().Str("path", path).Msg("title index cached")
	}
	return idx
}
