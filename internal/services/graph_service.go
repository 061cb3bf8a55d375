// Package services – GraphService
//
// This file implements GraphService, the application-level component that
// orchestrates the full pipeline: resolve the work's main and character-list
// documents out of the corpus, have the model name the cast, crawl
// per-character wiki pages, and have the model synthesize the relationship
// graph from everything collected.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the keyword and collection sizes where applicable.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
	"github.com/nmkim/go-castgraph-backend/internal/extract"
	"github.com/nmkim/go-castgraph-backend/internal/llm"
	"github.com/nmkim/go-castgraph-backend/internal/search"
	"github.com/nmkim/go-castgraph-backend/internal/wiki"
)

// CharacterListSuffix is the subpage suffix under which the wiki keeps a
// work's cast list. It carries its own leading separator, as the resolver
// requires.
const CharacterListSuffix = "/등장인물"

// PageFetcher is the crawler contract GraphService needs: fetch one document
// by title. Implementations must honor the context.
type PageFetcher interface {
	Fetch(ctx context.Context, title string) (*domain.Document, error)
}

// DocumentInfo describes a resolved corpus document in API responses.
type DocumentInfo struct {
	Title      string  `json:"title"`
	Pos        int     `json:"index"`
	Similarity float64 `json:"similarity"`
}

// ExtractResult is the outcome of the character-extraction stage.
type ExtractResult struct {
	Names   []string
	MainDoc DocumentInfo
	CastDoc *DocumentInfo // nil when no character-list document matched
}

// CrawlResult is the outcome of the crawling stage.
type CrawlResult struct {
	Documents []domain.Document
	Failed    int
}

// GraphResult is the outcome of graph synthesis.
type GraphResult struct {
	Graph           *domain.Graph
	FoundCharacters []string
	TotalDocuments  int
}

// GraphService coordinates corpus resolution, LLM extraction, and crawling.
// All fields are set once at wiring time; the service is then safe for
// concurrent use.
type GraphService struct {
	Resolver *search.Resolver
	Client   *llm.Client
	Stats    *llm.Stats
	Crawler  PageFetcher

	// MaxCharacters caps extraction and crawling (default 20).
	MaxCharacters int
	// GraphModel optionally overrides the client's default model for graph
	// synthesis.
	GraphModel string
}

// maxCharacters returns the configured cap or the default.
func (s *GraphService) maxCharacters() int {
	if s.MaxCharacters > 0 {
		return s.MaxCharacters
	}
	return extract.DefaultMaxCharacters
}

// ExtractCharacters resolves the keyword's main document (required) and its
// character-list companion (optional), then asks the model for the cast.
func (s *GraphService) ExtractCharacters(ctx context.Context, keyword string) (*ExtractResult, error) {
	tr := otel.Tracer("services/GraphService")
	ctx, span := tr.Start(ctx, "ExtractCharacters",
		trace.WithAttributes(attribute.String("keyword", keyword)),
	)
	defer span.End()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	s.Stats.Reset()

	main, err := s.Resolver.Resolve(keyword, "")
	if err != nil {
		return nil, err
	}
	if main == nil {
		return nil, ErrDocumentNotFound
	}

	castText := ""
	var castInfo *DocumentInfo
	if cast, err := s.Resolver.Resolve(keyword, CharacterListSuffix); err == nil && cast != nil {
		castText = cast.Doc.Text
		castInfo = &DocumentInfo{Title: cast.Doc.Title, Pos: cast.Pos, Similarity: cast.Similarity}
	}

	names, err := extract.Characters(ctx, s.Client, keyword, main.Doc.Text, castText, s.maxCharacters())
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoCharacters
	}

	log.Info().Str("keyword", keyword).Int("characters", len(names)).Msg("characters extracted")
	return &ExtractResult{
		Names:   names,
		MainDoc: DocumentInfo{Title: main.Doc.Title, Pos: main.Pos, Similarity: main.Similarity},
		CastDoc: castInfo,
	}, nil
}

// CrawlDocuments fetches one wiki page per character name, tolerating
// per-name failures. The name list is capped at the configured maximum.
func (s *GraphService) CrawlDocuments(ctx context.Context, names []string) (*CrawlResult, error) {
	tr := otel.Tracer("services/GraphService")
	ctx, span := tr.Start(ctx, "CrawlDocuments",
		trace.WithAttributes(attribute.Int("names", len(names))),
	)
	defer span.End()

	if len(names) == 0 {
		return nil, ErrNoNames
	}
	if max := s.maxCharacters(); len(names) > max {
		log.Warn().Int("names", len(names)).Int("max", max).Msg("character list truncated for crawl")
		names = names[:max]
	}

	res := &CrawlResult{Documents: []domain.Document{}}
	for _, name := range names {
		doc, err := s.Crawler.Fetch(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("character", name).Msg("crawl failed")
			res.Failed++
			continue
		}
		doc.Type = domain.TypeCharacter
		doc.Source = domain.SourceWeb
		res.Documents = append(res.Documents, *doc)
	}
	return res, nil
}

// GenerateGraph collects every available document for the keyword (the
// resolved main and character-list documents, the caller's crawled character
// documents, and corpus backfills for characters the crawl missed) and asks
// the model for the relationship graph.
func (s *GraphService) GenerateGraph(ctx context.Context, keyword string, names []string, crawled []domain.Document) (*GraphResult, error) {
	tr := otel.Tracer("services/GraphService")
	ctx, span := tr.Start(ctx, "GenerateGraph",
		trace.WithAttributes(
			attribute.String("keyword", keyword),
			attribute.Int("crawled", len(crawled)),
		),
	)
	defer span.End()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	s.Stats.Reset()

	var all []domain.Document
	var found []string

	if main, err := s.Resolver.Resolve(keyword, ""); err != nil {
		return nil, err
	} else if main != nil {
		all = append(all, domain.Document{
			Title:     main.Doc.Title,
			Text:      main.Doc.Text,
			ImageURLs: wiki.ExtractImageRefs(main.Doc.Text),
			Type:      domain.TypeMain,
		})
	} else {
		log.Warn().Str("keyword", keyword).Msg("main document not found for graph")
	}

	if cast, err := s.Resolver.Resolve(keyword, CharacterListSuffix); err == nil && cast != nil && cast.Doc.Text != "" {
		all = append(all, domain.Document{
			Title:     cast.Doc.Title,
			Text:      cast.Doc.Text,
			ImageURLs: wiki.ExtractImageRefs(cast.Doc.Text),
			Type:      domain.TypeCharacterList,
		})
	}

	crawledTitles := make(map[string]struct{}, len(crawled))
	for _, doc := range crawled {
		all = append(all, doc)
		crawledTitles[doc.Title] = struct{}{}
		if doc.Title != "" {
			found = append(found, doc.Title)
		}
	}

	// Characters the crawl missed may still exist in the corpus.
	for _, name := range names {
		if _, ok := crawledTitles[name]; ok {
			continue
		}
		m, ok := s.Resolver.Exact(name)
		if !ok {
			continue
		}
		all = append(all, domain.Document{
			Title:     m.Doc.Title,
			Text:      m.Doc.Text,
			ImageURLs: wiki.ExtractImageRefs(m.Doc.Text),
			Type:      domain.TypeCharacter,
			Source:    domain.SourceDataset,
		})
		found = append(found, m.Doc.Title)
		log.Info().Str("character", name).Str("title", m.Doc.Title).Msg("character backfilled from corpus")
	}

	if len(all) == 0 {
		return nil, ErrNoDocuments
	}

	graph, err := extract.Graph(ctx, s.Client, s.GraphModel, keyword, all)
	if err != nil {
		return nil, fmt.Errorf("generate graph: %w", err)
	}
	return &GraphResult{Graph: graph, FoundCharacters: found, TotalDocuments: len(all)}, nil
}
