// Character-graph HTTP handlers.
//
// This file exposes REST endpoints for the extraction pipeline:
//   - POST /characters/extract  (keyword -> character names)
//   - POST /documents/crawl     (names -> wiki documents)
//   - POST /graph/generate      (keyword + names + documents -> graph)
//   - GET  /llm/stats           (model-call timing snapshot)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
	"github.com/nmkim/go-castgraph-backend/internal/llm"
	"github.com/nmkim/go-castgraph-backend/internal/search"
	"github.com/nmkim/go-castgraph-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// GraphService defines the pipeline operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type GraphService interface {
	// ExtractCharacters resolves the keyword's documents and extracts the cast.
	ExtractCharacters(ctx context.Context, keyword string) (*services.ExtractResult, error)
	// CrawlDocuments fetches one wiki page per character name.
	CrawlDocuments(ctx context.Context, names []string) (*services.CrawlResult, error)
	// GenerateGraph synthesizes the relationship graph from all collected documents.
	GenerateGraph(ctx context.Context, keyword string, names []string, crawled []domain.Document) (*services.GraphResult, error)
}

// StatsProvider exposes the model-call timing snapshot.
type StatsProvider interface {
	Snapshot() llm.Snapshot
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the extraction pipeline. It depends
// on abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	graphSvc GraphService
	stats    StatsProvider
}

// New constructs and returns a Handlers instance bound to the given services.
func New(graphSvc GraphService, stats StatsProvider) *Handlers {
	return &Handlers{graphSvc: graphSvc, stats: stats}
}

//
// DTOs
//

// ExtractRequest is the JSON payload for character extraction.
type ExtractRequest struct {
	// Keyword is the work title to search the corpus for.
	Keyword string `json:"keyword" binding:"required"`
}

// DocumentSummary describes a resolved corpus document.
type DocumentSummary struct {
	Title      string  `json:"title"`
	Index      int     `json:"index"`
	Similarity float64 `json:"similarity"`
}

// ExtractResponse carries the extracted character names and the documents
// they were read from.
type ExtractResponse struct {
	Keyword    string           `json:"keyword"`
	Characters []string         `json:"characters"`
	MainDoc    DocumentSummary  `json:"main_document"`
	CastDoc    *DocumentSummary `json:"character_list_document,omitempty"`
	Stats      llm.Snapshot     `json:"llm_stats"`
}

// CrawlRequest is the JSON payload for the crawling stage.
type CrawlRequest struct {
	// Names are the character names whose wiki pages should be fetched.
	Names []string `json:"names" binding:"required"`
}

// CrawlResponse carries the crawled documents and a failure count.
type CrawlResponse struct {
	Documents []domain.Document `json:"documents"`
	Crawled   int               `json:"crawled"`
	Failed    int               `json:"failed"`
}

// GenerateGraphRequest is the JSON payload for graph synthesis. Documents is
// optional; when present it carries the output of a prior crawl so the
// synthesis stage does not refetch.
type GenerateGraphRequest struct {
	Keyword   string            `json:"keyword" binding:"required"`
	Names     []string          `json:"names"`
	Documents []domain.Document `json:"documents"`
}

// GenerateGraphResponse carries the synthesized graph.
type GenerateGraphResponse struct {
	Keyword         string        `json:"keyword"`
	Graph           *domain.Graph `json:"graph"`
	FoundCharacters []string      `json:"found_characters"`
	TotalDocuments  int           `json:"total_documents"`
	Stats           llm.Snapshot  `json:"llm_stats"`
}

//
// Handlers
//

// ExtractCharacters handles POST /characters/extract: resolve the work's
// corpus documents and ask the model for its cast. Responds 400 on a missing
// keyword, 404 when no document or no characters were found, 502 on a model
// service error.
func (h *Handlers) ExtractCharacters(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Keyword) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "keyword required")
		return
	}

	res, err := h.graphSvc.ExtractCharacters(c.Request.Context(), req.Keyword)
	if err != nil {
		status, code := mapServiceError(err, ErrCodeExtractFailed)
		fail(c, status, code, err.Error())
		return
	}

	resp := ExtractResponse{
		Keyword:    strings.TrimSpace(req.Keyword),
		Characters: res.Names,
		MainDoc:    DocumentSummary{Title: res.MainDoc.Title, Index: res.MainDoc.Pos, Similarity: res.MainDoc.Similarity},
		Stats:      h.stats.Snapshot(),
	}
	if res.CastDoc != nil {
		resp.CastDoc = &DocumentSummary{Title: res.CastDoc.Title, Index: res.CastDoc.Pos, Similarity: res.CastDoc.Similarity}
	}
	ok(c, http.StatusOK, resp)
}

// CrawlDocuments handles POST /documents/crawl: fetch one wiki page per
// name. Per-name failures are tolerated and counted, not fatal. Responds 400
// on an empty name list.
func (h *Handlers) CrawlDocuments(c *gin.Context) {
	var req CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Names) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "names required")
		return
	}

	res, err := h.graphSvc.CrawlDocuments(c.Request.Context(), req.Names)
	if err != nil {
		status, code := mapServiceError(err, ErrCodeCrawlFailed)
		fail(c, status, code, err.Error())
		return
	}
	ok(c, http.StatusOK, CrawlResponse{
		Documents: res.Documents,
		Crawled:   len(res.Documents),
		Failed:    res.Failed,
	})
}

// GenerateGraph handles POST /graph/generate: combine resolved, crawled, and
// corpus-backfilled documents and ask the model for the relationship graph.
// Responds 400 on a missing keyword, 404 when no source documents exist, 502
// on a model service error.
func (h *Handlers) GenerateGraph(c *gin.Context) {
	var req GenerateGraphRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Keyword) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "keyword required")
		return
	}

	res, err := h.graphSvc.GenerateGraph(c.Request.Context(), req.Keyword, req.Names, req.Documents)
	if err != nil {
		status, code := mapServiceError(err, ErrCodeGraphFailed)
		fail(c, status, code, err.Error())
		return
	}
	ok(c, http.StatusOK, GenerateGraphResponse{
		Keyword:         strings.TrimSpace(req.Keyword),
		Graph:           res.Graph,
		FoundCharacters: res.FoundCharacters,
		TotalDocuments:  res.TotalDocuments,
		Stats:           h.stats.Snapshot(),
	})
}

// LLMStats handles GET /llm/stats: the timing snapshot for the most recent
// pipeline run.
func (h *Handlers) LLMStats(c *gin.Context) {
	ok(c, http.StatusOK, h.stats.Snapshot())
}

// mapServiceError translates service-layer errors into an HTTP status and a
// stable error code. Unmatched errors from the model service surface as 502;
// everything else is the fallback code with a 500.
func mapServiceError(err error, fallbackCode string) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyKeyword),
		errors.Is(err, services.ErrNoNames),
		errors.Is(err, search.ErrSuffixSeparator):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, services.ErrNoCharacters),
		errors.Is(err, services.ErrNoDocuments):
		return http.StatusNotFound, ErrCodeNotFound
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, ErrCodeLLMFailed
	}
	return http.StatusInternalServerError, fallbackCode
}
