package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nmkim/go-castgraph-backend/internal/config"
	"github.com/nmkim/go-castgraph-backend/internal/corpus"
	"github.com/nmkim/go-castgraph-backend/internal/domain"
	"github.com/nmkim/go-castgraph-backend/internal/llm"
	"github.com/nmkim/go-castgraph-backend/internal/search"
)

type noopCrawler struct{}

func (noopCrawler) Fetch(context.Context, string) (*domain.Document, error) {
	return &domain.Document{Title: "stub", Text: "stub"}, nil
}

func testEngine(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c := corpus.New([]domain.Document{{Title: "원피스", Text: "본문"}})
	resolver := &search.Resolver{Index: search.BuildIndex(c), Corpus: c}
	client, err := llm.NewClient("test-key", "test-model", "http://127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, resolver, client, noopCrawler{}, cfg)
	return r
}

func defaultTestConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept-Encoding", "identity")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_HealthAndMetrics(t *testing.T) {
	r := testEngine(t, defaultTestConfig(t))

	if w := get(r, "/health"); w.Code != http.StatusOK {
		t.Fatalf("/health status = %d", w.Code)
	}
	if w := get(r, "/metrics"); w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", w.Code)
	}
}

func TestRegisterRoutes_NotFoundEnvelope(t *testing.T) {
	r := testEngine(t, defaultTestConfig(t))

	w := get(r, "/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	if body.Code != "not_found" {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestRegisterRoutes_MethodNotAllowed(t *testing.T) {
	r := testEngine(t, defaultTestConfig(t))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/llm/stats", nil)
	req.Header.Set("Accept-Encoding", "identity")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d; want 405", w.Code)
	}
}

func TestRegisterRoutes_APIMounted(t *testing.T) {
	r := testEngine(t, defaultTestConfig(t))

	// The stats endpoint needs no model round trip.
	w := get(r, "/api/v1/llm/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("/api/v1/llm/stats status = %d body = %s", w.Code, w.Body.String())
	}
	var snap llm.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestRegisterRoutes_DefaultCORSHeader(t *testing.T) {
	r := testEngine(t, defaultTestConfig(t))

	w := get(r, "/health")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO = %q; want *", got)
	}
}

func TestGroupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := groupWithPrefix(r, "/")
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := get(r, "/ping")
	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("root-mounted group failed: %d %q", w.Code, w.Body.String())
	}
}
