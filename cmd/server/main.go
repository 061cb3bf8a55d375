// Command server runs the character-graph HTTP API.
//
// Startup sequence:
//  1. Load .env (best effort) and validate configuration
//  2. Configure global logging (level, optional pretty console)
//  3. Set up OpenTelemetry tracing (no-op unless enabled)
//  4. Load the corpus and build or load the title index
//  5. Wire the LLM client, the wiki crawler, and the Gin router
//  6. Serve until SIGINT/SIGTERM, then shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nmkim/go-castgraph-backend/internal/config"
	"github.com/nmkim/go-castgraph-backend/internal/corpus"
	httpapi "github.com/nmkim/go-castgraph-backend/internal/http"
	"github.com/nmkim/go-castgraph-backend/internal/llm"
	"github.com/nmkim/go-castgraph-backend/internal/observability"
	"github.com/nmkim/go-castgraph-backend/internal/repo"
	"github.com/nmkim/go-castgraph-backend/internal/search"
	"github.com/nmkim/go-castgraph-backend/internal/sysutil"
	"github.com/nmkim/go-castgraph-backend/internal/wiki"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Best effort; real deployments set env directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("otel shutdown error")
		}
	}()

	docs, err := corpus.LoadJSONL(cfg.CorpusPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CorpusPath).Msg("loading corpus failed")
	}
	log.Info().Int("documents", docs.Len()).Msg("corpus loaded")

	idx := repo.LoadOrBuildIndex(cfg.IndexCachePath, docs, cfg.ForceRebuild)
	resolver := &search.Resolver{Index: idx, Corpus: docs}

	client, err := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("llm client setup failed")
	}
	crawler := wiki.NewCrawler(cfg.Crawler.BaseURL, cfg.Crawler.Timeout, cfg.Crawler.Delay)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, resolver, client, crawler, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
