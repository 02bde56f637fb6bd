// Command leadpipe runs the contact and organization scoring pipeline:
// an HTTP service that classifies discovered organizations, validates
// contacts before admission, reranks prospects from crawl evidence, and
// deduplicates the resulting lead database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gbl-data/leadpipe/internal/aiclient"
	"github.com/gbl-data/leadpipe/internal/api"
	"github.com/gbl-data/leadpipe/internal/classify"
	"github.com/gbl-data/leadpipe/internal/config"
	"github.com/gbl-data/leadpipe/internal/database"
	"github.com/gbl-data/leadpipe/internal/dedup"
	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/processor"
	"github.com/gbl-data/leadpipe/internal/rerank"
	"github.com/gbl-data/leadpipe/internal/scoring"
	"github.com/gbl-data/leadpipe/internal/search"
	"github.com/gbl-data/leadpipe/internal/telemetry"
	"github.com/gbl-data/leadpipe/internal/validation"
)

func main() {
	cfg, err := config.Load(config.GetConfigPath("config.yaml"))
	if err != nil {
		logger.Must(logger.Config{}).Fatal("failed to load configuration", logger.Error(err))
	}

	log := logger.Must(cfg.Logging)
	defer log.Sync()

	log.Info("starting leadpipe",
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", logger.Error(err))
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.New(registry)

	taxonomy := domain.DefaultTaxonomy()

	aiClient := aiclient.New(cfg.AI, log)
	var aiClassifier classify.AIClassifier
	if aiClient.Enabled() {
		aiClassifier = aiclient.NewClassifier(aiClient, log)
	} else {
		log.Warn("ai client disabled, classification is keyword-only")
	}

	searcher, err := search.NewGoogleProvider(ctx, cfg.Search, log)
	if err != nil {
		log.Fatal("failed to create search provider", logger.Error(err))
	}
	if searcher == nil {
		log.Warn("search disabled, validation runs without domain evidence")
	}

	resolver := classify.NewConfidenceResolver(
		scoring.NewKeywordScorer(taxonomy, log),
		aiClassifier,
		cfg.Scoring.KeywordConfidenceThreshold,
		log)
	orgClassifier := classify.NewOrganizationClassifier(
		resolver,
		scoring.NewRelevanceScorer(taxonomy, log),
		scoring.NewDataQualityScorer(),
		metrics,
		log)
	contactClassifier := classify.NewContactClassifier(
		scoring.NewContactRelevanceScorer(taxonomy), taxonomy, log)

	var provider search.Provider
	if searcher != nil {
		provider = searcher
	}
	gate := validation.New(
		store.Organizations(),
		aiclient.NewValidator(aiClient, log),
		provider,
		store.Settings(),
		cfg.Validation,
		metrics,
		log)

	proc := processor.New(
		store.Organizations(),
		store.Contacts(),
		orgClassifier,
		contactClassifier,
		gate,
		cfg.Validation.ExternalCallRate,
		log)

	server := api.NewServer(cfg.Service, api.Deps{
		Store:              store,
		Processor:          proc,
		Classifier:         orgClassifier,
		ContactClassifier:  contactClassifier,
		Gate:               gate,
		Reranker:           rerank.New(log),
		ContactDeduper:     dedup.NewContactDeduper(store.Contacts(), metrics, log),
		OrgDeduper:         dedup.NewOrgDeduper(store.Organizations(), log),
		PrometheusRegistry: registry,
		ExcludedSuffixes:   cfg.Validation.ExcludedDomainSuffixes,
	}, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server failed", logger.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Error(err))
	}
	log.Info("leadpipe stopped")
}
