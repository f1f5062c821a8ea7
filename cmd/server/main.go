package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/stock-discovery/internal/clients/gemini"
	"github.com/aristath/stock-discovery/internal/clients/marketdata"
	"github.com/aristath/stock-discovery/internal/config"
	"github.com/aristath/stock-discovery/internal/database"
	"github.com/aristath/stock-discovery/internal/events"
	"github.com/aristath/stock-discovery/internal/modules/catalog"
	"github.com/aristath/stock-discovery/internal/modules/discovery"
	"github.com/aristath/stock-discovery/internal/modules/keywords"
	"github.com/aristath/stock-discovery/internal/modules/relevance"
	"github.com/aristath/stock-discovery/internal/modules/scoring"
	"github.com/aristath/stock-discovery/internal/scheduler"
	"github.com/aristath/stock-discovery/internal/server"
	"github.com/aristath/stock-discovery/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Stock Discovery")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	eventManager := events.NewManager(log)

	// Repositories
	securityRepo := catalog.NewSecurityRepository(db.Conn(), log)
	taxonomyRepo := keywords.NewTaxonomyRepository(db.Conn(), log)
	boostRepo := relevance.NewBoostRepository(db.Conn(), log)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSeed()
	if _, err := securityRepo.SeedDefaults(seedCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed securities")
	}
	if _, err := taxonomyRepo.SeedDefaults(seedCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed keyword taxonomy")
	}
	if _, err := boostRepo.SeedDefaults(seedCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed priority boosts")
	}

	// Catalog and boost table
	cat := catalog.New(log)
	boosts := relevance.NewBoostTable()

	// Keyword expander, optionally backed by Gemini
	taxonomyEntries, err := taxonomyRepo.Load(seedCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load keyword taxonomy")
	}
	expanderOpts := []keywords.ExpanderOption{
		keywords.WithSemanticTimeout(cfg.SemanticTimeout),
		keywords.WithExpansionCap(cfg.ExpansionCap),
		keywords.WithEventManager(eventManager),
	}
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, log,
			gemini.WithModel(cfg.GeminiModel))
		if err != nil {
			log.Error().Err(err).Msg("Gemini client unavailable, using static expansion only")
		} else {
			expanderOpts = append(expanderOpts, keywords.WithSemanticService(geminiClient))
			log.Info().Str("model", cfg.GeminiModel).Msg("Semantic expansion enabled")
		}
	}
	expander := keywords.NewExpander(taxonomyEntries, log, expanderOpts...)

	// Relevance and composite scoring
	searchEngine := relevance.NewEngine(cat, boosts, log,
		relevance.WithPrimaryLocale(cfg.PrimaryLocale))

	scoringOpts := []scoring.EngineOption{
		scoring.WithPennyThresholds(cfg.PennyThresholds),
		scoring.WithProviderTimeout(cfg.ProviderTimeout),
	}
	switch {
	case cfg.DemoMode:
		demo := scoring.NewSeededDemoProvider(cfg.DemoSeed)
		scoringOpts = append(scoringOpts,
			scoring.WithFundamentalsProvider(demo),
			scoring.WithPriceProvider(demo))
		log.Warn().Int64("seed", cfg.DemoSeed).Msg("Demo mode: serving seeded fake market data")
	case cfg.MarketDataURL != "":
		mdClient := marketdata.NewClient(cfg.MarketDataURL, log)
		scoringOpts = append(scoringOpts,
			scoring.WithFundamentalsProvider(mdClient),
			scoring.WithPriceProvider(mdClient))
		log.Info().Str("url", cfg.MarketDataURL).Msg("Market data providers enabled")
	default:
		log.Info().Msg("No market data source configured, scoring without fundamentals")
	}
	scoringEngine := scoring.NewEngine(boosts, log, scoringOpts...)

	// Discovery pipeline
	pipeline := discovery.NewPipeline(cat, expander, searchEngine, scoringEngine, eventManager, log,
		discovery.WithMaxResults(cfg.MaxResults),
		discovery.WithCacheTTL(cfg.CacheTTL))

	// Catalog refresh job, run once synchronously before serving
	refreshJob := scheduler.NewCatalogRefreshJob(scheduler.CatalogRefreshConfig{
		Log:     log,
		Source:  securityRepo,
		Catalog: cat,
		Boosts:  boostRepo,
		Sink:    boosts,
		Cache:   pipeline,
		Events:  eventManager,
	})

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.CatalogRefreshCron, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register catalog refresh job")
	}
	if err := sched.RunNow(refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Initial catalog build failed")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:              cfg.Port,
		Log:               log,
		DB:                db,
		Config:            cfg,
		Catalog:           cat,
		DiscoveryHandlers: discovery.NewHandlers(pipeline, cat, log),
		CatalogHandlers:   catalog.NewHandlers(cat, log),
		DevMode:           cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
