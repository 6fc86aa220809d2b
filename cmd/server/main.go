package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adityamenon/newsdesk/internal/ai"
	"github.com/adityamenon/newsdesk/internal/api"
	"github.com/adityamenon/newsdesk/internal/config"
	"github.com/adityamenon/newsdesk/internal/feeds"
	"github.com/adityamenon/newsdesk/internal/news"
	"github.com/adityamenon/newsdesk/internal/parse"
	"github.com/adityamenon/newsdesk/internal/scrape"
	"github.com/adityamenon/newsdesk/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dataDir := flag.String("data-dir", "./data", "path to data directory")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure data directory exists.
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Open database with WAL mode and pragmas.
	db, err := storage.OpenDatabase(filepath.Join(*dataDir, "newsdesk.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run schema migrations.
	if err := storage.RunMigrations(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	store := storage.NewStore(db)

	// LLM extractor is optional: with no key the parsers run rules only.
	var extractor ai.Extractor
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		extractor, err = ai.NewProvider(ai.ProviderConfig{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
		})
		if err != nil {
			slog.Error("failed to create AI provider", "error", err)
			os.Exit(1)
		}
		slog.Info("AI extractor configured", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
	} else {
		slog.Warn("no AI extractor configured, rule parsers only")
	}

	scraper := scrape.NewScraper(cfg.Scrape, logger)
	fetcher := feeds.NewAggregator(cfg.Funding, logger)
	cache := news.NewFundingCache()
	svc := news.NewService(
		store,
		scraper,
		fetcher,
		cache,
		parse.NewPeopleParser(extractor, logger),
		parse.NewFundingParser(extractor, logger),
		cfg,
		logger,
	)

	refresher := news.NewRefresher(svc, logger)
	refresher.Start()
	defer refresher.Stop()

	router := api.NewRouter(store, svc)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
