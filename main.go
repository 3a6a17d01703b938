package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"

	"land-auction-scraper/config"
	"land-auction-scraper/geo"
	"land-auction-scraper/models"
	"land-auction-scraper/scraper/browser"
	"land-auction-scraper/scraper/firecrawl"
	"land-auction-scraper/services"
	"land-auction-scraper/storage"
	"land-auction-scraper/utils"
)

// app holds everything a command needs, built once from config.
type app struct {
	cfg       *config.Config
	logger    *utils.Logger
	store     storage.AuctionStore
	enricher  *services.Enricher
	discovery *services.Discovery
	insights  *services.InsightService
}

func newApp(cfg *config.Config) (*app, error) {
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

	logger.Info("=== Land Auction Scraper starting ===")
	logger.Info("Config: store %s | concurrency %d | rate %dms | retries %d | key %s",
		cfg.StoreDriver, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries, cfg.RedactedKey())

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	client, err := firecrawl.New(firecrawl.Options{
		BaseURL:    cfg.FirecrawlBaseURL,
		APIKey:     cfg.FirecrawlAPIKey,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var geocoder geo.Geocoder
	if cfg.Geocoder == "nominatim" {
		geocoder = geo.NewNominatimGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocodeCacheTTL)
	}
	resolver := geo.NewResolver(geocoder, logger)

	var collector services.LinkCollector
	if cfg.BrowserFallback {
		lc := browser.NewLinkCollector(cfg.ChromeBin, cfg.MaxRetries, logger)
		if lc.Available() {
			collector = lc
		} else {
			logger.Warn("[main] BROWSER_FALLBACK set but no Chrome binary found; continuing without it")
		}
	}

	enricher := services.NewEnricher(store, client, resolver, logger)
	discovery := services.NewDiscovery(client, collector, store, enricher, services.DiscoveryConfig{
		MaxConcurrency:       cfg.MaxConcurrency,
		RateLimitMs:          cfg.RateLimitMs,
		MaxCandidates:        cfg.MaxCandidates,
		ListingLinkThreshold: cfg.ListingLinkThreshold,
		BrowserFallback:      collector != nil,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		enricher:  enricher,
		discovery: discovery,
		insights:  services.NewInsightService(logger),
	}, nil
}

func openStore(cfg *config.Config) (storage.AuctionStore, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return storage.NewPostgresStore(cfg.DSN())
	case "sqlite":
		return storage.NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("[main] closing store: %v", err)
	}
	a.logger.Sync()
}

// exportCSV writes the display views of auctions to the configured CSV path.
func (a *app) exportCSV(auctions []*models.Auction) error {
	w, err := storage.NewCSVWriter(a.cfg.CSVOutputPath)
	if err != nil {
		return err
	}
	if err := export(w, auctions); err != nil {
		return err
	}
	a.logger.Info("[main] %d auctions exported to %s", len(auctions), a.cfg.CSVOutputPath)
	return nil
}

func export(exp storage.AuctionExporter, auctions []*models.Auction) error {
	rows := make([]storage.ExportRow, 0, len(auctions))
	for _, auc := range auctions {
		rows = append(rows, services.ToExportRow(services.GetComprehensiveAuctionData(auc)))
	}
	if err := exp.WriteRows(rows); err != nil {
		_ = exp.Close()
		return err
	}
	return exp.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
