package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"rafflescout/config"
	"rafflescout/database"
	"rafflescout/events"
	"rafflescout/fetch"
	"rafflescout/notify"
	"rafflescout/render"
	"rafflescout/repository"
	"rafflescout/scraper"
	"rafflescout/service"
)

// Run initializes the pipeline and drives the ingestion loop until the
// context is cancelled.
func Run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("rafflescout", flag.ContinueOnError)
	once := flags.Bool("once", false, "run a single ingestion cycle and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	log.Println("Starting rafflescout...")

	// Load configuration
	cfg := config.Get()

	sites, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}
	if len(sites) == 0 {
		return fmt.Errorf("no sites configured in %s", cfg.SitesFile)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize event bus
	eventBus := events.NewBus()

	// Discord notifications are optional
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		notifier, err := notify.NewDiscordNotifier(notify.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordChannelID,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		notifier.Register(eventBus)
		log.Println("Discord notifier registered")
	}

	// Build the scraping stack
	fetcher := fetch.New(cfg.MaxRetries, cfg.BackoffFactor, cfg.FetchTimeout)
	renderCache := render.NewCache(render.Config{
		TTL:           cfg.RenderTTL,
		MaxConcurrent: cfg.RenderMaxConcurrent,
		MinInterval:   cfg.RenderMinInterval,
		WaitTimeout:   cfg.RenderWaitTimeout,
	}, render.Chromedp())

	scrapers, err := scraper.FromSites(sites, fetcher, renderCache)
	if err != nil {
		return fmt.Errorf("failed to build scrapers: %w", err)
	}

	repo := repository.NewRaffleRepository(db)
	svcScrapers := make([]service.Scraper, len(scrapers))
	for i, s := range scrapers {
		svcScrapers[i] = s
	}
	ingestion := service.NewIngestionService(svcScrapers, repo, eventBus, cfg.Retention)

	log.Printf("Ingesting %d sites every %s in %s mode", len(sites), cfg.IngestInterval, cfg.Environment)

	if *once {
		_, err := ingestion.Run(ctx)
		return err
	}

	return loop(ctx, ingestion, cfg.IngestInterval)
}

// loop runs an ingestion cycle immediately and then on every tick. Run
// errors are fatal only when the context is cancelled; otherwise the
// next tick retries.
func loop(ctx context.Context, ingestion service.IngestionService, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := ingestion.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Ingestion run failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
