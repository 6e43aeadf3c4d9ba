package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rafflescout/events"
	"rafflescout/models"
	"rafflescout/normalize"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ingestionService implements the IngestionService interface
type ingestionService struct {
	scrapers       []Scraper
	repo           RaffleRepository
	eventPublisher EventPublisher
	retention      time.Duration

	now func() time.Time
}

// NewIngestionService creates a new ingestion service. Records whose
// last_seen falls behind now minus retention are pruned at the end of
// each run.
func NewIngestionService(scrapers []Scraper, repo RaffleRepository, eventPublisher EventPublisher, retention time.Duration) IngestionService {
	return &ingestionService{
		scrapers:       scrapers,
		repo:           repo,
		eventPublisher: eventPublisher,
		retention:      retention,
		now:            time.Now,
	}
}

type sourceResult struct {
	source   string
	listings []models.RawListing
	err      error
}

// Run executes one ingestion cycle. Scrapers run concurrently and fail
// independently; a failed source is reported in the summary while the
// others' listings are still persisted. Only persistence errors fail
// the run as a whole.
func (s *ingestionService) Run(ctx context.Context) (*models.IngestionSummary, error) {
	startedAt := s.now()
	summary := &models.IngestionSummary{
		RunID:     uuid.New().String(),
		StartedAt: startedAt,
	}

	logger := log.WithField("runID", summary.RunID)
	logger.WithField("sources", len(s.scrapers)).Info("Starting ingestion run")

	results := make(chan sourceResult, len(s.scrapers))
	for _, sc := range s.scrapers {
		go func(sc Scraper) {
			listings, err := s.scrape(ctx, sc)
			results <- sourceResult{source: sc.Source(), listings: listings, err: err}
		}(sc)
	}

	var listings []models.RawListing
	for range s.scrapers {
		result := <-results
		if result.err != nil {
			logger.WithField("source", result.source).WithError(result.err).Error("Source failed")
			summary.FailedSources = append(summary.FailedSources, result.source)
			s.eventPublisher.Emit(ctx, events.SourceFailedEvent{
				RunID:  summary.RunID,
				Source: result.source,
				Reason: result.err.Error(),
			})
			continue
		}
		listings = append(listings, result.listings...)
	}
	sort.Strings(summary.FailedSources)
	summary.Processed = len(listings)

	records := s.normalize(listings, startedAt)
	// Past-deadline listings are still persisted (the prune is purely
	// staleness-based) but reported so operators can spot sites that
	// never take dead raffles down.
	for _, record := range records {
		if record.Expired(startedAt) {
			summary.Expired++
		}
	}
	if len(records) > 0 {
		upserted, err := s.repo.Upsert(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("failed to persist records: %w", err)
		}
		summary.Upserted = int(upserted)
	}

	pruned, err := s.repo.PruneBefore(ctx, startedAt.Add(-s.retention))
	if err != nil {
		return nil, fmt.Errorf("failed to prune stale records: %w", err)
	}
	summary.Pruned = int(pruned)
	if pruned > 0 {
		s.eventPublisher.Emit(ctx, events.RecordsPrunedEvent{RunID: summary.RunID, Pruned: pruned})
	}

	summary.FinishedAt = s.now()
	s.eventPublisher.Emit(ctx, events.RunCompletedEvent{Summary: *summary})

	logger.WithFields(log.Fields{
		"processed":     summary.Processed,
		"upserted":      summary.Upserted,
		"pruned":        summary.Pruned,
		"expired":       summary.Expired,
		"failedSources": len(summary.FailedSources),
		"duration":      summary.Duration(),
	}).Info("Ingestion run finished")
	return summary, nil
}

// scrape runs a single scraper, converting panics into errors so one
// misbehaving site cannot take down the whole run.
func (s *ingestionService) scrape(ctx context.Context, sc Scraper) (listings []models.RawListing, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scraper panicked: %v", r)
		}
	}()
	return sc.Fetch(ctx)
}

// normalize converts raw listings into canonical records, reconciling
// ticket math and resolving deadline text. Duplicate keys within a run
// keep the first occurrence.
func (s *ingestionService) normalize(listings []models.RawListing, seenAt time.Time) []*models.RaffleRecord {
	seen := make(map[string]bool, len(listings))
	records := make([]*models.RaffleRecord, 0, len(listings))
	for _, listing := range listings {
		record := toRecord(listing, seenAt)
		if seen[record.Key()] {
			log.WithField("key", record.Key()).Warn("Duplicate listing within run, keeping first")
			continue
		}
		seen[record.Key()] = true
		records = append(records, record)
	}
	return records
}

func toRecord(listing models.RawListing, seenAt time.Time) *models.RaffleRecord {
	metrics := normalize.Metrics(listing.TotalTickets, listing.TicketsSold, listing.TicketsRemaining)
	winProbability, minTicketsHalf := normalize.Odds(metrics.Total)

	record := &models.RaffleRecord{
		Source:           listing.Source,
		RaffleID:         listing.RaffleID,
		Title:            listing.Title,
		URL:              listing.URL,
		Price:            listing.Price,
		TotalTickets:     metrics.Total,
		TicketsSold:      metrics.Sold,
		TicketsRemaining: metrics.Remaining,
		SoldRatio:        metrics.SoldRatio,
		WinProbability:   winProbability,
		MinTicketsHalf:   minTicketsHalf,
		Metadata:         listing.Metadata,
		LastSeen:         seenAt,
	}
	if listing.Prize != "" {
		record.Prize = &listing.Prize
	}
	if listing.DeadlineText != "" {
		record.Deadline = normalize.Deadline(listing.DeadlineText, seenAt)
	}
	return record
}
