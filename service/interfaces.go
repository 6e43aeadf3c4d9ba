package service

import (
	"context"
	"time"

	"rafflescout/events"
	"rafflescout/models"
)

// RaffleRepository defines the interface for raffle record persistence
type RaffleRepository interface {
	// Upsert inserts or updates records by their (source, raffle_id) key
	// and returns the number of rows written
	Upsert(ctx context.Context, records []*models.RaffleRecord) (int64, error)

	// PruneBefore deletes records last seen before the cutoff and returns
	// the number of rows deleted
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scraper fetches raw listings from one upstream source
type Scraper interface {
	Source() string
	Fetch(ctx context.Context) ([]models.RawListing, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event)
}

// IngestionService defines the interface for ingestion runs
type IngestionService interface {
	// Run executes one full scrape-normalize-persist-prune cycle
	Run(ctx context.Context) (*models.IngestionSummary, error)
}
