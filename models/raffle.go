package models

import (
	"time"
)

// RaffleRecord is the canonical competition record persisted by the
// ingestion pipeline. Source and RaffleID together form the identity key;
// later upserts overwrite every other field but never the key.
type RaffleRecord struct {
	Source           string         `db:"source"`
	RaffleID         string         `db:"raffle_id"`
	Title            string         `db:"title"`
	Prize            *string        `db:"prize"`
	URL              string         `db:"url"`
	Price            *float64       `db:"price"`
	TotalTickets     *int           `db:"total_tickets"`
	TicketsSold      *int           `db:"tickets_sold"`
	TicketsRemaining *int           `db:"tickets_remaining"`
	SoldRatio        *float64       `db:"sold_ratio"`
	Deadline         *time.Time     `db:"deadline"`
	WinProbability   *float64       `db:"win_probability"`
	MinTicketsHalf   *int           `db:"min_tickets_half_chance"`
	Metadata         map[string]any `db:"metadata"`
	LastSeen         time.Time      `db:"last_seen"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// Key returns the composite identity of the record.
func (r *RaffleRecord) Key() string {
	return r.Source + "/" + r.RaffleID
}

// Expired reports whether the raffle's deadline has passed at the given instant.
func (r *RaffleRecord) Expired(now time.Time) bool {
	return r.Deadline != nil && r.Deadline.Before(now)
}
