package testutil

import (
	"time"

	"rafflescout/models"
)

// CreateTestRaffle creates a raffle record with sensible defaults
func CreateTestRaffle(source, raffleID string) *models.RaffleRecord {
	price := 2.50
	total := 1000
	sold := 400
	remaining := 600
	ratio := 0.4
	deadline := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)

	return &models.RaffleRecord{
		Source:           source,
		RaffleID:         raffleID,
		Title:            "Win a Classic Mini",
		URL:              "https://" + source + ".example.com/raffles/" + raffleID,
		Price:            &price,
		TotalTickets:     &total,
		TicketsSold:      &sold,
		TicketsRemaining: &remaining,
		SoldRatio:        &ratio,
		Deadline:         &deadline,
		Metadata:         map[string]any{"tier": "weekly"},
		LastSeen:         time.Now().UTC().Truncate(time.Second),
	}
}

// CreateTestRaffleSeenAt creates a raffle record with a specific last_seen
func CreateTestRaffleSeenAt(source, raffleID string, lastSeen time.Time) *models.RaffleRecord {
	record := CreateTestRaffle(source, raffleID)
	record.LastSeen = lastSeen
	return record
}
