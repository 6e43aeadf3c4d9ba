package models

// RawListing is one scraper's unnormalized view of a single competition.
// Ticket counts may be partially known and mutually inconsistent; the
// deadline is whatever text the source exposed. The ingestion service
// reconciles all of it before persisting.
type RawListing struct {
	Source           string
	RaffleID         string
	Title            string
	Prize            string
	URL              string
	Price            *float64
	TotalTickets     *int
	TicketsSold      *int
	TicketsRemaining *int
	DeadlineText     string
	Metadata         map[string]any
}
