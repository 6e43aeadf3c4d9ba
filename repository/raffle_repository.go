package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"rafflescout/database"
	"rafflescout/models"
)

const raffleColumns = `
	source,
	raffle_id,
	title,
	prize,
	url,
	price,
	total_tickets,
	tickets_sold,
	tickets_remaining,
	sold_ratio,
	deadline,
	win_probability,
	min_tickets_half_chance,
	metadata,
	last_seen,
	created_at,
	updated_at`

// RaffleRepository provides access to the raffles table
type RaffleRepository struct {
	db *database.DB
}

// NewRaffleRepository creates a new raffle repository
func NewRaffleRepository(db *database.DB) *RaffleRepository {
	return &RaffleRepository{db: db}
}

// Upsert writes records keyed by (source, raffle_id), inserting new rows
// and overwriting every mutable field of existing ones. The whole batch
// is applied in one transaction and the affected row count returned.
func (r *RaffleRepository) Upsert(ctx context.Context, records []*models.RaffleRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO raffles (
			source, raffle_id, title, prize, url, price,
			total_tickets, tickets_sold, tickets_remaining, sold_ratio,
			deadline, win_probability, min_tickets_half_chance, metadata, last_seen
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (source, raffle_id) DO UPDATE SET
			title = EXCLUDED.title,
			prize = EXCLUDED.prize,
			url = EXCLUDED.url,
			price = EXCLUDED.price,
			total_tickets = EXCLUDED.total_tickets,
			tickets_sold = EXCLUDED.tickets_sold,
			tickets_remaining = EXCLUDED.tickets_remaining,
			sold_ratio = EXCLUDED.sold_ratio,
			deadline = EXCLUDED.deadline,
			win_probability = EXCLUDED.win_probability,
			min_tickets_half_chance = EXCLUDED.min_tickets_half_chance,
			metadata = EXCLUDED.metadata,
			last_seen = EXCLUDED.last_seen,
			updated_at = NOW()
	`

	var affected int64
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, record := range records {
			metadata := record.Metadata
			if metadata == nil {
				metadata = map[string]any{}
			}
			tag, err := tx.Exec(ctx, query,
				record.Source,
				record.RaffleID,
				record.Title,
				record.Prize,
				record.URL,
				record.Price,
				record.TotalTickets,
				record.TicketsSold,
				record.TicketsRemaining,
				record.SoldRatio,
				record.Deadline,
				record.WinProbability,
				record.MinTicketsHalf,
				metadata,
				record.LastSeen,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert raffle %s: %w", record.Key(), err)
			}
			affected += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// PruneBefore deletes records whose last_seen is older than the cutoff
// and returns the number of rows removed
func (r *RaffleRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM raffles WHERE last_seen < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune raffles before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// GetByKey retrieves a single record by its identity key
func (r *RaffleRepository) GetByKey(ctx context.Context, source, raffleID string) (*models.RaffleRecord, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE source = $1 AND raffle_id = $2`

	record, err := scanRaffle(r.db.QueryRow(ctx, query, source, raffleID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle %s/%s: %w", source, raffleID, err)
	}
	return record, nil
}

// ListBySource returns all records for one source ordered by raffle_id
func (r *RaffleRepository) ListBySource(ctx context.Context, source string) ([]*models.RaffleRecord, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE source = $1 ORDER BY raffle_id`

	rows, err := r.db.Query(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles for source %s: %w", source, err)
	}
	defer rows.Close()

	var records []*models.RaffleRecord
	for rows.Next() {
		record, err := scanRaffle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading raffle rows: %w", err)
	}
	return records, nil
}

// Count returns the total number of stored records
func (r *RaffleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM raffles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count raffles: %w", err)
	}
	return count, nil
}

func scanRaffle(row pgx.Row) (*models.RaffleRecord, error) {
	var record models.RaffleRecord
	err := row.Scan(
		&record.Source,
		&record.RaffleID,
		&record.Title,
		&record.Prize,
		&record.URL,
		&record.Price,
		&record.TotalTickets,
		&record.TicketsSold,
		&record.TicketsRemaining,
		&record.SoldRatio,
		&record.Deadline,
		&record.WinProbability,
		&record.MinTicketsHalf,
		&record.Metadata,
		&record.LastSeen,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
