package normalize

import (
	"math"
)

// TicketMetrics holds reconciled ticket counts for a single raffle.
// Any field left nil could not be determined from the inputs.
type TicketMetrics struct {
	Total     *int
	Sold      *int
	Remaining *int
	SoldRatio *float64
}

// Metrics reconciles partially known ticket counts. A missing value is
// inferred from the other two where possible; sold/remaining inferences
// are floored at zero so inconsistent sources never produce negatives.
// After reconciliation total == sold + remaining holds whenever all
// three are known.
func Metrics(total, sold, remaining *int) TicketMetrics {
	if total == nil && sold != nil && remaining != nil {
		total = intPtr(*sold + *remaining)
	}
	if sold == nil && total != nil && remaining != nil {
		sold = intPtr(max(*total-*remaining, 0))
	}
	if remaining == nil && total != nil && sold != nil {
		remaining = intPtr(max(*total-*sold, 0))
	}

	var soldRatio *float64
	if sold != nil && total != nil && *total > 0 {
		ratio := float64(*sold) / float64(*total)
		ratio = math.Min(math.Max(ratio, 0), 1)
		soldRatio = &ratio
	}

	return TicketMetrics{Total: total, Sold: sold, Remaining: remaining, SoldRatio: soldRatio}
}

// Odds computes the single-ticket win probability and the smallest number
// of tickets giving at least a 50% chance of winning once, assuming a
// uniform draw over total tickets. Both results are nil when the total is
// unknown or non-positive.
func Odds(total *int) (winProbability *float64, minTicketsForHalfChance *int) {
	if total == nil || *total <= 0 {
		return nil, nil
	}

	p := 1 / float64(*total)
	if 1-p <= 0 {
		return &p, intPtr(1)
	}

	// Smallest n with (1-p)^n <= 0.5.
	n := int(math.Ceil(math.Log(0.5) / math.Log(1-p)))
	if n < 1 {
		n = 1
	}
	return &p, &n
}

func intPtr(v int) *int {
	return &v
}
