package models

import (
	"time"
)

// IngestionSummary reports the outcome of a single ingestion run.
// A non-empty FailedSources does not make the run itself a failure;
// callers decide how to treat partial results.
type IngestionSummary struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Processed     int
	Upserted      int
	Pruned        int
	Expired       int
	FailedSources []string
}

// Duration returns the wall-clock time the run took.
func (s *IngestionSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// PartialFailure reports whether some, but not all, sources failed.
func (s *IngestionSummary) PartialFailure(totalSources int) bool {
	return len(s.FailedSources) > 0 && len(s.FailedSources) < totalSources
}
