package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
)

// Sweep names, used for scheduling, locks and metrics
const (
	SweepBalance = "balance"
	SweepVisits  = "visits"
	SweepExpiry  = "expiry"
)

// SweepFailure records one item a sweep could not process
type SweepFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// SweepReport summarises one sweep run
type SweepReport struct {
	Name      string         `json:"name"`
	Scanned   int            `json:"scanned"`
	Changed   int            `json:"changed"`
	Failures  []SweepFailure `json:"failures,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

func newSweepReport(name string, now time.Time) *SweepReport {
	return &SweepReport{Name: name, StartedAt: now}
}

func (r *SweepReport) fail(id string, err error) {
	r.Failures = append(r.Failures, SweepFailure{ID: id, Error: err.Error()})
}

// finish stamps the duration, records metrics and logs the outcome
func (r *SweepReport) finish(ctx context.Context, metrics *observability.Metrics) *SweepReport {
	r.Duration = time.Since(r.StartedAt)
	observability.RecordSweep(ctx, metrics, r.Name, r.Changed, r.Duration)

	var event *zerolog.Event
	if len(r.Failures) > 0 {
		event = observability.LoggerFromContext(ctx).Warn()
	} else {
		event = observability.LoggerFromContext(ctx).Info()
	}
	event.
		Str("sweep", r.Name).
		Int("scanned", r.Scanned).
		Int("changed", r.Changed).
		Int("failed", len(r.Failures)).
		Dur("duration", r.Duration).
		Msg("sweep finished")
	return r
}
