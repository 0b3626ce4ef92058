package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes claim lifecycle event jobs from the River queue.
// For now it logs the event; future versions will dispatch customer
// notifications and workshop alerts.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing claim event",
		"event", job.Args.Event,
		"claim_id", job.Args.ClaimID,
		"claim_number", job.Args.ClaimNumber,
		"status", job.Args.Status,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
