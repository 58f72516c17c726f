package reaper

import (
	"context"
	"log/slog"
	"os"
	"time"

	"vidmill/internal/application/session"
	"vidmill/internal/domain/job"
)

// Canceller stops a job's external process and marks it Cancelled.
type Canceller interface {
	Cancel(id string) (job.Record, error)
}

// Sweeper removes orphaned artifact files older than a given age.
type Sweeper interface {
	SweepOlderThan(age time.Duration) int
}

// Reaper enforces the retention window: expired records are cancelled
// if still active, their artifacts deleted and the record removed. An
// independent filesystem sweep bounds disk growth from files whose
// record was lost, e.g. across a process restart.
type Reaper struct {
	table     *session.Table
	canceller Canceller
	sweeper   Sweeper
	window    time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a reaper with the given retention window and interval.
func New(table *session.Table, canceller Canceller, sweeper Sweeper, window, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		table:     table,
		canceller: canceller,
		sweeper:   sweeper,
		window:    window,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps on a fixed interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removedJobs, removedFiles := r.Sweep()
			if removedJobs > 0 || removedFiles > 0 {
				r.logger.Info("retention sweep",
					slog.Int("removed_jobs", removedJobs),
					slog.Int("removed_files", removedFiles),
				)
			}
		}
	}
}

// Sweep removes expired records plus their artifacts and sweeps the
// artifact directories for orphans. Cleanup failures are logged and
// never abort the rest of the sweep.
func (r *Reaper) Sweep() (removedJobs, removedFiles int) {
	cutoff := time.Now().Add(-r.window)

	for _, rec := range r.table.Snapshots() {
		if rec.CreatedAt.After(cutoff) {
			continue
		}

		if !rec.State.Terminal() && rec.State != job.StateValidating {
			if _, err := r.canceller.Cancel(rec.ID); err != nil {
				r.logger.Warn("reaper cancel failed", slog.String("job_id", rec.ID), slog.String("error", err.Error()))
			}
		}

		for _, path := range []string{rec.SourcePath, rec.OutputPath} {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				r.logger.Warn("artifact delete failed", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
		}

		if err := r.table.Delete(rec.ID); err == nil {
			removedJobs++
		}
	}

	removedFiles = r.sweeper.SweepOlderThan(r.window)
	return removedJobs, removedFiles
}
