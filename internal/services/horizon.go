package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/core"
)

// DefaultHorizonMonths is how far ahead of today the sweep keeps every active
// fixed series materialized.
const DefaultHorizonMonths = 12

// HorizonJob is the idempotent sweep that extends every active fixed origin
// to a rolling horizon. Origins are independent: each one's writes are scoped
// to its own parent id, so they are processed concurrently with a bounded
// limit, and a failure on one origin is logged and skipped, never fatal.
type HorizonJob struct {
	store         EntryStore
	materializer  *Materializer
	horizonMonths int
	concurrency   int
}

func NewHorizonJob(store EntryStore, materializer *Materializer, concurrency int) *HorizonJob {
	if concurrency < 1 {
		concurrency = 1
	}
	return &HorizonJob{
		store:         store,
		materializer:  materializer,
		horizonMonths: DefaultHorizonMonths,
		concurrency:   concurrency,
	}
}

// Run sweeps all active fixed origins, extending each to today plus the
// rolling horizon. It returns the number of occurrences created. Re-running
// with the same today creates nothing new. The origin's own date is never
// rewritten; progress is tracked by the latest existing occurrence.
func (j *HorizonJob) Run(ctx context.Context, today core.Date) (int, error) {
	start := time.Now()
	horizon := today.AddMonths(j.horizonMonths)

	origins, err := j.store.FindActiveFixedOrigins(ctx)
	if err != nil {
		return 0, fmt.Errorf("find active fixed origins: %w", err)
	}

	slog.InfoContext(ctx, "Horizon sweep starting",
		"origins", len(origins),
		"today", today.String(),
		"horizon", horizon.String())

	var created atomic.Int64
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, origin := range origins {
		origin := origin
		g.Go(func() error {
			sweepOriginsProcessed.Inc()
			n, err := j.materializer.ExtendFixed(gctx, origin, horizon)
			created.Add(int64(n))
			if err != nil {
				// Per-origin isolation: log, count, move on. The next
				// scheduled sweep picks this origin up again.
				failed.Add(1)
				sweepOriginFailures.Inc()
				slog.ErrorContext(gctx, "Failed to extend fixed series",
					"origin_id", origin.ID,
					"frequency", origin.Recurrence.Frequency,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	total := int(created.Load())
	sweepOccurrencesCreated.Add(float64(total))
	sweepDuration.Observe(time.Since(start).Seconds())

	slog.InfoContext(ctx, "Horizon sweep complete",
		"origins", len(origins),
		"created", total,
		"failed", failed.Load(),
		"elapsed", time.Since(start).Round(time.Millisecond).String())

	return total, nil
}
