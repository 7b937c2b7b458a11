/*
batch.go - Bounded-concurrency batch calculation

PURPOSE:
  Runs a slice of requests through the engine with at most maxWorkers
  calculations in flight. One worker's failure never aborts the batch;
  its Outcome records the error and the siblings keep going.

ORDERING:
  Outcomes are written by input index, so the returned slice lines up
  with the request slice regardless of completion order.
*/
package compliance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBatchWorkers bounds batch parallelism when the caller passes a
// non-positive worker count.
const DefaultBatchWorkers = 8

// BatchReport wraps a batch run's outcomes with run metadata.
type BatchReport struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
	Outcomes  []Outcome     `json:"outcomes"`
}

// CalculateBatch evaluates every request and returns one outcome per
// request in input order. Context cancellation drains the remaining
// requests into failed outcomes without starting them.
func (e *Engine) CalculateBatch(ctx context.Context, reqs []Request, maxWorkers int) BatchReport {
	if maxWorkers <= 0 {
		maxWorkers = DefaultBatchWorkers
	}

	report := BatchReport{
		RunID:    uuid.NewString(),
		Total:    len(reqs),
		Outcomes: make([]Outcome, len(reqs)),
	}
	start := time.Now()

	log := e.log.With().Str("run_id", report.RunID).Logger()
	log.Info().Int("requests", len(reqs)).Int("workers", maxWorkers).Msg("batch started")

	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i := range reqs {
		if err := ctx.Err(); err != nil {
			report.Outcomes[i] = fail(reqs[i].Worker.ID, reqs[i].Period.ID, err)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			report.Outcomes[idx] = e.Calculate(ctx, reqs[idx])
		}(i)
	}
	wg.Wait()

	for _, out := range report.Outcomes {
		if out.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	report.Elapsed = time.Since(start)

	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Dur("elapsed", report.Elapsed).
		Msg("batch finished")
	return report
}
