package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"go-cheque-batch/internal/logging"
	"go-cheque-batch/internal/model"
)

const (
	// chunkSize is the fixed parallel concurrency bound. It is deliberately
	// not user-configurable: all batches share the downstream stage quota.
	chunkSize = 3

	// chunkPause is the fixed pause between parallel chunks.
	chunkPause = time.Second

	defaultItemsPerSecond = 1.0
)

// executor runs the full pipeline for one item. Satisfied by *Runner.
type executor interface {
	Execute(ctx context.Context, tok *CancelToken, item model.Item) model.ItemOutcome
}

// Scheduler executes item pipelines under the configured concurrency policy:
// strictly sequential with pacing, or bounded-parallel chunking. At no point
// do more items sit in PROCESSING than the bound allows (1 sequential,
// chunkSize parallel).
type Scheduler struct {
	exec executor
	log  *logging.Logger

	// overridden in tests to keep pacing assertions fast
	pacingUnit time.Duration
	pause      time.Duration
}

// NewScheduler creates a scheduler over the given executor.
func NewScheduler(exec executor, log *logging.Logger) *Scheduler {
	return &Scheduler{exec: exec, log: log, pacingUnit: time.Second, pause: chunkPause}
}

// Run drives every item to a terminal state and returns the recorded
// outcomes. Progress is reported to the aggregator after each item
// (sequential) or chunk (parallel); that is the only synchronization point,
// so chunk boundaries serialize registry writes. Outcomes resolving after
// cancellation are discarded.
func (s *Scheduler) Run(ctx context.Context, tok *CancelToken, items []model.Item, opts model.SchedulerOptions, progress *Progress) (success, failed int, outcomes []model.ItemOutcome) {
	if opts.Parallel {
		outcomes = s.runChunked(ctx, tok, items, progress)
	} else {
		outcomes = s.runSequential(ctx, tok, items, opts, progress)
	}

	for _, out := range outcomes {
		if out.Succeeded() {
			success++
		} else {
			failed++
		}
	}
	return success, failed, outcomes
}

// runSequential processes items one at a time in source order, sleeping
// 1000/itemsPerSecond ms after each item to respect downstream API limits.
func (s *Scheduler) runSequential(ctx context.Context, tok *CancelToken, items []model.Item, opts model.SchedulerOptions, progress *Progress) []model.ItemOutcome {
	ips := opts.ItemsPerSecond
	if ips <= 0 {
		ips = defaultItemsPerSecond
	}
	pacing := time.Duration(float64(s.pacingUnit) / ips)

	outcomes := make([]model.ItemOutcome, 0, len(items))
	for i, item := range items {
		if tok != nil && tok.Cancelled() {
			break
		}
		progress.Starting(ctx, item.ID)

		out := s.exec.Execute(ctx, tok, item)
		if tok != nil && tok.Cancelled() {
			// Batch was cancelled while the item was in flight; its outcome
			// is discarded, a known best-effort limitation.
			s.log.Warn("batch cancelled, discarding outcome of item %s", item.ID)
			break
		}
		outcomes = append(outcomes, out)
		progress.Record(ctx, out)

		if i < len(items)-1 {
			select {
			case <-ctx.Done():
				return outcomes
			case <-time.After(pacing):
			}
		}
	}
	return outcomes
}

// runChunked partitions items into fixed-size chunks, runs every item of a
// chunk concurrently, and waits for the whole chunk to resolve before the
// next one starts. A fixed pause separates chunks.
func (s *Scheduler) runChunked(ctx context.Context, tok *CancelToken, items []model.Item, progress *Progress) []model.ItemOutcome {
	outcomes := make([]model.ItemOutcome, 0, len(items))

	for start := 0; start < len(items); start += chunkSize {
		if tok != nil && tok.Cancelled() {
			break
		}
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		ids := make([]string, len(chunk))
		for i, item := range chunk {
			ids[i] = item.ID
		}
		progress.Starting(ctx, ids...)

		chunkOutcomes := make([]model.ItemOutcome, len(chunk))
		var g errgroup.Group
		for i, item := range chunk {
			i, item := i, item
			g.Go(func() error {
				// Item failures are contained; they never abort siblings.
				chunkOutcomes[i] = s.exec.Execute(ctx, tok, item)
				return nil
			})
		}
		g.Wait()

		if tok != nil && tok.Cancelled() {
			s.log.Warn("batch cancelled, discarding %d in-flight outcomes", len(chunk))
			break
		}
		outcomes = append(outcomes, chunkOutcomes...)
		progress.Record(ctx, chunkOutcomes...)

		if end < len(items) {
			select {
			case <-ctx.Done():
				return outcomes
			case <-time.After(s.pause):
			}
		}
	}
	return outcomes
}
