package orchestrator

import (
	"context"
	"time"

	"go-cheque-batch/internal/logging"
	"go-cheque-batch/internal/model"
	"go-cheque-batch/internal/stage"
)

const (
	// maxAttempts is the per-item retry budget: the initial attempt plus two
	// retries.
	maxAttempts = 3

	// backoffBase is the delay before the first retry; it doubles for the
	// second (2s, 4s).
	backoffBase = 2 * time.Second
)

// Runner drives one item through the four ordered analysis stages, retrying
// the whole pipeline on any stage failure. There is no partial-stage retry:
// a failed attempt restarts from analysis.
type Runner struct {
	client stage.Client
	log    *logging.Logger

	// overridden in tests to keep backoff assertions fast
	backoff time.Duration
}

// NewRunner creates a Runner over the given stage client.
func NewRunner(client stage.Client, log *logging.Logger) *Runner {
	return &Runner{client: client, log: log, backoff: backoffBase}
}

// Execute runs the pipeline for one item and returns its terminal outcome.
// The cancel token is consulted between stage calls and before each backoff
// sleep; an abandoned item reports a FAILED outcome that the scheduler
// discards.
func (r *Runner) Execute(ctx context.Context, tok *CancelToken, item model.Item) model.ItemOutcome {
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			// Iterative backoff keeps the retry budget explicit: the delay
			// before retry k is backoffBase doubled k-1 times.
			delay := r.backoff << (attempt - 2)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				return r.failed(item, attempt-1, lastErr, start)
			case <-time.After(delay):
			}
		}
		if tok != nil && tok.Cancelled() {
			return r.abandoned(item, attempt-1, start)
		}

		result, err := r.attempt(ctx, tok, item)
		if err == nil {
			return model.ItemOutcome{
				ItemID:           item.ID,
				Status:           model.ItemCompleted,
				Attempts:         attempt,
				Result:           result,
				ProcessingTimeMs: time.Since(start).Milliseconds(),
			}
		}
		if err == errAbandoned {
			return r.abandoned(item, attempt, start)
		}
		lastErr = err
		r.log.Warn("item %s attempt %d/%d failed: %v", item.ID, attempt, maxAttempts, err)
	}

	return r.failed(item, maxAttempts, lastErr, start)
}

// errAbandoned is an internal signal: cancellation observed between stages.
var errAbandoned = &stage.Error{Stage: "pipeline", Message: "abandoned: batch cancelled"}

// attempt performs one full pass over the four stages, accumulating outputs.
func (r *Runner) attempt(ctx context.Context, tok *CancelToken, item model.Item) (*model.PipelineResult, error) {
	var res model.PipelineResult

	analysis, err := r.client.Analyze(ctx, item)
	if err != nil {
		return nil, err
	}
	res.Analysis = analysis

	if tok != nil && tok.Cancelled() {
		return nil, errAbandoned
	}
	institution, err := r.client.Institution(ctx, item, res)
	if err != nil {
		return nil, err
	}
	res.Institution = institution

	if tok != nil && tok.Cancelled() {
		return nil, errAbandoned
	}
	compliance, err := r.client.Compliance(ctx, item, res)
	if err != nil {
		return nil, err
	}
	res.Compliance = compliance

	if tok != nil && tok.Cancelled() {
		return nil, errAbandoned
	}
	decision, err := r.client.Decide(ctx, item, res)
	if err != nil {
		return nil, err
	}
	res.Decision = decision

	return &res, nil
}

func (r *Runner) failed(item model.Item, attempts int, err error, start time.Time) model.ItemOutcome {
	msg := "pipeline failed"
	if err != nil {
		msg = err.Error()
	}
	return model.ItemOutcome{
		ItemID:           item.ID,
		Status:           model.ItemFailed,
		Attempts:         attempts,
		Error:            msg,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

func (r *Runner) abandoned(item model.Item, attempts int, start time.Time) model.ItemOutcome {
	out := r.failed(item, attempts, errAbandoned, start)
	return out
}
