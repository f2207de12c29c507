package orchestrator

import (
	"context"

	"go-cheque-batch/internal/logging"
	"go-cheque-batch/internal/model"
)

// Progress maintains the running counters for one batch and derives its
// terminal status once every item has resolved.
//
// A single logical writer per batch (the scheduler) mutates it, and chunk
// boundaries serialize those writes, so no locking is needed here. Readers
// poll the registry, not this struct.
type Progress struct {
	batchID   string
	total     int
	processed int
	success   int
	failed    int
	finalized bool

	reg Registry
	log *logging.Logger
}

// NewProgress creates the progress aggregator for one batch.
func NewProgress(batchID string, total int, reg Registry, log *logging.Logger) *Progress {
	return &Progress{batchID: batchID, total: total, reg: reg, log: log}
}

// Starting flags items as PROCESSING before their pipelines begin. Counters
// are untouched; only resolved items count as processed.
func (p *Progress) Starting(ctx context.Context, itemIDs ...string) {
	if err := p.reg.MarkItemsProcessing(ctx, p.batchID, itemIDs...); err != nil {
		p.log.Error("batch %s: mark items processing: %v", p.batchID, err)
	}
}

// Record folds one or more resolved item outcomes into the counters and
// persists the increment. Registry writes are best-effort: the collaborator
// retries on its own policy, the core only logs.
func (p *Progress) Record(ctx context.Context, outcomes ...model.ItemOutcome) {
	for _, out := range outcomes {
		p.processed++
		if p.processed > p.total {
			p.log.Error("batch %s: processed %d exceeds total %d", p.batchID, p.processed, p.total)
		}
		if out.Succeeded() {
			p.success++
		} else {
			p.failed++
		}
		if err := p.reg.UpdateItem(ctx, p.batchID, out); err != nil {
			p.log.Error("batch %s: update item %s: %v", p.batchID, out.ItemID, err)
		}
	}
	if err := p.reg.UpdateProgress(ctx, p.batchID, p.processed, p.success, p.failed); err != nil {
		p.log.Error("batch %s: update progress: %v", p.batchID, err)
	}
}

// Counts returns the current counters. processed == success + failed always.
func (p *Progress) Counts() (processed, success, failed int) {
	return p.processed, p.success, p.failed
}

// Terminal computes the batch's terminal status. It may be called exactly
// once, after the last item resolved.
func (p *Progress) Terminal() model.BatchStatus {
	if p.finalized {
		panic("orchestrator: terminal status computed twice for batch " + p.batchID)
	}
	p.finalized = true

	switch {
	case p.success == 0:
		return model.BatchFailed
	case p.failed == 0:
		return model.BatchCompleted
	default:
		return model.BatchPartiallyCompleted
	}
}
