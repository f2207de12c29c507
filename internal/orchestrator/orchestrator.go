package orchestrator

import (
	"context"
	"time"

	"go-cheque-batch/internal/logging"
	"go-cheque-batch/internal/model"
)

// Registry records batch and item state transitions for external visibility
// (polling, audit). All writes are assumed idempotent and independently
// retryable by the collaborator's own policy; the core never retries them.
type Registry interface {
	CreateBatch(ctx context.Context, batchID string, items []model.Item) error
	MarkItemsProcessing(ctx context.Context, batchID string, itemIDs ...string) error
	UpdateItem(ctx context.Context, batchID string, outcome model.ItemOutcome) error
	UpdateProgress(ctx context.Context, batchID string, processed, success, failed int) error
	UpdateStatus(ctx context.Context, batchID string, status model.BatchStatus) error
	FinalizeBatch(ctx context.Context, batchID string, status model.BatchStatus, report *model.BatchReport) error
	SaveBatchError(ctx context.Context, batchID string, severity, message string) error
	GetBatch(ctx context.Context, batchID string) (*model.BatchJob, error)
}

// ReportExporter writes the finalized report to downloadable files.
type ReportExporter interface {
	WriteReport(batchID string, report *model.BatchReport) error
}

// Orchestrator turns an accepted batch of cheque items into a bounded
// concurrency execution plan, drives every item through the analysis
// pipeline, and aggregates the outcomes into a terminal batch state.
type Orchestrator struct {
	reg       Registry
	runner    *Runner
	scheduler *Scheduler
	exporter  ReportExporter
	cancels   *cancelSet
	log       *logging.Logger
}

// New creates an Orchestrator with its runner and scheduler wired up.
func New(reg Registry, runner *Runner, exporter ReportExporter, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		reg:       reg,
		runner:    runner,
		scheduler: NewScheduler(runner, log),
		exporter:  exporter,
		cancels:   newCancelSet(),
		log:       log,
	}
}

// Prepare validates the item set and records the batch as QUEUED with all
// items PENDING. An empty item set is rejected here, before any batch state
// exists, so no BatchJob ever reaches PROCESSING for it.
func (o *Orchestrator) Prepare(ctx context.Context, batchID string, items []model.Item) error {
	if len(items) == 0 {
		return ErrEmptyBatch
	}
	if err := o.reg.CreateBatch(ctx, batchID, items); err != nil {
		return err
	}
	// Registered here so a cancellation of the still-QUEUED batch reaches the
	// token Run will consult, not one that does not exist yet.
	o.cancels.ensure(batchID)
	return nil
}

// Run processes a prepared batch end to end. Stage and item failures are
// contained per item; only a FatalError aborts the whole batch. The returned
// error is nil for any normal terminal outcome, including
// PARTIALLY_COMPLETED and an all-items-failed FAILED batch.
func (o *Orchestrator) Run(ctx context.Context, batchID string, items []model.Item, opts model.SchedulerOptions) error {
	if len(items) == 0 {
		// Callers that skip Prepare still must not schedule an empty batch.
		return ErrEmptyBatch
	}

	tok := o.cancels.ensure(batchID)
	defer o.cancels.remove(batchID)

	if tok.Cancelled() {
		o.log.Info("batch %s: cancelled while queued, nothing scheduled", batchID)
		return ErrCancelled
	}

	o.log.Info("🚀 batch %s: starting %d items (parallel=%v)", batchID, len(items), opts.Parallel)
	if err := o.reg.UpdateStatus(ctx, batchID, model.BatchProcessing); err != nil {
		return o.fatal(ctx, batchID, err)
	}
	if tok.Cancelled() {
		// Cancel raced the status write. The registry refuses to move a
		// non-QUEUED batch, so FAILED stands; just stop before scheduling.
		o.log.Info("batch %s: cancelled while queued, nothing scheduled", batchID)
		return ErrCancelled
	}

	progress := NewProgress(batchID, len(items), o.reg, o.log)
	success, failed, outcomes := o.scheduler.Run(ctx, tok, items, opts, progress)

	if tok.Cancelled() {
		// Cancel already forced the batch to FAILED in the registry; any
		// recorded counters stand, unresolved items stay as they were.
		o.log.Info("batch %s: cancelled after %d resolved items", batchID, len(outcomes))
		return ErrCancelled
	}

	report := BuildReport(outcomes)
	status := progress.Terminal()

	if o.exporter != nil {
		if err := o.exporter.WriteReport(batchID, report); err != nil {
			// Export files are a convenience; their loss never changes the
			// batch outcome.
			o.log.Error("batch %s: export report: %v", batchID, err)
		}
	}

	if err := o.reg.FinalizeBatch(ctx, batchID, status, report); err != nil {
		return o.fatal(ctx, batchID, err)
	}

	o.log.Info("🏁 batch %s: %s (success=%d failed=%d)", batchID, status, success, failed)
	return nil
}

// Cancel requests best-effort cancellation of a running batch. Allowed only
// while the batch is QUEUED or PROCESSING; the batch is forced to FAILED
// immediately, while in-flight items run on to their own resolution and are
// discarded.
func (o *Orchestrator) Cancel(ctx context.Context, batchID string) error {
	batch, err := o.reg.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Status.Terminal() {
		return ErrNotCancellable
	}

	o.cancels.cancel(batchID)
	if err := o.reg.FinalizeBatch(ctx, batchID, model.BatchFailed, nil); err != nil {
		return err
	}
	if err := o.reg.SaveBatchError(ctx, batchID, "info", "batch cancelled by client"); err != nil {
		o.log.Error("batch %s: record cancellation: %v", batchID, err)
	}
	return nil
}

// fatal handles an unexpected failure of the orchestration loop itself. The
// batch is force-set to FAILED and the incident is recorded as high-risk,
// distinct from a FAILED outcome driven by item failures.
func (o *Orchestrator) fatal(ctx context.Context, batchID string, err error) error {
	ferr := &FatalError{BatchID: batchID, Err: err}
	o.log.Error("❌ %v", ferr)

	// Best effort with a fresh deadline: the original ctx may be what failed.
	cleanup, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if e := o.reg.FinalizeBatch(cleanup, batchID, model.BatchFailed, nil); e != nil {
		o.log.Error("batch %s: force-fail after fatal error: %v", batchID, e)
	}
	if e := o.reg.SaveBatchError(cleanup, batchID, "high", ferr.Error()); e != nil {
		o.log.Error("batch %s: record fatal error: %v", batchID, e)
	}
	return ferr
}
