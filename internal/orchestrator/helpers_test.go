package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-cheque-batch/internal/logging"
	"go-cheque-batch/internal/model"
	"go-cheque-batch/internal/stage"
)

func testLogger() *logging.Logger { return logging.NewLogger() }

func testItems(n int) []model.Item {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:         fmt.Sprintf("item-%d", i+1),
			Name:       fmt.Sprintf("cheque-%d.png", i+1),
			PayloadRef: fmt.Sprintf("payloads/cheque-%d.png", i+1),
			MimeType:   "image/png",
			Status:     model.ItemPending,
		}
	}
	return items
}

// fakeStageClient is a scriptable stage.Client. Failures are keyed by
// "stage" (every item) or "stage:itemID" (one item) and consumed per call
// unless the count is -1 (fail forever).
type fakeStageClient struct {
	mu       sync.Mutex
	failures map[string]int
	calls    []string
	priors   []model.PipelineResult // prior passed to each non-analysis call

	amount      string
	counterpart string
	riskScore   float64
	reportable  bool

	blockAnalyze chan struct{} // when set, Analyze waits for a receive
	started      chan string   // when set, receives item id as Analyze begins
}

func newFakeStageClient() *fakeStageClient {
	return &fakeStageClient{
		failures:    make(map[string]int),
		amount:      "100.00",
		counterpart: "First National",
		riskScore:   20,
	}
}

func (c *fakeStageClient) fail(key string, times int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[key] = times
}

func (c *fakeStageClient) callsFor(stageName string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if len(call) >= len(stageName) && call[:len(stageName)] == stageName {
			n++
		}
	}
	return n
}

func (c *fakeStageClient) invoke(stageName, itemID string, prior *model.PipelineResult) error {
	c.mu.Lock()
	c.calls = append(c.calls, stageName+":"+itemID)
	if prior != nil {
		c.priors = append(c.priors, *prior)
	}
	var failed bool
	for _, key := range []string{stageName, stageName + ":" + itemID} {
		if n, ok := c.failures[key]; ok && n != 0 {
			if n > 0 {
				c.failures[key] = n - 1
			}
			failed = true
		}
	}
	c.mu.Unlock()
	if failed {
		return &stage.Error{Stage: stageName, Status: 502, Message: "stage unavailable"}
	}
	return nil
}

func (c *fakeStageClient) Analyze(ctx context.Context, item model.Item) (model.AnalysisOutput, error) {
	if c.started != nil {
		c.started <- item.ID
	}
	if c.blockAnalyze != nil {
		<-c.blockAnalyze
	}
	if err := c.invoke("analysis", item.ID, nil); err != nil {
		return model.AnalysisOutput{}, err
	}
	return model.AnalysisOutput{Amount: c.amount}, nil
}

func (c *fakeStageClient) Institution(ctx context.Context, item model.Item, prior model.PipelineResult) (model.InstitutionOutput, error) {
	if err := c.invoke("institution", item.ID, &prior); err != nil {
		return model.InstitutionOutput{}, err
	}
	return model.InstitutionOutput{CounterpartName: c.counterpart}, nil
}

func (c *fakeStageClient) Compliance(ctx context.Context, item model.Item, prior model.PipelineResult) (model.ComplianceOutput, error) {
	if err := c.invoke("compliance", item.ID, &prior); err != nil {
		return model.ComplianceOutput{}, err
	}
	return model.ComplianceOutput{Score: 10}, nil
}

func (c *fakeStageClient) Decide(ctx context.Context, item model.Item, prior model.PipelineResult) (model.DecisionOutput, error) {
	if err := c.invoke("decision", item.ID, &prior); err != nil {
		return model.DecisionOutput{}, err
	}
	return model.DecisionOutput{RiskScore: c.riskScore, Reportable: c.reportable}, nil
}

// fakeRegistry is an in-memory Registry recording every write for
// assertions.
type fakeRegistry struct {
	mu            sync.Mutex
	batches       map[string]*model.BatchJob
	items         map[string]map[string]model.ItemOutcome
	processing    map[string]model.ItemStatus
	progressCalls [][3]int
	statusLog     []model.BatchStatus
	errorLog      []string
	severities    []string

	createErr   error
	updateErr   error
	finalizeErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		batches:    make(map[string]*model.BatchJob),
		items:      make(map[string]map[string]model.ItemOutcome),
		processing: make(map[string]model.ItemStatus),
	}
}

func (r *fakeRegistry) CreateBatch(ctx context.Context, batchID string, items []model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.batches[batchID] = &model.BatchJob{
		ID:         batchID,
		Status:     model.BatchQueued,
		TotalItems: len(items),
		CreatedAt:  time.Now().UTC(),
	}
	r.items[batchID] = make(map[string]model.ItemOutcome)
	return nil
}

func (r *fakeRegistry) MarkItemsProcessing(ctx context.Context, batchID string, itemIDs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range itemIDs {
		r.processing[id] = model.ItemProcessing
	}
	return nil
}

func (r *fakeRegistry) UpdateItem(ctx context.Context, batchID string, out model.ItemOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[batchID][out.ItemID] = out
	return nil
}

func (r *fakeRegistry) UpdateProgress(ctx context.Context, batchID string, processed, success, failed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progressCalls = append(r.progressCalls, [3]int{processed, success, failed})
	if b, ok := r.batches[batchID]; ok {
		b.ProcessedItems, b.SuccessCount, b.FailedCount = processed, success, failed
	}
	return nil
}

func (r *fakeRegistry) UpdateStatus(ctx context.Context, batchID string, status model.BatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	// Like the sqlite registry, only a QUEUED batch moves.
	if b, ok := r.batches[batchID]; ok && b.Status == model.BatchQueued {
		r.statusLog = append(r.statusLog, status)
		b.Status = status
	}
	return nil
}

func (r *fakeRegistry) FinalizeBatch(ctx context.Context, batchID string, status model.BatchStatus, report *model.BatchReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalizeErr != nil {
		return r.finalizeErr
	}
	r.statusLog = append(r.statusLog, status)
	b, ok := r.batches[batchID]
	if !ok {
		b = &model.BatchJob{ID: batchID}
		r.batches[batchID] = b
	}
	if b.Status.Terminal() {
		return nil
	}
	b.Status = status
	b.RiskSummary = report
	now := time.Now().UTC()
	b.CompletedAt = &now
	return nil
}

func (r *fakeRegistry) SaveBatchError(ctx context.Context, batchID string, severity, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.severities = append(r.severities, severity)
	r.errorLog = append(r.errorLog, message)
	return nil
}

func (r *fakeRegistry) GetBatch(ctx context.Context, batchID string) (*model.BatchJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return nil, fmt.Errorf("batch %s not found", batchID)
	}
	copy := *b
	return &copy, nil
}

func (r *fakeRegistry) batch(batchID string) model.BatchJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.batches[batchID]
}
