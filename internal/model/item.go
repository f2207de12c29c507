package model

// ItemStatus is the lifecycle state of a single item within a batch.
type ItemStatus string

const (
	ItemPending    ItemStatus = "PENDING"
	ItemProcessing ItemStatus = "PROCESSING"
	ItemCompleted  ItemStatus = "COMPLETED"
	ItemFailed     ItemStatus = "FAILED"
)

// Item is one unit of work (a single cheque image) within a batch. Items are
// created at submission, owned by their batch, and mutated only by the
// scheduler and runner.
type Item struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	PayloadRef       string          `json:"payload_ref"`
	MimeType         string          `json:"mime_type"`
	Status           ItemStatus      `json:"status"`
	Retries          int             `json:"retries"` // 0..2
	Result           *PipelineResult `json:"result,omitempty"`
	Error            string          `json:"error,omitempty"`
	ProcessingTimeMs int64           `json:"processing_time_ms,omitempty"`
}

// ItemOutcome is the terminal record the runner hands back for one item.
type ItemOutcome struct {
	ItemID           string          `json:"item_id"`
	Status           ItemStatus      `json:"status"` // COMPLETED or FAILED
	Attempts         int             `json:"attempts"`
	Result           *PipelineResult `json:"result,omitempty"`
	Error            string          `json:"error,omitempty"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// Succeeded reports whether the item finished with a full pipeline result.
func (o ItemOutcome) Succeeded() bool { return o.Status == ItemCompleted }
