package model

import "time"

// BatchStatus is the lifecycle state of a batch job.
type BatchStatus string

const (
	BatchQueued             BatchStatus = "QUEUED"
	BatchProcessing         BatchStatus = "PROCESSING"
	BatchCompleted          BatchStatus = "COMPLETED"
	BatchPartiallyCompleted BatchStatus = "PARTIALLY_COMPLETED"
	BatchFailed             BatchStatus = "FAILED"

	// BatchHold is part of the status vocabulary for manual compliance
	// review, but no transition in this service assigns it. Kept so stored
	// rows written by other tools still decode.
	BatchHold BatchStatus = "HOLD"
)

// Terminal reports whether no further status transition can occur.
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchCompleted, BatchPartiallyCompleted, BatchFailed:
		return true
	}
	return false
}

// BatchJob tracks one submitted batch of cheque images.
//
// Invariants: ProcessedItems == SuccessCount + FailedCount at every
// observation point, counters only ever increase, and Status moves
// QUEUED -> PROCESSING -> terminal, never backward.
type BatchJob struct {
	ID             string       `json:"id"`
	Status         BatchStatus  `json:"status"`
	TotalItems     int          `json:"total_items"`
	ProcessedItems int          `json:"processed_items"`
	SuccessCount   int          `json:"success_count"`
	FailedCount    int          `json:"failed_count"`
	CreatedAt      time.Time    `json:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	RiskSummary    *BatchReport `json:"risk_summary,omitempty"` // populated at finalization only
}

// RiskBuckets counts completed items per risk band.
type RiskBuckets struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// BatchReport is the aggregated summary computed once over all completed
// items after scheduling finishes. Failed items contribute to none of it.
type BatchReport struct {
	RiskBuckets       RiskBuckets    `json:"risk_buckets"`
	ReportableCount   int            `json:"reportable_count"`
	CounterpartCounts map[string]int `json:"counterpart_counts"`
	TotalAmount       float64        `json:"total_amount"`
	CompletedItems    int            `json:"completed_items"`
}

// SchedulerOptions is the only runtime configuration that affects
// orchestration behavior.
type SchedulerOptions struct {
	Parallel       bool    `json:"parallel"`
	ItemsPerSecond float64 `json:"items_per_second"` // sequential pacing, default 1
}
