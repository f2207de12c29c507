package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cheque-batch/internal/model"
)

func resultOutcome(id string, amount, counterpart string, riskScore float64, reportable bool) model.ItemOutcome {
	return model.ItemOutcome{
		ItemID:   id,
		Status:   model.ItemCompleted,
		Attempts: 1,
		Result: &model.PipelineResult{
			Analysis:    model.AnalysisOutput{Amount: amount},
			Institution: model.InstitutionOutput{CounterpartName: counterpart},
			Decision:    model.DecisionOutput{RiskScore: riskScore, Reportable: reportable},
		},
	}
}

func TestReportRiskBucketBoundaries(t *testing.T) {
	report := BuildReport([]model.ItemOutcome{
		resultOutcome("a", "1.00", "X", 95, false),
		resultOutcome("b", "1.00", "X", 80, false), // lower bound of high
		resultOutcome("c", "1.00", "X", 79.9, false),
		resultOutcome("d", "1.00", "X", 50, false), // lower bound of medium
		resultOutcome("e", "1.00", "X", 49.9, false),
		resultOutcome("f", "1.00", "X", 0, false),
	})

	assert.Equal(t, 2, report.RiskBuckets.High)
	assert.Equal(t, 2, report.RiskBuckets.Medium)
	assert.Equal(t, 2, report.RiskBuckets.Low)
	assert.Equal(t, 6, report.CompletedItems)
}

func TestReportCounterpartBreakdown(t *testing.T) {
	report := BuildReport([]model.ItemOutcome{
		resultOutcome("a", "1.00", "First National", 10, false),
		resultOutcome("b", "1.00", "First National", 10, false),
		resultOutcome("c", "1.00", "Maple Trust", 10, false),
		resultOutcome("d", "1.00", "", 10, false), // missing name
	})

	assert.Equal(t, map[string]int{
		"First National": 2,
		"Maple Trust":    1,
		"Unknown":        1,
	}, report.CounterpartCounts)
}

func TestReportReportableCount(t *testing.T) {
	report := BuildReport([]model.ItemOutcome{
		resultOutcome("a", "1.00", "X", 90, true),
		resultOutcome("b", "1.00", "X", 30, true),
		resultOutcome("c", "1.00", "X", 60, false),
	})
	assert.Equal(t, 2, report.ReportableCount)
}

func TestReportMonetaryTotalRoundedOnceAtEnd(t *testing.T) {
	// each amount alone rounds down; the sum rounds up only when rounding
	// happens once over the total
	report := BuildReport([]model.ItemOutcome{
		resultOutcome("a", "0.333", "X", 10, false),
		resultOutcome("b", "0.333", "X", 10, false),
		resultOutcome("c", "0.333", "X", 10, false),
	})
	assert.InDelta(t, 1.00, report.TotalAmount, 1e-9)
}

func TestReportUnparseableAmountsContributeZero(t *testing.T) {
	report := BuildReport([]model.ItemOutcome{
		resultOutcome("a", "$1,250.75", "X", 10, false),
		resultOutcome("b", "not-a-number", "X", 10, false),
		resultOutcome("c", "", "X", 10, false),
	})
	assert.InDelta(t, 1250.75, report.TotalAmount, 1e-9)
}

func TestReportExcludesFailedItems(t *testing.T) {
	report := BuildReport([]model.ItemOutcome{
		resultOutcome("a", "10.00", "First National", 90, true),
		failedOutcome("b"),
		failedOutcome("c"),
	})

	require.Equal(t, 1, report.CompletedItems)
	assert.Equal(t, 1, report.RiskBuckets.High)
	assert.Equal(t, 1, report.ReportableCount)
	assert.Equal(t, map[string]int{"First National": 1}, report.CounterpartCounts)
	assert.InDelta(t, 10.00, report.TotalAmount, 1e-9)
}

func TestReportEmptyOutcomes(t *testing.T) {
	report := BuildReport(nil)
	assert.Zero(t, report.CompletedItems)
	assert.Empty(t, report.CounterpartCounts)
	assert.Zero(t, report.TotalAmount)
}
