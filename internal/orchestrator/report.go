package orchestrator

import (
	"math"

	"go-cheque-batch/internal/model"
	"go-cheque-batch/pkg/utils"
)

// Risk bucket cutoffs for the batch report. These intentionally differ from
// the 70/40 OSFI reportability thresholds applied by the compliance stage;
// the two scales grade different things and must not be unified.
const (
	riskHighMin   = 80.0
	riskMediumMin = 50.0
)

// unknownCounterpart buckets items whose institution lookup produced no name.
const unknownCounterpart = "Unknown"

// BuildReport computes the batch summary over all completed items. It runs
// once, after the scheduler finishes. Failed items contribute nothing here;
// they are already counted by the progress aggregator.
func BuildReport(outcomes []model.ItemOutcome) *model.BatchReport {
	report := &model.BatchReport{
		CounterpartCounts: make(map[string]int),
	}

	total := 0.0
	for _, out := range outcomes {
		if !out.Succeeded() || out.Result == nil {
			continue
		}
		report.CompletedItems++
		res := out.Result

		switch score := res.Decision.RiskScore; {
		case score >= riskHighMin:
			report.RiskBuckets.High++
		case score >= riskMediumMin:
			report.RiskBuckets.Medium++
		default:
			report.RiskBuckets.Low++
		}

		if res.Decision.Reportable {
			report.ReportableCount++
		}

		name := res.Institution.CounterpartName
		if name == "" {
			name = unknownCounterpart
		}
		report.CounterpartCounts[name]++

		// Unparseable amounts contribute 0 rather than failing the report.
		total += utils.ParseAmount(res.Analysis.Amount)
	}

	// Rounded once at the end, not per item.
	report.TotalAmount = math.Round(total*100) / 100
	return report
}
