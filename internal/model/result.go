package model

import "encoding/json"

// Stage outputs are heterogeneous across the four analysis stages. Each is
// modeled as a typed record carrying the few fields the report aggregator
// reads, plus an opaque Raw blob passed through unmodified.

// AnalysisOutput is the result of cheque field extraction.
type AnalysisOutput struct {
	Amount string          `json:"amount"` // as written on the cheque, parsed downstream
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// InstitutionOutput is the result of counterpart institution lookup.
type InstitutionOutput struct {
	CounterpartName string          `json:"counterpart_name"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// ComplianceOutput is the result of compliance scoring.
type ComplianceOutput struct {
	Score float64         `json:"score"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// DecisionOutput is the result of decision synthesis.
type DecisionOutput struct {
	RiskScore  float64         `json:"risk_score"`
	Reportable bool            `json:"regulatory_reportable"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// PipelineResult is the composite output of the four ordered stages for one
// item. Later stages receive the accumulated earlier outputs as input.
type PipelineResult struct {
	Analysis    AnalysisOutput    `json:"analysis"`
	Institution InstitutionOutput `json:"institution"`
	Compliance  ComplianceOutput  `json:"compliance"`
	Decision    DecisionOutput    `json:"decision"`
}
