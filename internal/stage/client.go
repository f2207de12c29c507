package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-cheque-batch/internal/model"
)

// Error is a failed stage invocation. Application-level failures (non-2xx)
// and transport failures are treated identically by the pipeline runner, so
// transport errors are wrapped into an Error with status 0.
type Error struct {
	Stage   string `json:"stage"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("stage %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("stage %s: status %d: %s", e.Stage, e.Status, e.Message)
}

// Client invokes the four ordered analysis stages for one item. Each later
// stage receives the accumulated output of the stages before it.
type Client interface {
	Analyze(ctx context.Context, item model.Item) (model.AnalysisOutput, error)
	Institution(ctx context.Context, item model.Item, prior model.PipelineResult) (model.InstitutionOutput, error)
	Compliance(ctx context.Context, item model.Item, prior model.PipelineResult) (model.ComplianceOutput, error)
	Decide(ctx context.Context, item model.Item, prior model.PipelineResult) (model.DecisionOutput, error)
}

// HTTPClient is an HTTP implementation of Client. Each stage is a single
// POST against the configured stage service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a stage client against baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// stageRequest is the wire payload common to all four stages.
type stageRequest struct {
	ItemID     string                `json:"item_id"`
	Name       string                `json:"name"`
	PayloadRef string                `json:"payload_ref"`
	MimeType   string                `json:"mime_type"`
	Prior      *model.PipelineResult `json:"prior,omitempty"`
}

func (c *HTTPClient) Analyze(ctx context.Context, item model.Item) (model.AnalysisOutput, error) {
	var out model.AnalysisOutput
	err := c.invoke(ctx, "analysis", item, nil, &out)
	return out, err
}

func (c *HTTPClient) Institution(ctx context.Context, item model.Item, prior model.PipelineResult) (model.InstitutionOutput, error) {
	var out model.InstitutionOutput
	err := c.invoke(ctx, "institution", item, &prior, &out)
	return out, err
}

func (c *HTTPClient) Compliance(ctx context.Context, item model.Item, prior model.PipelineResult) (model.ComplianceOutput, error) {
	var out model.ComplianceOutput
	err := c.invoke(ctx, "compliance", item, &prior, &out)
	return out, err
}

func (c *HTTPClient) Decide(ctx context.Context, item model.Item, prior model.PipelineResult) (model.DecisionOutput, error) {
	var out model.DecisionOutput
	err := c.invoke(ctx, "decision", item, &prior, &out)
	return out, err
}

// invoke performs one stage call and decodes the structured output.
func (c *HTTPClient) invoke(ctx context.Context, stage string, item model.Item, prior *model.PipelineResult, out interface{}) error {
	body, err := json.Marshal(stageRequest{
		ItemID:     item.ID,
		Name:       item.Name,
		PayloadRef: item.PayloadRef,
		MimeType:   item.MimeType,
		Prior:      prior,
	})
	if err != nil {
		return &Error{Stage: stage, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+stage, bytes.NewReader(body))
	if err != nil {
		return &Error{Stage: stage, Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Stage: stage, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &Error{Stage: stage, Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Stage: stage, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}
