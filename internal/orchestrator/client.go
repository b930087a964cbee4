// Package orchestrator is a thin client for the external workflow
// orchestrator invoked by matching triggers. Its own internals are out of
// scope; only the invocation contract matters here. Built around an
// http.Client plus context.Context with a fixed timeout, POSTing to a
// workflow-dispatch endpoint.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client invokes the external orchestrator's workflow-dispatch endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// WorkflowRequest is the initial state handed to a fired workflow action,
// carrying the event that caused the fire as trigger_context.
type WorkflowRequest struct {
	WorkflowID     string                 `json:"workflow_id"`
	UserID         string                 `json:"user_id"`
	TriggerID      string                 `json:"trigger_id"`
	TriggerContext map[string]interface{} `json:"trigger_context"`
}

// WorkflowResponse is the orchestrator's acknowledgement. The engine does
// not await or act on its contents beyond logging.
type WorkflowResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// New constructs a Client. An empty apiKey is valid: some deployments front
// the orchestrator with network-level auth only.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Dispatch invokes the orchestrator's workflow endpoint. Callers treat this
// as fire-and-forget: a returned error is logged by the caller, never
// retried, and never rolls back the trigger's last_fired advance.
func (c *Client) Dispatch(ctx context.Context, req WorkflowRequest) (WorkflowResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return WorkflowResponse{}, fmt.Errorf("orchestrator: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/workflows/dispatch", bytes.NewReader(body))
	if err != nil {
		return WorkflowResponse{}, fmt.Errorf("orchestrator: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return WorkflowResponse{}, fmt.Errorf("orchestrator: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return WorkflowResponse{}, fmt.Errorf("orchestrator: status %d", resp.StatusCode)
	}

	var out WorkflowResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return WorkflowResponse{}, fmt.Errorf("orchestrator: decode response: %w", err)
	}
	return out, nil
}
