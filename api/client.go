// Package api is the HTTP client for the test coordinator, plus the JSON
// wire types it exchanges with the worker.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RequestTimeout bounds every coordinator call. It doubles as the fixed
// delay between reporting retries.
const RequestTimeout = 15 * time.Second

// Client handles HTTP communication with the coordinator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a coordinator client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: RequestTimeout},
	}
}

// UpdateTask pushes cumulative results for a task and reports back whether
// the coordinator still wants it.
func (c *Client) UpdateTask(ctx context.Context, result *TaskResult) (*TaskStatus, error) {
	var status TaskStatus
	if err := c.postJSON(ctx, "/api/update_task", result, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RequestSPSA fetches perturbed tuning parameters for the next short batch.
func (c *Client) RequestSPSA(ctx context.Context, result *TaskResult) (*SPSAParams, error) {
	var params SPSAParams
	if err := c.postJSON(ctx, "/api/request_spsa", result, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// StopRun notifies the coordinator that the run cannot continue on this
// worker, with a human-readable reason. The response body is ignored.
func (c *Client) StopRun(ctx context.Context, result *TaskResult, message string) error {
	payload := struct {
		*TaskResult
		Message string `json:"message"`
	}{result, message}
	return c.postJSON(ctx, "/api/stop_run", payload, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
