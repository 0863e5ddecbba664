// Package gateway provides the HTTP client for the LLM gateway, implementing
// the model-call port.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/motion-granted/engine/internal/port/modelcall"
	"github.com/motion-granted/engine/internal/resilience"
)

// Client talks to the LLM gateway's completion endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a gateway client. timeout bounds a single completion
// call end to end; drafting phases with extended reasoning can run long.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing completion calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
	Reasoning *int   `json:"reasoning_budget,omitempty"`
}

type completionResponse struct {
	Output  string   `json:"output"`
	Quality *float64 `json:"quality_score,omitempty"`
	Usage   struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

// Call dispatches one model call. It implements modelcall.Caller.
func (c *Client) Call(ctx context.Context, req modelcall.Request) (*modelcall.Result, error) {
	body, err := json.Marshal(completionRequest{
		Model:     req.Model,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
		Reasoning: req.ReasoningBudget,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	var result *modelcall.Result
	call := func() error {
		resp, err := c.post(ctx, "/v1/completions", body)
		if err != nil {
			return err
		}

		var cr completionResponse
		if err := json.Unmarshal(resp, &cr); err != nil {
			return fmt.Errorf("unmarshal completion: %w", err)
		}
		result = &modelcall.Result{
			Output:       cr.Output,
			QualityScore: cr.Quality,
			Usage: modelcall.Usage{
				InputTokens:  cr.Usage.InputTokens,
				OutputTokens: cr.Usage.OutputTokens,
			},
		}
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Do(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gateway %s: status %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}
