// Package modelcall defines the external model-call collaborator port.
package modelcall

import "context"

// Request is the outbound shape of one model call, built from the phase
// registry's routing entry. ReasoningBudget is nil when the route carries
// no extended-reasoning allowance.
type Request struct {
	Model           string `json:"model"`
	ReasoningBudget *int   `json:"reasoning_budget,omitempty"`
	MaxTokens       int    `json:"max_tokens"`
	Prompt          string `json:"prompt"`
}

// Usage reports the token consumption of a call. Usage may be non-zero even
// when the call failed; the engine records it either way.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Result is the output of a completed model call. QualityScore is the
// gateway's rubric evaluation of the output, nil when the gateway did not
// score the call.
type Result struct {
	Output       string   `json:"output"`
	Usage        Usage    `json:"usage"`
	QualityScore *float64 `json:"quality_score,omitempty"`
}

// Caller is the port interface for the model provider. Calls run to
// completion once dispatched; cancellation is checked only at phase
// boundaries, so implementations should not abandon an in-flight call on
// context cancellation without returning its usage.
type Caller interface {
	Call(ctx context.Context, req Request) (*Result, error)
}
