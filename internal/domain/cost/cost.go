// Package cost defines the append-only cost ledger and the budget
// enforcement math.
package cost

import (
	"time"

	"github.com/motion-granted/engine/internal/domain/phase"
)

// Source classifies a ledger entry by which execution path spent the money.
type Source string

const (
	SourcePrimary Source = "primary"
	SourceRetry   Source = "retry"
)

// TierUnknown is the sentinel tier recorded when a cost write arrives with
// an invalid or missing tier. Losing cost data is worse than an imprecise
// tag, so the write succeeds under the sentinel and an alert is raised.
const TierUnknown = "UNKNOWN"

// Entry is one ledger row per model call. The ledger is append-only: rows
// are never updated or deleted.
type Entry struct {
	ID           string            `json:"id"`
	OrderID      string            `json:"order_id"`
	Phase        phase.Code        `json:"phase"`
	Model        string            `json:"model"`
	Tier         string            `json:"tier"`
	InputTokens  int64             `json:"input_tokens"`
	OutputTokens int64             `json:"output_tokens"`
	CostCents    int64             `json:"cost_cents"`
	Source       Source            `json:"source"`
	Attempt      int               `json:"attempt"`
	Revision     int               `json:"revision"` // revision cycle the spend belongs to
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Summary aggregates ledger rows for one order.
type Summary struct {
	OrderID      string `json:"order_id"`
	TotalCents   int64  `json:"total_cents"`
	PrimaryCents int64  `json:"primary_cents"`
	RetryCents   int64  `json:"retry_cents"`
	EntryCount   int    `json:"entry_count"`
	TokensIn     int64  `json:"tokens_in"`
	TokensOut    int64  `json:"tokens_out"`
}

// RetryOverheadPercent returns retry cost as a percentage of primary cost.
// Undefined (ok=false) until any primary spend exists.
func (s Summary) RetryOverheadPercent() (pct float64, ok bool) {
	if s.PrimaryCents <= 0 {
		return 0, false
	}
	return float64(s.RetryCents) / float64(s.PrimaryCents) * 100, true
}

// DailyCost holds aggregated spend for a single day.
type DailyCost struct {
	Date       string `json:"date"`
	CostCents  int64  `json:"cost_cents"`
	TokensIn   int64  `json:"tokens_in"`
	TokensOut  int64  `json:"tokens_out"`
	EntryCount int    `json:"entry_count"`
}

// BudgetCheck is the result of evaluating one revision cycle against its
// tier caps.
type BudgetCheck struct {
	PrimaryCents int64 `json:"primary_cents"`
	RetryCents   int64 `json:"retry_cents"`
	SoftCapCents int64 `json:"soft_cap_cents"`
	HardCapCents int64 `json:"hard_cap_cents"`
	PrimaryOK    bool  `json:"primary_ok"`
	TotalOK      bool  `json:"total_ok"`
}

// CheckBudgetEnforcement evaluates cycle spend against the per-cycle cap.
// The soft check covers primary-path spend only and is advisory; the hard
// check covers total spend against cap x 1.5 and is a must-not-exceed
// boundary that forces a protocol exit when breached.
func CheckBudgetEnforcement(primaryCents, retryCents, perCycleCapCents int64) BudgetCheck {
	hard := perCycleCapCents * 3 / 2
	return BudgetCheck{
		PrimaryCents: primaryCents,
		RetryCents:   retryCents,
		SoftCapCents: perCycleCapCents,
		HardCapCents: hard,
		PrimaryOK:    primaryCents <= perCycleCapCents,
		TotalOK:      primaryCents+retryCents <= hard,
	}
}

// modelRate is gateway pricing in cents per 1M tokens.
type modelRate struct {
	inPer1M  int64
	outPer1M int64
}

// rates mirrors the LLM gateway price sheet. Unknown models fall back to
// the most expensive rate so budget math errs toward the caps.
var rates = map[string]modelRate{
	"openai/gpt-4o-mini":        {inPer1M: 15, outPer1M: 60},
	"anthropic/claude-haiku-3":  {inPer1M: 80, outPer1M: 400},
	"anthropic/claude-sonnet-4": {inPer1M: 300, outPer1M: 1500},
	"anthropic/claude-opus-4":   {inPer1M: 1500, outPer1M: 7500},
}

var fallbackRate = modelRate{inPer1M: 1500, outPer1M: 7500}

// ComputeCents prices a model call from its token usage. known is false
// when the model had no price-sheet entry and the fallback rate was used.
func ComputeCents(model string, inputTokens, outputTokens int64) (cents int64, known bool) {
	r, ok := rates[model]
	if !ok {
		r = fallbackRate
	}
	in := (inputTokens*r.inPer1M + 500_000) / 1_000_000
	out := (outputTokens*r.outPer1M + 500_000) / 1_000_000
	return in + out, ok
}
