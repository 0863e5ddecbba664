// Package tier defines the two tier systems used by the engine and the
// per-tier execution policy.
//
// Two distinct enumerations coexist: ExecutionTier (3 values) drives model
// routing and budget enforcement, PricingTier (4 values) drives customer
// billing. They are deliberately separate types with an explicit mapping;
// code must never assume they are interchangeable.
package tier

import (
	"fmt"

	"github.com/motion-granted/engine/internal/domain"
)

// ExecutionTier classifies an order for model routing and cost control.
type ExecutionTier string

const (
	ExecStandard     ExecutionTier = "standard"
	ExecProfessional ExecutionTier = "professional"
	ExecPremium      ExecutionTier = "premium"
)

// PricingTier classifies an order for customer billing.
type PricingTier string

const (
	PriceBasic        PricingTier = "basic"
	PriceStandard     PricingTier = "standard"
	PriceProfessional PricingTier = "professional"
	PricePremium      PricingTier = "premium"
)

// execRank orders execution tiers by complexity. Higher rank means the
// pipeline routes to stronger models with larger budgets.
var execRank = map[ExecutionTier]int{
	ExecStandard:     0,
	ExecProfessional: 1,
	ExecPremium:      2,
}

// Valid reports whether t is a known execution tier.
func (t ExecutionTier) Valid() bool {
	_, ok := execRank[t]
	return ok
}

// Rank returns the complexity rank of t, or -1 for an unknown tier.
func (t ExecutionTier) Rank() int {
	r, ok := execRank[t]
	if !ok {
		return -1
	}
	return r
}

// Execution maps a pricing tier onto the execution tier it is entitled to.
// Basic and standard billing both run on the standard execution tier.
func (p PricingTier) Execution() (ExecutionTier, error) {
	switch p {
	case PriceBasic, PriceStandard:
		return ExecStandard, nil
	case PriceProfessional:
		return ExecProfessional, nil
	case PricePremium:
		return ExecPremium, nil
	default:
		return "", fmt.Errorf("pricing tier %q: %w", p, domain.ErrUnknownTier)
	}
}

// ResolveEffectiveTier returns whichever of the two tiers ranks higher in
// complexity. Execution never runs below what the motion content requires,
// even when the customer paid for a lower tier; reconciling the billing
// difference is handled by the upgrade workflow, not here.
func ResolveEffectiveTier(motionTypeTier, paidTier ExecutionTier) (ExecutionTier, error) {
	mr, ok := execRank[motionTypeTier]
	if !ok {
		return "", fmt.Errorf("motion type tier %q: %w", motionTypeTier, domain.ErrUnknownTier)
	}
	pr, ok := execRank[paidTier]
	if !ok {
		return "", fmt.Errorf("paid tier %q: %w", paidTier, domain.ErrUnknownTier)
	}
	if mr >= pr {
		return motionTypeTier, nil
	}
	return paidTier, nil
}

// QualityThreshold is the minimum phase quality score required to advance
// without a revision loop. It is uniform across all tiers.
const QualityThreshold = 0.87

// Policy holds the per-tier execution limits and pricing.
// Money is in minor currency units (cents).
type Policy struct {
	Tier             ExecutionTier `json:"tier"`
	MaxRevisionLoops int           `json:"max_revision_loops"`
	PerCycleCapCents int64         `json:"per_cycle_cap_cents"`
	QualityThreshold float64       `json:"quality_threshold"`
	PriceCents       int64         `json:"price_cents"`
}

// policies is the authoritative per-tier policy table. It is immutable;
// call sites must go through PolicyFor rather than redefining limits.
var policies = map[ExecutionTier]Policy{
	ExecStandard: {
		Tier:             ExecStandard,
		MaxRevisionLoops: 2,
		PerCycleCapCents: 1500,
		QualityThreshold: QualityThreshold,
		PriceCents:       19900,
	},
	ExecProfessional: {
		Tier:             ExecProfessional,
		MaxRevisionLoops: 3,
		PerCycleCapCents: 3000,
		QualityThreshold: QualityThreshold,
		PriceCents:       49900,
	},
	ExecPremium: {
		Tier:             ExecPremium,
		MaxRevisionLoops: 4,
		PerCycleCapCents: 6000,
		QualityThreshold: QualityThreshold,
		PriceCents:       99900,
	},
}

// PolicyFor returns the policy for a tier. Unknown tiers are a fatal
// configuration fault, never silently defaulted.
func PolicyFor(t ExecutionTier) (Policy, error) {
	p, ok := policies[t]
	if !ok {
		return Policy{}, fmt.Errorf("policy for tier %q: %w", t, domain.ErrUnknownTier)
	}
	return p, nil
}

// AllExecutionTiers returns the known execution tiers in ascending rank order.
func AllExecutionTiers() []ExecutionTier {
	return []ExecutionTier{ExecStandard, ExecProfessional, ExecPremium}
}

// OrderCostCeilingCents returns the absolute lifetime spend limit for an
// order: perCycleCap x maxRevisionLoops x 1.5. It is layered above the
// per-cycle checks and is independent of how many cycles actually ran.
func OrderCostCeilingCents(t ExecutionTier) (int64, error) {
	p, err := PolicyFor(t)
	if err != nil {
		return 0, err
	}
	return p.PerCycleCapCents * int64(p.MaxRevisionLoops) * 3 / 2, nil
}

// HardCycleCapCents returns the must-not-exceed per-cycle boundary:
// the soft cap x 1.5, covering primary plus retry spend.
func (p Policy) HardCycleCapCents() int64 {
	return p.PerCycleCapCents * 3 / 2
}
