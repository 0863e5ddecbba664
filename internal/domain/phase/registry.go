package phase

import (
	"fmt"

	"github.com/motion-granted/engine/internal/domain"
	"github.com/motion-granted/engine/internal/domain/tier"
)

// Output token ceilings. A route gets the extended ceiling exactly when it
// carries a reasoning budget; the coupling is enforced by the builder and
// must not be redefined at call sites.
const (
	MaxTokensStandard = 8192
	MaxTokensExtended = 16384
)

// RouteConfig is the outbound model-call shape for one (phase, tier) pair.
type RouteConfig struct {
	Model             string `json:"model"`
	ReasoningBudget   *int   `json:"reasoning_budget,omitempty"`
	MaxTokens         int    `json:"max_tokens"`
	CitationBatchSize int    `json:"citation_batch_size"`
}

type routeKey struct {
	phase Code
	tier  tier.ExecutionTier
}

// Registry is the single authority for phase x tier model routing. It is
// built once at process start and never mutated afterwards; all call sites
// delegate to Lookup instead of carrying local routing constants.
type Registry struct {
	routes map[routeKey]RouteConfig
}

// Lookup resolves the routing for one phase dispatch. An unknown phase or
// tier is a configuration fault and returns a fatal error; routing is never
// silently defaulted.
func (r *Registry) Lookup(p Code, t tier.ExecutionTier) (RouteConfig, error) {
	if !p.Valid() {
		return RouteConfig{}, fmt.Errorf("registry lookup phase %q: %w", p, domain.ErrUnknownPhase)
	}
	if !t.Valid() {
		return RouteConfig{}, fmt.Errorf("registry lookup tier %q: %w", t, domain.ErrUnknownTier)
	}
	rc, ok := r.routes[routeKey{p, t}]
	if !ok {
		return RouteConfig{}, fmt.Errorf("registry lookup %s/%s: %w", p, t, domain.ErrUnknownPhase)
	}
	return rc, nil
}

// ModelOverride rebinds the model for one (phase, tier) route. The reasoning
// budget and token ceiling of the route are preserved. This exists because
// some model families have uncertain support for extended reasoning budgets;
// operators can repoint a route without rebuilding the binary.
type ModelOverride struct {
	Phase Code               `yaml:"phase" json:"phase"`
	Tier  tier.ExecutionTier `yaml:"tier" json:"tier"`
	Model string             `yaml:"model" json:"model"`
}

// WithModelOverrides returns a copy of the registry with the given model
// overrides applied. Unknown routes are rejected.
func (r *Registry) WithModelOverrides(overrides []ModelOverride) (*Registry, error) {
	out := &Registry{routes: make(map[routeKey]RouteConfig, len(r.routes))}
	for k, v := range r.routes {
		out.routes[k] = v
	}
	for _, o := range overrides {
		k := routeKey{o.Phase, o.Tier}
		rc, ok := out.routes[k]
		if !ok {
			return nil, fmt.Errorf("model override %s/%s: %w", o.Phase, o.Tier, domain.ErrUnknownPhase)
		}
		rc.Model = o.Model
		out.routes[k] = rc
	}
	return out, nil
}

// route is one row of the registry source table. MaxTokens is derived, not
// stated: extended ceiling iff a reasoning budget is present.
type route struct {
	phase     Code
	tier      tier.ExecutionTier
	model     string
	reasoning *int
	batchSize int
}

func rb(tokens int) *int { return &tokens }

// Model identifiers route through the LLM gateway; provider-prefixed names.
const (
	modelFast     = "openai/gpt-4o-mini"
	modelDrafting = "anthropic/claude-sonnet-4"
	modelDeep     = "anthropic/claude-opus-4"
)

// DefaultRegistry builds the authoritative routing table.
//
// This table replaces the historically duplicated per-call-site tables;
// when routing changes, change it here and nowhere else.
func DefaultRegistry() *Registry {
	table := []route{
		// I: intake analysis
		{IntakeAnalysis, tier.ExecStandard, modelFast, nil, 0},
		{IntakeAnalysis, tier.ExecProfessional, modelDrafting, nil, 0},
		{IntakeAnalysis, tier.ExecPremium, modelDrafting, nil, 0},

		// II: conflict check
		{ConflictCheck, tier.ExecStandard, modelFast, nil, 0},
		{ConflictCheck, tier.ExecProfessional, modelDrafting, nil, 0},
		{ConflictCheck, tier.ExecPremium, modelDrafting, nil, 0},

		// III: evidence review
		{EvidenceReview, tier.ExecStandard, modelDrafting, nil, 0},
		{EvidenceReview, tier.ExecProfessional, modelDrafting, nil, 0},
		{EvidenceReview, tier.ExecPremium, modelDrafting, rb(8000), 0},

		// IV: motion strategy
		{MotionStrategy, tier.ExecStandard, modelDrafting, nil, 0},
		{MotionStrategy, tier.ExecProfessional, modelDrafting, rb(8000), 0},
		{MotionStrategy, tier.ExecPremium, modelDeep, rb(16000), 0},

		// V: legal research
		{LegalResearch, tier.ExecStandard, modelDrafting, rb(8000), 10},
		{LegalResearch, tier.ExecProfessional, modelDrafting, rb(16000), 15},
		{LegalResearch, tier.ExecPremium, modelDeep, rb(32000), 20},

		// VI: authority ranking
		{AuthorityRanking, tier.ExecStandard, modelDrafting, nil, 10},
		{AuthorityRanking, tier.ExecProfessional, modelDrafting, rb(8000), 15},
		{AuthorityRanking, tier.ExecPremium, modelDeep, rb(16000), 20},

		// VII: outline
		{Outline, tier.ExecStandard, modelDrafting, nil, 0},
		{Outline, tier.ExecProfessional, modelDrafting, rb(8000), 0},
		{Outline, tier.ExecPremium, modelDeep, rb(16000), 0},

		// VIII: statement of facts
		{FactsDraft, tier.ExecStandard, modelDrafting, nil, 0},
		{FactsDraft, tier.ExecProfessional, modelDeep, rb(16000), 0},
		{FactsDraft, tier.ExecPremium, modelDeep, rb(32000), 0},

		// IX: argument draft
		{ArgumentDraft, tier.ExecStandard, modelDrafting, rb(16000), 10},
		{ArgumentDraft, tier.ExecProfessional, modelDeep, rb(16000), 15},
		{ArgumentDraft, tier.ExecPremium, modelDeep, rb(32000), 20},

		// X: citation integrity
		{CitationIntegrity, tier.ExecStandard, modelDrafting, nil, 25},
		{CitationIntegrity, tier.ExecProfessional, modelDrafting, nil, 40},
		{CitationIntegrity, tier.ExecPremium, modelDeep, nil, 50},

		// XI: revision cycle
		{RevisionCycle, tier.ExecStandard, modelDrafting, rb(8000), 10},
		{RevisionCycle, tier.ExecProfessional, modelDeep, rb(16000), 15},
		{RevisionCycle, tier.ExecPremium, modelDeep, rb(32000), 20},

		// XII: exhibit assembly
		{ExhibitAssembly, tier.ExecStandard, modelFast, nil, 0},
		{ExhibitAssembly, tier.ExecProfessional, modelDrafting, nil, 0},
		{ExhibitAssembly, tier.ExecPremium, modelDrafting, nil, 0},

		// XIII: formatting
		{Formatting, tier.ExecStandard, modelFast, nil, 0},
		{Formatting, tier.ExecProfessional, modelFast, nil, 0},
		{Formatting, tier.ExecPremium, modelDrafting, nil, 0},

		// XIV: delivery
		{Delivery, tier.ExecStandard, modelFast, nil, 0},
		{Delivery, tier.ExecProfessional, modelFast, nil, 0},
		{Delivery, tier.ExecPremium, modelDrafting, nil, 0},
	}

	routes := make(map[routeKey]RouteConfig, len(table))
	for _, row := range table {
		maxTokens := MaxTokensStandard
		if row.reasoning != nil {
			maxTokens = MaxTokensExtended
		}
		routes[routeKey{row.phase, row.tier}] = RouteConfig{
			Model:             row.model,
			ReasoningBudget:   row.reasoning,
			MaxTokens:         maxTokens,
			CitationBatchSize: row.batchSize,
		}
	}
	return &Registry{routes: routes}
}
