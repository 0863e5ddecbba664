package phase

import (
	"errors"
	"testing"

	"github.com/motion-granted/engine/internal/domain"
	"github.com/motion-granted/engine/internal/domain/tier"
)

func TestRegistryCoversAllPhaseTierPairs(t *testing.T) {
	r := DefaultRegistry()
	for _, p := range Pipeline {
		for _, tr := range tier.AllExecutionTiers() {
			if _, err := r.Lookup(p, tr); err != nil {
				t.Errorf("lookup %s/%s: expected route, got %v", p, tr, err)
			}
		}
	}
}

func TestMaxTokensFollowsReasoningBudget(t *testing.T) {
	r := DefaultRegistry()
	for _, p := range Pipeline {
		for _, tr := range tier.AllExecutionTiers() {
			rc, err := r.Lookup(p, tr)
			if err != nil {
				t.Fatalf("lookup %s/%s: %v", p, tr, err)
			}
			want := MaxTokensStandard
			if rc.ReasoningBudget != nil {
				want = MaxTokensExtended
			}
			if rc.MaxTokens != want {
				t.Errorf("route %s/%s: expected max tokens %d, got %d", p, tr, want, rc.MaxTokens)
			}
		}
	}
}

func TestLookupUnknownPhase(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Lookup(Code("XV"), tier.ExecStandard)
	if !errors.Is(err, domain.ErrUnknownPhase) {
		t.Errorf("expected ErrUnknownPhase, got %v", err)
	}
}

func TestLookupUnknownTier(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Lookup(ArgumentDraft, tier.ExecutionTier("platinum"))
	if !errors.Is(err, domain.ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier, got %v", err)
	}
}

func TestPremiumDraftingRoutes(t *testing.T) {
	r := DefaultRegistry()
	for _, p := range []Code{LegalResearch, FactsDraft, ArgumentDraft} {
		rc, err := r.Lookup(p, tier.ExecPremium)
		if err != nil {
			t.Fatalf("lookup %s: %v", p, err)
		}
		if rc.ReasoningBudget == nil {
			t.Errorf("route %s/premium: expected a reasoning budget", p)
		}
		if rc.Model != modelDeep {
			t.Errorf("route %s/premium: expected %s, got %s", p, modelDeep, rc.Model)
		}
	}
}

func TestCitationBatchSizes(t *testing.T) {
	r := DefaultRegistry()
	rc, err := r.Lookup(CitationIntegrity, tier.ExecPremium)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rc.CitationBatchSize != 50 {
		t.Errorf("expected batch size 50, got %d", rc.CitationBatchSize)
	}
	rc, _ = r.Lookup(Formatting, tier.ExecStandard)
	if rc.CitationBatchSize != 0 {
		t.Errorf("expected no citation batch for formatting, got %d", rc.CitationBatchSize)
	}
}

func TestWithModelOverrides(t *testing.T) {
	base := DefaultRegistry()
	overridden, err := base.WithModelOverrides([]ModelOverride{
		{Phase: ArgumentDraft, Tier: tier.ExecPremium, Model: "anthropic/claude-sonnet-4"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	rc, err := overridden.Lookup(ArgumentDraft, tier.ExecPremium)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rc.Model != "anthropic/claude-sonnet-4" {
		t.Errorf("expected overridden model, got %s", rc.Model)
	}
	if rc.ReasoningBudget == nil || rc.MaxTokens != MaxTokensExtended {
		t.Error("override must preserve reasoning budget and token ceiling")
	}

	// The base registry is untouched.
	orig, _ := base.Lookup(ArgumentDraft, tier.ExecPremium)
	if orig.Model != modelDeep {
		t.Errorf("base registry mutated: got %s", orig.Model)
	}
}

func TestWithModelOverridesRejectsUnknownRoute(t *testing.T) {
	_, err := DefaultRegistry().WithModelOverrides([]ModelOverride{
		{Phase: Code("XV"), Tier: tier.ExecStandard, Model: "openai/gpt-4o-mini"},
	})
	if !errors.Is(err, domain.ErrUnknownPhase) {
		t.Errorf("expected ErrUnknownPhase, got %v", err)
	}
}
