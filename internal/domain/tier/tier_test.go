package tier

import (
	"errors"
	"testing"

	"github.com/motion-granted/engine/internal/domain"
)

func TestPricingTierExecution(t *testing.T) {
	tests := []struct {
		pricing PricingTier
		want    ExecutionTier
	}{
		{PriceBasic, ExecStandard},
		{PriceStandard, ExecStandard},
		{PriceProfessional, ExecProfessional},
		{PricePremium, ExecPremium},
	}
	for _, tt := range tests {
		got, err := tt.pricing.Execution()
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", tt.pricing, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.pricing, tt.want, got)
		}
	}

	if _, err := PricingTier("enterprise").Execution(); !errors.Is(err, domain.ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier, got %v", err)
	}
}

func TestResolveEffectiveTier(t *testing.T) {
	tests := []struct {
		motion, paid, want ExecutionTier
	}{
		{ExecStandard, ExecStandard, ExecStandard},
		{ExecStandard, ExecPremium, ExecPremium},
		{ExecPremium, ExecStandard, ExecPremium},
		{ExecProfessional, ExecProfessional, ExecProfessional},
		{ExecProfessional, ExecStandard, ExecProfessional},
		{ExecStandard, ExecProfessional, ExecProfessional},
	}
	for _, tt := range tests {
		got, err := ResolveEffectiveTier(tt.motion, tt.paid)
		if err != nil {
			t.Fatalf("resolve(%s, %s): %v", tt.motion, tt.paid, err)
		}
		if got != tt.want {
			t.Errorf("resolve(%s, %s): expected %s, got %s", tt.motion, tt.paid, tt.want, got)
		}
	}
}

func TestResolveEffectiveTierUnknown(t *testing.T) {
	if _, err := ResolveEffectiveTier(ExecutionTier("bogus"), ExecStandard); !errors.Is(err, domain.ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier for motion tier, got %v", err)
	}
	if _, err := ResolveEffectiveTier(ExecStandard, ExecutionTier("bogus")); !errors.Is(err, domain.ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier for paid tier, got %v", err)
	}
}

func TestPolicyTable(t *testing.T) {
	tests := []struct {
		tier     ExecutionTier
		loops    int
		capCents int64
	}{
		{ExecStandard, 2, 1500},
		{ExecProfessional, 3, 3000},
		{ExecPremium, 4, 6000},
	}
	for _, tt := range tests {
		p, err := PolicyFor(tt.tier)
		if err != nil {
			t.Fatalf("%s: %v", tt.tier, err)
		}
		if p.MaxRevisionLoops != tt.loops {
			t.Errorf("%s: expected %d loops, got %d", tt.tier, tt.loops, p.MaxRevisionLoops)
		}
		if p.PerCycleCapCents != tt.capCents {
			t.Errorf("%s: expected cap %d, got %d", tt.tier, tt.capCents, p.PerCycleCapCents)
		}
		if p.QualityThreshold != QualityThreshold {
			t.Errorf("%s: expected quality threshold %v, got %v", tt.tier, QualityThreshold, p.QualityThreshold)
		}
	}

	if _, err := PolicyFor(ExecutionTier("bogus")); !errors.Is(err, domain.ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier, got %v", err)
	}
}

func TestOrderCostCeilingCents(t *testing.T) {
	tests := []struct {
		tier ExecutionTier
		want int64
	}{
		{ExecStandard, 4500},      // 1500 * 2 * 1.5
		{ExecProfessional, 13500}, // 3000 * 3 * 1.5
		{ExecPremium, 36000},      // 6000 * 4 * 1.5
	}
	for _, tt := range tests {
		got, err := OrderCostCeilingCents(tt.tier)
		if err != nil {
			t.Fatalf("%s: %v", tt.tier, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected ceiling %d, got %d", tt.tier, tt.want, got)
		}
	}
}

func TestHardCycleCapCents(t *testing.T) {
	p, _ := PolicyFor(ExecStandard)
	if got := p.HardCycleCapCents(); got != 2250 {
		t.Errorf("expected hard cap 2250, got %d", got)
	}
}
