package phase

import "testing"

func TestPipelineOrder(t *testing.T) {
	if len(Pipeline) != 14 {
		t.Fatalf("expected 14 phases, got %d", len(Pipeline))
	}
	for i, p := range Pipeline {
		if got := p.Ordinal(); got != i+1 {
			t.Errorf("phase %s: expected ordinal %d, got %d", p, i+1, got)
		}
	}
}

func TestNextWalksThePipeline(t *testing.T) {
	p := IntakeAnalysis
	steps := 0
	for {
		next, ok := p.Next()
		if !ok {
			break
		}
		if next.Ordinal() != p.Ordinal()+1 {
			t.Fatalf("%s -> %s: ordinal jumped from %d to %d", p, next, p.Ordinal(), next.Ordinal())
		}
		p = next
		steps++
	}
	if p != Delivery {
		t.Errorf("expected pipeline to end at %s, got %s", Delivery, p)
	}
	if steps != 13 {
		t.Errorf("expected 13 steps, got %d", steps)
	}
}

func TestNextAtDelivery(t *testing.T) {
	if next, ok := Delivery.Next(); ok {
		t.Errorf("expected no phase after delivery, got %s", next)
	}
}

func TestIsDrafting(t *testing.T) {
	drafting := map[Code]bool{
		LegalResearch:     true,
		FactsDraft:        true,
		ArgumentDraft:     true,
		CitationIntegrity: true,
		RevisionCycle:     true,
	}
	for _, p := range Pipeline {
		if got := p.IsDrafting(); got != drafting[p] {
			t.Errorf("phase %s: expected IsDrafting %v, got %v", p, drafting[p], got)
		}
	}
}

func TestParseCode(t *testing.T) {
	p, err := ParseCode("IX")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p != ArgumentDraft {
		t.Errorf("expected %s, got %s", ArgumentDraft, p)
	}

	if _, err := ParseCode("XV"); err == nil {
		t.Error("expected error for unknown code XV")
	}
	if _, err := ParseCode(""); err == nil {
		t.Error("expected error for empty code")
	}
}
