package refund

import (
	"errors"
	"testing"

	"github.com/motion-granted/engine/internal/domain/phase"
)

func TestSuggestDescendingTable(t *testing.T) {
	tests := []struct {
		phase phase.Code
		pct   int
	}{
		{phase.IntakeAnalysis, 85},
		{phase.ConflictCheck, 80},
		{phase.EvidenceReview, 75},
		{phase.MotionStrategy, 70},
		{phase.LegalResearch, 60},
		{phase.AuthorityRanking, 50},
		{phase.Outline, 40},
		{phase.FactsDraft, 30},
		{phase.ArgumentDraft, 15},
		{phase.CitationIntegrity, 0},
		{phase.Delivery, 0},
	}
	for _, tt := range tests {
		s := Suggest(100000, tt.phase)
		if s.Percentage != tt.pct {
			t.Errorf("phase %s: expected %d%%, got %d%%", tt.phase, tt.pct, s.Percentage)
		}
		if s.AmountCents != int64(tt.pct)*1000 {
			t.Errorf("phase %s: expected %d cents, got %d", tt.phase, int64(tt.pct)*1000, s.AmountCents)
		}
		if s.ManualReview {
			t.Errorf("phase %s: known phase must not need manual review", tt.phase)
		}
	}
}

func TestSuggestEarlyCancellation(t *testing.T) {
	s := Suggest(100000, phase.IntakeAnalysis)
	if s.Percentage != 85 || s.AmountCents != 85000 {
		t.Errorf("expected 85%% / 85000 cents, got %d%% / %d", s.Percentage, s.AmountCents)
	}
}

func TestSuggestUnknownPhase(t *testing.T) {
	s := Suggest(100000, phase.Code("XCIX"))
	if s.Percentage != 50 {
		t.Errorf("expected conservative 50%%, got %d%%", s.Percentage)
	}
	if s.AmountCents != 50000 {
		t.Errorf("expected 50000 cents, got %d", s.AmountCents)
	}
	if !s.ManualReview {
		t.Error("unknown phase must be flagged for manual review")
	}
}

func TestSuggestNeverDecreasesWithEarlierPhase(t *testing.T) {
	prev := 101
	for _, p := range phase.Pipeline {
		s := Suggest(100000, p)
		if s.Percentage > prev {
			t.Errorf("phase %s: refund %d%% higher than earlier phase %d%%", p, s.Percentage, prev)
		}
		prev = s.Percentage
	}
}

func TestValidateOverride(t *testing.T) {
	// Matching amount needs no justification.
	if err := ValidateOverride(85000, 85000, ""); err != nil {
		t.Errorf("expected no error without deviation, got %v", err)
	}

	// A deviation requires ten meaningful characters.
	if err := ValidateOverride(90000, 85000, "goodwill"); !errors.Is(err, ErrJustificationTooShort) {
		t.Errorf("expected ErrJustificationTooShort, got %v", err)
	}
	if err := ValidateOverride(90000, 85000, "   padded   "); !errors.Is(err, ErrJustificationTooShort) {
		t.Errorf("whitespace must not count, got %v", err)
	}
	if err := ValidateOverride(90000, 85000, "customer escalation per support ticket"); err != nil {
		t.Errorf("expected adequate justification accepted, got %v", err)
	}
}

func TestBuildAudit(t *testing.T) {
	s := Suggest(100000, phase.ArgumentDraft)
	rec := BuildAudit("ord-1", "admin-7", s, 20000, "partial work delivered to client")

	if rec.SuggestedCents != 15000 {
		t.Errorf("expected suggested 15000, got %d", rec.SuggestedCents)
	}
	if rec.ActualCents != 20000 || !rec.Deviated {
		t.Errorf("expected deviated decision recorded: %+v", rec)
	}
	if rec.DecidedAt.IsZero() {
		t.Error("expected decision timestamp")
	}

	same := BuildAudit("ord-1", "admin-7", s, 15000, "")
	if same.Deviated {
		t.Error("matching amount must not be marked deviated")
	}
}
