// Package refund computes advisory refund suggestions at cancellation.
package refund

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/motion-granted/engine/internal/domain/phase"
)

// MinJustificationLen is the minimum length of an override justification.
const MinJustificationLen = 10

// fallbackPercentage applies when the current phase is unrecognized; the
// suggestion is flagged for manual review instead of erroring.
const fallbackPercentage = 50

// Suggestion is the advisory refund for a cancellation at a given phase.
// The admin may override the amount but must justify the deviation.
type Suggestion struct {
	Phase         phase.Code `json:"phase"`
	Percentage    int        `json:"percentage"`
	AmountCents   int64      `json:"amount_cents"`
	Justification string     `json:"justification"`
	ManualReview  bool       `json:"manual_review"`
}

// percentages is the fixed descending refund table, indexed by how far the
// pipeline has progressed. Work through the citation-integrity phase
// exhausts the refundable share; later phases are discretionary only.
var percentages = map[phase.Code]int{
	phase.IntakeAnalysis:    85,
	phase.ConflictCheck:     80,
	phase.EvidenceReview:    75,
	phase.MotionStrategy:    70,
	phase.LegalResearch:     60,
	phase.AuthorityRanking:  50,
	phase.Outline:           40,
	phase.FactsDraft:        30,
	phase.ArgumentDraft:     15,
	phase.CitationIntegrity: 0,
	phase.RevisionCycle:     0,
	phase.ExhibitAssembly:   0,
	phase.Formatting:        0,
	phase.Delivery:          0,
}

// Suggest maps the order's current phase to a refund suggestion. An
// unrecognized phase code yields a conservative 50% suggestion flagged for
// manual review.
func Suggest(paidCents int64, current phase.Code) Suggestion {
	pct, ok := percentages[current]
	if !ok {
		return Suggestion{
			Phase:         current,
			Percentage:    fallbackPercentage,
			AmountCents:   paidCents * fallbackPercentage / 100,
			Justification: fmt.Sprintf("unrecognized phase %q; conservative default pending manual review", current),
			ManualReview:  true,
		}
	}
	return Suggestion{
		Phase:         current,
		Percentage:    pct,
		AmountCents:   paidCents * int64(pct) / 100,
		Justification: fmt.Sprintf("cancellation during phase %s", current),
	}
}

// ErrJustificationTooShort is returned when an override justification does
// not meet the minimum length.
var ErrJustificationTooShort = errors.New("override justification too short")

// ValidateOverride checks that an admin override of the suggested amount
// carries an adequate justification.
func ValidateOverride(actualCents, suggestedCents int64, justification string) error {
	if actualCents == suggestedCents {
		return nil
	}
	if len(strings.TrimSpace(justification)) < MinJustificationLen {
		return fmt.Errorf("%w: need at least %d characters", ErrJustificationTooShort, MinJustificationLen)
	}
	return nil
}

// AuditRecord captures a refund decision for the audit trail.
type AuditRecord struct {
	OrderID        string     `json:"order_id"`
	Phase          phase.Code `json:"phase"`
	SuggestedCents int64      `json:"suggested_cents"`
	ActualCents    int64      `json:"actual_cents"`
	Deviated       bool       `json:"deviated"`
	Justification  string     `json:"justification"`
	AdminID        string     `json:"admin_id"`
	DecidedAt      time.Time  `json:"decided_at"`
}

// BuildAudit assembles the audit record for a refund decision.
func BuildAudit(orderID, adminID string, s Suggestion, actualCents int64, justification string) AuditRecord {
	return AuditRecord{
		OrderID:        orderID,
		Phase:          s.Phase,
		SuggestedCents: s.AmountCents,
		ActualCents:    actualCents,
		Deviated:       actualCents != s.AmountCents,
		Justification:  justification,
		AdminID:        adminID,
		DecidedAt:      time.Now().UTC(),
	}
}
