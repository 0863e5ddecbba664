// Package phase defines the fixed 14-step generation pipeline and the
// authoritative phase x tier routing registry.
package phase

import (
	"fmt"
	"time"
)

// Code identifies one step of the generation pipeline by its ordinal
// roman-numeral code.
type Code string

const (
	IntakeAnalysis    Code = "I"    // parse intake packet, classify motion type
	ConflictCheck     Code = "II"   // adverse-party conflict screen
	EvidenceReview    Code = "III"  // evidence inventory and gap detection
	MotionStrategy    Code = "IV"   // strategy memo and theory selection
	LegalResearch     Code = "V"    // statutory and case-law research
	AuthorityRanking  Code = "VI"   // rank and shortlist controlling authority
	Outline           Code = "VII"  // argument outline
	FactsDraft        Code = "VIII" // statement of facts draft
	ArgumentDraft     Code = "IX"   // memorandum argument draft
	CitationIntegrity Code = "X"    // citation extraction and integrity pass
	RevisionCycle     Code = "XI"   // quality-driven revision pass
	ExhibitAssembly   Code = "XII"  // exhibit list and proposed order
	Formatting        Code = "XIII" // court formatting rules
	Delivery          Code = "XIV"  // final assembly and delivery handoff
)

// Pipeline lists the pipeline phases in execution order.
var Pipeline = []Code{
	IntakeAnalysis, ConflictCheck, EvidenceReview, MotionStrategy,
	LegalResearch, AuthorityRanking, Outline, FactsDraft, ArgumentDraft,
	CitationIntegrity, RevisionCycle, ExhibitAssembly, Formatting, Delivery,
}

// ordinals maps each code to its zero-based position in the pipeline.
var ordinals = func() map[Code]int {
	m := make(map[Code]int, len(Pipeline))
	for i, c := range Pipeline {
		m[c] = i
	}
	return m
}()

// Valid reports whether c is a known pipeline phase.
func (c Code) Valid() bool {
	_, ok := ordinals[c]
	return ok
}

// Ordinal returns the zero-based pipeline position of c, or -1 if unknown.
func (c Code) Ordinal() int {
	i, ok := ordinals[c]
	if !ok {
		return -1
	}
	return i
}

// Next returns the phase after c in the pipeline. ok is false when c is the
// final phase or unknown.
func (c Code) Next() (next Code, ok bool) {
	i, known := ordinals[c]
	if !known || i+1 >= len(Pipeline) {
		return "", false
	}
	return Pipeline[i+1], true
}

// IsDrafting reports whether the phase produces motion text that must go
// through the citation extraction pipelines.
func (c Code) IsDrafting() bool {
	switch c {
	case LegalResearch, FactsDraft, ArgumentDraft, CitationIntegrity, RevisionCycle:
		return true
	}
	return false
}

// ExecutionStatus is the lifecycle of a single phase attempt.
type ExecutionStatus string

const (
	ExecPending        ExecutionStatus = "pending"
	ExecInProgress     ExecutionStatus = "in_progress"
	ExecCompleted      ExecutionStatus = "completed"
	ExecBlocked        ExecutionStatus = "blocked"
	ExecFailed         ExecutionStatus = "failed"
	ExecRequiresReview ExecutionStatus = "requires_review"
)

// Execution records one attempt at a phase. One row is created per attempt.
type Execution struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	Phase        Code            `json:"phase"`
	Status       ExecutionStatus `json:"status"`
	QualityScore *float64        `json:"quality_score,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

func (c Code) String() string { return string(c) }

// ParseCode validates a raw phase code string.
func ParseCode(s string) (Code, error) {
	c := Code(s)
	if !c.Valid() {
		return "", fmt.Errorf("phase code %q: invalid", s)
	}
	return c, nil
}
