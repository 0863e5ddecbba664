package service

import (
	"context"
	"errors"
	"testing"

	"github.com/motion-granted/engine/internal/domain/phase"
)

func TestExtractPersistsAndCaches(t *testing.T) {
	store := newMockStore()
	cache := newMockCache()
	svc := NewCitationService(store, cache)
	ctx := context.Background()

	text := "Summary judgment requires no genuine dispute. Smith v. Jones, 123 So.3d 456, 460 (La. App. 2013). " +
		"The burden follows La. C.C.P. Art. 966 and Fed. R. Civ. P. 56."

	rs, err := svc.Extract(ctx, "ord-ct1", phase.ArgumentDraft, text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rs.CaseLawCount() != 1 {
		t.Errorf("expected 1 case-law citation, got %d", rs.CaseLawCount())
	}
	if rs.StatutoryCount() != 2 {
		t.Errorf("expected 2 statutory citations, got %d", rs.StatutoryCount())
	}
	for _, s := range rs.Statutory {
		if s.Verified {
			t.Errorf("extraction must never mark citations verified: %+v", s)
		}
	}

	// Reads are served from cache: poison the store to prove it.
	store.getCitationsErr = errors.New("db down")
	got, err := svc.Results(ctx, "ord-ct1", phase.ArgumentDraft)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if got == nil || got.CaseLawCount() != 1 {
		t.Errorf("expected cached result set, got %+v", got)
	}
}

func TestResultsFallsBackToStore(t *testing.T) {
	store := newMockStore()
	svc := NewCitationService(store, nil)
	ctx := context.Background()

	if _, err := svc.Extract(ctx, "ord-ct2", phase.FactsDraft, "Facts per La. C.C.P. Art. 966."); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, err := svc.Results(ctx, "ord-ct2", phase.FactsDraft)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if got == nil || got.StatutoryCount() != 1 {
		t.Errorf("expected stored result set, got %+v", got)
	}
}

func TestResultsNilWhenAbsent(t *testing.T) {
	svc := NewCitationService(newMockStore(), nil)
	got, err := svc.Results(context.Background(), "ord-ct3", phase.ArgumentDraft)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a phase with no extraction, got %+v", got)
	}
}
