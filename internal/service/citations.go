package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/motion-granted/engine/internal/domain/citation"
	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/port/cache"
	"github.com/motion-granted/engine/internal/port/database"
)

const citationCacheTTL = 30 * time.Minute

// CitationService runs the two extraction pipelines over drafting output
// and persists the result set per (order, phase). Extraction is advisory:
// it never fails the phase, and Verified stays false until a human or an
// external verifier has confirmed each authority.
type CitationService struct {
	store database.Store
	cache cache.Cache
}

// NewCitationService creates a new CitationService. cache may be nil.
func NewCitationService(store database.Store, c cache.Cache) *CitationService {
	return &CitationService{store: store, cache: c}
}

// ResultSet is one phase's extracted citations with per-type counts.
type ResultSet struct {
	OrderID   string               `json:"order_id"`
	Phase     phase.Code           `json:"phase"`
	CaseLaw   []citation.CaseLaw   `json:"case_law"`
	Statutory []citation.Statutory `json:"statutory"`
}

// CaseLawCount returns the number of distinct cited opinions.
func (r ResultSet) CaseLawCount() int { return len(r.CaseLaw) }

// StatutoryCount returns the number of distinct cited statutes.
func (r ResultSet) StatutoryCount() int { return len(r.Statutory) }

// Extract runs both pipelines over the text and stores the result set,
// replacing any previous set for the same (order, phase).
func (s *CitationService) Extract(ctx context.Context, orderID string, p phase.Code, text string) (*ResultSet, error) {
	rs := &ResultSet{
		OrderID:   orderID,
		Phase:     p,
		CaseLaw:   citation.ScanCaseLaw(text),
		Statutory: citation.ExtractStatutory(text),
	}

	if err := s.store.SaveCitationResults(ctx, orderID, p, rs.CaseLaw, rs.Statutory); err != nil {
		return nil, fmt.Errorf("save citation results: %w", err)
	}
	s.cachePut(ctx, rs)

	slog.Info("citations extracted",
		"order_id", orderID,
		"phase", p,
		"case_law", len(rs.CaseLaw),
		"statutory", len(rs.Statutory),
	)
	return rs, nil
}

// Results returns the stored result set for (order, phase), or nil when
// the phase produced none.
func (s *CitationService) Results(ctx context.Context, orderID string, p phase.Code) (*ResultSet, error) {
	if rs, ok := s.cacheGet(ctx, orderID, p); ok {
		return rs, nil
	}

	caselaw, statutory, err := s.store.GetCitationResults(ctx, orderID, p)
	if err != nil {
		return nil, err
	}
	if caselaw == nil && statutory == nil {
		return nil, nil
	}
	rs := &ResultSet{OrderID: orderID, Phase: p, CaseLaw: caselaw, Statutory: statutory}
	s.cachePut(ctx, rs)
	return rs, nil
}

func citationCacheKey(orderID string, p phase.Code) string {
	return "citations:" + orderID + ":" + string(p)
}

func (s *CitationService) cachePut(ctx context.Context, rs *ResultSet) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(rs)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, citationCacheKey(rs.OrderID, rs.Phase), data, citationCacheTTL); err != nil {
		slog.Debug("citation cache set failed", "order_id", rs.OrderID, "error", err)
	}
}

func (s *CitationService) cacheGet(ctx context.Context, orderID string, p phase.Code) (*ResultSet, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, citationCacheKey(orderID, p))
	if err != nil || !ok {
		return nil, false
	}
	var rs ResultSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, false
	}
	return &rs, true
}
