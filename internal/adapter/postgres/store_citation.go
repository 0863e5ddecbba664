package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/motion-granted/engine/internal/domain/citation"
	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/domain/refund"
)

// SaveCitationResults upserts the per-(order, phase) citation result set.
// Steps re-run under at-least-once delivery, so the write is idempotent.
func (s *Store) SaveCitationResults(ctx context.Context, orderID string, p phase.Code, caselaw []citation.CaseLaw, statutory []citation.Statutory) error {
	cl, err := json.Marshal(caselaw)
	if err != nil {
		return fmt.Errorf("marshal caselaw citations: %w", err)
	}
	st, err := json.Marshal(statutory)
	if err != nil {
		return fmt.Errorf("marshal statutory citations: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO citation_results (order_id, phase, caselaw, statutory, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (order_id, phase)
		 DO UPDATE SET caselaw = $3, statutory = $4, updated_at = now()`,
		orderID, p, cl, st)
	if err != nil {
		return fmt.Errorf("save citation results %s/%s: %w", orderID, p, err)
	}
	return nil
}

func (s *Store) GetCitationResults(ctx context.Context, orderID string, p phase.Code) ([]citation.CaseLaw, []citation.Statutory, error) {
	var cl, st []byte
	err := s.pool.QueryRow(ctx,
		`SELECT caselaw, statutory FROM citation_results WHERE order_id = $1 AND phase = $2`,
		orderID, p,
	).Scan(&cl, &st)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get citation results %s/%s: %w", orderID, p, err)
	}

	var caselaw []citation.CaseLaw
	if err := json.Unmarshal(cl, &caselaw); err != nil {
		return nil, nil, fmt.Errorf("unmarshal caselaw citations: %w", err)
	}
	var statutory []citation.Statutory
	if err := json.Unmarshal(st, &statutory); err != nil {
		return nil, nil, fmt.Errorf("unmarshal statutory citations: %w", err)
	}
	return caselaw, statutory, nil
}

func (s *Store) SaveRefundAudit(ctx context.Context, rec *refund.AuditRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refund_audits (order_id, phase, suggested_cents, actual_cents,
		     deviated, justification, admin_id, decided_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.OrderID, rec.Phase, rec.SuggestedCents, rec.ActualCents,
		rec.Deviated, rec.Justification, rec.AdminID, rec.DecidedAt)
	if err != nil {
		return fmt.Errorf("save refund audit for order %s: %w", rec.OrderID, err)
	}
	return nil
}
