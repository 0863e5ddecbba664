package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/motion-granted/engine/internal/domain/cost"
)

func (s *Store) AppendCostEntry(ctx context.Context, e *cost.Entry) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal cost metadata: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO cost_entries (id, order_id, phase, model, tier,
		     input_tokens, output_tokens, cost_cents, source, attempt, revision, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`,
		e.ID, e.OrderID, e.Phase, e.Model, e.Tier,
		e.InputTokens, e.OutputTokens, e.CostCents, e.Source, e.Attempt, e.Revision, meta,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append cost entry: %w", err)
	}
	return nil
}

func (s *Store) CostSummaryByOrder(ctx context.Context, orderID string) (*cost.Summary, error) {
	var sum cost.Summary
	sum.OrderID = orderID
	err := s.pool.QueryRow(ctx,
		`SELECT
		     COALESCE(SUM(cost_cents), 0),
		     COALESCE(SUM(cost_cents) FILTER (WHERE source = 'primary'), 0),
		     COALESCE(SUM(cost_cents) FILTER (WHERE source = 'retry'), 0),
		     COUNT(*),
		     COALESCE(SUM(input_tokens), 0),
		     COALESCE(SUM(output_tokens), 0)
		 FROM cost_entries WHERE order_id = $1`, orderID,
	).Scan(&sum.TotalCents, &sum.PrimaryCents, &sum.RetryCents,
		&sum.EntryCount, &sum.TokensIn, &sum.TokensOut)
	if err != nil {
		return nil, fmt.Errorf("cost summary for order %s: %w", orderID, err)
	}
	return &sum, nil
}

func (s *Store) CycleCostByOrder(ctx context.Context, orderID string, revision int) (primaryCents, retryCents int64, err error) {
	err = s.pool.QueryRow(ctx,
		`SELECT
		     COALESCE(SUM(cost_cents) FILTER (WHERE source = 'primary'), 0),
		     COALESCE(SUM(cost_cents) FILTER (WHERE source = 'retry'), 0)
		 FROM cost_entries WHERE order_id = $1 AND revision = $2`, orderID, revision,
	).Scan(&primaryCents, &retryCents)
	if err != nil {
		return 0, 0, fmt.Errorf("cycle cost for order %s rev %d: %w", orderID, revision, err)
	}
	return primaryCents, retryCents, nil
}

func (s *Store) CostDaily(ctx context.Context, days int) ([]cost.DailyCost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT to_char(created_at::date, 'YYYY-MM-DD'),
		     COALESCE(SUM(cost_cents), 0),
		     COALESCE(SUM(input_tokens), 0),
		     COALESCE(SUM(output_tokens), 0),
		     COUNT(*)
		 FROM cost_entries
		 WHERE created_at >= now() - ($1 || ' days')::interval
		 GROUP BY created_at::date
		 ORDER BY created_at::date`, days)
	if err != nil {
		return nil, fmt.Errorf("cost daily: %w", err)
	}
	defer rows.Close()

	var out []cost.DailyCost
	for rows.Next() {
		var d cost.DailyCost
		if err := rows.Scan(&d.Date, &d.CostCents, &d.TokensIn, &d.TokensOut, &d.EntryCount); err != nil {
			return nil, fmt.Errorf("scan daily cost: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
