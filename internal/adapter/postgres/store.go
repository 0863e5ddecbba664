package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motion-granted/engine/internal/domain"
	"github.com/motion-granted/engine/internal/domain/order"
)

// Store implements the database.Store port against PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const orderColumns = `id, order_number, motion_type, status, status_version,
	pricing_tier, execution_tier, current_phase, revision_count,
	amount_paid_cents, cost_cap_triggered, deliverable_ready, legal_hold,
	hold_reason, hold_expires_at, recipient_email, created_at, updated_at`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.MotionType, &o.Status, &o.StatusVersion,
		&o.PricingTier, &o.ExecutionTier, &o.CurrentPhase, &o.RevisionCount,
		&o.AmountPaidCents, &o.CostCapTriggered, &o.DeliverableReady, &o.LegalHold,
		&o.HoldReason, &o.HoldExpiresAt, &o.RecipientEmail, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, motion_type, status, status_version,
		     pricing_tier, execution_tier, current_phase, amount_paid_cents, recipient_email)
		 VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $8, $9)
		 RETURNING status_version, created_at, updated_at`,
		o.ID, o.OrderNumber, o.MotionType, o.Status,
		o.PricingTier, o.ExecutionTier, o.CurrentPhase, o.AmountPaidCents, o.RecipientEmail,
	).Scan(&o.StatusVersion, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, statuses []order.Status) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if len(statuses) > 0 {
		query += ` WHERE status = ANY($1)`
		ss := make([]string, len(statuses))
		for i, st := range statuses {
			ss[i] = string(st)
		}
		args = append(args, ss)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// TransitionOrder performs the atomic conditional status update: the write
// lands iff the stored status_version still equals expectedVersion, and the
// version advances by exactly 1. A mismatch is reported as domain.ErrConflict,
// never applied as a silent overwrite.
func (s *Store) TransitionOrder(ctx context.Context, id string, expectedVersion int64, next order.Status, f order.TransitionFields) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET
		     status = $2,
		     status_version = status_version + 1,
		     current_phase = COALESCE($4, current_phase),
		     revision_count = COALESCE($5, revision_count),
		     cost_cap_triggered = COALESCE($6, cost_cap_triggered),
		     deliverable_ready = COALESCE($7, deliverable_ready),
		     hold_reason = CASE WHEN $8 THEN '' ELSE COALESCE($9, hold_reason) END,
		     hold_expires_at = CASE WHEN $8 THEN NULL ELSE COALESCE($10, hold_expires_at) END,
		     updated_at = now()
		 WHERE id = $1 AND status_version = $3`,
		id, next, expectedVersion,
		f.CurrentPhase, f.RevisionCount, f.CostCapTriggered, f.DeliverableReady,
		f.ClearHold, f.HoldReason, f.HoldExpiresAt)
	if err != nil {
		return fmt.Errorf("transition order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transition order %s to %s: %w", id, next, domain.ErrConflict)
	}
	return nil
}

// UpdateOrderFields applies field mutations without a status change, under
// the same conditional-write discipline as TransitionOrder.
func (s *Store) UpdateOrderFields(ctx context.Context, id string, expectedVersion int64, f order.TransitionFields) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET
		     status_version = status_version + 1,
		     current_phase = COALESCE($3, current_phase),
		     revision_count = COALESCE($4, revision_count),
		     cost_cap_triggered = COALESCE($5, cost_cap_triggered),
		     deliverable_ready = COALESCE($6, deliverable_ready),
		     hold_reason = CASE WHEN $7 THEN '' ELSE COALESCE($8, hold_reason) END,
		     hold_expires_at = CASE WHEN $7 THEN NULL ELSE COALESCE($9, hold_expires_at) END,
		     updated_at = now()
		 WHERE id = $1 AND status_version = $2`,
		id, expectedVersion,
		f.CurrentPhase, f.RevisionCount, f.CostCapTriggered, f.DeliverableReady,
		f.ClearHold, f.HoldReason, f.HoldExpiresAt)
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update order %s: %w", id, domain.ErrConflict)
	}
	return nil
}
