package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/motion-granted/engine/internal/domain"
	"github.com/motion-granted/engine/internal/domain/phase"
)

const phaseExecColumns = `id, order_id, phase, status, quality_score, error_message, started_at, completed_at`

func scanPhaseExecution(row pgx.Row) (*phase.Execution, error) {
	var e phase.Execution
	err := row.Scan(&e.ID, &e.OrderID, &e.Phase, &e.Status,
		&e.QualityScore, &e.ErrorMessage, &e.StartedAt, &e.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreatePhaseExecution(ctx context.Context, e *phase.Execution) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO phase_executions (id, order_id, phase, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING started_at`,
		e.ID, e.OrderID, e.Phase, e.Status,
	).Scan(&e.StartedAt)
	if err != nil {
		return fmt.Errorf("create phase execution: %w", err)
	}
	return nil
}

func (s *Store) CompletePhaseExecution(ctx context.Context, id string, status phase.ExecutionStatus, qualityScore *float64, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE phase_executions
		 SET status = $2, quality_score = $3, error_message = $4, completed_at = now()
		 WHERE id = $1`,
		id, status, qualityScore, errMsg)
	if err != nil {
		return fmt.Errorf("complete phase execution %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete phase execution %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) LatestPhaseExecution(ctx context.Context, orderID string, p phase.Code) (*phase.Execution, error) {
	e, err := scanPhaseExecution(s.pool.QueryRow(ctx,
		`SELECT `+phaseExecColumns+`
		 FROM phase_executions
		 WHERE order_id = $1 AND phase = $2
		 ORDER BY started_at DESC
		 LIMIT 1`, orderID, p))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("latest phase execution %s/%s: %w", orderID, p, err)
	}
	return e, nil
}

func (s *Store) ListPhaseExecutions(ctx context.Context, orderID string) ([]phase.Execution, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+phaseExecColumns+`
		 FROM phase_executions
		 WHERE order_id = $1
		 ORDER BY started_at ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list phase executions: %w", err)
	}
	defer rows.Close()

	var out []phase.Execution
	for rows.Next() {
		e, err := scanPhaseExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan phase execution: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
