// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/motion-granted/engine/internal/domain/citation"
	"github.com/motion-granted/engine/internal/domain/cost"
	"github.com/motion-granted/engine/internal/domain/order"
	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/domain/refund"
)

// Store is the port interface for database operations.
//
// TransitionOrder is the engine's sole serialization mechanism: it must be
// implemented as a single atomic conditional update on the status version
// column, never as a read-then-write round trip.
type Store interface {
	// Orders
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	ListOrders(ctx context.Context, statuses []order.Status) ([]order.Order, error)

	// TransitionOrder applies the status change and the accompanying field
	// mutations iff the stored status_version equals expectedVersion. On a
	// version mismatch it returns domain.ErrConflict and writes nothing.
	// On success the stored version is exactly expectedVersion+1.
	TransitionOrder(ctx context.Context, id string, expectedVersion int64, next order.Status, fields order.TransitionFields) error

	// UpdateOrderFields applies field mutations without changing status,
	// under the same conditional-write contract as TransitionOrder.
	UpdateOrderFields(ctx context.Context, id string, expectedVersion int64, fields order.TransitionFields) error

	// Phase executions
	CreatePhaseExecution(ctx context.Context, e *phase.Execution) error
	CompletePhaseExecution(ctx context.Context, id string, status phase.ExecutionStatus, qualityScore *float64, errMsg string) error
	LatestPhaseExecution(ctx context.Context, orderID string, p phase.Code) (*phase.Execution, error)
	ListPhaseExecutions(ctx context.Context, orderID string) ([]phase.Execution, error)

	// Cost ledger (append-only)
	AppendCostEntry(ctx context.Context, e *cost.Entry) error
	CostSummaryByOrder(ctx context.Context, orderID string) (*cost.Summary, error)
	CycleCostByOrder(ctx context.Context, orderID string, revision int) (primaryCents, retryCents int64, err error)
	CostDaily(ctx context.Context, days int) ([]cost.DailyCost, error)

	// Citation result sets, one per (order, phase)
	SaveCitationResults(ctx context.Context, orderID string, p phase.Code, caselaw []citation.CaseLaw, statutory []citation.Statutory) error
	GetCitationResults(ctx context.Context, orderID string, p phase.Code) ([]citation.CaseLaw, []citation.Statutory, error)

	// Refund audit trail
	SaveRefundAudit(ctx context.Context, rec *refund.AuditRecord) error
}
