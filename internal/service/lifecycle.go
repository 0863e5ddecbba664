// Package service implements the workflow engine's use cases on top of the
// domain model and the ports.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	engotel "github.com/motion-granted/engine/internal/adapter/otel"
	"github.com/motion-granted/engine/internal/domain"
	"github.com/motion-granted/engine/internal/domain/order"
	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/domain/refund"
	"github.com/motion-granted/engine/internal/domain/tier"
	"github.com/motion-granted/engine/internal/port/database"
	"github.com/motion-granted/engine/internal/port/messagequeue"
)

// OrderService drives the order lifecycle state machine. Every mutating
// call goes through the store's conditional update with the caller's
// last-observed status version; a mismatch surfaces as domain.ErrConflict
// and the caller refetches and retries.
type OrderService struct {
	store   database.Store
	queue   messagequeue.Queue
	metrics *engotel.Metrics
}

// NewOrderService creates a new OrderService. metrics may be nil.
func NewOrderService(store database.Store, queue messagequeue.Queue, metrics *engotel.Metrics) *OrderService {
	return &OrderService{store: store, queue: queue, metrics: metrics}
}

// Create opens a new order at intake. The effective execution tier is the
// higher-ranked of the motion type's tier and the tier the customer paid
// for; running below what the content requires is never allowed.
func (s *OrderService) Create(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	paidExec, err := req.PricingTier.Execution()
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	effective, err := tier.ResolveEffectiveTier(req.MotionTypeTier, paidExec)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	o := &order.Order{
		ID:              uuid.NewString(),
		OrderNumber:     req.OrderNumber,
		MotionType:      req.MotionType,
		Status:          order.StatusIntake,
		PricingTier:     req.PricingTier,
		ExecutionTier:   effective,
		CurrentPhase:    phase.IntakeAnalysis,
		AmountPaidCents: req.AmountPaidCents,
		RecipientEmail:  req.RecipientEmail,
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	slog.Info("order created",
		"order_id", o.ID,
		"order_number", o.OrderNumber,
		"execution_tier", o.ExecutionTier,
	)
	return o, nil
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id string) (*order.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// List returns orders, optionally filtered to the given statuses.
func (s *OrderService) List(ctx context.Context, statuses []order.Status) ([]order.Order, error) {
	return s.store.ListOrders(ctx, statuses)
}

// Executions returns the phase execution history for an order.
func (s *OrderService) Executions(ctx context.Context, id string) ([]phase.Execution, error) {
	return s.store.ListPhaseExecutions(ctx, id)
}

// Transition validates the lifecycle step and applies it under the
// caller's expected status version.
func (s *OrderService) Transition(ctx context.Context, id string, expectedVersion int64, next order.Status, fields order.TransitionFields) error {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := order.CanTransition(o.Status, next); err != nil {
		return fmt.Errorf("order %s: %s -> %s: %w", id, o.Status, next, err)
	}

	err = s.store.TransitionOrder(ctx, id, expectedVersion, next, fields)
	if errors.Is(err, domain.ErrConflict) && s.metrics != nil {
		s.metrics.Conflicts.Add(ctx, 1, metric.WithAttributes(
			attribute.String("status.next", string(next)),
		))
	}
	return err
}

// ApproveCheckpoint completes an order awaiting customer approval.
func (s *OrderService) ApproveCheckpoint(ctx context.Context, id string, expectedVersion int64) error {
	if err := s.Transition(ctx, id, expectedVersion, order.StatusCompleted, order.TransitionFields{}); err != nil {
		return err
	}
	slog.Info("order approved", "order_id", id)
	return nil
}

// RequestChanges sends an approved-pending order back into processing for
// a revision cycle. When the tier's revision loops are already exhausted
// the order takes the protocol exit path instead.
func (s *OrderService) RequestChanges(ctx context.Context, id string, expectedVersion int64, feedback string) error {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	policy, err := tier.PolicyFor(o.ExecutionTier)
	if err != nil {
		return err
	}
	if o.RevisionCount >= policy.MaxRevisionLoops {
		return fmt.Errorf("order %s: %w", id, order.ErrRevisionsExhausted)
	}

	next := o.RevisionCount + 1
	rev := phase.RevisionCycle
	if err := s.Transition(ctx, id, expectedVersion, order.StatusRevisionRequested, order.TransitionFields{}); err != nil {
		return err
	}
	if err := s.Transition(ctx, id, expectedVersion+1, order.StatusProcessing, order.TransitionFields{
		RevisionCount: &next,
		CurrentPhase:  &rev,
	}); err != nil {
		return err
	}

	slog.Info("revision requested", "order_id", id, "revision", next, "feedback_len", len(feedback))
	return nil
}

// Cancel cancels an order at the customer's or an admin's request and
// emits the cancellation event carrying the advisory refund suggestion.
func (s *OrderService) Cancel(ctx context.Context, id string, expectedVersion int64, reason string) (*refund.Suggestion, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Transition(ctx, id, expectedVersion, order.StatusCancelledUser, order.TransitionFields{}); err != nil {
		return nil, err
	}

	suggestion := refund.Suggest(o.AmountPaidCents, o.CurrentPhase)
	s.publishEvent(ctx, messagequeue.SubjectOrderCancelled, orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		MotionType:  o.MotionType,
		Recipient:   o.RecipientEmail,
		Phase:       string(o.CurrentPhase),
		Reason:      reason,
		RefundCents: suggestion.AmountCents,
	})

	slog.Info("order cancelled",
		"order_id", id,
		"phase", o.CurrentPhase,
		"suggested_refund_cents", suggestion.AmountCents,
	)
	return &suggestion, nil
}

// PlaceHold pauses processing pending customer input (evidence gap). The
// hold carries an expiry; the sweep escalates and eventually auto-cancels.
func (s *OrderService) PlaceHold(ctx context.Context, id string, expectedVersion int64, reason string, window time.Duration) error {
	expires := time.Now().UTC().Add(window)
	err := s.Transition(ctx, id, expectedVersion, order.StatusHoldPending, order.TransitionFields{
		HoldReason:    &reason,
		HoldExpiresAt: &expires,
	})
	if err != nil {
		return err
	}

	o, getErr := s.store.GetOrder(ctx, id)
	if getErr != nil {
		return getErr
	}
	s.publishEvent(ctx, messagequeue.SubjectHoldCreated, orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		MotionType:  o.MotionType,
		Recipient:   o.RecipientEmail,
		Reason:      reason,
	})
	return nil
}

// ResolveHold resumes processing after the customer supplied the missing
// input.
func (s *OrderService) ResolveHold(ctx context.Context, id string, expectedVersion int64) error {
	return s.Transition(ctx, id, expectedVersion, order.StatusProcessing, order.TransitionFields{
		ClearHold: true,
	})
}

// ProtocolExit routes an order out of processing when revision loops or
// the hard cost ceiling are exhausted: to a human-review checkpoint when a
// deliverable already exists, otherwise to an automatic full-refund
// cancellation. Never a bare internal error.
func (s *OrderService) ProtocolExit(ctx context.Context, o *order.Order, expectedVersion int64, reason string) error {
	capTriggered := true
	if err := s.Transition(ctx, o.ID, expectedVersion, order.StatusProtocolExit, order.TransitionFields{
		CostCapTriggered: &capTriggered,
	}); err != nil {
		return err
	}

	next := order.StatusCancelledSystem
	refundCents := o.AmountPaidCents // full refund when nothing was delivered
	if o.DeliverableReady {
		next = order.StatusAwaitingApproval
		refundCents = 0
	}
	if err := s.Transition(ctx, o.ID, expectedVersion+1, next, order.TransitionFields{}); err != nil {
		return err
	}

	s.publishEvent(ctx, messagequeue.SubjectProtocolExit, orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		MotionType:  o.MotionType,
		Recipient:   o.RecipientEmail,
		Phase:       string(o.CurrentPhase),
		Reason:      reason,
		RefundCents: refundCents,
	})

	slog.Warn("protocol exit",
		"order_id", o.ID,
		"reason", reason,
		"deliverable_ready", o.DeliverableReady,
		"next_status", next,
	)
	return nil
}

// orderEvent is the structured payload emitted to external document and
// notification collaborators; rendering and delivery happen downstream.
type orderEvent struct {
	OrderID     string   `json:"order_id"`
	OrderNumber string   `json:"order_number"`
	MotionType  string   `json:"motion_type"`
	Recipient   string   `json:"recipient,omitempty"`
	Phase       string   `json:"phase,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	RefundCents int64    `json:"refund_cents,omitempty"`
	Documents   []string `json:"documents,omitempty"`
}

func (s *OrderService) publishEvent(ctx context.Context, subject string, evt orderEvent) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("marshal order event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish order event", "subject", subject, "order_id", evt.OrderID, "error", err)
	}
}
