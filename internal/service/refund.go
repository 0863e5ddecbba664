package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/motion-granted/engine/internal/domain/order"
	"github.com/motion-granted/engine/internal/domain/refund"
	"github.com/motion-granted/engine/internal/port/database"
	"github.com/motion-granted/engine/internal/port/messagequeue"
)

// RefundService computes refund suggestions and records admin decisions.
// Suggestions are advisory; a decision that deviates from the suggested
// amount must carry a justification and lands in the audit trail either way.
type RefundService struct {
	store  database.Store
	orders *OrderService
}

// NewRefundService creates a new RefundService.
func NewRefundService(store database.Store, orders *OrderService) *RefundService {
	return &RefundService{store: store, orders: orders}
}

// SuggestForOrder returns the refund suggestion for the order's current
// pipeline position.
func (s *RefundService) SuggestForOrder(ctx context.Context, orderID string) (*refund.Suggestion, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	sug := refund.Suggest(o.AmountPaidCents, o.CurrentPhase)
	return &sug, nil
}

// DecideRequest is an admin refund decision for a disputed order.
type DecideRequest struct {
	OrderID         string `json:"order_id"`
	ExpectedVersion int64  `json:"expected_version"`
	ActualCents     int64  `json:"actual_cents"`
	Justification   string `json:"justification"`
	AdminID         string `json:"admin_id"`
}

// Decide validates and applies a refund decision: the order moves to
// refunded, the audit record is written, and the payment collaborator is
// notified through the queue. Actual execution of the payment happens
// downstream.
func (s *RefundService) Decide(ctx context.Context, req DecideRequest) (*refund.AuditRecord, error) {
	o, err := s.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	sug := refund.Suggest(o.AmountPaidCents, o.CurrentPhase)
	if err := refund.ValidateOverride(req.ActualCents, sug.AmountCents, req.Justification); err != nil {
		return nil, fmt.Errorf("refund decision for order %s: %w", req.OrderID, err)
	}
	if req.ActualCents < 0 || req.ActualCents > o.AmountPaidCents {
		return nil, fmt.Errorf("refund decision for order %s: amount %d out of range", req.OrderID, req.ActualCents)
	}

	if err := s.orders.Transition(ctx, req.OrderID, req.ExpectedVersion, order.StatusRefunded, order.TransitionFields{}); err != nil {
		return nil, err
	}

	rec := refund.BuildAudit(req.OrderID, req.AdminID, sug, req.ActualCents, req.Justification)
	if err := s.store.SaveRefundAudit(ctx, &rec); err != nil {
		// The transition landed; the audit write must not be lost silently.
		slog.Error("refund audit write failed", "order_id", req.OrderID, "error", err)
		return nil, err
	}

	s.orders.publishEvent(ctx, messagequeue.SubjectOrderRefund, orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		MotionType:  o.MotionType,
		Recipient:   o.RecipientEmail,
		Phase:       string(o.CurrentPhase),
		RefundCents: req.ActualCents,
		Reason:      req.Justification,
	})

	slog.Info("refund decided",
		"order_id", req.OrderID,
		"suggested_cents", sug.AmountCents,
		"actual_cents", req.ActualCents,
		"deviated", rec.Deviated,
	)
	return &rec, nil
}
