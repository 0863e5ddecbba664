package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/motion-granted/engine/internal/config"
	"github.com/motion-granted/engine/internal/domain"
	"github.com/motion-granted/engine/internal/domain/order"
	"github.com/motion-granted/engine/internal/port/database"
	"github.com/motion-granted/engine/internal/port/messagequeue"
	"github.com/motion-granted/engine/internal/port/notifier"
)

// escalatedMark tags a hold reason once its escalation alert has fired, so
// the sweep stays idempotent across runs.
const escalatedMark = "[escalated] "

// Jobs runs the scheduled lifecycle sweeps: hold escalation and
// auto-cancel, and retry of orders parked on model capacity. Every write
// goes through the conditional-update path; a conflict just means another
// actor got there first and the next sweep re-evaluates.
type Jobs struct {
	store  database.Store
	orders *OrderService
	driver *PhaseDriver
	alerts notifier.Notifier
	cfg    config.Workflow
	now    func() time.Time
}

// NewJobs creates the scheduled jobs runner. alerts may be nil.
func NewJobs(store database.Store, orders *OrderService, driver *PhaseDriver, alerts notifier.Notifier, cfg config.Workflow) *Jobs {
	return &Jobs{store: store, orders: orders, driver: driver, alerts: alerts, cfg: cfg, now: time.Now}
}

// Start runs the sweep loop until ctx is cancelled.
func (j *Jobs) Start(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.SweepInterval)
	defer ticker.Stop()

	slog.Info("lifecycle jobs started", "interval", j.cfg.SweepInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("lifecycle jobs stopped")
			return
		case <-ticker.C:
			j.SweepHolds(ctx)
			j.SweepModelCapacity(ctx)
		}
	}
}

// SweepHolds escalates pending holds past the escalation threshold and
// auto-cancels those past the inactivity window.
func (j *Jobs) SweepHolds(ctx context.Context) {
	orders, err := j.store.ListOrders(ctx, []order.Status{order.StatusHoldPending})
	if err != nil {
		slog.Error("hold sweep: list orders", "error", err)
		return
	}
	now := j.now()

	for i := range orders {
		o := &orders[i]
		if o.HoldExpiresAt == nil {
			continue
		}
		switch {
		case !now.Before(*o.HoldExpiresAt):
			j.cancelExpiredHold(ctx, o)
		case j.escalationDue(o, now):
			j.escalateHold(ctx, o)
		}
	}
}

// escalationDue reports whether the hold has aged past the escalation
// threshold without having been escalated already.
func (j *Jobs) escalationDue(o *order.Order, now time.Time) bool {
	if strings.HasPrefix(o.HoldReason, escalatedMark) {
		return false
	}
	placedAt := o.HoldExpiresAt.Add(-j.cfg.HoldInactivityWindow)
	return !now.Before(placedAt.Add(j.cfg.HoldEscalationAfter))
}

func (j *Jobs) escalateHold(ctx context.Context, o *order.Order) {
	reason := escalatedMark + o.HoldReason
	err := j.store.UpdateOrderFields(ctx, o.ID, o.StatusVersion, order.TransitionFields{
		HoldReason: &reason,
	})
	if errors.Is(err, domain.ErrConflict) {
		return // another actor moved the order; next sweep re-checks
	}
	if err != nil {
		slog.Error("hold sweep: escalate", "order_id", o.ID, "error", err)
		return
	}

	j.orders.publishEvent(ctx, messagequeue.SubjectHoldEscalated, orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		MotionType:  o.MotionType,
		Recipient:   o.RecipientEmail,
		Reason:      o.HoldReason,
	})
	if j.alerts != nil {
		if err := j.alerts.Send(ctx, notifier.Notification{
			Title:   "Order hold escalated",
			Message: "order " + o.OrderNumber + " has an unanswered hold: " + o.HoldReason,
			Level:   "warning",
			Source:  "jobs.hold_escalation",
		}); err != nil {
			slog.Error("hold sweep: alert", "order_id", o.ID, "error", err)
		}
	}
	slog.Warn("hold escalated", "order_id", o.ID, "reason", o.HoldReason)
}

func (j *Jobs) cancelExpiredHold(ctx context.Context, o *order.Order) {
	err := j.orders.Transition(ctx, o.ID, o.StatusVersion, order.StatusCancelledSystem, order.TransitionFields{
		ClearHold: true,
	})
	if errors.Is(err, domain.ErrConflict) {
		return
	}
	if err != nil {
		slog.Error("hold sweep: cancel", "order_id", o.ID, "error", err)
		return
	}

	j.orders.publishEvent(ctx, messagequeue.SubjectOrderCancelled, orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		MotionType:  o.MotionType,
		Recipient:   o.RecipientEmail,
		Reason:      "hold expired without customer input",
		RefundCents: o.AmountPaidCents,
	})
	slog.Warn("hold expired, order cancelled", "order_id", o.ID)
}

// SweepModelCapacity resumes orders parked on provider capacity. The
// breaker may still be open; in that case the phase driver parks them
// again and the backoff is the sweep interval.
func (j *Jobs) SweepModelCapacity(ctx context.Context) {
	orders, err := j.store.ListOrders(ctx, []order.Status{order.StatusAwaitingModelCapacity})
	if err != nil {
		slog.Error("capacity sweep: list orders", "error", err)
		return
	}

	for i := range orders {
		o := &orders[i]
		err := j.orders.Transition(ctx, o.ID, o.StatusVersion, order.StatusProcessing, order.TransitionFields{})
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			slog.Error("capacity sweep: resume", "order_id", o.ID, "error", err)
			continue
		}
		if err := j.driver.Schedule(ctx, o.ID, o.CurrentPhase, o.StatusVersion+1); err != nil {
			slog.Error("capacity sweep: schedule", "order_id", o.ID, "error", err)
			continue
		}
		slog.Info("order resumed after capacity wait", "order_id", o.ID)
	}
}
