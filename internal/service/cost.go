package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/motion-granted/engine/internal/domain/cost"
	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/domain/tier"
	"github.com/motion-granted/engine/internal/port/database"
	"github.com/motion-granted/engine/internal/port/messagequeue"
	"github.com/motion-granted/engine/internal/port/modelcall"
	"github.com/motion-granted/engine/internal/port/notifier"
)

// CostService records the per-call cost ledger and evaluates the budget
// gates. Ledger writes are append-only and unlocked; aggregates are
// eventually consistent under concurrency.
type CostService struct {
	store  database.Store
	queue  messagequeue.Queue
	alerts notifier.Notifier
}

// NewCostService creates a new CostService. queue and alerts may be nil.
func NewCostService(store database.Store, queue messagequeue.Queue, alerts notifier.Notifier) *CostService {
	return &CostService{store: store, queue: queue, alerts: alerts}
}

// RecordCallRequest describes one model call to be priced and ledgered.
type RecordCallRequest struct {
	OrderID  string
	Phase    phase.Code
	Model    string
	Tier     tier.ExecutionTier
	Usage    modelcall.Usage
	Source   cost.Source
	Attempt  int
	Revision int
}

// Record prices the call and appends a ledger entry. An invalid tier never
// rejects the write: the entry is recorded under the UNKNOWN sentinel and
// an async alert is raised, because losing cost data is worse than an
// imprecise tag.
func (s *CostService) Record(ctx context.Context, req RecordCallRequest) (*cost.Entry, error) {
	tierTag := string(req.Tier)
	if !req.Tier.Valid() {
		tierTag = cost.TierUnknown
		slog.Warn("cost entry with unknown tier",
			"order_id", req.OrderID,
			"phase", req.Phase,
			"tier", string(req.Tier),
		)
		s.alertAsync(notifier.Notification{
			Title:   "Cost entry recorded under UNKNOWN tier",
			Message: fmt.Sprintf("order %s phase %s: tier %q is not valid", req.OrderID, req.Phase, req.Tier),
			Level:   "warning",
			Source:  "cost.unknown_tier",
		})
	}

	cents, known := cost.ComputeCents(req.Model, req.Usage.InputTokens, req.Usage.OutputTokens)
	entry := &cost.Entry{
		ID:           uuid.NewString(),
		OrderID:      req.OrderID,
		Phase:        req.Phase,
		Model:        req.Model,
		Tier:         tierTag,
		InputTokens:  req.Usage.InputTokens,
		OutputTokens: req.Usage.OutputTokens,
		CostCents:    cents,
		Source:       req.Source,
		Attempt:      req.Attempt,
		Revision:     req.Revision,
	}
	if !known {
		entry.Metadata = map[string]string{"pricing": "fallback_rate"}
	}

	if err := s.store.AppendCostEntry(ctx, entry); err != nil {
		return nil, err
	}

	if s.queue != nil {
		if data, err := json.Marshal(entry); err == nil {
			if err := s.queue.Publish(ctx, messagequeue.SubjectCostRecorded, data); err != nil {
				slog.Error("publish cost event", "order_id", entry.OrderID, "error", err)
			}
		}
	}
	if tierTag == cost.TierUnknown {
		s.publishUnknownTier(ctx, entry)
	}
	return entry, nil
}

// publishUnknownTier emits the alert event alongside the notifier alert,
// so downstream consumers can reconcile mis-tagged spend.
func (s *CostService) publishUnknownTier(ctx context.Context, entry *cost.Entry) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectUnknownTier, data); err != nil {
		slog.Error("publish unknown-tier event", "order_id", entry.OrderID, "error", err)
	}
}

// CheckCycle evaluates the budget gates for one revision cycle. The hard
// cap (x1.5) is the must-not-exceed boundary; callers check it immediately
// after every cost write.
func (s *CostService) CheckCycle(ctx context.Context, orderID string, t tier.ExecutionTier, revision int) (cost.BudgetCheck, error) {
	policy, err := tier.PolicyFor(t)
	if err != nil {
		return cost.BudgetCheck{}, err
	}
	primary, retry, err := s.store.CycleCostByOrder(ctx, orderID, revision)
	if err != nil {
		return cost.BudgetCheck{}, err
	}

	check := cost.CheckBudgetEnforcement(primary, retry, policy.PerCycleCapCents)
	if !check.PrimaryOK {
		// Soft cap: flag, never abort.
		slog.Warn("soft budget cap exceeded",
			"order_id", orderID,
			"revision", revision,
			"primary_cents", primary,
			"cap_cents", policy.PerCycleCapCents,
		)
	}
	return check, nil
}

// CheckOrderCeiling reports whether the order's lifetime spend has reached
// the absolute ceiling (perCycleCap x maxRevisionLoops x 1.5).
func (s *CostService) CheckOrderCeiling(ctx context.Context, orderID string, t tier.ExecutionTier) (exceeded bool, totalCents int64, err error) {
	ceiling, err := tier.OrderCostCeilingCents(t)
	if err != nil {
		return false, 0, err
	}
	sum, err := s.store.CostSummaryByOrder(ctx, orderID)
	if err != nil {
		return false, 0, err
	}
	return sum.TotalCents > ceiling, sum.TotalCents, nil
}

// Summary returns the aggregate ledger view for one order.
func (s *CostService) Summary(ctx context.Context, orderID string) (*cost.Summary, error) {
	return s.store.CostSummaryByOrder(ctx, orderID)
}

// Daily returns the daily spend aggregation over the trailing window.
func (s *CostService) Daily(ctx context.Context, days int) ([]cost.DailyCost, error) {
	return s.store.CostDaily(ctx, days)
}

// alertAsync fires the notification without blocking the cost write path.
func (s *CostService) alertAsync(n notifier.Notification) {
	if s.alerts == nil {
		return
	}
	go func() {
		// Detached from the request context: the alert outlives the write.
		if err := s.alerts.Send(context.Background(), n); err != nil {
			slog.Error("alert send failed", "source", n.Source, "error", err)
		}
	}()
}
