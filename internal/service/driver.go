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
	"github.com/motion-granted/engine/internal/domain/cost"
	"github.com/motion-granted/engine/internal/domain/order"
	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/domain/tier"
	"github.com/motion-granted/engine/internal/port/database"
	"github.com/motion-granted/engine/internal/port/messagequeue"
	"github.com/motion-granted/engine/internal/port/modelcall"
	"github.com/motion-granted/engine/internal/resilience"
)

// PhaseDriver executes one pipeline phase at a time for a durable external
// scheduler. Delivery is at-least-once, so every step is written to be
// idempotent: a redelivered job for an already-completed phase advances the
// order without a second model call, and all order writes go through the
// conditional-update path.
type PhaseDriver struct {
	store     database.Store
	caller    modelcall.Caller
	queue     messagequeue.Queue
	orders    *OrderService
	costs     *CostService
	citations *CitationService
	registry  *phase.Registry
	metrics   *engotel.Metrics
}

// NewPhaseDriver wires the driver. metrics may be nil.
func NewPhaseDriver(
	store database.Store,
	caller modelcall.Caller,
	queue messagequeue.Queue,
	orders *OrderService,
	costs *CostService,
	citations *CitationService,
	registry *phase.Registry,
	metrics *engotel.Metrics,
) *PhaseDriver {
	return &PhaseDriver{
		store:     store,
		caller:    caller,
		queue:     queue,
		orders:    orders,
		costs:     costs,
		citations: citations,
		registry:  registry,
		metrics:   metrics,
	}
}

// phaseJob is the payload of one scheduled phase dispatch.
type phaseJob struct {
	OrderID         string     `json:"order_id"`
	Phase           phase.Code `json:"phase"`
	ExpectedVersion int64      `json:"expected_version"`
}

// Schedule enqueues a phase dispatch job for durable execution.
func (d *PhaseDriver) Schedule(ctx context.Context, orderID string, p phase.Code, expectedVersion int64) error {
	data, err := json.Marshal(phaseJob{OrderID: orderID, Phase: p, ExpectedVersion: expectedVersion})
	if err != nil {
		return err
	}
	return d.queue.Publish(ctx, messagequeue.SubjectPhaseDue, data)
}

// Kickoff moves a paid intake order into processing and schedules its
// first phase.
func (d *PhaseDriver) Kickoff(ctx context.Context, orderID string, expectedVersion int64) error {
	o, err := d.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := d.orders.Transition(ctx, orderID, expectedVersion, order.StatusProcessing, order.TransitionFields{}); err != nil {
		return err
	}
	return d.Schedule(ctx, orderID, o.CurrentPhase, expectedVersion+1)
}

// StartPhaseSubscriber consumes phase dispatch jobs from the queue. A
// conflict means another delivery already applied the step and is simply
// dropped; other failures are redelivered.
func (d *PhaseDriver) StartPhaseSubscriber(ctx context.Context) (func(), error) {
	return d.queue.Subscribe(ctx, messagequeue.SubjectPhaseDue, func(subject string, data []byte) error {
		var job phaseJob
		if err := json.Unmarshal(data, &job); err != nil {
			slog.Error("phase job: malformed payload dropped", "error", err)
			return nil
		}
		err := d.ExecutePhase(ctx, job.OrderID, job.Phase, job.ExpectedVersion)
		if errors.Is(err, domain.ErrConflict) {
			slog.Warn("phase job superseded", "order_id", job.OrderID, "phase", job.Phase)
			return nil
		}
		return err
	})
}

// ExecutePhase runs phase p for the order, presenting expectedVersion on
// every write. The model call itself is never preempted: once dispatched it
// runs to completion and its cost is recorded, with cancellation honored
// only at the phase boundary before dispatch.
func (d *PhaseDriver) ExecutePhase(ctx context.Context, orderID string, p phase.Code, expectedVersion int64) error {
	o, err := d.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != order.StatusProcessing {
		// Stale job from a previous delivery; the lifecycle moved on.
		slog.Info("phase job skipped, order not processing",
			"order_id", orderID, "phase", p, "status", o.Status)
		return nil
	}
	if o.CurrentPhase != p {
		slog.Info("phase job skipped, pipeline moved on",
			"order_id", orderID, "phase", p, "current_phase", o.CurrentPhase)
		return nil
	}

	// At-least-once redelivery: a completed execution means the model call
	// already happened and only the advance may have been lost.
	latest, err := d.store.LatestPhaseExecution(ctx, orderID, p)
	if err != nil {
		return err
	}
	if latest != nil && latest.Status == phase.ExecCompleted {
		return d.advance(ctx, o, p, expectedVersion)
	}
	// A prior failed or interrupted attempt makes this a retry; a prior
	// requires_review attempt starts a fresh cycle on the primary path.
	attempt := 1
	if latest != nil && latest.Status != phase.ExecRequiresReview {
		attempt = 2
	}

	route, err := d.registry.Lookup(p, o.ExecutionTier)
	if err != nil {
		// Unknown phase/tier is a configuration fault, never defaulted.
		return d.failPhase(ctx, o, p, expectedVersion, err)
	}

	if exit, err := d.preDispatchGates(ctx, o); err != nil {
		return err
	} else if exit != "" {
		return d.orders.ProtocolExit(ctx, o, expectedVersion, exit)
	}

	ctx, span := engotel.StartPhaseSpan(ctx, o.ID, string(p), string(o.ExecutionTier))
	defer span.End()

	exec := &phase.Execution{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		Phase:     p,
		Status:    phase.ExecInProgress,
		StartedAt: time.Now().UTC(),
	}
	if err := d.store.CreatePhaseExecution(ctx, exec); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.PhasesStarted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("phase", string(p)),
			attribute.String("tier", string(o.ExecutionTier)),
		))
	}

	started := time.Now()
	result, callErr := d.dispatch(ctx, o, p, route)
	elapsed := time.Since(started).Seconds()
	if d.metrics != nil {
		d.metrics.PhaseDuration.Record(ctx, elapsed, metric.WithAttributes(
			attribute.String("phase", string(p)),
		))
	}

	if callErr != nil {
		if errors.Is(callErr, resilience.ErrCircuitOpen) {
			// Capacity problem, not an order problem: park and retry later.
			if err := d.store.CompletePhaseExecution(ctx, exec.ID, phase.ExecBlocked, nil, callErr.Error()); err != nil {
				return err
			}
			return d.orders.Transition(ctx, o.ID, expectedVersion,
				order.StatusAwaitingModelCapacity, order.TransitionFields{})
		}
		if err := d.store.CompletePhaseExecution(ctx, exec.ID, phase.ExecFailed, nil, callErr.Error()); err != nil {
			return err
		}
		if d.metrics != nil {
			d.metrics.PhasesFailed.Add(ctx, 1, metric.WithAttributes(
				attribute.String("phase", string(p)),
			))
		}
		return fmt.Errorf("phase %s order %s: %w", p, o.ID, callErr)
	}

	// Cost is recorded after every completed call, success or not, and the
	// hard cap is evaluated immediately afterwards.
	source := cost.SourcePrimary
	if attempt > 1 {
		source = cost.SourceRetry
	}
	entry, err := d.costs.Record(ctx, RecordCallRequest{
		OrderID:  o.ID,
		Phase:    p,
		Model:    route.Model,
		Tier:     o.ExecutionTier,
		Usage:    result.Usage,
		Source:   source,
		Attempt:  attempt,
		Revision: o.RevisionCount,
	})
	if err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.PhaseCostCents.Record(ctx, entry.CostCents, metric.WithAttributes(
			attribute.String("phase", string(p)),
			attribute.String("model", route.Model),
		))
	}

	if exit, err := d.postWriteGates(ctx, o); err != nil {
		return err
	} else if exit != "" {
		if err := d.store.CompletePhaseExecution(ctx, exec.ID, phase.ExecBlocked, result.QualityScore, exit); err != nil {
			return err
		}
		if d.metrics != nil {
			d.metrics.BudgetBreaches.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tier", string(o.ExecutionTier)),
			))
		}
		return d.orders.ProtocolExit(ctx, o, expectedVersion, exit)
	}

	if p.IsDrafting() {
		// Advisory: extraction problems never fail the phase.
		if _, err := d.citations.Extract(ctx, o.ID, p, result.Output); err != nil {
			slog.Error("citation extraction failed",
				"order_id", o.ID, "phase", p, "error", err)
		}
	}

	if below, score := belowQualityThreshold(result); below {
		return d.handleLowQuality(ctx, o, p, expectedVersion, exec.ID, score)
	}

	if err := d.store.CompletePhaseExecution(ctx, exec.ID, phase.ExecCompleted, result.QualityScore, ""); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.PhasesCompleted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("phase", string(p)),
		))
	}

	return d.advance(ctx, o, p, expectedVersion)
}

// dispatch sends the model call built from the routing entry. The breaker
// lives inside the caller adapter; failures surface here unwrapped.
func (d *PhaseDriver) dispatch(ctx context.Context, o *order.Order, p phase.Code, route phase.RouteConfig) (*modelcall.Result, error) {
	ctx, span := engotel.StartModelCallSpan(ctx, route.Model, route.MaxTokens)
	defer span.End()

	return d.caller.Call(ctx, modelcall.Request{
		Model:           route.Model,
		ReasoningBudget: route.ReasoningBudget,
		MaxTokens:       route.MaxTokens,
		Prompt:          buildPrompt(o, p),
	})
}

// buildPrompt assembles the phase instruction. The gateway resolves the
// full template server-side; the engine sends only the routing header.
func buildPrompt(o *order.Order, p phase.Code) string {
	return fmt.Sprintf("phase=%s order=%s motion_type=%s revision=%d",
		p, o.OrderNumber, o.MotionType, o.RevisionCount)
}

// preDispatchGates checks the hard cycle cap and the order ceiling before
// spending anything. A non-empty reason means the order must protocol-exit.
func (d *PhaseDriver) preDispatchGates(ctx context.Context, o *order.Order) (reason string, err error) {
	check, err := d.costs.CheckCycle(ctx, o.ID, o.ExecutionTier, o.RevisionCount)
	if err != nil {
		return "", err
	}
	if !check.TotalOK {
		return fmt.Sprintf("cycle hard cap reached: %d of %d cents",
			check.PrimaryCents+check.RetryCents, check.HardCapCents), nil
	}

	exceeded, total, err := d.costs.CheckOrderCeiling(ctx, o.ID, o.ExecutionTier)
	if err != nil {
		return "", err
	}
	if exceeded {
		ceiling, _ := tier.OrderCostCeilingCents(o.ExecutionTier)
		return fmt.Sprintf("order cost ceiling reached: %d of %d cents", total, ceiling), nil
	}
	return "", nil
}

// postWriteGates re-evaluates the same boundaries immediately after a cost
// write lands.
func (d *PhaseDriver) postWriteGates(ctx context.Context, o *order.Order) (reason string, err error) {
	check, err := d.costs.CheckCycle(ctx, o.ID, o.ExecutionTier, o.RevisionCount)
	if err != nil {
		return "", err
	}
	if !check.TotalOK {
		return fmt.Sprintf("cycle hard cap breached: %d of %d cents",
			check.PrimaryCents+check.RetryCents, check.HardCapCents), nil
	}
	exceeded, total, err := d.costs.CheckOrderCeiling(ctx, o.ID, o.ExecutionTier)
	if err != nil {
		return "", err
	}
	if exceeded {
		ceiling, _ := tier.OrderCostCeilingCents(o.ExecutionTier)
		return fmt.Sprintf("order cost ceiling breached: %d of %d cents", total, ceiling), nil
	}
	return "", nil
}

func belowQualityThreshold(r *modelcall.Result) (bool, float64) {
	if r.QualityScore == nil {
		return false, 0
	}
	return *r.QualityScore < tier.QualityThreshold, *r.QualityScore
}

// handleLowQuality routes a sub-threshold drafting result into an internal
// revision cycle when loops remain, or out through the exit protocol when
// they are spent. Internal loops consume the same revision budget as
// customer change requests.
func (d *PhaseDriver) handleLowQuality(ctx context.Context, o *order.Order, p phase.Code, expectedVersion int64, execID string, score float64) error {
	if err := d.store.CompletePhaseExecution(ctx, execID, phase.ExecRequiresReview, &score, "quality below threshold"); err != nil {
		return err
	}

	policy, err := tier.PolicyFor(o.ExecutionTier)
	if err != nil {
		return err
	}
	if o.RevisionCount >= policy.MaxRevisionLoops {
		return d.orders.ProtocolExit(ctx, o, expectedVersion,
			fmt.Sprintf("quality %0.2f below threshold with revision loops exhausted", score))
	}

	// The phase stays current and re-runs under the next cycle's budget.
	count := o.RevisionCount + 1
	slog.Warn("quality below threshold, entering revision cycle",
		"order_id", o.ID, "phase", p, "score", score, "revision", count)
	if err := d.store.UpdateOrderFields(ctx, o.ID, expectedVersion, order.TransitionFields{
		RevisionCount: &count,
	}); err != nil {
		return err
	}
	return d.Schedule(ctx, o.ID, p, expectedVersion+1)
}

// advance moves the order to the next pipeline phase, or through delivery
// to the human-approval checkpoint when the pipeline is done.
func (d *PhaseDriver) advance(ctx context.Context, o *order.Order, p phase.Code, expectedVersion int64) error {
	next, ok := p.Next()
	if !ok {
		ready := true
		if err := d.orders.Transition(ctx, o.ID, expectedVersion,
			order.StatusAwaitingApproval, order.TransitionFields{
				DeliverableReady: &ready,
			}); err != nil {
			return err
		}
		d.orders.publishEvent(ctx, messagequeue.SubjectDocumentsReady, orderEvent{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			MotionType:  o.MotionType,
			Recipient:   o.RecipientEmail,
			Phase:       string(p),
		})
		slog.Info("pipeline complete, awaiting approval", "order_id", o.ID)
		return nil
	}

	if err := d.store.UpdateOrderFields(ctx, o.ID, expectedVersion, order.TransitionFields{
		CurrentPhase: &next,
	}); err != nil {
		return err
	}
	return d.Schedule(ctx, o.ID, next, expectedVersion+1)
}

// failPhase records the fault and moves the order to failed for operator
// attention.
func (d *PhaseDriver) failPhase(ctx context.Context, o *order.Order, p phase.Code, expectedVersion int64, cause error) error {
	exec := &phase.Execution{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		Phase:     p,
		Status:    phase.ExecFailed,
		StartedAt: time.Now().UTC(),
	}
	if err := d.store.CreatePhaseExecution(ctx, exec); err != nil {
		return err
	}
	if err := d.store.CompletePhaseExecution(ctx, exec.ID, phase.ExecFailed, nil, cause.Error()); err != nil {
		return err
	}
	if err := d.orders.Transition(ctx, o.ID, expectedVersion, order.StatusFailed, order.TransitionFields{}); err != nil {
		return err
	}
	slog.Error("phase failed", "order_id", o.ID, "phase", p, "error", cause)
	return cause
}
