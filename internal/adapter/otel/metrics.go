package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "engine"

// Metrics holds all engine metric instruments.
type Metrics struct {
	PhasesStarted   metric.Int64Counter
	PhasesCompleted metric.Int64Counter
	PhasesFailed    metric.Int64Counter
	Conflicts       metric.Int64Counter
	BudgetBreaches  metric.Int64Counter
	PhaseDuration   metric.Float64Histogram
	PhaseCostCents  metric.Int64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.PhasesStarted, err = meter.Int64Counter("engine.phases.started",
		metric.WithDescription("Number of phase executions started"))
	if err != nil {
		return nil, err
	}

	m.PhasesCompleted, err = meter.Int64Counter("engine.phases.completed",
		metric.WithDescription("Number of phase executions completed"))
	if err != nil {
		return nil, err
	}

	m.PhasesFailed, err = meter.Int64Counter("engine.phases.failed",
		metric.WithDescription("Number of phase executions failed"))
	if err != nil {
		return nil, err
	}

	m.Conflicts, err = meter.Int64Counter("engine.orders.version_conflicts",
		metric.WithDescription("Number of optimistic-lock conflicts on order writes"))
	if err != nil {
		return nil, err
	}

	m.BudgetBreaches, err = meter.Int64Counter("engine.budget.hard_cap_breaches",
		metric.WithDescription("Number of hard cost-cap breaches forcing protocol exit"))
	if err != nil {
		return nil, err
	}

	m.PhaseDuration, err = meter.Float64Histogram("engine.phase.duration_seconds",
		metric.WithDescription("Phase execution duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.PhaseCostCents, err = meter.Int64Histogram("engine.phase.cost_cents",
		metric.WithDescription("Phase execution cost in cents"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
