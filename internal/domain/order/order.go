// Package order defines the Order entity and its lifecycle state machine.
package order

import (
	"errors"
	"time"

	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/domain/tier"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusIntake                Status = "intake"
	StatusProcessing            Status = "processing"
	StatusAwaitingModelCapacity Status = "awaiting_model_capacity"
	StatusHoldPending           Status = "hold_pending"
	StatusProtocolExit          Status = "protocol_exit"
	StatusUpgradePending        Status = "upgrade_pending"
	StatusPendingConflictReview Status = "pending_conflict_review"
	StatusAwaitingApproval      Status = "awaiting_approval"
	StatusRevisionRequested     Status = "revision_requested"
	StatusCompleted             Status = "completed"
	StatusCancelledUser         Status = "cancelled_user"
	StatusCancelledSystem       Status = "cancelled_system"
	StatusCancelledConflict     Status = "cancelled_conflict"
	StatusRefunded              Status = "refunded"
	StatusDisputed              Status = "disputed"
	StatusFailed                Status = "failed"
)

// ErrTerminalState is returned for any transition attempted out of a
// terminal status.
var ErrTerminalState = errors.New("order is in a terminal state")

// ErrInvalidTransition is returned when the requested transition is not in
// the lifecycle table.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrRevisionsExhausted is returned when a change request arrives after the
// tier's revision loops are spent; the checkpoint must be approved or
// cancelled instead.
var ErrRevisionsExhausted = errors.New("revision loops exhausted")

// terminal statuses admit no outgoing transitions.
var terminal = map[Status]bool{
	StatusCompleted:         true,
	StatusCancelledUser:     true,
	StatusCancelledSystem:   true,
	StatusCancelledConflict: true,
	StatusRefunded:          true,
	StatusFailed:            true,
}

// IsTerminal reports whether s admits no further transitions.
func (s Status) IsTerminal() bool { return terminal[s] }

// transitions is the lifecycle table. Keys are source statuses; values are
// the permitted targets. Anything not listed here is rejected.
var transitions = map[Status][]Status{
	StatusIntake: {
		StatusProcessing, StatusPendingConflictReview, StatusCancelledUser,
	},
	StatusProcessing: {
		StatusAwaitingModelCapacity, StatusHoldPending, StatusProtocolExit,
		StatusPendingConflictReview, StatusUpgradePending,
		StatusAwaitingApproval, StatusCancelledUser, StatusCancelledSystem,
		StatusFailed,
	},
	StatusAwaitingModelCapacity: {
		StatusProcessing, StatusCancelledUser, StatusCancelledSystem,
	},
	StatusHoldPending: {
		StatusProcessing, StatusCancelledUser, StatusCancelledSystem,
	},
	StatusProtocolExit: {
		StatusAwaitingApproval, StatusCancelledSystem,
	},
	StatusUpgradePending: {
		StatusProcessing, StatusCancelledUser,
	},
	StatusPendingConflictReview: {
		StatusProcessing, StatusCancelledConflict,
	},
	StatusAwaitingApproval: {
		StatusCompleted, StatusRevisionRequested, StatusCancelledUser,
		StatusDisputed,
	},
	StatusRevisionRequested: {
		StatusProcessing, StatusCancelledUser, StatusDisputed,
	},
	StatusDisputed: {
		StatusRefunded, StatusProcessing, StatusCancelledSystem,
	},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// Transitions out of a terminal status always fail with ErrTerminalState.
func CanTransition(from, to Status) error {
	if terminal[from] {
		return ErrTerminalState
	}
	for _, t := range transitions[from] {
		if t == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// Order is the root aggregate driven by the workflow engine. It is created
// at intake and mutated by every phase transition and admin action; the
// engine never physically removes it.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	MotionType  string `json:"motion_type"`

	Status        Status `json:"status"`
	StatusVersion int64  `json:"status_version"`

	PricingTier   tier.PricingTier   `json:"pricing_tier"`
	ExecutionTier tier.ExecutionTier `json:"execution_tier"`

	CurrentPhase     phase.Code `json:"current_phase"`
	RevisionCount    int        `json:"revision_count"`
	AmountPaidCents  int64      `json:"amount_paid_cents"`
	CostCapTriggered bool       `json:"cost_cap_triggered"`
	DeliverableReady bool       `json:"deliverable_ready"`
	LegalHold        bool       `json:"legal_hold"`

	HoldReason    string     `json:"hold_reason,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`

	RecipientEmail string `json:"recipient_email,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to open a new order at intake.
type CreateRequest struct {
	OrderNumber     string             `json:"order_number"`
	MotionType      string             `json:"motion_type"`
	MotionTypeTier  tier.ExecutionTier `json:"motion_type_tier"`
	PricingTier     tier.PricingTier   `json:"pricing_tier"`
	AmountPaidCents int64              `json:"amount_paid_cents"`
	RecipientEmail  string             `json:"recipient_email,omitempty"`
}

// TransitionFields carries the optional row mutations applied together with
// a status change, all under the same conditional write.
type TransitionFields struct {
	CurrentPhase     *phase.Code
	RevisionCount    *int
	CostCapTriggered *bool
	DeliverableReady *bool
	HoldReason       *string
	HoldExpiresAt    *time.Time
	ClearHold        bool
}
