package order

import (
	"errors"
	"testing"
)

var allStatuses = []Status{
	StatusIntake, StatusProcessing, StatusAwaitingModelCapacity,
	StatusHoldPending, StatusProtocolExit, StatusUpgradePending,
	StatusPendingConflictReview, StatusAwaitingApproval,
	StatusRevisionRequested, StatusCompleted, StatusCancelledUser,
	StatusCancelledSystem, StatusCancelledConflict, StatusRefunded,
	StatusDisputed, StatusFailed,
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	terminals := []Status{
		StatusCompleted, StatusCancelledUser, StatusCancelledSystem,
		StatusCancelledConflict, StatusRefunded, StatusFailed,
	}
	for _, from := range terminals {
		for _, to := range allStatuses {
			if err := CanTransition(from, to); !errors.Is(err, ErrTerminalState) {
				t.Errorf("%s -> %s: expected ErrTerminalState, got %v", from, to, err)
			}
		}
	}
}

func TestDisputedIsNotTerminal(t *testing.T) {
	if StatusDisputed.IsTerminal() {
		t.Error("disputed must stay open for resolution")
	}
	if err := CanTransition(StatusDisputed, StatusRefunded); err != nil {
		t.Errorf("disputed -> refunded: expected allowed, got %v", err)
	}
	if err := CanTransition(StatusDisputed, StatusProcessing); err != nil {
		t.Errorf("disputed -> processing: expected allowed, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusIntake, StatusProcessing},
		{StatusIntake, StatusPendingConflictReview},
		{StatusProcessing, StatusHoldPending},
		{StatusProcessing, StatusProtocolExit},
		{StatusProcessing, StatusAwaitingModelCapacity},
		{StatusProcessing, StatusAwaitingApproval},
		{StatusHoldPending, StatusProcessing},
		{StatusHoldPending, StatusCancelledSystem},
		{StatusProtocolExit, StatusAwaitingApproval},
		{StatusProtocolExit, StatusCancelledSystem},
		{StatusAwaitingApproval, StatusCompleted},
		{StatusAwaitingApproval, StatusRevisionRequested},
		{StatusAwaitingApproval, StatusDisputed},
		{StatusRevisionRequested, StatusProcessing},
		{StatusPendingConflictReview, StatusCancelledConflict},
		{StatusAwaitingModelCapacity, StatusProcessing},
	}
	for _, tt := range allowed {
		if err := CanTransition(tt.from, tt.to); err != nil {
			t.Errorf("%s -> %s: expected allowed, got %v", tt.from, tt.to, err)
		}
	}

	rejected := []struct{ from, to Status }{
		{StatusIntake, StatusAwaitingApproval},
		{StatusIntake, StatusRefunded},
		{StatusProcessing, StatusIntake},
		{StatusProcessing, StatusRefunded},
		{StatusAwaitingApproval, StatusProtocolExit},
		{StatusHoldPending, StatusAwaitingApproval},
		{StatusProtocolExit, StatusProcessing},
		{StatusRevisionRequested, StatusCompleted},
	}
	for _, tt := range rejected {
		if err := CanTransition(tt.from, tt.to); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
	}
}

func TestEveryStatusIsReachable(t *testing.T) {
	reachable := map[Status]bool{StatusIntake: true}
	for range allStatuses {
		for from, targets := range transitions {
			if !reachable[from] {
				continue
			}
			for _, to := range targets {
				reachable[to] = true
			}
		}
	}
	for _, s := range allStatuses {
		if !reachable[s] {
			t.Errorf("status %s is unreachable from intake", s)
		}
	}
}
