// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Close shuts down the queue connection.
	Close() error
}

// Subject constants for engine events. Rendering and delivery of the
// resulting emails/documents happen in external collaborators; the engine
// only emits the structured event.
const (
	// SubjectPhaseDue carries scheduled phase dispatch jobs; the queue is
	// the engine's durable scheduler and delivery is at-least-once.
	SubjectPhaseDue = "orders.phase_due"

	SubjectDocumentsReady = "orders.documents_ready"
	SubjectHoldCreated    = "orders.hold_created"
	SubjectHoldEscalated  = "orders.hold_escalated"
	SubjectProtocolExit   = "orders.protocol_exit"
	SubjectOrderCancelled = "orders.cancelled"
	SubjectOrderRefund    = "orders.refund_decided"
	SubjectCostRecorded   = "costs.recorded"
	SubjectUnknownTier    = "alerts.unknown_tier"
)
