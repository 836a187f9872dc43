package contracts

import "time"

// Event is the envelope published to the notifications topic for every
// order lifecycle transition.
type Event struct {
	EventID   string         `json:"event_id"`
	OrderID   string         `json:"order_id"`
	CreatedAt time.Time      `json:"created_at"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
}

const (
	EventOrderCreated        = "order.created"
	EventOrderRejected       = "order.rejected"
	EventPaymentCaptured     = "payment.captured"
	EventPaymentPending      = "payment.pending"
	EventPaymentFailed       = "payment.failed"
	EventPaymentCancelled    = "payment.cancelled"
	EventNotificationEmitted = "notification.emitted"
)
