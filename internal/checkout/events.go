package checkout

// PaymentEventKind tags a payment widget callback. The widget fires
// exactly one of these per attempt; the orchestrator owns idempotency
// when it does not.
type PaymentEventKind string

const (
	PaymentSuccess       PaymentEventKind = "success"
	PaymentPendingResult PaymentEventKind = "pending"
	PaymentError         PaymentEventKind = "error"
	PaymentClosed        PaymentEventKind = "close"
)

// PaymentEvent is the tagged variant delivered into the state machine
// by the widget's callback surface.
type PaymentEvent struct {
	Kind    PaymentEventKind `json:"result"`
	OrderID string           `json:"order_id,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}
