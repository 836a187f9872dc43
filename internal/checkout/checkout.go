package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kitchenprojects/mj-checkout-go/internal/cart"
	"github.com/kitchenprojects/mj-checkout-go/internal/shipping"
	"github.com/kitchenprojects/mj-checkout-go/pkg/contracts"
	"github.com/kitchenprojects/mj-checkout-go/pkg/idempotency"
	"github.com/kitchenprojects/mj-checkout-go/pkg/logging"
)

type Status string

const (
	StatusIdle            Status = "IDLE"
	StatusSubmitting      Status = "SUBMITTING"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusSucceeded       Status = "SUCCEEDED"
	StatusPending         Status = "PENDING"
	StatusFailed          Status = "FAILED"
	StatusCancelled       Status = "CANCELLED"
)

// Terminal reports whether no further payment callback is processed in
// this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusPending, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ValidationError reports a failed submit precondition. No network call
// was made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "checkout: " + e.Reason
}

var (
	ErrEmptyCart  = &ValidationError{Reason: "cart is empty"}
	ErrNoAddress  = &ValidationError{Reason: "no delivery address selected"}
	ErrNoQuote    = &ValidationError{Reason: "no shipping quote computed"}
	ErrStaleQuote = &ValidationError{Reason: "shipping quote is stale for the current cart and destination"}
	ErrBusy       = &ValidationError{Reason: "a checkout is already in progress"}
)

// SubmitError wraps an Order API failure. The cart is preserved and the
// session is back in Idle; the customer may retry.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("checkout: order submission failed: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// OrderItem is one order line sent to the Order API.
type OrderItem struct {
	MenuID   string `json:"menu_id"`
	Name     string `json:"menu_name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Notes    string `json:"notes,omitempty"`
	AddOnIDs string `json:"addon_ids,omitempty"`
}

type OrderRequest struct {
	AddressID      string      `json:"address_id"`
	Items          []OrderItem `json:"items"`
	ShippingCost   int64       `json:"shipping_cost"`
	IdempotencyKey string      `json:"-"`
}

type OrderCreated struct {
	OrderID       string `json:"order_id"`
	PaymentHandle string `json:"payment_handle"`
}

// OrderClient is the narrow contract against the external Order API.
type OrderClient interface {
	CreateOrder(ctx context.Context, req OrderRequest) (OrderCreated, error)
	UpdatePaymentStatus(ctx context.Context, orderID, status string) error
}

// EventSink receives order lifecycle events. Emission is best-effort
// from the orchestrator's point of view.
type EventSink interface {
	Emit(ctx context.Context, evt contracts.Event) error
}

// NopSink drops events; used when no broker is configured.
type NopSink struct{}

func (NopSink) Emit(context.Context, contracts.Event) error { return nil }

// PaymentStatusPaid is the status written back to the Order API after
// the widget confirms funds movement.
const PaymentStatusPaid = "Paid"

// Session is a read-only view of the checkout state.
type Session struct {
	Status        Status          `json:"status"`
	OrderID       string          `json:"order_id,omitempty"`
	PaymentHandle string          `json:"payment_handle,omitempty"`
	AddressID     string          `json:"address_id,omitempty"`
	Destination   string          `json:"destination,omitempty"`
	Quote         *shipping.Quote `json:"quote,omitempty"`
	CartSnapshot  []cart.Line     `json:"cart_snapshot,omitempty"`
}

// Orchestrator drives one cart through order creation and the payment
// widget's callbacks. All state changes go through its mutex: the
// customer session is a single logical actor.
type Orchestrator struct {
	mu sync.Mutex

	cart   *cart.Store
	orders OrderClient
	events EventSink

	service string

	status        Status
	addressID     string
	destination   string
	quote         *shipping.Quote
	orderID       string
	paymentHandle string
	cartSnapshot  []cart.Line
	submitKey     string
}

func NewOrchestrator(service string, store *cart.Store, orders OrderClient, events EventSink) *Orchestrator {
	if events == nil {
		events = NopSink{}
	}
	return &Orchestrator{
		service: service,
		cart:    store,
		orders:  orders,
		events:  events,
		status:  StatusIdle,
	}
}

// SetAddressID selects the delivery address record the order will be
// created against.
func (o *Orchestrator) SetAddressID(addressID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.addressID = addressID
}

// SetDestination selects the shipping destination label. Changing it
// drops any previously computed quote: a quote is only valid for the
// destination it was computed against.
func (o *Orchestrator) SetDestination(destination string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destination != destination {
		o.quote = nil
	}
	o.destination = destination
}

// SetQuote installs a shipping quote for the upcoming submission. The
// quote must have been computed for the current cart subtotal and the
// selected destination; anything else is rejected as stale.
func (o *Orchestrator) SetQuote(q shipping.Quote) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !q.Matches(o.cart.Total(), o.destination) {
		return ErrStaleQuote
	}
	o.quote = &q
	return nil
}

// Submit validates preconditions, creates the order and hands the
// payment handle to the caller for widget initialization. On Order API
// failure the session returns to Idle with the cart intact.
func (o *Orchestrator) Submit(ctx context.Context) (Session, error) {
	o.mu.Lock()
	if err := o.precheckLocked(); err != nil {
		s := o.sessionLocked()
		o.mu.Unlock()
		return s, err
	}

	o.status = StatusSubmitting
	if o.submitKey == "" {
		o.submitKey = idempotency.NewKey()
	}
	req := OrderRequest{
		AddressID:      o.addressID,
		Items:          orderItems(o.cart.Lines()),
		ShippingCost:   o.quote.Cost,
		IdempotencyKey: o.submitKey,
	}
	o.mu.Unlock()

	start := time.Now()
	created, err := o.orders.CreateOrder(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.status = StatusIdle
		logging.Log(logging.Fields{Service: o.service, Step: "submit_order", Status: "failed",
			DurationMS: time.Since(start).Milliseconds(), Message: err.Error()})
		o.emit(ctx, contracts.EventOrderRejected, "", map[string]any{"error": err.Error()})
		return o.sessionLocked(), &SubmitError{Err: err}
	}

	o.status = StatusAwaitingPayment
	o.orderID = created.OrderID
	o.paymentHandle = created.PaymentHandle
	o.cartSnapshot = o.cart.Lines()
	logging.Log(logging.Fields{Service: o.service, OrderID: created.OrderID, Step: "submit_order", Status: "awaiting_payment",
		DurationMS: time.Since(start).Milliseconds()})
	o.emit(ctx, contracts.EventOrderCreated, created.OrderID, map[string]any{
		"shipping_cost": req.ShippingCost,
		"items":         len(req.Items),
	})
	return o.sessionLocked(), nil
}

// precheckLocked validates the submit preconditions. No network call
// has been made when any of these fail.
func (o *Orchestrator) precheckLocked() error {
	if o.status != StatusIdle {
		return ErrBusy
	}
	if o.cart.IsEmpty() {
		return ErrEmptyCart
	}
	if o.addressID == "" {
		return ErrNoAddress
	}
	if o.quote == nil {
		return ErrNoQuote
	}
	if !o.quote.Matches(o.cart.Total(), o.destination) {
		o.quote = nil
		return ErrStaleQuote
	}
	return nil
}

// HandlePaymentEvent applies one widget callback. The first callback
// received in AwaitingPayment decides the terminal state; anything that
// arrives after that is ignored, not re-processed.
func (o *Orchestrator) HandlePaymentEvent(ctx context.Context, ev PaymentEvent) (Status, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusAwaitingPayment {
		logging.Log(logging.Fields{Service: o.service, OrderID: o.orderID, Step: "payment_event",
			Status: "ignored", Message: fmt.Sprintf("%s callback in state %s", ev.Kind, o.status)})
		return o.status, nil
	}

	switch ev.Kind {
	case PaymentSuccess:
		// Best-effort bookkeeping: the provider already confirmed funds
		// movement, so a failed write-back never blocks the success path.
		if err := o.orders.UpdatePaymentStatus(ctx, o.orderID, PaymentStatusPaid); err != nil {
			logging.Log(logging.Fields{Service: o.service, OrderID: o.orderID, Step: "payment_writeback",
				Status: "failed", Message: err.Error()})
		}
		if err := o.cart.Clear(); err != nil {
			logging.Log(logging.Fields{Service: o.service, OrderID: o.orderID, Step: "clear_cart",
				Status: "failed", Message: err.Error()})
		}
		o.status = StatusSucceeded
		o.emit(ctx, contracts.EventPaymentCaptured, o.orderID, nil)
	case PaymentPendingResult:
		// Order exists but is unpaid; keep the cart so a retry is cheap.
		o.status = StatusPending
		o.emit(ctx, contracts.EventPaymentPending, o.orderID, nil)
	case PaymentError:
		o.status = StatusFailed
		o.emit(ctx, contracts.EventPaymentFailed, o.orderID, map[string]any{"reason": ev.Reason})
	case PaymentClosed:
		// Widget dismissed without a definitive result. The unpaid order
		// record that may exist server-side is reconciled externally.
		o.status = StatusCancelled
		o.emit(ctx, contracts.EventPaymentCancelled, o.orderID, nil)
	default:
		return o.status, &ValidationError{Reason: fmt.Sprintf("unknown payment event kind %q", ev.Kind)}
	}

	logging.Log(logging.Fields{Service: o.service, OrderID: o.orderID, Step: "payment_event",
		Status: string(o.status), Message: string(ev.Kind)})
	return o.status, nil
}

// Reset returns a terminal session to Idle for a retry. The cart is
// untouched; the quote survives only while it still matches the cart
// and destination. Resetting an in-flight session is rejected.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusSubmitting || o.status == StatusAwaitingPayment {
		return errors.New("checkout: cannot reset an in-flight session")
	}

	o.status = StatusIdle
	o.orderID = ""
	o.paymentHandle = ""
	o.cartSnapshot = nil
	o.submitKey = ""
	if o.quote != nil && !o.quote.Matches(o.cart.Total(), o.destination) {
		o.quote = nil
	}
	return nil
}

// Session returns a snapshot of the current state.
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionLocked()
}

func (o *Orchestrator) sessionLocked() Session {
	s := Session{
		Status:        o.status,
		OrderID:       o.orderID,
		PaymentHandle: o.paymentHandle,
		AddressID:     o.addressID,
		Destination:   o.destination,
	}
	if o.quote != nil {
		q := *o.quote
		s.Quote = &q
	}
	if o.cartSnapshot != nil {
		s.CartSnapshot = append([]cart.Line(nil), o.cartSnapshot...)
	}
	return s
}

func (o *Orchestrator) emit(ctx context.Context, eventType, orderID string, payload map[string]any) {
	evt := contracts.Event{
		EventID:   uuid.NewString(),
		OrderID:   orderID,
		CreatedAt: time.Now().UTC(),
		Type:      eventType,
		Payload:   payload,
	}
	if err := o.events.Emit(ctx, evt); err != nil {
		logging.Log(logging.Fields{Service: o.service, OrderID: orderID, EventID: evt.EventID,
			Step: "emit_event", Status: "failed", Message: err.Error()})
	}
}

func orderItems(lines []cart.Line) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		ids := ""
		for i, a := range l.AddOns {
			if i > 0 {
				ids += ","
			}
			ids += string(a.ID)
		}
		items = append(items, OrderItem{
			MenuID:   string(l.Item.ID),
			Name:     l.Item.Name,
			Quantity: l.Quantity,
			Price:    l.UnitPrice(),
			Notes:    l.Notes,
			AddOnIDs: ids,
		})
	}
	return items
}
