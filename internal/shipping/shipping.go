package shipping

import (
	"context"
	"fmt"
)

// Input is what a quote is computed against. A quote is only valid for
// the exact input it carries; callers must recompute when the cart
// subtotal or the destination changes.
type Input struct {
	ItemCount   int
	Subtotal    int64
	Destination string
}

// Quote is a computed shipping cost, tagged with the input it binds to
// so that a stale response can never be silently applied to a changed
// cart or address.
type Quote struct {
	Cost         int64   `json:"cost"`
	Free         bool    `json:"free"`
	Policy       string  `json:"policy"`
	Label        string  `json:"label,omitempty"`
	NextTierInfo string  `json:"next_tier_info,omitempty"`
	DistanceKm   float64 `json:"distance_km,omitempty"`
	Duration     string  `json:"duration,omitempty"`

	// Binding inputs.
	Destination string `json:"destination,omitempty"`
	Subtotal    int64  `json:"subtotal"`
	ItemCount   int    `json:"item_count"`
}

// Matches reports whether the quote was computed for the given subtotal
// and destination.
func (q Quote) Matches(subtotal int64, destination string) bool {
	return q.Subtotal == subtotal && q.Destination == destination
}

// Policy computes a shipping quote for an order. Implementations are
// chosen by service configuration, never by UI branching.
type Policy interface {
	Name() string
	Quote(ctx context.Context, in Input) (Quote, error)
}

// InvalidInputError reports a malformed quote request (bad item count
// or subtotal). Always local.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "shipping: " + e.Reason
}

// InvalidAddressError: the destination failed local validation; no
// external call was made.
type InvalidAddressError struct {
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return "shipping: invalid address: " + e.Reason
}

// AddressNotFoundError: the distance service rejected the destination.
// The upstream message is preserved for display; no partial or
// estimated cost is ever returned alongside it.
type AddressNotFoundError struct {
	Destination string
	Upstream    string
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("shipping: address %q not found: %s", e.Destination, e.Upstream)
}

// FormatFee renders a fee for display: free shipping reads "Gratis".
func FormatFee(fee int64) string {
	if fee == 0 {
		return "Gratis"
	}
	return fmt.Sprintf("Rp %d", fee)
}
