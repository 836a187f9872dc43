package shipping

import (
	"context"
	"fmt"
	"math"
)

// Tier is one rung of the quantity ladder. Tiers are listed highest
// threshold first; the first rung containing the item count wins.
type Tier struct {
	MinQty int
	MaxQty int
	Fee    int64
	Label  string
}

var Tiers = []Tier{
	{MinQty: 100, MaxQty: math.MaxInt, Fee: 0, Label: "Gratis Ongkir + Prioritas"},
	{MinQty: 50, MaxQty: 99, Fee: 0, Label: "Gratis Ongkir"},
	{MinQty: 10, MaxQty: 49, Fee: 5000, Label: "Ongkir Hemat"},
	{MinQty: 1, MaxQty: 9, Fee: 10000, Label: "Ongkir Standar"},
}

// TierPolicy prices shipping from the total item count alone. Local and
// synchronous; the only failure mode is bad input.
type TierPolicy struct{}

func (TierPolicy) Name() string { return "quantity_tier" }

func (TierPolicy) Quote(_ context.Context, in Input) (Quote, error) {
	if in.ItemCount < 1 {
		return Quote{}, &InvalidInputError{Reason: fmt.Sprintf("item count must be >= 1, got %d", in.ItemCount)}
	}

	idx := len(Tiers) - 1
	for i, t := range Tiers {
		if in.ItemCount >= t.MinQty && in.ItemCount <= t.MaxQty {
			idx = i
			break
		}
	}
	tier := Tiers[idx]

	// Only suggest the next rung when it is strictly cheaper.
	next := ""
	if idx > 0 {
		upper := Tiers[idx-1]
		if upper.Fee < tier.Fee {
			next = fmt.Sprintf("Tambah %d item untuk %s", upper.MinQty-in.ItemCount, upper.Label)
		}
	}

	return Quote{
		Cost:         tier.Fee,
		Free:         tier.Fee == 0,
		Policy:       "quantity_tier",
		Label:        tier.Label,
		NextTierInfo: next,
		Destination:  in.Destination,
		Subtotal:     in.Subtotal,
		ItemCount:    in.ItemCount,
	}, nil
}
