package shipping

import (
	"context"
	"math"
	"strings"
)

const (
	// DefaultRatePerKm is the metered rate in minor units per kilometre.
	DefaultRatePerKm int64 = 3000
	// DefaultFreeThreshold is the order subtotal at and above which
	// shipping is free.
	DefaultFreeThreshold int64 = 500000
)

// DistanceResult is what the external distance service reports for a
// resolved destination.
type DistanceResult struct {
	Km       float64
	Duration string
}

// DistanceClient resolves a destination address to road distance and a
// travel-time estimate.
type DistanceClient interface {
	Distance(ctx context.Context, destination string) (DistanceResult, error)
}

// DistancePolicy meters shipping by road distance, with a free-shipping
// override above a subtotal threshold.
type DistancePolicy struct {
	Client        DistanceClient
	RatePerKm     int64
	FreeThreshold int64
}

func NewDistancePolicy(client DistanceClient) *DistancePolicy {
	return &DistancePolicy{
		Client:        client,
		RatePerKm:     DefaultRatePerKm,
		FreeThreshold: DefaultFreeThreshold,
	}
}

func (p *DistancePolicy) Name() string { return "distance" }

func (p *DistancePolicy) Quote(ctx context.Context, in Input) (Quote, error) {
	dest := strings.TrimSpace(in.Destination)
	if dest == "" {
		return Quote{}, &InvalidAddressError{Reason: "destination address is empty"}
	}

	res, err := p.Client.Distance(ctx, dest)
	if err != nil {
		return Quote{}, &AddressNotFoundError{Destination: dest, Upstream: err.Error()}
	}

	cost := int64(math.Round(res.Km * float64(p.RatePerKm)))

	// The threshold check runs after the distance call on purpose:
	// receipts show distance and ETA even when shipping is free.
	free := in.Subtotal >= p.FreeThreshold
	if free {
		cost = 0
	}

	return Quote{
		Cost:        cost,
		Free:        free,
		Policy:      "distance",
		DistanceKm:  res.Km,
		Duration:    res.Duration,
		Destination: in.Destination,
		Subtotal:    in.Subtotal,
		ItemCount:   in.ItemCount,
	}, nil
}
