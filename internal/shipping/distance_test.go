package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

type fakeDistanceClient struct {
	result DistanceResult
	err    error
	calls  int
}

func (f *fakeDistanceClient) Distance(_ context.Context, _ string) (DistanceResult, error) {
	f.calls++
	if f.err != nil {
		return DistanceResult{}, f.err
	}
	return f.result, nil
}

func TestDistancePolicy_MeteredCost(t *testing.T) {
	client := &fakeDistanceClient{result: DistanceResult{Km: 20, Duration: "35 mins"}}
	policy := NewDistancePolicy(client)

	q, err := policy.Quote(context.Background(), Input{Subtotal: 100000, Destination: "Jl. Sudirman No. 123"})
	assert.NoError(t, err)
	assert.Equal(t, int64(60000), q.Cost)
	assert.False(t, q.Free)
	assert.Equal(t, 20.0, q.DistanceKm)
	assert.Equal(t, "35 mins", q.Duration)
	assert.Equal(t, "distance", q.Policy)
}

func TestDistancePolicy_FreeAboveThresholdStillReportsDistance(t *testing.T) {
	client := &fakeDistanceClient{result: DistanceResult{Km: 20, Duration: "35 mins"}}
	policy := NewDistancePolicy(client)

	q, err := policy.Quote(context.Background(), Input{Subtotal: 600000, Destination: "Jl. Sudirman No. 123"})
	assert.NoError(t, err)
	assert.True(t, q.Free)
	assert.Equal(t, int64(0), q.Cost)
	// Receipts show distance and ETA even when shipping is free.
	assert.Equal(t, 20.0, q.DistanceKm)
	assert.Equal(t, "35 mins", q.Duration)
	assert.Equal(t, 1, client.calls)
}

func TestDistancePolicy_FractionalKmRounded(t *testing.T) {
	client := &fakeDistanceClient{result: DistanceResult{Km: 12.4}}
	policy := NewDistancePolicy(client)

	q, err := policy.Quote(context.Background(), Input{Subtotal: 100000, Destination: "Jl. Merdeka 1"})
	assert.NoError(t, err)
	assert.Equal(t, int64(37200), q.Cost)
}

func TestDistancePolicy_EmptyAddressNoCall(t *testing.T) {
	client := &fakeDistanceClient{result: DistanceResult{Km: 5}}
	policy := NewDistancePolicy(client)

	_, err := policy.Quote(context.Background(), Input{Subtotal: 100000, Destination: "   "})
	var invalid *InvalidAddressError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, 0, client.calls)
}

func TestDistancePolicy_UpstreamFailureWithholdsQuote(t *testing.T) {
	client := &fakeDistanceClient{err: errors.New("no route found for address")}
	policy := NewDistancePolicy(client)

	_, err := policy.Quote(context.Background(), Input{Subtotal: 600000, Destination: "Jl. Tidak Ada"})
	var notFound *AddressNotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, "no route found for address", notFound.Upstream)
}

func TestFormatFee(t *testing.T) {
	assert.Equal(t, "Gratis", FormatFee(0))
	assert.Equal(t, "Rp 60000", FormatFee(60000))
}
