package shipping

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTierPolicy_Ladder(t *testing.T) {
	cases := []struct {
		name     string
		qty      int
		wantFee  int64
		wantFree bool
		label    string
	}{
		{"standard", 1, 10000, false, "Ongkir Standar"},
		{"standard upper", 9, 10000, false, "Ongkir Standar"},
		{"discounted lower", 10, 5000, false, "Ongkir Hemat"},
		{"discounted upper", 49, 5000, false, "Ongkir Hemat"},
		{"free lower", 50, 0, true, "Gratis Ongkir"},
		{"free upper", 99, 0, true, "Gratis Ongkir"},
		{"priority lower", 100, 0, true, "Gratis Ongkir + Prioritas"},
		{"priority", 150, 0, true, "Gratis Ongkir + Prioritas"},
	}

	policy := TierPolicy{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := policy.Quote(context.Background(), Input{ItemCount: tc.qty, Subtotal: 100000})
			assert.NoError(t, err)
			assert.Equal(t, tc.wantFee, q.Cost)
			assert.Equal(t, tc.wantFree, q.Free)
			assert.Equal(t, tc.label, q.Label)
			assert.Equal(t, "quantity_tier", q.Policy)
		})
	}
}

func TestTierPolicy_EveryQuantityMapsToExactlyOneTier(t *testing.T) {
	for qty := 1; qty <= 200; qty++ {
		matches := 0
		for _, tier := range Tiers {
			if qty >= tier.MinQty && qty <= tier.MaxQty {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "qty %d matched %d tiers", qty, matches)
	}
}

func TestTierPolicy_NextTierInfo(t *testing.T) {
	policy := TierPolicy{}

	// 9 items: 1 more reaches the discounted tier.
	q, err := policy.Quote(context.Background(), Input{ItemCount: 9})
	assert.NoError(t, err)
	assert.Equal(t, "Tambah 1 item untuk Ongkir Hemat", q.NextTierInfo)

	// 40 items: 10 more reach free shipping.
	q, err = policy.Quote(context.Background(), Input{ItemCount: 40})
	assert.NoError(t, err)
	assert.Equal(t, "Tambah 10 item untuk Gratis Ongkir", q.NextTierInfo)

	// 60 items: the rung above costs the same (both free), so no hint.
	q, err = policy.Quote(context.Background(), Input{ItemCount: 60})
	assert.NoError(t, err)
	assert.Equal(t, "", q.NextTierInfo)

	// Top tier: nothing above it.
	q, err = policy.Quote(context.Background(), Input{ItemCount: 150})
	assert.NoError(t, err)
	assert.Equal(t, "", q.NextTierInfo)
}

func TestTierPolicy_BadItemCount(t *testing.T) {
	policy := TierPolicy{}
	_, err := policy.Quote(context.Background(), Input{ItemCount: 0})
	assert.Error(t, err)
}

func TestTierPolicy_QuoteCarriesInputs(t *testing.T) {
	policy := TierPolicy{}
	q, err := policy.Quote(context.Background(), Input{ItemCount: 5, Subtotal: 123000, Destination: "Jakarta"})
	assert.NoError(t, err)
	assert.True(t, q.Matches(123000, "Jakarta"))
	assert.False(t, q.Matches(124000, "Jakarta"))
	assert.False(t, q.Matches(123000, "Bandung"))
}
