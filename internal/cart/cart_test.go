package cart

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewItemKey_AddOnOrderIrrelevant(t *testing.T) {
	a := AddOn{ID: "addon-1", Name: "Extra Sambal", Price: 2000}
	b := AddOn{ID: "addon-2", Name: "Telur", Price: 5000}

	k1 := NewItemKey("menu-1", "pedas", []AddOn{a, b})
	k2 := NewItemKey("menu-1", "pedas", []AddOn{b, a})
	assert.Equal(t, k1, k2)
}

func TestNewItemKey_DuplicateAddOnsCollapse(t *testing.T) {
	a := AddOn{ID: "addon-1", Price: 2000}
	k1 := NewItemKey("menu-1", "", []AddOn{a, a})
	k2 := NewItemKey("menu-1", "", []AddOn{a})
	assert.Equal(t, k1, k2)
}

func TestNewItemKey_DistinctConfigurations(t *testing.T) {
	a := AddOn{ID: "addon-1", Price: 2000}

	plain := NewItemKey("menu-1", "", nil)
	noted := NewItemKey("menu-1", "tanpa bawang", nil)
	addon := NewItemKey("menu-1", "", []AddOn{a})
	other := NewItemKey("menu-2", "", nil)

	assert.NotEqual(t, plain, noted)
	assert.NotEqual(t, plain, addon)
	assert.NotEqual(t, noted, addon)
	assert.NotEqual(t, plain, other)
}

func TestLine_DerivedTotals(t *testing.T) {
	l := Line{
		Item:     MenuItem{ID: "menu-1", Name: "Nasi Goreng", Price: 35000},
		Quantity: 3,
		AddOns: []AddOn{
			{ID: "addon-1", Price: 2000},
			{ID: "addon-2", Price: 5000},
		},
	}
	assert.Equal(t, int64(7000), l.AddOnsTotal())
	assert.Equal(t, int64(42000), l.UnitPrice())
	assert.Equal(t, int64(126000), l.Total())
}
