package cart

import (
	"sort"
	"strings"
)

type MenuID string

// MenuItem is a catalog entry as served by the menu API. Prices are in
// minor currency units (rupiah has no subunit, so 1 == Rp 1).
type MenuItem struct {
	ID       MenuID `json:"menu_id"`
	Name     string `json:"menu_name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
}

// AddOn is a priced modifier attached to a line. Add-ons come from the
// same catalog as menu items.
type AddOn struct {
	ID    MenuID `json:"menu_id"`
	Name  string `json:"menu_name"`
	Price int64  `json:"price"`
}

// ItemKey identifies a line by its full configuration: the same dish
// ordered plain and ordered with add-ons are distinct lines.
type ItemKey string

// NewItemKey derives the line identity from menu id, notes and the
// add-on id set. Add-on ids are sorted and deduplicated so selection
// order never splits a line.
func NewItemKey(menuID MenuID, notes string, addons []AddOn) ItemKey {
	ids := make([]string, 0, len(addons))
	seen := make(map[MenuID]struct{}, len(addons))
	for _, a := range addons {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		ids = append(ids, string(a.ID))
	}
	sort.Strings(ids)
	return ItemKey(string(menuID) + "|" + notes + "|" + strings.Join(ids, ","))
}

// Line is one cart entry. Quantity is always >= 1; removal deletes the
// line instead of zeroing it. Totals are derived, never stored.
type Line struct {
	Key      ItemKey  `json:"item_key"`
	Item     MenuItem `json:"item"`
	Quantity int      `json:"quantity"`
	Notes    string   `json:"notes,omitempty"`
	AddOns   []AddOn  `json:"addons,omitempty"`
}

func (l Line) AddOnsTotal() int64 {
	var sum int64
	for _, a := range l.AddOns {
		sum += a.Price
	}
	return sum
}

// UnitPrice is the configured price of one unit including add-ons.
func (l Line) UnitPrice() int64 {
	return l.Item.Price + l.AddOnsTotal()
}

func (l Line) Total() int64 {
	return l.UnitPrice() * int64(l.Quantity)
}
