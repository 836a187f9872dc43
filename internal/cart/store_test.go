package cart

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/kitchenprojects/mj-checkout-go/internal/storage"
)

var (
	nasiGoreng = MenuItem{ID: "menu-1", Name: "Nasi Goreng Spesial", Price: 35000}
	esTeh      = MenuItem{ID: "menu-3", Name: "Es Teh Manis", Price: 8000}
	extraTelur = AddOn{ID: "addon-2", Name: "Telur", Price: 5000}
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("test-cart", storage.NewInMemory())
	assert.NoError(t, err)
	return s
}

func TestAddItem_MergesIdenticalConfiguration(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddItem(nasiGoreng, 2, "pedas", []AddOn{extraTelur})
	assert.NoError(t, err)
	_, err = s.AddItem(nasiGoreng, 3, "pedas", []AddOn{extraTelur})
	assert.NoError(t, err)

	lines := s.Lines()
	assert.Equal(t, 1, len(lines))
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, s.ItemCount())
}

func TestAddItem_DistinctConfigurationsGetDistinctLines(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddItem(nasiGoreng, 1, "", nil)
	assert.NoError(t, err)
	_, err = s.AddItem(nasiGoreng, 1, "", []AddOn{extraTelur})
	assert.NoError(t, err)
	_, err = s.AddItem(nasiGoreng, 1, "tanpa bawang", nil)
	assert.NoError(t, err)

	assert.Equal(t, 3, len(s.Lines()))
	assert.Equal(t, 3, s.ItemCount())
}

func TestAddItem_RejectsBadQuantity(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddItem(nasiGoreng, 0, "", nil)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 0, len(s.Lines()))

	_, err = s.AddItem(nasiGoreng, -2, "", nil)
	assert.Error(t, err)
}

func TestTotal_SumOverLines(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddItem(nasiGoreng, 2, "", []AddOn{extraTelur}) // (35000+5000)*2
	assert.NoError(t, err)
	_, err = s.AddItem(esTeh, 3, "", nil) // 8000*3
	assert.NoError(t, err)

	assert.Equal(t, int64(104000), s.Total())
	// Idempotent read.
	assert.Equal(t, int64(104000), s.Total())
}

func TestUpdateQuantity_UnrelatedLineUntouched(t *testing.T) {
	s := newTestStore(t)

	l1, err := s.AddItem(nasiGoreng, 2, "", nil)
	assert.NoError(t, err)
	_, err = s.AddItem(esTeh, 3, "", nil)
	assert.NoError(t, err)

	assert.NoError(t, s.UpdateQuantity(l1.Key, 5))

	lines := s.Lines()
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 3, lines[1].Quantity)
	assert.Equal(t, int64(5*35000+3*8000), s.Total())
}

func TestUpdateQuantity_BelowOneIsCallerError(t *testing.T) {
	s := newTestStore(t)

	l, err := s.AddItem(nasiGoreng, 2, "", nil)
	assert.NoError(t, err)

	err = s.UpdateQuantity(l.Key, 0)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 2, s.Lines()[0].Quantity)
}

func TestRemoveItem_AbsentKeyIsNoop(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddItem(nasiGoreng, 1, "", nil)
	assert.NoError(t, err)

	assert.NoError(t, s.RemoveItem("no-such-key"))
	assert.Equal(t, 1, len(s.Lines()))

	assert.NoError(t, s.RemoveItem(s.Lines()[0].Key))
	assert.True(t, s.IsEmpty())
}

func TestUpdateNotes_RekeysAndMerges(t *testing.T) {
	s := newTestStore(t)

	plain, err := s.AddItem(nasiGoreng, 2, "", nil)
	assert.NoError(t, err)
	noted, err := s.AddItem(nasiGoreng, 1, "pedas", nil)
	assert.NoError(t, err)

	// Dropping the note makes the configs identical; the lines merge.
	assert.NoError(t, s.UpdateNotes(noted.Key, ""))

	lines := s.Lines()
	assert.Equal(t, 1, len(lines))
	assert.Equal(t, plain.Key, lines[0].Key)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestStore_PersistsAcrossReload(t *testing.T) {
	adapter := storage.NewInMemory()

	s1, err := NewStore("mj-kitchen-cart", adapter)
	assert.NoError(t, err)
	_, err = s1.AddItem(nasiGoreng, 2, "pedas", []AddOn{extraTelur})
	assert.NoError(t, err)

	s2, err := NewStore("mj-kitchen-cart", adapter)
	assert.NoError(t, err)
	assert.Equal(t, s1.Lines(), s2.Lines())
	assert.Equal(t, s1.Total(), s2.Total())
}

func TestClear_EmptiesCartAndStorage(t *testing.T) {
	adapter := storage.NewInMemory()

	s, err := NewStore("mj-kitchen-cart", adapter)
	assert.NoError(t, err)
	_, err = s.AddItem(nasiGoreng, 2, "", nil)
	assert.NoError(t, err)

	assert.NoError(t, s.Clear())
	assert.True(t, s.IsEmpty())

	reloaded, err := NewStore("mj-kitchen-cart", adapter)
	assert.NoError(t, err)
	assert.True(t, reloaded.IsEmpty())
}
