package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kitchenprojects/mj-checkout-go/internal/storage"
)

// ValidationError reports malformed caller input. Cart operations never
// clamp or repair input; bugs in calling code should surface in tests.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "cart: " + e.Reason
}

// Store holds the customer's cart: an insertion-ordered set of lines
// with unique item keys. Every mutation is persisted through the
// adapter before it returns, so a restart never loses a cart.
type Store struct {
	mu      sync.Mutex
	name    string
	adapter storage.Adapter
	lines   []Line
}

// NewStore loads any previously persisted cart for name from the
// adapter. A missing or empty record starts an empty cart.
func NewStore(name string, adapter storage.Adapter) (*Store, error) {
	s := &Store{name: name, adapter: adapter}
	data, ok, err := adapter.Get(name)
	if err != nil {
		return nil, fmt.Errorf("load cart %q: %w", name, err)
	}
	if ok && len(data) > 0 {
		if err := json.Unmarshal(data, &s.lines); err != nil {
			return nil, fmt.Errorf("decode cart %q: %w", name, err)
		}
	}
	return s, nil
}

// AddItem merges into an existing line when the (menu id, notes,
// add-on set) configuration matches, otherwise appends a new line.
func (s *Store) AddItem(item MenuItem, quantity int, notes string, addons []AddOn) (Line, error) {
	if quantity < 1 {
		return Line{}, &ValidationError{Reason: fmt.Sprintf("quantity must be >= 1, got %d", quantity)}
	}
	if item.ID == "" {
		return Line{}, &ValidationError{Reason: "menu item id is required"}
	}
	if item.Price < 0 {
		return Line{}, &ValidationError{Reason: "menu item price must not be negative"}
	}
	for _, a := range addons {
		if a.Price < 0 {
			return Line{}, &ValidationError{Reason: "add-on price must not be negative"}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := NewItemKey(item.ID, notes, addons)
	for i := range s.lines {
		if s.lines[i].Key == key {
			s.lines[i].Quantity += quantity
			if err := s.persist(); err != nil {
				s.lines[i].Quantity -= quantity
				return Line{}, err
			}
			return s.lines[i], nil
		}
	}

	line := Line{
		Key:      key,
		Item:     item,
		Quantity: quantity,
		Notes:    notes,
		AddOns:   append([]AddOn(nil), addons...),
	}
	s.lines = append(s.lines, line)
	if err := s.persist(); err != nil {
		s.lines = s.lines[:len(s.lines)-1]
		return Line{}, err
	}
	return line, nil
}

// UpdateQuantity sets the quantity of an existing line. quantity < 1 is
// a caller error: the UI routes zero to RemoveItem instead. An unknown
// key is a no-op, mirroring removal semantics.
func (s *Store) UpdateQuantity(key ItemKey, quantity int) error {
	if quantity < 1 {
		return &ValidationError{Reason: fmt.Sprintf("quantity must be >= 1, got %d; remove the line instead", quantity)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Key == key {
			prev := s.lines[i].Quantity
			s.lines[i].Quantity = quantity
			if err := s.persist(); err != nil {
				s.lines[i].Quantity = prev
				return err
			}
			return nil
		}
	}
	return nil
}

// UpdateNotes changes the notes of an existing line. Notes are part of
// the line identity, so the line is re-keyed; if the new key collides
// with another line the two merge.
func (s *Store) UpdateNotes(key ItemKey, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.lines {
		if s.lines[i].Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	prev := append([]Line(nil), s.lines...)
	line := s.lines[idx]
	line.Notes = notes
	line.Key = NewItemKey(line.Item.ID, notes, line.AddOns)

	merged := false
	for i := range s.lines {
		if i != idx && s.lines[i].Key == line.Key {
			s.lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if merged {
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	} else {
		s.lines[idx] = line
	}

	if err := s.persist(); err != nil {
		s.lines = prev
		return err
	}
	return nil
}

// RemoveItem deletes the matching line. Removing an absent key is not
// an error.
func (s *Store) RemoveItem(key ItemKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Key == key {
			prev := append([]Line(nil), s.lines...)
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			if err := s.persist(); err != nil {
				s.lines = prev
				return err
			}
			return nil
		}
	}
	return nil
}

// Clear empties the cart. Called only on the confirmed-payment path.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.lines
	s.lines = nil
	if err := s.persist(); err != nil {
		s.lines = prev
		return err
	}
	return nil
}

// Total is the order subtotal: sum of (unit price + add-ons) * quantity
// over all lines.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, l := range s.lines {
		sum += l.Total()
	}
	return sum
}

// ItemCount is the total quantity across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns the cart contents in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// persist writes the current lines under the store name. Callers hold
// s.mu and roll their mutation back when it fails.
func (s *Store) persist() error {
	data, err := json.Marshal(s.lines)
	if err != nil {
		return fmt.Errorf("encode cart %q: %w", s.name, err)
	}
	if err := s.adapter.Put(s.name, data); err != nil {
		return fmt.Errorf("persist cart %q: %w", s.name, err)
	}
	return nil
}
