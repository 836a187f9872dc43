package storage

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestInMemory_PutGetDelete(t *testing.T) {
	m := NewInMemory()

	_, ok, err := m.Get("mj-kitchen-cart")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, m.Put("mj-kitchen-cart", []byte(`[{"quantity":2}]`)))
	v, ok, err := m.Get("mj-kitchen-cart")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"quantity":2}]`, string(v))

	assert.NoError(t, m.Put("mj-kitchen-cart", []byte(`[]`)))
	v, ok, err = m.Get("mj-kitchen-cart")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))

	assert.NoError(t, m.Delete("mj-kitchen-cart"))
	_, ok, err = m.Get("mj-kitchen-cart")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemory_ValueIsIsolated(t *testing.T) {
	m := NewInMemory()

	buf := []byte("original")
	assert.NoError(t, m.Put("k", buf))
	buf[0] = 'X'

	v, ok, err := m.Get("k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "original", string(v))

	// Mutating the returned slice must not poison the stored value.
	v[0] = 'Y'
	v2, _, err := m.Get("k")
	assert.NoError(t, err)
	assert.Equal(t, "original", string(v2))
}
