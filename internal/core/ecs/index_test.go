package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_EqualRequiresSlotAndGeneration(t *testing.T) {
	tests := []struct {
		name string
		a, b Index
		want bool
	}{
		{"same", Index{1, 2}, Index{1, 2}, true},
		{"different slot", Index{1, 2}, Index{3, 2}, false},
		{"different generation", Index{1, 2}, Index{1, 3}, false},
		{"both differ", Index{0, 0}, Index{1, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.a == tt.b)
		})
	}
}

func TestIndex_PackRoundTrip(t *testing.T) {
	i := Index{Slot: 0xdeadbeef, Generation: 7}
	assert.Equal(t, i, UnpackIndex(i.Pack()))
}

func TestSlotPool_RecycledSlotGetsNewGeneration(t *testing.T) {
	p := NewSlotPool()

	first := p.Create()
	require.True(t, p.Alive(first))
	require.True(t, p.Destroy(first))
	assert.False(t, p.Alive(first))

	second := p.Create()
	assert.Equal(t, first.Slot, second.Slot, "free list should reuse the slot")
	assert.False(t, first.Equal(second), "stale reference must not match the new occupant")
	assert.True(t, p.Alive(second))
	assert.False(t, p.Alive(first))
}

func TestSlotPool_DestroyStaleIsNoop(t *testing.T) {
	p := NewSlotPool()
	a := p.Create()
	require.True(t, p.Destroy(a))
	b := p.Create()

	assert.False(t, p.Destroy(a), "destroying through a stale reference must not free the new occupant")
	assert.True(t, p.Alive(b))
}

func TestSlotPool_Resolve(t *testing.T) {
	p := NewSlotPool()
	a := p.Create()

	got, ok := p.Resolve(a.Slot)
	require.True(t, ok)
	assert.Equal(t, a, got)

	p.Destroy(a)
	_, ok = p.Resolve(a.Slot)
	assert.False(t, ok)

	_, ok = p.Resolve(99)
	assert.False(t, ok)
}

func TestWorld_FlushDestroyQueueClearsStores(t *testing.T) {
	w := NewWorld()
	labels := NewPtrComponentStore[string]()
	w.Registry().Register(labels)

	id := w.CreateEntity()
	name := "crate"
	labels.Set(id, &name)

	w.MarkForDestruction(id)
	assert.True(t, w.Alive(id), "destruction is deferred until flush")
	w.FlushDestroyQueue()

	assert.False(t, w.Alive(id))
	assert.False(t, labels.Has(id))
}

func TestWorld_Clear(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()
	w.Clear()
	assert.False(t, w.Alive(a))
	assert.False(t, w.Alive(b))
	assert.Equal(t, 0, w.Pool().Len())
}
