package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tag struct{ name string }

func TestEntityPoolRecyclesWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.False(t, a.IsZero())
	require.True(t, p.Alive(a))

	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index())
	assert.Equal(t, a.Generation()+1, b.Generation())
	assert.False(t, p.Alive(a), "stale id must not resolve after reuse")
	assert.Equal(t, 1, p.Count())
}

func TestEntityPoolZeroIDNeverAlive(t *testing.T) {
	p := NewEntityPool()
	assert.False(t, p.Alive(0))
	p.Destroy(0)
	assert.Equal(t, 0, p.Count())
}

func TestWorldFlushRemovesFromStores(t *testing.T) {
	w := NewWorld()
	store := NewStore[tag]()
	w.Register(store)

	id := w.CreateEntity()
	store.Set(id, &tag{name: "drone"})
	w.MarkForDestruction(id)
	w.MarkForDestruction(id)

	assert.True(t, w.PendingDestruction(id))
	_, ok := store.Get(id)
	assert.True(t, ok, "components stay readable until flush")

	assert.Equal(t, 1, w.FlushDestroyQueue())
	_, ok = store.Get(id)
	assert.False(t, ok)
	assert.False(t, w.Alive(id))
	assert.False(t, w.PendingDestruction(id))
}
