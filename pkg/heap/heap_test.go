package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelisp/corelisp/pkg/value"
)

func TestConsAllocAndDeref(t *testing.T) {
	b := NewBlock()
	v := b.NewCons(value.FromInt(1), value.FromInt(2))
	c, err := b.Cons(v)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Car.Int())
	assert.Equal(t, int64(2), c.Cdr.Int())
	assert.True(t, c.Mutable)
}

func TestImmutableConsRejectsMutation(t *testing.T) {
	b := NewBlock()
	v := b.NewImmutableCons(value.FromInt(1), value.Nil)
	err := b.SetCar(v, value.FromInt(9))
	assert.ErrorIs(t, err, ErrImmutableCons)
}

func TestMutableConsAcceptsMutation(t *testing.T) {
	b := NewBlock()
	v := b.NewCons(value.FromInt(1), value.Nil)
	require.NoError(t, b.SetCar(v, value.FromInt(9)))
	c, err := b.Cons(v)
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.Car.Int())
}

func TestWrongBlockRejected(t *testing.T) {
	local := NewBlock()
	global := NewGlobalBlock()
	v := local.NewCons(value.Nil, value.Nil)
	_, err := global.Cons(v)
	assert.ErrorIs(t, err, ErrWrongBlock)
}

func TestCollectReclaimsUnreachable(t *testing.T) {
	b := NewBlock()
	root := b.NewCons(value.FromInt(1), value.Nil)
	_ = b.NewCons(value.FromInt(99), value.Nil) // unreachable garbage
	assert.Equal(t, 2, b.LiveCount())

	stats := b.Collect([]value.Value{root})
	assert.Equal(t, 1, stats.Marked)
	assert.Equal(t, 1, stats.Reclaimed)
	assert.Equal(t, 1, b.LiveCount())

	// The root cons must still be usable after the sweep.
	c, err := b.Cons(root)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Car.Int())
}

func TestCollectHandlesCycles(t *testing.T) {
	b := NewBlock()
	a := b.NewCons(value.FromInt(1), value.Nil)
	// Build a 2-cycle: a.cdr -> cyc, cyc.cdr -> a.
	cyc := b.NewCons(value.FromInt(2), a)
	require.NoError(t, b.SetCdr(a, cyc))

	stats := b.Collect([]value.Value{a})
	assert.Equal(t, 2, stats.Marked)
	assert.Equal(t, 0, stats.Reclaimed)
}

func TestCollectSkipsGlobalBlock(t *testing.T) {
	g := NewGlobalBlock()
	stats := g.Collect(nil)
	assert.Equal(t, CollectStats{}, stats)
}

func TestCloneDeepProducesImmutableGlobalGraph(t *testing.T) {
	local := NewBlock()
	global := NewGlobalBlock()

	body := local.NewCons(value.FromInt(1), local.NewCons(value.FromInt(2), value.Nil))
	cloned := CloneDeep(body, local, global)

	assert.True(t, cloned.Global())
	c, err := global.Cons(cloned)
	require.NoError(t, err)
	assert.False(t, c.Mutable)
	assert.Equal(t, int64(1), c.Car.Int())

	err = global.SetCar(cloned, value.FromInt(42))
	assert.ErrorIs(t, err, ErrImmutableCons)

	// Mutating the original local cons must not affect the clone.
	require.NoError(t, local.SetCar(body, value.FromInt(77)))
	c2, err := global.Cons(cloned)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c2.Car.Int())
}

func TestVectorAndHashTable(t *testing.T) {
	b := NewBlock()
	vv := b.NewVector([]value.Value{value.FromInt(1), value.FromInt(2)})
	vec, err := b.Vector(vv)
	require.NoError(t, err)
	assert.Len(t, vec.Elements, 2)

	hv := b.NewHashTable()
	h, err := b.HashTable(hv)
	require.NoError(t, err)
	h.Entries[value.FromInt(1)] = value.FromInt(100)
	assert.Equal(t, value.FromInt(100), h.Entries[value.FromInt(1)])
}

func TestOverBudget(t *testing.T) {
	b := NewBlock()
	b.budget = 1
	assert.False(t, b.OverBudget())
	b.NewCons(value.Nil, value.Nil)
	assert.True(t, b.OverBudget())
}
