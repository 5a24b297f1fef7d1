package root

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/value"
)

func TestPushPopLIFO(t *testing.T) {
	reg := NewRegistry()
	a := NewScalar(reg, value.FromInt(1))
	b := NewScalar(reg, value.FromInt(2))
	assert.Panics(t, func() { a.Pop() }, "popping out of LIFO order must panic")
	b.Pop()
	a.Pop()
}

func TestRootsFlattensTracers(t *testing.T) {
	reg := NewRegistry()
	a := NewScalar(reg, value.FromInt(1))
	defer a.Pop()
	b := NewSlice(reg, []value.Value{value.FromInt(2), value.FromInt(3)})
	defer b.Pop()

	roots := reg.Roots()
	assert.ElementsMatch(t, []value.Value{value.FromInt(1), value.FromInt(2), value.FromInt(3)}, roots)
}

func TestAnchoredValueSurvivesCollection(t *testing.T) {
	local := heap.NewBlock()
	global := heap.NewGlobalBlock()
	reg := NewRegistry()
	ctx := NewContext(reg, local, global)

	v := local.NewCons(value.FromInt(42), value.Nil)
	rooted := NewScalar(reg, v)
	defer rooted.Pop()

	ctx.Collect()

	c, err := ctx.Cons(rooted.Get())
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.Car.Int())
}

func TestUnanchoredValueIsReclaimed(t *testing.T) {
	local := heap.NewBlock()
	global := heap.NewGlobalBlock()
	reg := NewRegistry()
	ctx := NewContext(reg, local, global)

	_ = local.NewCons(value.FromInt(1), value.Nil) // never rooted
	stats := ctx.Collect()
	assert.Equal(t, 1, stats.Reclaimed)
}

func TestStaleContextPanics(t *testing.T) {
	local := heap.NewBlock()
	global := heap.NewGlobalBlock()
	reg := NewRegistry()
	ctx1 := NewContext(reg, local, global)
	v := local.NewCons(value.FromInt(1), value.Nil)
	rooted := NewScalar(reg, v)
	defer rooted.Pop()

	// A second, independently-created token observes the collection
	// ctx1 performs and becomes stale.
	ctx2 := NewContext(reg, local, global)
	ctx1.Collect()

	assert.Panics(t, func() { ctx2.Cons(v) })
	// ctx1 refreshed itself and remains usable.
	_, err := ctx1.Cons(v)
	assert.NoError(t, err)
}
