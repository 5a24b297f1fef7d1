package env

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/value"
)

func newTestContext() *root.Context {
	local := heap.NewBlock()
	return root.NewContext(root.NewRegistry(), local, local)
}

func TestLexicalLookupNewestFirst(t *testing.T) {
	e := New()
	ctx := newTestContext()
	x := value.FromHandle(value.TagSymbol, true, 1)
	e.PushLexical(ctx.NewCons(x, value.FromInt(1)))
	e.PushLexical(ctx.NewCons(x, value.FromInt(3)))
	v, ok := e.LookupLexical(ctx, x)
	assert.True(t, ok)
	assert.Equal(t, int64(3), v.Int())
}

func TestTruncateLexicalRemovesInnerBindings(t *testing.T) {
	e := New()
	ctx := newTestContext()
	x := value.FromHandle(value.TagSymbol, true, 1)
	depth := e.LexicalLen()
	e.PushLexical(ctx.NewCons(x, value.FromInt(1)))
	e.TruncateLexical(depth)
	_, ok := e.LookupLexical(ctx, x)
	assert.False(t, ok)
}

func TestSetLexicalMutatesSharedCell(t *testing.T) {
	e := New()
	ctx := newTestContext()
	x := value.FromHandle(value.TagSymbol, true, 1)
	pair := ctx.NewCons(x, value.FromInt(1))
	e.PushLexical(pair)

	found, err := e.SetLexical(ctx, x, value.FromInt(5))
	assert.NoError(t, err)
	assert.True(t, found)

	// The mutation is visible through the very cell a closure would
	// have captured, not just through a fresh Env lookup.
	c, err := ctx.Cons(pair)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), c.Cdr.Int())

	v, ok := e.LookupLexical(ctx, x)
	assert.True(t, ok)
	assert.Equal(t, int64(5), v.Int())
}

func TestShadowRestoresPriorDynamicValueInReverseOrder(t *testing.T) {
	e := New()
	foo := value.FromHandle(value.TagSymbol, true, 1)
	e.SetVar(foo, value.FromInt(1))

	depth := e.ShadowLen()
	prev, _ := e.GetVar(foo)
	e.PushShadow(foo, prev)
	e.SetVar(foo, value.FromInt(3))

	prev2, _ := e.GetVar(foo)
	e.PushShadow(foo, prev2)
	e.SetVar(foo, value.FromInt(5))

	e.RestoreShadowsTo(depth)
	v, _ := e.GetVar(foo)
	assert.Equal(t, int64(1), v.Int())
}

func TestFormatBacktrace(t *testing.T) {
	frames := []Frame{
		{Name: "outer", Args: []value.Value{value.FromInt(1)}},
		{Name: "inner", Args: []value.Value{value.FromInt(2)}},
	}
	s := FormatBacktrace(frames, nil)
	assert.Contains(t, s, "inner (2)")
	assert.Contains(t, s, "outer (1)")
}
