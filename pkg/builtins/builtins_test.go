package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelisp/corelisp/pkg/eval"
	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/symbol"
	"github.com/corelisp/corelisp/pkg/value"
)

func newTestInterp(t *testing.T) *eval.Interpreter {
	t.Helper()
	symbols := symbol.New()
	require.NoError(t, symbols.Bootstrap())
	require.NoError(t, Register(symbols))
	return eval.New(symbols, root.NewRegistry(), heap.NewBlock())
}

func call(t *testing.T, ip *eval.Interpreter, name string, args ...value.Value) value.Value {
	t.Helper()
	sym, ok := ip.Symbols.Get(name)
	require.True(t, ok, name)
	fn, ok, err := ip.Symbols.FollowIndirect(sym)
	require.NoError(t, err)
	require.True(t, ok)
	v, err := ip.Call(fn, args, name)
	require.NoError(t, err)
	return v
}

func TestConsCarCdr(t *testing.T) {
	ip := newTestInterp(t)
	pair := call(t, ip, "cons", value.FromInt(1), value.FromInt(2))
	assert.Equal(t, int64(1), call(t, ip, "car", pair).Int())
	assert.Equal(t, int64(2), call(t, ip, "cdr", pair).Int())
}

func TestCarCdrOfNilIsNil(t *testing.T) {
	ip := newTestInterp(t)
	assert.True(t, call(t, ip, "car", value.Nil).IsNil())
	assert.True(t, call(t, ip, "cdr", value.Nil).IsNil())
}

func TestListBuildsProperList(t *testing.T) {
	ip := newTestInterp(t)
	lst := call(t, ip, "list", value.FromInt(1), value.FromInt(2), value.FromInt(3))
	c, err := ip.Ctx.Cons(lst)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Car.Int())
}

func TestEq(t *testing.T) {
	ip := newTestInterp(t)
	assert.True(t, call(t, ip, "eq", value.FromInt(5), value.FromInt(5)).Tag() == value.TagTrue)
	assert.True(t, call(t, ip, "eq", value.FromInt(5), value.FromInt(6)).IsNil())
}

func TestArithmetic(t *testing.T) {
	ip := newTestInterp(t)
	assert.Equal(t, int64(6), call(t, ip, "+", value.FromInt(1), value.FromInt(2), value.FromInt(3)).Int())
	assert.Equal(t, int64(-1), call(t, ip, "-", value.FromInt(2), value.FromInt(3)).Int())
	assert.Equal(t, int64(-5), call(t, ip, "-", value.FromInt(5)).Int())
	assert.Equal(t, int64(24), call(t, ip, "*", value.FromInt(2), value.FromInt(3), value.FromInt(4)).Int())
}

func TestComparisons(t *testing.T) {
	ip := newTestInterp(t)
	assert.True(t, call(t, ip, "=", value.FromInt(1), value.FromInt(1)).Tag() == value.TagTrue)
	assert.True(t, call(t, ip, "=", value.FromInt(1), value.FromInt(2)).IsNil())
	assert.True(t, call(t, ip, "<", value.FromInt(1), value.FromInt(2), value.FromInt(3)).Tag() == value.TagTrue)
	assert.True(t, call(t, ip, "<", value.FromInt(1), value.FromInt(1)).IsNil())
}

func TestNot(t *testing.T) {
	ip := newTestInterp(t)
	assert.Equal(t, value.True, call(t, ip, "not", value.Nil))
	assert.True(t, call(t, ip, "not", value.FromInt(0)).IsNil())
}
