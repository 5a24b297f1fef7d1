package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/symbol"
	"github.com/corelisp/corelisp/pkg/value"
)

func newTestInterp(t *testing.T) *Interpreter {
	t.Helper()
	symbols := symbol.New()
	reg := root.NewRegistry()
	return New(symbols, reg, heap.NewBlock())
}

func (ip *Interpreter) list(items ...value.Value) value.Value {
	return fromSlice(ip.Ctx, items)
}

func (ip *Interpreter) sym(name string) value.Value { return ip.Symbols.Intern(name) }

func TestQuoteReturnsFormUnevaluated(t *testing.T) {
	ip := newTestInterp(t)
	form := ip.list(ip.sym("quote"), value.FromInt(5))
	v, err := ip.Eval(form)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int())
}

func TestIfBranches(t *testing.T) {
	ip := newTestInterp(t)
	thenForm := ip.list(ip.sym("if"), value.FromInt(1), value.FromInt(2), value.FromInt(3))
	v, err := ip.Eval(thenForm)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int())

	elseForm := ip.list(ip.sym("if"), value.Nil, value.FromInt(2), value.FromInt(3))
	v, err = ip.Eval(elseForm)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int())
}

func TestAndOr(t *testing.T) {
	ip := newTestInterp(t)
	andForm := ip.list(ip.sym("and"), value.FromInt(1), value.Nil)
	v, err := ip.Eval(andForm)
	require.NoError(t, err)
	assert.True(t, v.IsNil())

	orForm := ip.list(ip.sym("or"), value.Nil, value.FromInt(1))
	v, err = ip.Eval(orForm)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int())
}

func TestCond(t *testing.T) {
	ip := newTestInterp(t)
	clause1 := ip.list(value.Nil, value.FromInt(1))
	clause2 := ip.list(value.FromInt(2), value.FromInt(3))
	form := ip.list(ip.sym("cond"), clause1, clause2)
	v, err := ip.Eval(form)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int())
}

func TestLetLexicalShadowingAndScopeExit(t *testing.T) {
	ip := newTestInterp(t)
	x := ip.sym("x")
	inner := ip.list(ip.sym("let"), ip.list(ip.list(x, value.FromInt(3))), x)
	outer := ip.list(ip.sym("let"), ip.list(ip.list(x, value.FromInt(1))), inner)
	v, err := ip.Eval(outer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int())

	// x was never defvar'd, so it never entered the dynamic vars map:
	// referencing it outside any let is void.
	_, err = ip.Eval(x)
	var voidErr *VoidVariableError
	assert.ErrorAs(t, err, &voidErr)
}

func TestLetRestoresShadowedDynamicValue(t *testing.T) {
	ip := newTestInterp(t)
	foo := ip.sym("foo")
	defvarForm := ip.list(ip.sym("defvar"), foo, value.FromInt(1))
	letForm := ip.list(ip.sym("let"), ip.list(ip.list(foo, value.FromInt(3))))
	progn := ip.list(ip.sym("progn"), defvarForm, letForm, foo)
	v, err := ip.Eval(progn)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int())
}

func TestLetStarSeesEarlierBindings(t *testing.T) {
	ip := newTestInterp(t)
	x, y := ip.sym("x"), ip.sym("y")
	form := ip.list(ip.sym("let*"),
		ip.list(ip.list(x, value.FromInt(1)), ip.list(y, x)),
		y)
	v, err := ip.Eval(form)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int())
}

func TestSetqZeroArgsReturnsNil(t *testing.T) {
	ip := newTestInterp(t)
	v, err := ip.Eval(ip.list(ip.sym("setq")))
	require.NoError(t, err)
	assert.True(t, v.IsNil())
}

func TestEmptyBindingListLet(t *testing.T) {
	ip := newTestInterp(t)
	form := ip.list(ip.sym("let"), value.Nil, value.FromInt(9))
	v, err := ip.Eval(form)
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.Int())
}

func TestConditionCaseCatchesStructuralError(t *testing.T) {
	ip := newTestInterp(t)
	// (if) has too few arguments: a structural ArgError.
	badIf := ip.list(ip.sym("if"))
	handler := ip.list(ip.sym("error"), value.FromInt(7))
	form := ip.list(ip.sym("condition-case"), value.Nil, badIf, handler)
	v, err := ip.Eval(form)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int())
}

func TestConditionCaseBindsVarToErrorPair(t *testing.T) {
	ip := newTestInterp(t)
	// (condition-case err (if) (error (cdr err)))
	badIf := ip.list(ip.sym("if"))
	errVar := ip.sym("err")
	handler := ip.list(ip.sym("error"), ip.list(ip.sym("cdr"), errVar))
	form := ip.list(ip.sym("condition-case"), errVar, badIf, handler)

	registerNative(t, ip, "cdr", 1, 1, false, func(args []value.Value, blk *heap.Block) (value.Value, error) {
		c, err := blk.Cons(args[0])
		if err != nil {
			return value.Nil, err
		}
		return c.Cdr, nil
	})

	v, err := ip.Eval(form)
	require.NoError(t, err)
	s, err := ip.Ctx.String(v)
	require.NoError(t, err)
	assert.Contains(t, s.String(), "wrong number of arguments")
}

func TestConditionCaseInvalidHandler(t *testing.T) {
	ip := newTestInterp(t)
	badIf := ip.list(ip.sym("if"))
	handler := ip.list(ip.sym("frobnicate"), value.FromInt(7))
	form := ip.list(ip.sym("condition-case"), value.Nil, badIf, handler)
	_, err := ip.Eval(form)
	var iche *InvalidConditionHandlerError
	assert.ErrorAs(t, err, &iche)
}

func TestVoidFunctionError(t *testing.T) {
	ip := newTestInterp(t)
	form := ip.list(ip.sym("frobnicate"), value.FromInt(1))
	_, err := ip.Eval(form)
	var vfe *VoidFunctionError
	assert.ErrorAs(t, err, &vfe)
}

func TestBacktraceRecordsNativeCallFrame(t *testing.T) {
	ip := newTestInterp(t)
	registerNative(t, ip, "boom", 0, 0, false, func(args []value.Value, blk *heap.Block) (value.Value, error) {
		return value.Nil, &TypeError{Expected: "never", Actual: value.Nil}
	})
	form := ip.list(ip.sym("boom"))
	_, err := ip.Eval(form)
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Len(t, ee.Frames, 1)
	assert.Equal(t, "boom", ee.Frames[0].Name)
}

// registerNative installs a minimal native function for testing the call
// protocol; the core evaluator takes no stance on what natives exist
// (that registry is an embedder concern outside this package's scope).
func registerNative(t *testing.T, ip *Interpreter, name string, min, max int, variadic bool, fn heap.NativeFn) {
	t.Helper()
	sym := ip.sym(name)
	// Natives are permanent, process-wide definitions, so they are
	// allocated directly in the global block (never swept) rather than
	// in a per-evaluation local block that set_func would need to deep
	// clone out of.
	subrVal := ip.Symbols.Global.NewSubr(heap.SubrFn{Name: name, Min: min, Max: max, Variadic: variadic, Fn: fn})
	require.NoError(t, ip.Symbols.SetFunc(sym, subrVal, ip.Symbols.Global))
}

func TestCallNativeSubr(t *testing.T) {
	ip := newTestInterp(t)
	registerNative(t, ip, "add1", 1, 1, false, func(args []value.Value, blk *heap.Block) (value.Value, error) {
		return value.FromInt(args[0].Int() + 1), nil
	})
	form := ip.list(ip.sym("add1"), value.FromInt(41))
	v, err := ip.Eval(form)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int())
}

func TestCallNativeSubrWrongArity(t *testing.T) {
	ip := newTestInterp(t)
	registerNative(t, ip, "add1", 1, 1, false, func(args []value.Value, blk *heap.Block) (value.Value, error) {
		return value.FromInt(args[0].Int() + 1), nil
	})
	form := ip.list(ip.sym("add1"))
	_, err := ip.Eval(form)
	var ae *ArgError
	assert.ErrorAs(t, err, &ae)
}
