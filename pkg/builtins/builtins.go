// Package builtins is the minimal native-function registry an embedder
// installs into a symbol table before handing it to an evaluator
// (spec.md §6's embedder contract: "the embedder is expected to
// register a set of native functions via set_func"). None of this is
// part of the evaluator core; it exists so the cmd/eval and cmd/repl
// commands, and the worked examples in spec.md §8 (`cons`, `+`,
// `funcall`), have something to call.
package builtins

import (
	"fmt"

	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/symbol"
	"github.com/corelisp/corelisp/pkg/value"
)

// Register installs every built-in into symbols. Natives are allocated
// directly in symbols.Global rather than a local block: SetFunc's
// clone-into-global step only deep-copies Cons structure (see
// heap.CloneDeep), so a SubrFn built in a collectable local block would
// leave a dangling handle once that block's roots are released.
func Register(symbols *symbol.Table) error {
	for _, b := range table {
		sym := symbols.Intern(b.name)
		subr := symbols.Global.NewSubr(heap.SubrFn{
			Name: b.name, Min: b.min, Max: b.max, Variadic: b.max < 0, Fn: b.fn,
		})
		if err := symbols.SetFunc(sym, subr, symbols.Global); err != nil {
			return fmt.Errorf("builtins: register %q: %w", b.name, err)
		}
	}
	return nil
}

type entry struct {
	name     string
	min, max int
	fn       heap.NativeFn
}

var table = []entry{
	{"cons", 2, 2, biCons},
	{"car", 1, 1, biCar},
	{"cdr", 1, 1, biCdr},
	{"list", 0, -1, biList},
	{"eq", 2, 2, biEq},
	{"not", 1, 1, biNot},
	{"+", 0, -1, biAdd},
	{"-", 1, -1, biSub},
	{"*", 0, -1, biMul},
	{"=", 1, -1, biNumEq},
	{"<", 1, -1, biLt},
	{"print", 1, 1, biPrint},
}

func biCons(args []value.Value, blk *heap.Block) (value.Value, error) {
	return blk.NewCons(args[0], args[1]), nil
}

func biCar(args []value.Value, blk *heap.Block) (value.Value, error) {
	if args[0].IsNil() {
		return value.Nil, nil
	}
	c, err := blk.Cons(args[0])
	if err != nil {
		return value.Nil, err
	}
	return c.Car, nil
}

func biCdr(args []value.Value, blk *heap.Block) (value.Value, error) {
	if args[0].IsNil() {
		return value.Nil, nil
	}
	c, err := blk.Cons(args[0])
	if err != nil {
		return value.Nil, err
	}
	return c.Cdr, nil
}

func biList(args []value.Value, blk *heap.Block) (value.Value, error) {
	result := value.Nil
	for i := len(args) - 1; i >= 0; i-- {
		result = blk.NewCons(args[i], result)
	}
	return result, nil
}

func biEq(args []value.Value, _ *heap.Block) (value.Value, error) {
	if value.Eq(args[0], args[1]) {
		return value.True, nil
	}
	return value.Nil, nil
}

func biNot(args []value.Value, _ *heap.Block) (value.Value, error) {
	if args[0].IsNil() {
		return value.True, nil
	}
	return value.Nil, nil
}

func intArg(v value.Value) (int64, error) {
	if v.Tag() != value.TagInt {
		return 0, fmt.Errorf("builtins: expected int, got %s", v.Tag())
	}
	return v.Int(), nil
}

func biAdd(args []value.Value, _ *heap.Block) (value.Value, error) {
	var sum int64
	for _, a := range args {
		n, err := intArg(a)
		if err != nil {
			return value.Nil, err
		}
		sum += n
	}
	return value.FromInt(sum), nil
}

func biSub(args []value.Value, _ *heap.Block) (value.Value, error) {
	first, err := intArg(args[0])
	if err != nil {
		return value.Nil, err
	}
	if len(args) == 1 {
		return value.FromInt(-first), nil
	}
	acc := first
	for _, a := range args[1:] {
		n, err := intArg(a)
		if err != nil {
			return value.Nil, err
		}
		acc -= n
	}
	return value.FromInt(acc), nil
}

func biMul(args []value.Value, _ *heap.Block) (value.Value, error) {
	acc := int64(1)
	for _, a := range args {
		n, err := intArg(a)
		if err != nil {
			return value.Nil, err
		}
		acc *= n
	}
	return value.FromInt(acc), nil
}

func biNumEq(args []value.Value, _ *heap.Block) (value.Value, error) {
	first, err := intArg(args[0])
	if err != nil {
		return value.Nil, err
	}
	for _, a := range args[1:] {
		n, err := intArg(a)
		if err != nil {
			return value.Nil, err
		}
		if n != first {
			return value.Nil, nil
		}
	}
	return value.True, nil
}

func biLt(args []value.Value, _ *heap.Block) (value.Value, error) {
	prev, err := intArg(args[0])
	if err != nil {
		return value.Nil, err
	}
	for _, a := range args[1:] {
		n, err := intArg(a)
		if err != nil {
			return value.Nil, err
		}
		if !(prev < n) {
			return value.Nil, nil
		}
		prev = n
	}
	return value.True, nil
}

func biPrint(args []value.Value, blk *heap.Block) (value.Value, error) {
	if s, err := blk.String(args[0]); err == nil {
		fmt.Println(s.String())
	} else {
		fmt.Println(args[0].Tag())
	}
	return args[0], nil
}
