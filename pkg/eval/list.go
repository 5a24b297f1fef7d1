package eval

import (
	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/value"
)

// toSlice walks a proper list, returning an error if it encounters
// anything but a Nil-terminated chain of conses.
func toSlice(ctx *root.Context, v value.Value) ([]value.Value, error) {
	var out []value.Value
	cur := v
	for !cur.IsNil() {
		if cur.Tag() != value.TagCons {
			return nil, &TypeError{Expected: "list", Actual: cur}
		}
		c, err := ctx.Cons(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, c.Car)
		cur = c.Cdr
	}
	return out, nil
}

// fromSlice builds a proper Nil-terminated list from vs, allocated in
// the context's local block.
func fromSlice(ctx *root.Context, vs []value.Value) value.Value {
	result := value.Nil
	for i := len(vs) - 1; i >= 0; i-- {
		result = ctx.NewCons(vs[i], result)
	}
	return result
}
