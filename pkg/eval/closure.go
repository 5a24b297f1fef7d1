package eval

import (
	"errors"

	"github.com/corelisp/corelisp/pkg/env"
	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/util/stack"
	"github.com/corelisp/corelisp/pkg/value"
)

// buildCapturedEnv serializes the current lexical stack into a
// True-terminated cons chain for the `function` special form to stash
// inside a closure. Each link's car is the live lexical stack's own
// (symbol . value) cons cell, reused directly rather than re-allocated:
// a closure must capture the cell a variable lives in, not a snapshot
// of its value, so that a later `setq` through any closure sharing that
// cell is visible to every other closure (and the enclosing `let`)
// built from the same binding.
func (ip *Interpreter) buildCapturedEnv() value.Value {
	items := ip.Env.LexicalFrames()
	acc := value.True
	for i := len(items) - 1; i >= 0; i-- {
		acc = ip.Ctx.NewCons(items[i].Pair, acc)
	}
	return acc
}

// parseClosureEnv walks a captured-environment list back into bindings,
// in the same oldest-first order buildCapturedEnv produced it in. Each
// binding's Pair is the very cons cell the list held, not a copy of it,
// preserving cross-closure sharing through calls.
func (ip *Interpreter) parseClosureEnv(envList value.Value) ([]env.Binding, error) {
	var out []env.Binding
	cur := envList
	for {
		if cur == value.True || cur.IsNil() {
			return out, nil
		}
		c, err := ip.Ctx.Cons(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, env.Binding{Pair: c.Car})
		cur = c.Cdr
	}
}

// parseArgList splits a closure's formal-parameter list into required,
// &optional, and &rest groups.
func (ip *Interpreter) parseArgList(argsList value.Value) (required, optional []value.Value, restSym value.Value, hasRest bool, err error) {
	syms, err := toSlice(ip.Ctx, argsList)
	if err != nil {
		return nil, nil, value.Nil, false, err
	}
	mode := 0 // 0 = required, 1 = &optional
	for i := 0; i < len(syms); i++ {
		s := syms[i]
		if s == ip.syms.optional {
			mode = 1
			continue
		}
		if s == ip.syms.rest {
			tail := syms[i+1:]
			if len(tail) != 1 {
				return nil, nil, value.Nil, false, &ArgError{Expected: 1, Actual: len(tail), Name: "&rest"}
			}
			return required, optional, tail[0], true, nil
		}
		if s.Tag() != value.TagSymbol {
			return nil, nil, value.Nil, false, &TypeError{Expected: "symbol", Actual: s}
		}
		if mode == 0 {
			required = append(required, s)
		} else {
			optional = append(optional, s)
		}
	}
	return required, optional, value.Nil, false, nil
}

// bindArgs pushes required, then &optional (defaulting to nil), then a
// spread &rest list onto the (already-swapped-fresh) lexical stack.
func (ip *Interpreter) bindArgs(required, optional []value.Value, restSym value.Value, hasRest bool, args []value.Value) error {
	for i, sym := range required {
		if i >= len(args) {
			return &ArgError{Expected: len(required), Actual: len(args), Name: "closure"}
		}
		ip.Env.PushLexical(ip.Ctx.NewCons(sym, args[i]))
	}
	offset := len(required)
	for _, sym := range optional {
		if offset < len(args) {
			ip.Env.PushLexical(ip.Ctx.NewCons(sym, args[offset]))
			offset++
		} else {
			ip.Env.PushLexical(ip.Ctx.NewCons(sym, value.Nil))
		}
	}
	if hasRest {
		ip.Env.PushLexical(ip.Ctx.NewCons(restSym, fromSlice(ip.Ctx, args[offset:])))
		return nil
	}
	if offset < len(args) {
		return &ArgError{Expected: offset, Actual: len(args), Name: "closure"}
	}
	return nil
}

// detectMacro recognizes both macro shapes spec.md §4.A describes: the
// tag-swapped direct form (macro env args . body), and the wrapping
// form (macro . closure-cons). It returns the closure-cons to actually
// call against, and whether fn was a macro at all.
func (ip *Interpreter) detectMacro(fn value.Value) (value.Value, bool) {
	c, err := ip.Ctx.Cons(fn)
	if err != nil {
		return value.Nil, false
	}
	if c.Car != ip.syms.macro {
		return value.Nil, false
	}
	if inner, err := ip.Ctx.Cons(c.Cdr); err == nil && inner.Car == ip.syms.closure {
		return c.Cdr, true
	}
	return fn, true
}

// callClosure applies a `(closure env-list formals . body)` (or
// macro-shaped) value to already-evaluated arguments: it triggers the
// closure-call-entry collection, binds a fresh lexical frame from the
// captured environment plus the argument list, evaluates the body as an
// implicit progn, and restores the caller's lexical stack on return.
func (ip *Interpreter) callClosure(closureVal value.Value, args []value.Value, name string) (value.Value, error) {
	argsRoot := root.NewSlice(ip.Ctx.Registry, args)
	defer argsRoot.Pop()
	closRoot := root.NewScalar(ip.Ctx.Registry, closureVal)
	defer closRoot.Pop()

	ip.Ctx.Collect()

	c, err := ip.Ctx.Cons(closRoot.Get())
	if err != nil {
		return value.Nil, err
	}
	if c.Car != ip.syms.closure && c.Car != ip.syms.macro {
		return value.Nil, &InvalidFunctionError{V: closureVal}
	}
	rest1, err := ip.Ctx.Cons(c.Cdr)
	if err != nil {
		return value.Nil, err
	}
	rest2, err := ip.Ctx.Cons(rest1.Cdr)
	if err != nil {
		return value.Nil, err
	}

	bindings, err := ip.parseClosureEnv(rest1.Car)
	if err != nil {
		return value.Nil, err
	}
	required, optional, restSym, hasRest, err := ip.parseArgList(rest2.Car)
	if err != nil {
		return value.Nil, err
	}

	saved := ip.Env.SwapLexical(stack.New[env.Binding]())
	defer ip.Env.SwapLexical(saved)

	for _, b := range bindings {
		ip.Env.PushLexical(b.Pair)
	}
	if err := ip.bindArgs(required, optional, restSym, hasRest, argsRoot.Get()); err != nil {
		return value.Nil, err
	}

	body, err := toSlice(ip.Ctx, rest2.Cdr)
	if err != nil {
		return value.Nil, err
	}
	return ip.evalProgn(body)
}

// functionName best-effort names a callee for backtrace/error reporting.
func (ip *Interpreter) functionName(fn value.Value) string {
	switch fn.Tag() {
	case value.TagSymbol:
		return ip.Symbols.Name(fn)
	case value.TagSubrFn:
		if s, err := ip.Ctx.Subr(fn); err == nil {
			return s.Name
		}
	}
	return "lambda"
}

// Funcall applies fn to args directly, the way `funcall` does: every
// element of args is one argument.
func (ip *Interpreter) Funcall(fn value.Value, args []value.Value) (value.Value, error) {
	return ip.Call(fn, args, ip.functionName(fn))
}

// Apply applies fn to args the way `apply` does: every element but the
// last is a fixed argument, and the last element is a list whose
// elements are spread in as additional arguments.
func (ip *Interpreter) Apply(fn value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return ip.Call(fn, nil, ip.functionName(fn))
	}
	fixed := args[:len(args)-1]
	spread, err := toSlice(ip.Ctx, args[len(args)-1])
	if err != nil {
		return value.Nil, err
	}
	all := make([]value.Value, 0, len(fixed)+len(spread))
	all = append(all, fixed...)
	all = append(all, spread...)
	return ip.Call(fn, all, ip.functionName(fn))
}

// errMacroexpandEnvUnimplemented mirrors the reference dialect, which
// never implemented macroexpand's second (environment) argument.
var errMacroexpandEnvUnimplemented = errors.New("macroexpand: non-nil environment argument not implemented")

// Macroexpand expands form by exactly one level if its head resolves to
// a macro, otherwise returns it unchanged. env must be Nil: a non-nil
// environment argument is an unimplemented feature of the reference
// dialect this evaluator intentionally carries forward unresolved.
func (ip *Interpreter) Macroexpand(form, envArg value.Value) (value.Value, error) {
	if !envArg.IsNil() {
		return value.Nil, errMacroexpandEnvUnimplemented
	}
	if form.Tag() != value.TagCons {
		return form, nil
	}
	c, err := ip.Ctx.Cons(form)
	if err != nil {
		return value.Nil, err
	}
	if c.Car.Tag() != value.TagSymbol {
		return form, nil
	}
	fn, ok, err := ip.Symbols.FollowIndirect(c.Car)
	if err != nil || !ok {
		return form, nil
	}
	inner, isMacro := ip.detectMacro(fn)
	if !isMacro {
		return form, nil
	}
	argForms, err := toSlice(ip.Ctx, c.Cdr)
	if err != nil {
		return value.Nil, err
	}
	return ip.callClosure(inner, argForms, ip.Symbols.Name(c.Car))
}
