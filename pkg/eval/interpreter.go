package eval

import (
	"github.com/corelisp/corelisp/pkg/env"
	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/symbol"
	"github.com/corelisp/corelisp/pkg/value"
)

// specialForms caches the interned Values of every name the evaluator
// treats specially, computed once per Interpreter so dispatch is a
// plain map lookup by Eq identity rather than a string compare.
type specialForms struct {
	lambda, closure, macro, optional, rest, errorSym, debugSym value.Value
}

type specialHandler func(*Interpreter, value.Value) (value.Value, error)

// Interpreter is the tree-walking evaluator of spec.md §4.F. One
// Interpreter corresponds to one top-level evaluation: it owns the root
// context token (and therefore the local/global heap blocks it
// dereferences through) and the environment (dynamic vars, lexical
// stack, shadow stack). Backtraces are carried by EvalError, not Env.
type Interpreter struct {
	Ctx     *root.Context
	Env     *env.Env
	Symbols *symbol.Table

	syms     specialForms
	specials map[value.Value]specialHandler
}

// New constructs an interpreter over a fresh local heap block, wired to
// the given symbol table and root registry.
func New(symbols *symbol.Table, reg *root.Registry, local *heap.Block) *Interpreter {
	ctx := root.NewContext(reg, local, symbols.Global)
	ip := &Interpreter{
		Ctx:     ctx,
		Env:     env.New(),
		Symbols: symbols,
	}
	ip.syms = specialForms{
		lambda:   symbols.Intern("lambda"),
		closure:  symbols.Intern("closure"),
		macro:    symbols.Intern("macro"),
		optional: symbols.Intern("&optional"),
		rest:     symbols.Intern("&rest"),
		errorSym: symbols.Intern("error"),
		debugSym: symbols.Intern("debug"),
	}
	ip.specials = map[value.Value]specialHandler{
		symbols.Intern("quote"):          (*Interpreter).evalQuote,
		symbols.Intern("function"):       (*Interpreter).evalFunction,
		symbols.Intern("if"):             (*Interpreter).evalIf,
		symbols.Intern("and"):            (*Interpreter).evalAnd,
		symbols.Intern("or"):             (*Interpreter).evalOr,
		symbols.Intern("cond"):           (*Interpreter).evalCond,
		symbols.Intern("while"):          (*Interpreter).evalWhile,
		symbols.Intern("progn"):          (*Interpreter).evalPrognForm,
		symbols.Intern("prog1"):          (*Interpreter).evalProg1,
		symbols.Intern("prog2"):          (*Interpreter).evalProg2,
		symbols.Intern("setq"):           (*Interpreter).evalSetq,
		symbols.Intern("defvar"):         (*Interpreter).evalDefvar,
		symbols.Intern("defconst"):       (*Interpreter).evalDefconst,
		symbols.Intern("let"):            evalLetParallel,
		symbols.Intern("let*"):           evalLetSerial,
		symbols.Intern("catch"):          (*Interpreter).evalCatch,
		symbols.Intern("condition-case"): (*Interpreter).evalConditionCase,
	}
	return ip
}

// Eval is the evaluator's entry point for evaluating a form (spec.md §4.F): it
// triggers a collection before descending into the form, per the
// "garbage_collect at the head of eval" rule.
func (ip *Interpreter) Eval(form value.Value) (value.Value, error) {
	formRoot := root.NewScalar(ip.Ctx.Registry, form)
	defer formRoot.Pop()
	ip.Ctx.Collect()
	return ip.evalForm(formRoot.Get())
}

func (ip *Interpreter) evalForm(form value.Value) (value.Value, error) {
	switch form.Tag() {
	case value.TagSymbol:
		return ip.evalSymbol(form)
	case value.TagCons:
		return ip.evalSexp(form)
	default:
		return form, nil
	}
}

func (ip *Interpreter) evalSymbol(sym value.Value) (value.Value, error) {
	name := ip.Symbols.Name(sym)
	if len(name) > 0 && name[0] == ':' {
		return sym, nil // keywords self-evaluate
	}
	if v, ok := ip.Env.LookupLexical(ip.Ctx, sym); ok {
		return v, nil
	}
	if v, ok := ip.Env.GetVar(sym); ok {
		return v, nil
	}
	return value.Nil, &VoidVariableError{Name: name}
}

func (ip *Interpreter) evalSexp(cons value.Value) (value.Value, error) {
	c, err := ip.Ctx.Cons(cons)
	if err != nil {
		return value.Nil, err
	}
	head, rest := c.Car, c.Cdr

	if handler, ok := ip.specials[head]; ok {
		return handler(ip, rest)
	}
	if head.Tag() != value.TagSymbol {
		return value.Nil, &InvalidFunctionError{V: head}
	}
	name := ip.Symbols.Name(head)

	fn, ok, err := ip.Symbols.FollowIndirect(head)
	if err != nil {
		return value.Nil, err
	}
	if !ok {
		return value.Nil, &VoidFunctionError{Name: name}
	}
	fnRoot := root.NewScalar(ip.Ctx.Registry, fn)
	defer fnRoot.Pop()

	argForms, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	formsRoot := root.NewSlice(ip.Ctx.Registry, argForms)
	defer formsRoot.Pop()

	if inner, isMacro := ip.detectMacro(fnRoot.Get()); isMacro {
		expansion, err := ip.callClosure(inner, argForms, name)
		if err != nil {
			return value.Nil, withTrace(err, name, argForms)
		}
		return ip.evalForm(expansion)
	}

	argsRoot := root.NewSlice(ip.Ctx.Registry, nil)
	defer argsRoot.Pop()
	for _, f := range argForms {
		v, err := ip.evalForm(f)
		if err != nil {
			return value.Nil, err
		}
		argsRoot.Push(v)
	}
	return ip.Call(fnRoot.Get(), argsRoot.Get(), name)
}

// Call dispatches a single function application: a native subr, an
// interpreted closure, or another symbol (resolved by following its
// whole function-slot alias chain via FollowIndirect).
func (ip *Interpreter) Call(fn value.Value, args []value.Value, name string) (value.Value, error) {
	switch fn.Tag() {
	case value.TagSubrFn:
		subr, err := ip.Ctx.Subr(fn)
		if err != nil {
			return value.Nil, withTrace(err, name, args)
		}
		if len(args) < subr.Min || (subr.Max >= 0 && len(args) > subr.Max) {
			return value.Nil, withTrace(&ArgError{Expected: subr.Min, Actual: len(args), Name: name}, name, args)
		}
		v, err := subr.Fn(args, ip.Ctx.Local)
		if err != nil {
			return value.Nil, withTrace(err, name, args)
		}
		return v, nil

	case value.TagCons:
		v, err := ip.callClosure(fn, args, name)
		if err != nil {
			return value.Nil, withTrace(err, name, args)
		}
		return v, nil

	case value.TagSymbol:
		resolved, ok, err := ip.Symbols.FollowIndirect(fn)
		if err != nil {
			return value.Nil, withTrace(err, name, args)
		}
		if !ok {
			return value.Nil, withTrace(&VoidFunctionError{Name: ip.Symbols.Name(fn)}, name, args)
		}
		return ip.Call(resolved, args, name)

	default:
		return value.Nil, withTrace(&InvalidFunctionError{V: fn}, name, args)
	}
}
