// Package env implements the evaluator's environment (spec.md §4.E):
// dynamic variable cells, the per-evaluation lexical binding stack, the
// dynamic-binding shadow stack used to restore `let`-rebound dynamic
// values, and the Frame/FormatBacktrace types used to render a call
// backtrace accumulated elsewhere (pkg/eval's EvalError).
package env

import (
	"fmt"
	"strings"

	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/util/stack"
	"github.com/corelisp/corelisp/pkg/value"
)

// Binding is one lexical frame: Pair is the (symbol . value) cons cell
// itself, not a copy of its contents. A closure captures this same cell
// (pkg/eval's buildCapturedEnv/parseClosureEnv thread it through
// unchanged), so a `setq` that mutates the cell via SetCdr is visible to
// every closure sharing it — closures capture the variable's cell, not
// a snapshot of its value.
type Binding struct {
	Pair value.Value
}

// shadowEntry records a dynamic value a `let` rebind displaced, so it can
// be restored in reverse order on scope exit.
type shadowEntry struct {
	Symbol, Prev value.Value
}

// Frame is one backtrace entry: a call's function name and the argument
// vector it was invoked with (spec.md §4.E, §7). eval.EvalError
// accumulates these as an error propagates back up through nested
// calls; Env itself does not keep a parallel live call stack, since by
// the time an error is observed every deferred call-exit has already
// run.
type Frame struct {
	Name string
	Args []value.Value
}

// Env holds the dynamic/global variable cells, the lexical binding
// stack, and the dynamic shadow stack for one top-level evaluation.
type Env struct {
	vars     map[value.Value]value.Value
	specials map[value.Value]bool
	lexical  *stack.Stack[Binding]
	shadow   *stack.Stack[shadowEntry]
}

// New constructs an empty environment.
func New() *Env {
	return &Env{
		vars:     map[value.Value]value.Value{},
		specials: map[value.Value]bool{},
		lexical:  stack.New[Binding](),
		shadow:   stack.New[shadowEntry](),
	}
}

// MarkSpecial records that sym was declared with defvar/defconst, so a
// later `let` binds it dynamically (shadow stack) instead of lexically.
func (e *Env) MarkSpecial(sym value.Value) { e.specials[sym] = true }

// IsSpecial reports whether sym was declared special.
func (e *Env) IsSpecial(sym value.Value) bool { return e.specials[sym] }

// SwapLexical installs a fresh lexical stack and returns the previous
// one, so a closure call can evaluate its body against only its captured
// environment and argument bindings rather than the caller's lexical
// chain (proper lexical scoping). The caller must restore the old stack
// with a second SwapLexical when the call returns.
func (e *Env) SwapLexical(s *stack.Stack[Binding]) *stack.Stack[Binding] {
	old := e.lexical
	e.lexical = s
	return old
}

// --- dynamic/global vars ------------------------------------------------

// GetVar looks up sym's dynamic/global value cell.
func (e *Env) GetVar(sym value.Value) (value.Value, bool) {
	v, ok := e.vars[sym]
	return v, ok
}

// SetVar assigns sym's dynamic/global value cell, creating it if absent.
func (e *Env) SetVar(sym value.Value, v value.Value) { e.vars[sym] = v }

// --- lexical binding stack ----------------------------------------------

// LexicalLen returns the current depth of the lexical binding stack,
// used by `let`/closure-call to know where to truncate back to on exit.
func (e *Env) LexicalLen() int { return e.lexical.Len() }

// PushLexical adds a (symbol . value) binding cell to the top of the
// lexical stack. pair must be a fresh, mutable cons cell (built via
// ctx.NewCons) so that anything capturing this binding later shares the
// same cell rather than a copy.
func (e *Env) PushLexical(pair value.Value) { e.lexical.Push(Binding{Pair: pair}) }

// TruncateLexical drops every lexical frame above depth n.
func (e *Env) TruncateLexical(n int) { e.lexical.Truncate(n) }

// LookupLexical scans the lexical stack newest-first for sym's binding
// cell and returns its current value.
func (e *Env) LookupLexical(ctx *root.Context, sym value.Value) (value.Value, bool) {
	b, ok := e.lexical.Find(func(b Binding) bool {
		c, err := ctx.Cons(b.Pair)
		return err == nil && c.Car == sym
	})
	if !ok {
		return value.Nil, false
	}
	c, err := ctx.Cons(b.Pair)
	if err != nil {
		return value.Nil, false
	}
	return c.Cdr, true
}

// SetLexical mutates sym's newest lexical binding cell in place via
// SetCdr, so the change is visible through every closure sharing that
// cell. Returns false (with no error) if sym has no lexical binding.
func (e *Env) SetLexical(ctx *root.Context, sym, val value.Value) (bool, error) {
	idx := e.lexical.FindIndex(func(b Binding) bool {
		c, err := ctx.Cons(b.Pair)
		return err == nil && c.Car == sym
	})
	if idx < 0 {
		return false, nil
	}
	pair := e.lexical.Items()[idx].Pair
	if err := ctx.SetCdr(pair, val); err != nil {
		return false, err
	}
	return true, nil
}

// LexicalFrames returns the raw (symbol . value) stack, newest last, for
// packages (the evaluator) that need to serialize it into a closure's
// captured-environment cons chain.
func (e *Env) LexicalFrames() []Binding { return e.lexical.Items() }

// --- dynamic-binding shadow stack ----------------------------------------

// ShadowLen returns the current depth of the shadow stack.
func (e *Env) ShadowLen() int { return e.shadow.Len() }

// PushShadow records that sym's dynamic value was prev before being
// rebound, so RestoreShadowsTo can put it back later.
func (e *Env) PushShadow(sym, prev value.Value) { e.shadow.Push(shadowEntry{sym, prev}) }

// RestoreShadowsTo restores every shadowed dynamic value pushed since
// depth n, in reverse (most-recent-first) order, per spec.md §4.E.
func (e *Env) RestoreShadowsTo(n int) {
	for e.shadow.Len() > n {
		entry := e.shadow.Pop()
		e.vars[entry.Symbol] = entry.Prev
	}
}

// --- backtrace ------------------------------------------------------------

// FormatBacktrace renders the backtrace as the embedder-facing
// multi-line format described in spec.md §7.
func FormatBacktrace(frames []Frame, names func(value.Value) string) string {
	var sb strings.Builder
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		sb.WriteString(f.Name)
		sb.WriteByte(' ')
		sb.WriteByte('(')
		for j, a := range f.Args {
			if j != 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%s", describe(a, names))
		}
		sb.WriteString(")\n")
	}
	return sb.String()
}

func describe(v value.Value, names func(value.Value) string) string {
	switch v.Tag() {
	case value.TagInt:
		return fmt.Sprintf("%d", v.Int())
	case value.TagNil:
		return "nil"
	case value.TagTrue:
		return "t"
	case value.TagSymbol:
		if names != nil {
			return names(v)
		}
		return "#<symbol>"
	default:
		return fmt.Sprintf("#<%s>", v.Tag())
	}
}
