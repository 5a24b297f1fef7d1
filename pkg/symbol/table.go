// Package symbol implements the process-wide interning table described
// in spec.md §4.C: a lock-guarded map from static names to symbol cells
// with mutable function slots, backed by the long-lived global heap
// block.
package symbol

import (
	"fmt"
	"sync"

	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/value"
)

// MaxIndirectionHops bounds symbol-function-slot aliasing so a circular
// alias cannot loop the evaluator forever (spec.md §9).
const MaxIndirectionHops = 256

// Symbol is an interned, identity-compared name with a mutable function
// binding. Equality is always by identity (the owning Table never
// allocates two cells for the same interned name).
type Symbol struct {
	Name    string
	Func    value.Value
	FuncSet bool
}

// Table is the process-wide symbol table. The zero value is not usable;
// construct with New.
type Table struct {
	mu      sync.Mutex
	byName  map[string]uint32
	symbols []*Symbol
	// Global is the long-lived block that interned symbols and
	// set_func-published function bodies live in.
	Global *heap.Block
}

// New constructs an empty symbol table with its own global heap block.
func New() *Table {
	return &Table{byName: map[string]uint32{}, Global: heap.NewGlobalBlock()}
}

// Intern returns the existing symbol cell for name, or creates one. Two
// calls with the same name always return pointer-equal (Eq) values,
// including across any number of collections, since symbols live in the
// global block and are never reclaimed.
func (t *Table) Intern(name string) value.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.internLocked(name)
}

func (t *Table) internLocked(name string) value.Value {
	if idx, ok := t.byName[name]; ok {
		return value.FromHandle(value.TagSymbol, true, idx)
	}
	idx := uint32(len(t.symbols))
	t.symbols = append(t.symbols, &Symbol{Name: name})
	t.byName[name] = idx
	return value.FromHandle(value.TagSymbol, true, idx)
}

// Get performs a pure lookup without creating a new symbol.
func (t *Table) Get(name string) (value.Value, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byName[name]
	if !ok {
		return value.Nil, false
	}
	return value.FromHandle(value.TagSymbol, true, idx), true
}

// PreInit bootstrap-inserts a statically known symbol (e.g. `quote`,
// `lambda`, the special-form names) before any user code runs. It fails
// if the name is already present, per spec.md §4.C.
func (t *Table) PreInit(name string) (value.Value, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[name]; ok {
		return value.Nil, fmt.Errorf("symbol: pre_init: %q already interned", name)
	}
	return t.internLocked(name), nil
}

// NewUninterned allocates a fresh symbol cell with stable identity that
// is not registered in the name table, so Intern/Get can never find it.
// Used by intern_in for reader-local uninterned symbols.
func (t *Table) NewUninterned(name string) value.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := uint32(len(t.symbols))
	t.symbols = append(t.symbols, &Symbol{Name: name})
	return value.FromHandle(value.TagSymbol, true, idx)
}

// InternIn is the bulk/local variant of intern: repeated calls with the
// same name against the same cache map return the same uninterned
// symbol, without touching the global name table. This backs the
// "uninterned-symbol cache" of spec.md §4.B, invalidated whenever
// set_func installs a new function.
func (t *Table) InternIn(cache map[string]value.Value, name string) value.Value {
	if v, ok := cache[name]; ok {
		return v
	}
	v := t.NewUninterned(name)
	cache[name] = v
	return v
}

// resolveLocked returns the Symbol cell a value.Value refers to, or nil
// if v is not a symbol value produced by this table.
func (t *Table) resolveLocked(v value.Value) *Symbol {
	if v.Tag() != value.TagSymbol || !v.Global() {
		return nil
	}
	idx := v.Handle()
	if int(idx) >= len(t.symbols) {
		return nil
	}
	return t.symbols[idx]
}

// Resolve returns the Symbol cell a value.Value refers to, or nil.
func (t *Table) Resolve(v value.Value) *Symbol {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolveLocked(v)
}

// Name returns the name of a symbol value, or "" if v is not a symbol.
func (t *Table) Name(v value.Value) string {
	if s := t.Resolve(v); s != nil {
		return s.Name
	}
	return ""
}

// SetFunc installs fn as sym's function, obeying the clone-into-global
// rule: fn's transitive cons structure is deep-copied from srcBlock into
// the table's global block and stamped read-only, guaranteeing the
// installed function outlives srcBlock and can never be mutated via
// set-car/set-cdr (spec.md §4.C).
func (t *Table) SetFunc(sym value.Value, fn value.Value, srcBlock *heap.Block) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.resolveLocked(sym)
	if s == nil {
		return fmt.Errorf("symbol: set_func: not a symbol")
	}
	cloned := heap.CloneDeep(fn, srcBlock, t.Global)
	t.Global.ClearUninternedSymbolCache()
	s.Func = cloned
	s.FuncSet = true
	return nil
}

// HasFunc reports whether sym currently has a function binding.
func (t *Table) HasFunc(sym value.Value) bool {
	s := t.Resolve(sym)
	return s != nil && s.FuncSet
}

// FuncOf returns sym's function slot.
func (t *Table) FuncOf(sym value.Value) (value.Value, bool) {
	s := t.Resolve(sym)
	if s == nil || !s.FuncSet {
		return value.Nil, false
	}
	return s.Func, true
}

// FollowIndirect resolves sym's function slot, transitively following
// symbol-to-symbol aliases, up to MaxIndirectionHops hops. Returns false
// if sym has no function, and an error if the alias chain cycles.
func (t *Table) FollowIndirect(sym value.Value) (value.Value, bool, error) {
	cur := sym
	for hops := 0; hops < MaxIndirectionHops; hops++ {
		s := t.Resolve(cur)
		if s == nil {
			return value.Nil, false, fmt.Errorf("symbol: follow_indirect: not a symbol")
		}
		if !s.FuncSet {
			return value.Nil, false, nil
		}
		if s.Func.Tag() != value.TagSymbol {
			return s.Func, true, nil
		}
		cur = s.Func
	}
	return value.Nil, false, fmt.Errorf("symbol: indirection cycle exceeded %d hops", MaxIndirectionHops)
}

// CreateBuffer allocates a buffer in the global block, per the embedder
// contract (spec.md §6).
func (t *Table) CreateBuffer(name string) value.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Global.NewBuffer(name)
}

// Names returns every currently-interned symbol name, for introspection
// tools (e.g. the "corelisp env" command). Order is unspecified.
func (t *Table) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.symbols))
	for _, s := range t.symbols {
		out = append(out, s.Name)
	}
	return out
}
