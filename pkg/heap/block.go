package heap

import (
	"fmt"

	"github.com/corelisp/corelisp/pkg/value"
)

// DefaultCellBudget is the number of live cells (summed across every
// arena) at which OverBudget starts reporting true (spec.md §4.B
// "Trigger"). Allocation itself never checks the budget or collects;
// collections happen only when Collect is called.
const DefaultCellBudget = 1 << 20

// Block is a non-moving heap arena: one per evaluation (the "local"
// block) plus exactly one long-lived instance owned by the symbol table
// (the "global" block used for interned symbols and published function
// bodies, spec.md §4.C).
type Block struct {
	global bool
	budget int

	conses  arena[Cons]
	floats  arena[float64]
	strings arena[LispString]
	bytes   arena[ByteStringData]
	vectors arena[Vector]
	hashes  arena[HashTable]
	subrs   arena[SubrFn]
	lispFns arena[LispFn]
	buffers arena[Buffer]

	// UninternedSymbolCache is invalidated whenever a function is
	// installed via set_func (spec.md §4.C).
	UninternedSymbolCache map[string]value.Value
}

// NewBlock constructs a fresh local (collectable) heap block.
func NewBlock() *Block {
	return &Block{budget: DefaultCellBudget, UninternedSymbolCache: map[string]value.Value{}}
}

// NewGlobalBlock constructs the long-lived, append-mostly block owned by
// the symbol table. It is never swept (spec.md §5 "global heap block is
// mutated only by the holder of the symbol-table lock").
func NewGlobalBlock() *Block {
	return &Block{global: true, budget: 0, UninternedSymbolCache: map[string]value.Value{}}
}

// IsGlobal reports whether this is the symbol table's long-lived block.
func (b *Block) IsGlobal() bool { return b.global }

// wrap turns a bare arena handle into a tagged Value carrying this
// block's origin bit.
func (b *Block) wrap(tag value.Tag, handle uint32) value.Value {
	return value.FromHandle(tag, b.global, handle)
}

// checkOrigin rejects a Value that does not belong to this block, since
// a handle is only meaningful relative to the block that allocated it.
func (b *Block) checkOrigin(v value.Value) bool { return v.Global() == b.global }

// LiveCount returns the number of live cells across every arena, used to
// decide whether an allocation should trigger a collection.
func (b *Block) LiveCount() int {
	return b.conses.count() + b.floats.count() + b.strings.count() + b.bytes.count() +
		b.vectors.count() + b.hashes.count() + b.subrs.count() + b.lispFns.count() + b.buffers.count()
}

// OverBudget reports whether the next allocation may need a collection
// first (spec.md §4.B "Collection is also permitted when any allocation
// would exceed a block budget"). The global block has no budget.
func (b *Block) OverBudget() bool {
	return !b.global && b.budget > 0 && b.LiveCount() >= b.budget

}

// --- Cons -----------------------------------------------------------------

// NewCons allocates a mutable cons cell.
func (b *Block) NewCons(car, cdr value.Value) value.Value {
	h := b.conses.alloc(Cons{Car: car, Cdr: cdr, Mutable: true})
	return b.wrap(value.TagCons, h)
}

// NewImmutableCons allocates a cons cell that rejects set-car/set-cdr.
// Used by set_func to publish read-only function bodies.
func (b *Block) NewImmutableCons(car, cdr value.Value) value.Value {
	h := b.conses.alloc(Cons{Car: car, Cdr: cdr, Mutable: false})
	return b.wrap(value.TagCons, h)
}

// ErrWrongBlock reports that a Value's origin bit does not match the
// block it was dereferenced against.
var ErrWrongBlock = fmt.Errorf("heap: value does not belong to this block")

// ErrImmutableCons is returned by SetCar/SetCdr on a read-only cons.
var ErrImmutableCons = fmt.Errorf("immutable-cons")

// Cons dereferences a TagCons value against this block.
func (b *Block) Cons(v value.Value) (*Cons, error) {
	if v.Tag() != value.TagCons {
		return nil, fmt.Errorf("heap: expected cons, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return nil, ErrWrongBlock
	}
	c := b.conses.get(v.Handle())
	if c == nil {
		return nil, fmt.Errorf("heap: stale cons handle")
	}
	return c, nil
}

// SetCar mutates a cons's car, enforcing the immutability invariant.
func (b *Block) SetCar(v, newCar value.Value) error {
	c, err := b.Cons(v)
	if err != nil {
		return err
	}
	if !c.Mutable {
		return ErrImmutableCons
	}
	c.Car = newCar
	return nil
}

// SetCdr mutates a cons's cdr, enforcing the immutability invariant.
func (b *Block) SetCdr(v, newCdr value.Value) error {
	c, err := b.Cons(v)
	if err != nil {
		return err
	}
	if !c.Mutable {
		return ErrImmutableCons
	}
	c.Cdr = newCdr
	return nil
}

// --- Float ------------------------------------------------------------

// NewFloat boxes a float64.
func (b *Block) NewFloat(f float64) value.Value {
	h := b.floats.alloc(f)
	return b.wrap(value.TagFloat, h)
}

// Float dereferences a TagFloat value against this block.
func (b *Block) Float(v value.Value) (float64, error) {
	if v.Tag() != value.TagFloat {
		return 0, fmt.Errorf("heap: expected float, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return 0, ErrWrongBlock
	}
	f := b.floats.get(v.Handle())
	if f == nil {
		return 0, fmt.Errorf("heap: stale float handle")
	}
	return *f, nil
}

// --- String -------------------------------------------------------------

// NewString allocates a UTF-8 string cell.
func (b *Block) NewString(s string) value.Value {
	h := b.strings.alloc(LispString{Runes: []rune(s)})
	return b.wrap(value.TagString, h)
}

// String dereferences a TagString value against this block.
func (b *Block) String(v value.Value) (*LispString, error) {
	if v.Tag() != value.TagString {
		return nil, fmt.Errorf("heap: expected string, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return nil, ErrWrongBlock
	}
	s := b.strings.get(v.Handle())
	if s == nil {
		return nil, fmt.Errorf("heap: stale string handle")
	}
	return s, nil
}

// --- ByteString -----------------------------------------------------------

// NewByteString allocates an opaque byte-vector cell.
func (b *Block) NewByteString(data []byte) value.Value {
	h := b.bytes.alloc(ByteStringData{Bytes: data})
	return b.wrap(value.TagByteString, h)
}

// ByteString dereferences a TagByteString value against this block.
func (b *Block) ByteString(v value.Value) (*ByteStringData, error) {
	if v.Tag() != value.TagByteString {
		return nil, fmt.Errorf("heap: expected byte-string, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return nil, ErrWrongBlock
	}
	s := b.bytes.get(v.Handle())
	if s == nil {
		return nil, fmt.Errorf("heap: stale byte-string handle")
	}
	return s, nil
}

// --- Vector -----------------------------------------------------------

// NewVector allocates a vector cell.
func (b *Block) NewVector(elems []value.Value) value.Value {
	h := b.vectors.alloc(Vector{Elements: elems})
	return b.wrap(value.TagVector, h)
}

// Vector dereferences a TagVector value against this block.
func (b *Block) Vector(v value.Value) (*Vector, error) {
	if v.Tag() != value.TagVector {
		return nil, fmt.Errorf("heap: expected vector, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return nil, ErrWrongBlock
	}
	vec := b.vectors.get(v.Handle())
	if vec == nil {
		return nil, fmt.Errorf("heap: stale vector handle")
	}
	return vec, nil
}

// --- HashTable --------------------------------------------------------

// NewHashTable allocates an empty hash table.
func (b *Block) NewHashTable() value.Value {
	h := b.hashes.alloc(HashTable{Entries: map[value.Value]value.Value{}})
	return b.wrap(value.TagHashTable, h)
}

// HashTable dereferences a TagHashTable value against this block.
func (b *Block) HashTable(v value.Value) (*HashTable, error) {
	if v.Tag() != value.TagHashTable {
		return nil, fmt.Errorf("heap: expected hash-table, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return nil, ErrWrongBlock
	}
	h := b.hashes.get(v.Handle())
	if h == nil {
		return nil, fmt.Errorf("heap: stale hash-table handle")
	}
	return h, nil
}

// --- SubrFn -------------------------------------------------------------

// NewSubr allocates a native function value.
func (b *Block) NewSubr(s SubrFn) value.Value {
	h := b.subrs.alloc(s)
	return b.wrap(value.TagSubrFn, h)
}

// Subr dereferences a TagSubrFn value against this block.
func (b *Block) Subr(v value.Value) (*SubrFn, error) {
	if v.Tag() != value.TagSubrFn {
		return nil, fmt.Errorf("heap: expected subr, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return nil, ErrWrongBlock
	}
	s := b.subrs.get(v.Handle())
	if s == nil {
		return nil, fmt.Errorf("heap: stale subr handle")
	}
	return s, nil
}

// --- LispFn (reserved, see doc comment on the LispFn type) -------------

// NewLispFn allocates a reserved interpreted-function descriptor. Never
// produced by the evaluator itself today; kept so the tag is inhabited.
func (b *Block) NewLispFn(l LispFn) value.Value {
	h := b.lispFns.alloc(l)
	return b.wrap(value.TagLispFn, h)
}

// LispFn dereferences a TagLispFn value against this block.
func (b *Block) LispFn(v value.Value) (*LispFn, error) {
	if v.Tag() != value.TagLispFn {
		return nil, fmt.Errorf("heap: expected lisp-fn, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return nil, ErrWrongBlock
	}
	l := b.lispFns.get(v.Handle())
	if l == nil {
		return nil, fmt.Errorf("heap: stale lisp-fn handle")
	}
	return l, nil
}

// --- Buffer -------------------------------------------------------------

// NewBuffer allocates a named buffer in this block (embedder contract:
// create_buffer always targets the global block).
func (b *Block) NewBuffer(name string) value.Value {
	h := b.buffers.alloc(Buffer{Name: name})
	return b.wrap(value.TagBuffer, h)
}

// Buffer dereferences a TagBuffer value against this block.
func (b *Block) Buffer(v value.Value) (*Buffer, error) {
	if v.Tag() != value.TagBuffer {
		return nil, fmt.Errorf("heap: expected buffer, got %s", v.Tag())
	}
	if !b.checkOrigin(v) {
		return nil, ErrWrongBlock
	}
	buf := b.buffers.get(v.Handle())
	if buf == nil {
		return nil, fmt.Errorf("heap: stale buffer handle")
	}
	return buf, nil
}
