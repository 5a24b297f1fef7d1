package heap

import "github.com/corelisp/corelisp/pkg/value"

// Cons is a two-slot cell. Lists are right-nested chains terminated by
// value.Nil. The Mutable flag backs the "immutable-cons" invariant: a
// cons cloned into the global block by set_func is stamped immutable so
// that set-car/set-cdr on a published function body fails.
type Cons struct {
	Car, Cdr value.Value
	Mutable  bool
}

// LispString holds a UTF-8 sequence; Len is counted in code points, not
// bytes, per spec.md §3.
type LispString struct {
	Runes []rune
}

func (s *LispString) String() string { return string(s.Runes) }

// Len returns the code-point length.
func (s *LispString) Len() int { return len(s.Runes) }

// ByteStringData is an opaque byte vector whose display escapes
// non-ASCII bytes as octal \ooo.
type ByteStringData struct {
	Bytes []byte
}

// Vector is a fixed-size homogeneous-in-kind sequence of tagged values.
type Vector struct {
	Elements []value.Value
}

// HashTable is a mutable key/value mapping keyed by Eq identity. Richer
// key semantics (eql/equal hashing) are not needed by the core evaluator
// and are left to the (out-of-scope) built-in registry.
type HashTable struct {
	Entries map[value.Value]value.Value
}

// NativeFn is the shape of a host-provided built-in. It receives the
// already-evaluated argument vector and the heap block the call is
// executing against (for allocating results); it does not depend on the
// evaluator or root-registry packages so that heap has no import cycle
// back to them.
type NativeFn func(args []value.Value, blk *Block) (value.Value, error)

// SubrFn is a native function value plus its arity descriptor.
type SubrFn struct {
	Name     string
	Min, Max int // Max < 0 means unbounded (implies Variadic)
	Variadic bool
	Fn       NativeFn
}

// LispFn is reserved for a pre-compiled interpreted function
// representation. The evaluator's call protocol never dispatches to it
// directly (interpreted closures use the `(closure env args . body)`
// cons shape instead, per spec.md §4.F) — this mirrors the reference
// dialect, which carries the tag but never constructs it.
type LispFn struct {
	Name string
}

// Buffer is a named editing buffer. Only identity and name matter to the
// core; buffer contents are an external-collaborator concern.
type Buffer struct {
	Name string
}
