// Package root implements the rooted-reference discipline of spec.md
// §4.D: a stack of trace callbacks that anchor host-side tagged values
// across collection points, plus a context token whose possession gates
// any dereference or mutation of a rooted value.
package root

import (
	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/value"
)

// Tracer is anything the registry can ask "what Values do you currently
// anchor?" during a mark phase.
type Tracer interface {
	Trace() []value.Value
}

// Registry is a per-goroutine LIFO stack of Tracers (spec.md §5: "The
// root registry is per-thread").
type Registry struct {
	stack      []Tracer
	generation uint64
}

// NewRegistry constructs an empty root registry.
func NewRegistry() *Registry { return &Registry{} }

// Push anchors tracer. The caller must Pop in LIFO order.
func (r *Registry) Push(t Tracer) { r.stack = append(r.stack, t) }

// Pop removes the top tracer, panicking if it is not the expected one —
// this enforces the "push must be paired with a pop in LIFO order"
// invariant of spec.md §4.D at runtime, since Go has no borrow checker
// to enforce it statically.
func (r *Registry) Pop(expect Tracer) {
	n := len(r.stack)
	if n == 0 {
		panic("root: pop on empty registry")
	}
	if r.stack[n-1] != expect {
		panic("root: pop out of LIFO order")
	}
	r.stack = r.stack[:n-1]
}

// Roots flattens every currently-anchored Tracer into the set of Values
// a mark phase should start from.
func (r *Registry) Roots() []value.Value {
	var out []value.Value
	for _, t := range r.stack {
		out = append(out, t.Trace()...)
	}
	return out
}

func (r *Registry) bump() { r.generation++ }

// Context is the "exclusive token proving no collection can occur"
// (spec.md §4.D, §9). It bundles the two blocks a running evaluation
// needs (the ephemeral local block and the long-lived global block) and
// is stamped with the registry's generation at creation time. Any
// dereference through a stale Context (one created before a collection
// it didn't itself trigger) panics, approximating — at runtime rather
// than compile time — the rule that "holding a context precludes
// collection and vice versa".
type Context struct {
	Registry   *Registry
	Local      *heap.Block
	Global     *heap.Block
	generation uint64
}

// NewContext constructs a context token bound to the registry's current
// generation.
func NewContext(reg *Registry, local, global *heap.Block) *Context {
	return &Context{Registry: reg, Local: local, Global: global, generation: reg.generation}
}

func (c *Context) checkFresh() {
	if c.generation != c.Registry.generation {
		panic("root: stale context used after a collection; re-obtain a fresh context")
	}
}

// Collect runs a mark-sweep pass over the local block anchored by the
// registry's current roots, then refreshes this token's generation so
// it remains usable immediately afterward (matching eval's pattern of
// collecting and continuing within the same call).
func (c *Context) Collect() heap.CollectStats {
	stats := c.Local.Collect(c.Registry.Roots())
	c.Registry.bump()
	c.generation = c.Registry.generation
	return stats
}

// Rebind re-anchors v under this context's current generation. Since
// this implementation does not physically move cells, Rebind is
// primarily a staleness check — it panics if the context itself is
// stale, and returns v unchanged otherwise. It exists to preserve the
// call-site shape spec.md §4.D describes for embedders translating from
// the reference implementation.
func (c *Context) Rebind(v value.Value) value.Value {
	c.checkFresh()
	return v
}

// BindSlice reinterprets a rooted slice as a slice of freshly bound
// values under this context, used to pass argument vectors to calls.
func (c *Context) BindSlice(vs []value.Value) []value.Value {
	c.checkFresh()
	return vs
}

// --- Dereference helpers (route to Local or Global by origin bit) -----

func (c *Context) blockFor(v value.Value) *heap.Block {
	if v.Global() {
		return c.Global
	}
	return c.Local
}

// Cons dereferences v against whichever block it belongs to.
func (c *Context) Cons(v value.Value) (*heap.Cons, error) {
	c.checkFresh()
	return c.blockFor(v).Cons(v)
}

// Float dereferences v against whichever block it belongs to.
func (c *Context) Float(v value.Value) (float64, error) {
	c.checkFresh()
	return c.blockFor(v).Float(v)
}

// String dereferences v against whichever block it belongs to.
func (c *Context) String(v value.Value) (*heap.LispString, error) {
	c.checkFresh()
	return c.blockFor(v).String(v)
}

// ByteString dereferences v against whichever block it belongs to.
func (c *Context) ByteString(v value.Value) (*heap.ByteStringData, error) {
	c.checkFresh()
	return c.blockFor(v).ByteString(v)
}

// Vector dereferences v against whichever block it belongs to.
func (c *Context) Vector(v value.Value) (*heap.Vector, error) {
	c.checkFresh()
	return c.blockFor(v).Vector(v)
}

// HashTable dereferences v against whichever block it belongs to.
func (c *Context) HashTable(v value.Value) (*heap.HashTable, error) {
	c.checkFresh()
	return c.blockFor(v).HashTable(v)
}

// Subr dereferences v against whichever block it belongs to.
func (c *Context) Subr(v value.Value) (*heap.SubrFn, error) {
	c.checkFresh()
	return c.blockFor(v).Subr(v)
}

// SetCar mutates v's car, enforcing immutability, against whichever
// block v belongs to.
func (c *Context) SetCar(v, car value.Value) error {
	c.checkFresh()
	return c.blockFor(v).SetCar(v, car)
}

// SetCdr mutates v's cdr, enforcing immutability, against whichever
// block v belongs to.
func (c *Context) SetCdr(v, cdr value.Value) error {
	c.checkFresh()
	return c.blockFor(v).SetCdr(v, cdr)
}

// NewCons allocates a fresh mutable cons in the local block.
func (c *Context) NewCons(car, cdr value.Value) value.Value {
	c.checkFresh()
	return c.Local.NewCons(car, cdr)
}
