package root

import "github.com/corelisp/corelisp/pkg/value"

// Scalar roots a single tagged value.
type Scalar struct {
	reg *Registry
	v   value.Value
}

// NewScalar roots v and pushes it onto reg. Callers must Pop it in LIFO
// order when it goes out of scope.
func NewScalar(reg *Registry, v value.Value) *Scalar {
	s := &Scalar{reg: reg, v: v}
	reg.Push(s)
	return s
}

// Trace implements Tracer.
func (s *Scalar) Trace() []value.Value { return []value.Value{s.v} }

// Get returns the rooted value.
func (s *Scalar) Get() value.Value { return s.v }

// Set rebinds the rooted slot to a new value (e.g. after a call that
// produced a fresh value the caller must now keep alive in its place).
func (s *Scalar) Set(v value.Value) { s.v = v }

// Pop removes this root from its registry; must be called in LIFO order.
func (s *Scalar) Pop() { s.reg.Pop(s) }

// Optional roots a value that may be absent.
type Optional struct {
	reg *Registry
	v   *value.Value
}

// NewOptional roots an optional value (nil means absent).
func NewOptional(reg *Registry, v *value.Value) *Optional {
	o := &Optional{reg: reg, v: v}
	reg.Push(o)
	return o
}

// Trace implements Tracer.
func (o *Optional) Trace() []value.Value {
	if o.v == nil {
		return nil
	}
	return []value.Value{*o.v}
}

// Get returns the rooted value and whether it is present.
func (o *Optional) Get() (value.Value, bool) {
	if o.v == nil {
		return value.Nil, false
	}
	return *o.v, true
}

// Pop removes this root from its registry; must be called in LIFO order.
func (o *Optional) Pop() { o.reg.Pop(o) }

// Pair roots two tagged values together, e.g. a dynamic-binding shadow
// entry (symbol . previous-value).
type Pair struct {
	reg  *Registry
	a, b value.Value
}

// NewPair roots a pair of values.
func NewPair(reg *Registry, a, b value.Value) *Pair {
	p := &Pair{reg: reg, a: a, b: b}
	reg.Push(p)
	return p
}

// Trace implements Tracer.
func (p *Pair) Trace() []value.Value { return []value.Value{p.a, p.b} }

// Get returns the rooted pair.
func (p *Pair) Get() (value.Value, value.Value) { return p.a, p.b }

// Pop removes this root from its registry; must be called in LIFO order.
func (p *Pair) Pop() { p.reg.Pop(p) }

// Slice roots a homogeneous sequence of tagged values, e.g. an
// evaluated argument vector being assembled left-to-right before a call.
type Slice struct {
	reg *Registry
	vs  []value.Value
}

// NewSlice roots a (possibly growing) slice of values.
func NewSlice(reg *Registry, vs []value.Value) *Slice {
	s := &Slice{reg: reg, vs: vs}
	reg.Push(s)
	return s
}

// Trace implements Tracer.
func (s *Slice) Trace() []value.Value { return s.vs }

// Get returns the rooted slice.
func (s *Slice) Get() []value.Value { return s.vs }

// Push appends v to the rooted slice; safe to call across collection
// points since the slice itself is being traced on every mark phase.
func (s *Slice) Push(v value.Value) { s.vs = append(s.vs, v) }

// Pop removes this root from its registry; must be called in LIFO order.
func (s *Slice) Pop() { s.reg.Pop(s) }

// Map roots a key-value mapping of tagged values (e.g. a hash table
// under construction).
type Map struct {
	reg     *Registry
	entries map[value.Value]value.Value
}

// NewMap roots a mapping.
func NewMap(reg *Registry, entries map[value.Value]value.Value) *Map {
	m := &Map{reg: reg, entries: entries}
	reg.Push(m)
	return m
}

// Trace implements Tracer.
func (m *Map) Trace() []value.Value {
	out := make([]value.Value, 0, len(m.entries)*2)
	for k, v := range m.entries {
		out = append(out, k, v)
	}
	return out
}

// Pop removes this root from its registry; must be called in LIFO order.
func (m *Map) Pop() { m.reg.Pop(m) }

// Set roots a set of tagged values.
type Set struct {
	reg     *Registry
	members map[value.Value]struct{}
}

// NewSet roots a set.
func NewSet(reg *Registry, members map[value.Value]struct{}) *Set {
	s := &Set{reg: reg, members: members}
	reg.Push(s)
	return s
}

// Trace implements Tracer.
func (s *Set) Trace() []value.Value {
	out := make([]value.Value, 0, len(s.members))
	for k := range s.members {
		out = append(out, k)
	}
	return out
}

// Pop removes this root from its registry; must be called in LIFO order.
func (s *Set) Pop() { s.reg.Pop(s) }
