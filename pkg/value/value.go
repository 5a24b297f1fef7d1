// Package value implements the tagged object representation shared by
// every other package in corelisp: a pointer-sized word that is either an
// immediate (integer, nil, true) or a handle into a heap block's typed
// arena, selected by a low-bit tag.
//
// Tagging is reversible without branching beyond a mask-and-compare: the
// low 4 bits of a Value are always the Tag, so Tag() is a single AND.
package value

import "fmt"

// Tag identifies which variant a Value holds.
type Tag uint8

// The tag space. Nil and True are distinguished immediates; Int is the
// only tag whose remaining 60 bits are a payload rather than a handle.
const (
	TagInt Tag = iota
	TagFloat
	TagCons
	TagSymbol
	TagString
	TagByteString
	TagVector
	TagHashTable
	TagSubrFn
	TagLispFn
	TagBuffer
	TagNil
	TagTrue
)

func (t Tag) String() string {
	switch t {
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagCons:
		return "cons"
	case TagSymbol:
		return "symbol"
	case TagString:
		return "string"
	case TagByteString:
		return "bytestring"
	case TagVector:
		return "vector"
	case TagHashTable:
		return "hash-table"
	case TagSubrFn:
		return "subr"
	case TagLispFn:
		return "lisp-fn"
	case TagBuffer:
		return "buffer"
	case TagNil:
		return "nil"
	case TagTrue:
		return "t"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

const (
	tagBits  = 4
	tagMask  = uint64(1)<<tagBits - 1
	originBit = uint64(1) << tagBits
	handleShift = tagBits + 1
)

// Value is the uniform pointer-sized tagged word. The zero Value is the
// integer 0 (TagInt is 0); Nil is the separate immediate below.
type Value uint64

// Nil is the distinguished empty-list/false immediate.
var Nil = Value(TagNil)

// True is the distinguished canonical non-nil boolean immediate.
var True = Value(TagTrue)

// Tag extracts the tag kind with a single mask, no branching.
func (v Value) Tag() Tag { return Tag(uint64(v) & tagMask) }

// IsNil reports whether v is the Nil immediate (the only false-like value).
func (v Value) IsNil() bool { return v == Nil }

// FromInt builds an immediate integer value. Overflow beyond the 60-bit
// usable width is truncated silently, matching the reference dialect's
// native two's-complement wraparound (spec.md §4.A, §9).
func FromInt(i int64) Value {
	return Value(uint64(i)<<tagBits | uint64(TagInt))
}

// Int extracts the payload of an Int-tagged value. Undefined (panics) if
// the tag does not match; callers must check Tag() first.
func (v Value) Int() int64 {
	if v.Tag() != TagInt {
		panic(fmt.Sprintf("value: Int() on non-int tag %s", v.Tag()))
	}
	// Arithmetic right shift sign-extends the 60-bit immediate.
	return int64(v) >> tagBits
}

// FromHandle builds a heap-resident value referring to slot `handle`
// within either the local block (global=false) or the global block
// (global=true) of whatever heap.Block pair resolves it.
func FromHandle(tag Tag, global bool, handle uint32) Value {
	if tag == TagInt || tag == TagNil || tag == TagTrue {
		panic("value: FromHandle used with an immediate tag")
	}
	var g uint64
	if global {
		g = 1
	}
	return Value(uint64(handle)<<handleShift | g<<tagBits | uint64(tag))
}

// Global reports whether a heap-resident value's handle lives in the
// global block rather than the local one. Undefined for immediate tags.
func (v Value) Global() bool {
	return (uint64(v)>>tagBits)&1 == 1
}

// Handle extracts the heap-slot index of a heap-resident value. Undefined
// for immediate tags.
func (v Value) Handle() uint32 {
	return uint32(uint64(v) >> handleShift)
}

// Eq is identity equality: pointer-equality for heap tags (same tag, same
// origin, same handle) and value-equality for immediates.
func Eq(a, b Value) bool { return a == b }

// Eql is like Eq, but additionally compares boxed floats by value rather
// than by identity (two distinct Float cells holding the same bit pattern
// are `eql` but not `eq`). The caller supplies the float lookup since a
// Value alone cannot deref itself.
func Eql(a, b Value, floatOf func(Value) (float64, bool)) bool {
	if a == b {
		return true
	}
	if a.Tag() != TagFloat || b.Tag() != TagFloat {
		return false
	}
	fa, ok1 := floatOf(a)
	fb, ok2 := floatOf(b)
	return ok1 && ok2 && fa == fb
}
