package heap

import "github.com/corelisp/corelisp/pkg/value"

// CloneDeep copies v's transitive structure from src into dst, returning
// the freshly-allocated value. It is the mechanism behind set_func's
// clone-into-global rule (spec.md §4.C): cloning guarantees the
// installed function's graph outlives any local block it was built in,
// and every cloned cons is stamped immutable so a published function
// body can never be mutated via set-car/set-cdr.
//
// Values already belonging to dst (including every symbol, which always
// lives in the global block) are returned unchanged rather than
// re-cloned.
func CloneDeep(v value.Value, src, dst *Block) value.Value {
	switch v.Tag() {
	case value.TagInt, value.TagNil, value.TagTrue, value.TagSymbol:
		return v
	}

	if v.Global() {
		// Already long-lived; nothing to copy.
		return v
	}

	switch v.Tag() {
	case value.TagCons:
		c, err := src.Cons(v)
		if err != nil {
			return v
		}
		car := CloneDeep(c.Car, src, dst)
		cdr := CloneDeep(c.Cdr, src, dst)
		return dst.NewImmutableCons(car, cdr)
	case value.TagFloat:
		f, err := src.Float(v)
		if err != nil {
			return v
		}
		return dst.NewFloat(f)
	case value.TagString:
		s, err := src.String(v)
		if err != nil {
			return v
		}
		return dst.NewString(string(s.Runes))
	case value.TagByteString:
		s, err := src.ByteString(v)
		if err != nil {
			return v
		}
		cp := make([]byte, len(s.Bytes))
		copy(cp, s.Bytes)
		return dst.NewByteString(cp)
	case value.TagVector:
		vec, err := src.Vector(v)
		if err != nil {
			return v
		}
		elems := make([]value.Value, len(vec.Elements))
		for i, e := range vec.Elements {
			elems[i] = CloneDeep(e, src, dst)
		}
		return dst.NewVector(elems)
	default:
		// SubrFn/LispFn/HashTable/Buffer are not expected inside a
		// lambda body graph; pass through unchanged rather than
		// guessing at deep-copy semantics for them.
		return v
	}
}

// ClearUninternedSymbolCache invalidates the block's uninterned-symbol
// cache, as set_func must do on every install (spec.md §4.C).
func (b *Block) ClearUninternedSymbolCache() {
	for k := range b.UninternedSymbolCache {
		delete(b.UninternedSymbolCache, k)
	}
}
