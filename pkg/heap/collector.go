package heap

import (
	log "github.com/sirupsen/logrus"

	"github.com/corelisp/corelisp/pkg/value"
)

// CollectStats summarizes one mark-sweep pass, logged at Debug level by
// Collect itself (spec.md §10 "Logging").
type CollectStats struct {
	Marked    int
	Reclaimed int
}

// Collect performs a precise, non-moving, stop-the-world mark-sweep over
// the local block, anchored by roots. Global-block values are treated as
// permanently alive (spec.md §4.C: symbols and published function bodies
// are never reclaimed) and are not traced further, which is sound
// because set_func's clone-into-global step guarantees a global cell
// never points back into a local block.
//
// The mark stack is explicit (not host-stack recursion) to bound stack
// usage, per spec.md §4.B.
func (b *Block) Collect(roots []value.Value) CollectStats {
	if b.global {
		return CollectStats{}
	}

	var stack []value.Value
	stack = append(stack, roots...)
	marked := 0

	push := func(v value.Value) {
		stack = append(stack, v)
	}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v.Tag() {
		case value.TagInt, value.TagNil, value.TagTrue:
			continue
		case value.TagSymbol:
			// Symbols always live in the global block and are never
			// reclaimed; nothing to mark or trace.
			continue
		}

		if v.Global() {
			// Already permanently alive; by the clone-into-global
			// invariant it cannot reference anything local.
			continue
		}

		switch v.Tag() {
		case value.TagCons:
			if !b.conses.markHandle(v.Handle()) {
				continue
			}
			marked++
			c := b.conses.get(v.Handle())
			push(c.Car)
			push(c.Cdr)
		case value.TagFloat:
			if b.floats.markHandle(v.Handle()) {
				marked++
			}
		case value.TagString:
			if b.strings.markHandle(v.Handle()) {
				marked++
			}
		case value.TagByteString:
			if b.bytes.markHandle(v.Handle()) {
				marked++
			}
		case value.TagVector:
			if !b.vectors.markHandle(v.Handle()) {
				continue
			}
			marked++
			vec := b.vectors.get(v.Handle())
			for _, e := range vec.Elements {
				push(e)
			}
		case value.TagHashTable:
			if !b.hashes.markHandle(v.Handle()) {
				continue
			}
			marked++
			h := b.hashes.get(v.Handle())
			for k, val := range h.Entries {
				push(k)
				push(val)
			}
		case value.TagSubrFn:
			if b.subrs.markHandle(v.Handle()) {
				marked++
			}
		case value.TagLispFn:
			if b.lispFns.markHandle(v.Handle()) {
				marked++
			}
		case value.TagBuffer:
			if b.buffers.markHandle(v.Handle()) {
				marked++
			}
		}
	}

	reclaimed := 0
	reclaimed += b.conses.sweep(nil)
	reclaimed += b.floats.sweep(nil)
	reclaimed += b.strings.sweep(nil)
	reclaimed += b.bytes.sweep(nil)
	reclaimed += b.vectors.sweep(nil)
	reclaimed += b.hashes.sweep(func(h *HashTable) { h.Entries = nil })
	reclaimed += b.subrs.sweep(nil)
	reclaimed += b.lispFns.sweep(nil)
	reclaimed += b.buffers.sweep(nil)

	stats := CollectStats{Marked: marked, Reclaimed: reclaimed}
	log.WithFields(log.Fields{"marked": marked, "reclaimed": reclaimed}).Debug("heap: mark-sweep collection complete")
	return stats
}
